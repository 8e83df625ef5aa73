package middleware

import (
	"context"
	"net/http"
	"strings"

	"freightdesk/internal/model"
)

type tokenValidator interface {
	ValidateToken(tokenString string) (*model.AuthClaims, error)
}

type contextKey string

const (
	authClaimsContextKey contextKey = "auth_claims"
	authTokenContextKey  contextKey = "auth_token"
)

type AuthMiddleware struct {
	validator tokenValidator
}

func NewAuthMiddleware(validator tokenValidator) *AuthMiddleware {
	return &AuthMiddleware{validator: validator}
}

func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			writeUnauthorized(w, "UNAUTHORIZED", "Authentication required")
			return
		}

		claims, err := m.validator.ValidateToken(token)
		if err != nil {
			writeUnauthorized(w, "UNAUTHORIZED", "Session expired, please sign in again")
			return
		}

		ctx := context.WithValue(r.Context(), authClaimsContextKey, claims)
		ctx = context.WithValue(ctx, authTokenContextKey, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRoles rejects callers whose role is not listed. Role names compare
// case-insensitively.
func (m *AuthMiddleware) RequireRoles(allowedRoles ...string) func(http.Handler) http.Handler {
	roleSet := map[string]struct{}{}
	for _, role := range allowedRoles {
		roleSet[strings.ToLower(strings.TrimSpace(role))] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				writeUnauthorized(w, "UNAUTHORIZED", "Authentication required")
				return
			}

			if _, exists := roleSet[strings.ToLower(claims.Role)]; !exists {
				writeUnauthorized(w, "FORBIDDEN", "You do not have permission to perform this action")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return "", false
	}

	token := strings.TrimSpace(header[7:])
	return token, token != ""
}

func ClaimsFromContext(ctx context.Context) (*model.AuthClaims, bool) {
	claims, ok := ctx.Value(authClaimsContextKey).(*model.AuthClaims)
	return claims, ok
}

// TokenFromContext returns the bearer token that authenticated the request.
func TokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(authTokenContextKey).(string)
	return token
}

func writeUnauthorized(w http.ResponseWriter, code string, message string) {
	status := http.StatusUnauthorized
	if code == "FORBIDDEN" {
		status = http.StatusForbidden
	}
	writeJSON(w, status, model.ErrorResponse(code, message))
}
