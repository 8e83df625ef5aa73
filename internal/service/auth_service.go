package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"freightdesk/internal/model"
	"freightdesk/internal/repository"
	"freightdesk/pkg/apierror"
)

// LoginResult is the body of a successful login.
type LoginResult struct {
	Token string       `json:"token"`
	User  model.Record `json:"user"`
}

type AuthService struct {
	store     repository.Store
	records   *RecordService
	jwtSecret []byte
	ttl       time.Duration
	now       func() time.Time

	mu      sync.Mutex
	revoked map[string]time.Time
}

func NewAuthService(store repository.Store, records *RecordService, jwtSecret string, ttl time.Duration) (*AuthService, error) {
	if strings.TrimSpace(jwtSecret) == "" {
		return nil, errors.New("jwt secret is required")
	}

	return &AuthService{
		store:     store,
		records:   records,
		jwtSecret: []byte(jwtSecret),
		ttl:       ttl,
		now:       func() time.Time { return time.Now().UTC() },
		revoked:   map[string]time.Time{},
	}, nil
}

func invalidCredentials() error {
	return apierror.New("UNAUTHORIZED", "Invalid email or password", "", http.StatusUnauthorized)
}

func (s *AuthService) Login(ctx context.Context, email string, password string) (LoginResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return LoginResult{}, apierror.BadRequest("Email and password are required", "")
	}

	user, err := s.store.FindBy(ctx, model.CollectionUsers, fieldEmail, email)
	if err != nil {
		var apiErr *apierror.APIError
		if errors.As(err, &apiErr) && apiErr.HTTPStatus == http.StatusNotFound {
			return LoginResult{}, invalidCredentials()
		}
		return LoginResult{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.String(fieldPasswordHash)), []byte(password)); err != nil {
		return LoginResult{}, invalidCredentials()
	}

	if active, ok := user[fieldIsActive].(bool); ok && !active {
		return LoginResult{}, apierror.New("FORBIDDEN", "Account is disabled", "", http.StatusForbidden)
	}

	token, err := s.signToken(user)
	if err != nil {
		return LoginResult{}, err
	}

	return LoginResult{Token: token, User: public(user)}, nil
}

func (s *AuthService) signToken(user model.Record) (string, error) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   user.ID(),
		"email": user.String(fieldEmail),
		"role":  user.String("role"),
		"jti":   uuid.NewString(),
		"iat":   now.Unix(),
		"exp":   now.Add(s.ttl).Unix(),
	})
	return token.SignedString(s.jwtSecret)
}

func (s *AuthService) ValidateToken(tokenString string) (*model.AuthClaims, error) {
	parsed, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, apierror.Unauthorized("invalid token signing method")
		}
		return s.jwtSecret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !parsed.Valid {
		return nil, apierror.Unauthorized("Invalid or expired token")
	}

	claimsMap, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, apierror.Unauthorized("invalid token claims")
	}

	claims := &model.AuthClaims{}
	claims.UserID, _ = claimsMap["sub"].(string)
	claims.Email, _ = claimsMap["email"].(string)
	claims.Role, _ = claimsMap["role"].(string)
	jti, _ := claimsMap["jti"].(string)

	if claims.UserID == "" {
		return nil, apierror.Unauthorized("invalid token subject")
	}

	s.mu.Lock()
	_, revoked := s.revoked[jti]
	s.mu.Unlock()
	if revoked {
		return nil, apierror.Unauthorized("Session has ended")
	}

	return claims, nil
}

// Logout revokes the token until it would have expired anyway.
func (s *AuthService) Logout(tokenString string) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return
	}

	jti, _ := claims["jti"].(string)
	if jti == "" {
		return
	}
	exp, err := claims.GetExpirationTime()
	expiresAt := s.now().Add(s.ttl)
	if err == nil && exp != nil {
		expiresAt = exp.Time
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.revoked[jti] = expiresAt
	now := s.now()
	for id, until := range s.revoked {
		if until.Before(now) {
			delete(s.revoked, id)
		}
	}
}

func (s *AuthService) Me(ctx context.Context, userID string) (model.Record, error) {
	return s.records.Get(ctx, model.CollectionUsers, userID)
}

// EnsureAdmin creates the administrator account when no user holds email.
func (s *AuthService) EnsureAdmin(ctx context.Context, email string, password string) error {
	if _, err := s.store.FindBy(ctx, model.CollectionUsers, fieldEmail, email); err == nil {
		return nil
	}

	_, err := s.records.Create(ctx, model.CollectionUsers, model.Record{
		"firstName":   "System",
		"lastName":    "Administrator",
		fieldEmail:    email,
		"role":        "admin",
		fieldPassword: password,
		fieldConfirm:  password,
		fieldIsActive: true,
	})
	return err
}
