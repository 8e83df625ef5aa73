package middleware

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"freightdesk/internal/model"
)

type AuditLog interface {
	Log(entry model.AuditEntry)
}

// Audit records every attempt of a write route, including the ones a later
// middleware rejects. An empty collection is read from the route.
func Audit(log AuditLog, collection string, action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			wrapped := &responseWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			entry := model.AuditEntry{
				ID:         uuid.NewString(),
				Action:     action,
				Collection: collection,
				RecordID:   chi.URLParam(r, "id"),
				Status:     model.AuditSuccess,
				StatusCode: wrapped.status,
				OccurredAt: time.Now().UTC(),
			}
			if entry.Collection == "" {
				entry.Collection = chi.URLParam(r, "collection")
			}
			if claims, ok := ClaimsFromContext(r.Context()); ok {
				entry.ActorID = claims.UserID
				entry.ActorEmail = claims.Email
				entry.ActorRole = claims.Role
			}

			if wrapped.status >= 400 {
				entry.Status = model.AuditFailure
				var parsed errorBody
				if err := json.Unmarshal(wrapped.body.Bytes(), &parsed); err == nil {
					entry.Error = parsed.Message
				}
			}

			log.Log(entry)
		})
	}
}
