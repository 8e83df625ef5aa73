package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"freightdesk/internal/model"
)

type recordingAudit struct {
	entries []model.AuditEntry
}

func (r *recordingAudit) Log(entry model.AuditEntry) {
	r.entries = append(r.entries, entry)
}

func TestAudit(t *testing.T) {
	t.Parallel()

	log := &recordingAudit{}
	auth := NewAuthMiddleware(&stubValidator{claims: &model.AuthClaims{UserID: "u-7", Email: "ops@freightdesk.local", Role: "dispatcher"}})

	r := chi.NewRouter()
	r.Use(auth.RequireAuth)
	r.With(Audit(log, "", model.AuditUpdate)).Put("/{collection}/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.With(Audit(log, model.CollectionRoles, model.AuditDelete), auth.RequireRoles("admin")).Delete("/roles/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	send := func(method string, path string) int {
		req := httptest.NewRequest(method, path, nil)
		req.Header.Set("Authorization", "Bearer token")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec.Code
	}

	require.Equal(t, http.StatusOK, send(http.MethodPut, "/carriers/c-1"))
	require.Equal(t, http.StatusForbidden, send(http.MethodDelete, "/roles/r-1"))
	require.Len(t, log.entries, 2)

	updated := log.entries[0]
	assert.Equal(t, model.AuditUpdate, updated.Action)
	assert.Equal(t, model.CollectionCarriers, updated.Collection)
	assert.Equal(t, "c-1", updated.RecordID)
	assert.Equal(t, "u-7", updated.ActorID)
	assert.Equal(t, model.AuditSuccess, updated.Status)
	assert.NotEmpty(t, updated.ID)
	assert.False(t, updated.OccurredAt.IsZero())

	denied := log.entries[1]
	assert.Equal(t, model.CollectionRoles, denied.Collection)
	assert.Equal(t, model.AuditFailure, denied.Status)
	assert.Equal(t, http.StatusForbidden, denied.StatusCode)
	assert.Equal(t, "You do not have permission to perform this action", denied.Error)
}
