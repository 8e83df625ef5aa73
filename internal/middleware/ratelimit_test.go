package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"freightdesk/internal/model"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimitMiddleware_DisabledGeneral(t *testing.T) {
	handler := NewRateLimitMiddleware(-1, 1).Handler(okHandler())

	for i := 0; i < 10; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/loads", nil))
		require.Equal(t, http.StatusOK, rec.Code, "request %d", i)
	}
}

func TestRateLimitMiddleware_LimitedAuth(t *testing.T) {
	handler := NewRateLimitMiddleware(-1, 1).Handler(okHandler())

	rec1 := httptest.NewRecorder()
	handler.ServeHTTP(rec1, httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil))
	assert.Equal(t, http.StatusOK, rec1.Code)

	// burst is 1, so the immediate retry is rejected
	rec2 := httptest.NewRecorder()
	handler.ServeHTTP(rec2, httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec2.Code)
	assert.Equal(t, "60", rec2.Header().Get("Retry-After"))

	var body model.APIResponse
	require.NoError(t, json.Unmarshal(rec2.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, "Too many requests, please slow down", body.Message)
	assert.Equal(t, "RATE_LIMITED", body.Error.Code)

	// a different client has its own bucket
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	rec3 := httptest.NewRecorder()
	handler.ServeHTTP(rec3, req)
	assert.Equal(t, http.StatusOK, rec3.Code)
}

func TestRateLimitMiddleware_Defaults(t *testing.T) {
	mw := NewRateLimitMiddleware(0, 0)
	assert.Equal(t, defaultGeneralRPM, mw.generalRPM)
	assert.Equal(t, defaultAuthRPM, mw.authRPM)

	mw = NewRateLimitMiddleware(-1, 5)
	assert.Equal(t, -1, mw.generalRPM)
	assert.Equal(t, 5, mw.authRPM)
}

func TestExtractClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "198.51.100.7:52311"
	assert.Equal(t, "198.51.100.7", extractClientIP(req))

	req.Header.Set("X-Real-IP", "192.0.2.4")
	assert.Equal(t, "192.0.2.4", extractClientIP(req))
}
