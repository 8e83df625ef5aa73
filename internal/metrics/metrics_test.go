package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResourceOf(t *testing.T) {
	assert.Equal(t, "loads", ResourceOf("/loads/123/refresh-age"))
	assert.Equal(t, "carriers", ResourceOf("carriers?page=1"))
	assert.Equal(t, "root", ResourceOf("/"))
}

func TestObserveClientRequest(t *testing.T) {
	before := testutil.ToFloat64(ClientRequests().WithLabelValues(http.MethodGet, "quotes", OutcomeSuccess))

	ObserveClientRequest(http.MethodGet, "/quotes?page=1", OutcomeSuccess, 20*time.Millisecond)

	after := testutil.ToFloat64(ClientRequests().WithLabelValues(http.MethodGet, "quotes", OutcomeSuccess))
	assert.Equal(t, before+1, after)
}

func TestInstrumentHandler_UsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(InstrumentHandler)
	r.Get("/api/v1/loads/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	r.Get("/metrics", Handler().ServeHTTP)

	before := testutil.ToFloat64(httpRequests.WithLabelValues(http.MethodGet, "/api/v1/loads/{id}", "418"))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/loads/abc", nil))
	require.Equal(t, http.StatusTeapot, rec.Code)

	after := testutil.ToFloat64(httpRequests.WithLabelValues(http.MethodGet, "/api/v1/loads/{id}", "418"))
	assert.Equal(t, before+1, after)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "freightdesk_sandbox_requests_total")
}
