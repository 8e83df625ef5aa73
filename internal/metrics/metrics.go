package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds every freightdesk collector.
	Registry = prometheus.NewRegistry()

	clientRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "freightdesk",
			Subsystem: "client",
			Name:      "requests_total",
			Help:      "Total number of backend calls made by the client, by outcome.",
		},
		[]string{"method", "resource", "outcome"},
	)

	clientDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "freightdesk",
			Subsystem: "client",
			Name:      "request_duration_seconds",
			Help:      "Duration of backend calls made by the client.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "resource"},
	)

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "freightdesk",
			Subsystem: "sandbox",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight sandbox HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "freightdesk",
			Subsystem: "sandbox",
			Name:      "requests_total",
			Help:      "Total number of sandbox HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "freightdesk",
			Subsystem: "sandbox",
			Name:      "request_duration_seconds",
			Help:      "Duration of sandbox HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"method", "route"},
	)
)

func init() {
	Registry.MustRegister(
		clientRequests,
		clientDuration,
		httpInFlight,
		httpRequests,
		httpDuration,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

const (
	OutcomeSuccess   = "success"
	OutcomeHTTPError = "http_error"
	OutcomeNetwork   = "network_error"
)

// ObserveClientRequest records one backend call. resource is the first path
// segment so label cardinality stays bounded.
func ObserveClientRequest(method string, path string, outcome string, elapsed time.Duration) {
	resource := ResourceOf(path)
	clientRequests.WithLabelValues(method, resource, outcome).Inc()
	clientDuration.WithLabelValues(method, resource).Observe(elapsed.Seconds())
}

// ClientRequests exposes the request counter to tests.
func ClientRequests() *prometheus.CounterVec {
	return clientRequests
}

func ResourceOf(path string) string {
	trimmed := strings.Trim(path, "/")
	if i := strings.IndexAny(trimmed, "/?"); i >= 0 {
		trimmed = trimmed[:i]
	}
	if trimmed == "" {
		return "root"
	}
	return trimmed
}

// Handler returns an HTTP handler exposing the registered metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// InstrumentHandler records sandbox request metrics labelled by chi route pattern.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		httpInFlight.Inc()
		defer httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}

		httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
