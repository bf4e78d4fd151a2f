package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "macrofx",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests by method, path, and status code.",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "macrofx",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds.",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	}, []string{"method", "path"})

	httpRequestsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "macrofx",
		Subsystem: "http",
		Name:      "requests_in_flight",
		Help:      "Number of HTTP requests currently being processed.",
	})

	RateLimitRejections = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "macrofx",
		Name:      "ratelimit_rejections_total",
		Help:      "Total requests rejected by the rate limiter.",
	})

	DuplicateRejections = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "macrofx",
		Name:      "idempotency_rejections_total",
		Help:      "Total requests rejected for reusing an idempotency key.",
	})
)

// knownPaths are reported as-is; anything else is "/other" to bound cardinality.
var knownPaths = map[string]bool{
	"/":                true,
	"/health":          true,
	"/health/ready":    true,
	"/version":         true,
	"/metrics":         true,
	"/openapi.yaml":    true,
	"/docs":            true,
	"/time":            true,
	"/echo":            true,
	"/ext":             true,
	"/.well-known/hal": true,
	"/forms":           true,
	"/admin":           true,
	"/quota":           true,
	"/tasks":           true,
}

// NormalizePath bounds label and span-name cardinality: known routes are
// kept and everything else becomes "/other".
func NormalizePath(path string) string {
	if knownPaths[path] {
		return path
	}
	return "/other"
}

// Metrics returns middleware that records Prometheus metrics for every request.
func Metrics() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			path := NormalizePath(r.URL.Path)

			httpRequestsInFlight.Inc()
			defer httpRequestsInFlight.Dec()

			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)

			status := strconv.Itoa(sw.status)
			httpRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
			httpRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
		})
	}
}
