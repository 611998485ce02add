// Package obs holds the Prometheus instrumentation for the HTTP surface.
package obs

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "iam_http_in_flight_requests",
		Help: "In-flight HTTP requests.",
	})

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "iam_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "iam_http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	tokensIssuedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "iam_tokens_issued_total",
			Help: "Tokens issued, by kind (access or refresh).",
		},
		[]string{"kind"},
	)

	tokensRevokedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "iam_tokens_revoked_total",
		Help: "Access tokens revoked before natural expiry.",
	})

	permissionChecksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "iam_permission_checks_total",
			Help: "Permission checks, by outcome (allowed or denied).",
		},
		[]string{"outcome"},
	)
)

// Init registers all metrics with the default registry. Call once at
// startup; a second call panics on duplicate registration.
func Init() {
	prometheus.MustRegister(
		httpInFlight,
		httpRequestsTotal,
		httpRequestDuration,
		tokensIssuedTotal,
		tokensRevokedTotal,
		permissionChecksTotal,
	)
}

// Handler exposes the /metrics scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveTokenIssued records one issued token of the given kind.
func ObserveTokenIssued(kind string) {
	tokensIssuedTotal.WithLabelValues(kind).Inc()
}

// ObserveTokenRevoked records one revocation.
func ObserveTokenRevoked() {
	tokensRevokedTotal.Inc()
}

// ObservePermissionCheck records one check outcome.
func ObservePermissionCheck(allowed bool) {
	outcome := "denied"
	if allowed {
		outcome = "allowed"
	}
	permissionChecksTotal.WithLabelValues(outcome).Inc()
}

// Instrument wraps a handler with in-flight, count and latency metrics.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method := r.Method
		path := metricPath(r.URL.Path)

		httpInFlight.Inc()
		start := time.Now()

		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(sw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(sw.code)

		httpRequestDuration.WithLabelValues(method, path, status).Observe(duration)
		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpInFlight.Dec()
	})
}

// metricPath collapses id path segments so user and role ids do not blow
// up label cardinality. ULIDs are 26 chars, which no route literal is.
func metricPath(path string) string {
	out := make([]byte, 0, len(path))
	start := 0
	for i := 0; i <= len(path); i++ {
		if i == len(path) || path[i] == '/' {
			seg := path[start:i]
			if len(seg) == 26 {
				out = append(out, ":id"...)
			} else {
				out = append(out, seg...)
			}
			if i < len(path) {
				out = append(out, '/')
			}
			start = i + 1
		}
	}
	return string(out)
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}
