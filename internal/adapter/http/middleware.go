package http

import (
	"net/http"
	"time"

	"github.com/atakanatali/contextify-gateway/internal/metrics"
)

// statusRecorder captures the status code a handler wrote, defaulting to
// 200 if WriteHeader is never called explicitly (matches net/http's own
// behavior for ResponseWriter).
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// metricsMiddleware records request count and duration against
// metrics.Metrics, labeled by the request path. Simplified relative to a
// full MCP method-dispatch middleware since this gateway exposes a
// single JSON-RPC method endpoint rather than a set of MCP methods to
// break out client-side.
func metricsMiddleware(m *metrics.Metrics, path string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			status := "ok"
			if rec.status >= 400 {
				status = "error"
			}
			m.RequestsTotal.WithLabelValues(path, status).Inc()
			m.RequestDuration.WithLabelValues(path).Observe(time.Since(start).Seconds())
		})
	}
}
