package http

import "net/http"

// healthHandler serves GET /health with a bare 200 when operational —
// the gateway core has no stateful session store, rate limiter, or audit
// backpressure whose absence should flip this to unhealthy.
func healthHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
}
