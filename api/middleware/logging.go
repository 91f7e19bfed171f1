package middleware

import (
	"net/http"
	"time"

	"github.com/kilianp07/fleetco2/core/logger"
)

// AccessLog writes one line per request once the response is complete.
func AccessLog(log logger.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := newStatusWriter(w)
			next.ServeHTTP(sw, r)
			log.Infow("http request", map[string]any{
				"request_id":  RequestIDFromContext(r.Context()),
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      sw.status,
				"bytes":       sw.bytes,
				"duration_ms": float64(time.Since(start).Microseconds()) / 1000,
			})
		})
	}
}
