package middleware

import (
	"fmt"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/kilianp07/fleetco2/core/logger"
	"github.com/kilianp07/fleetco2/core/monitoring"
)

// Recover turns a handler panic into a 500 response and reports it.
func Recover(log logger.Logger, mon monitoring.Monitor) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				err, ok := rec.(error)
				if !ok {
					err = fmt.Errorf("panic: %v", rec)
				}
				log.Errorf("panic serving %s %s: %v", r.Method, r.URL.Path, err)
				mon.CaptureException(err, map[string]string{
					"module":     "http",
					"path":       r.URL.Path,
					"request_id": RequestIDFromContext(r.Context()),
				})
				writeError(w, http.StatusInternalServerError, "internal server error")
			}()
			next.ServeHTTP(w, r)
		})
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
