package middleware

import (
	"net/http"
	"time"

	"github.com/taxdesk/taxcase-tracker/internal/common"
)

// AccessLog logs one line per request with method, path, status, and
// elapsed time, tagged with the request ID.
func AccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		common.LoggerFromContext(r.Context()).Info("http.request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", sw.status,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
	})
}
