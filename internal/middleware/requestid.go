// Package middleware provides reusable HTTP middleware for request IDs,
// access logging, and Prometheus metrics.
package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/taxdesk/taxcase-tracker/internal/common"
)

const requestIDHeader = "X-Request-Id"

// RequestID assigns each inbound request a UUID (or adopts the caller's),
// stores it in the context, and echoes it in the response header.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rid := r.Header.Get(requestIDHeader)
		if rid == "" {
			rid = uuid.New().String()
		}
		w.Header().Set(requestIDHeader, rid)
		next.ServeHTTP(w, r.WithContext(common.WithRequestID(r.Context(), rid)))
	})
}
