package middleware

import (
	"net/http"

	"hrhub/internal/platform/logger"
	pnet "hrhub/internal/platform/net"
)

// Scope tags the request context and its logger with the inbound surface
// name (webhook, cron, task) so every downstream log line carries its origin.
// Mount after RequestID so the request id is already on the context
func Scope(source string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := pnet.RequestID(r.Context())
			ctx := pnet.WithRequest(r.Context(), reqID, source)
			ctx = logger.WithRequest(ctx, reqID, source)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
