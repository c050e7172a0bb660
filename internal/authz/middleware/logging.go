package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"classhub/internal/authz"
)

// Logging returns a middleware that logs each request using slog. Actor
// fields come from the AuthContext when the guard resolved one; principal
// details beyond ids are never logged.
func Logging(logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &authz.StatusWriter{ResponseWriter: w, Code: http.StatusOK}

			next.ServeHTTP(sw, r)

			reqID := authz.RequestIDFromContext(r.Context())
			attrs := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", sw.Code,
				"duration_ms", float64(time.Since(start).Microseconds()) / 1000.0,
				"request_id", reqID,
				"remote_addr", r.RemoteAddr,
			}
			if ac, ok := authz.AuthContextFromContext(r.Context()); ok {
				attrs = append(attrs,
					"tenant_id", ac.TenantID,
					"actor_id", ac.UserID,
					"actor_role", ac.Role.String(),
				)
			}
			logger.Info("request", attrs...)
		})
	}
}
