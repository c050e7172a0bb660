package middleware

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strconv"

	"classhub/internal/authz"
	"classhub/internal/domain"
	"classhub/internal/platform/telemetry"
)

// RateLimit returns middleware that enforces per-IP rate limits.
// A limiter backend error fails open with a warning: losing Redis must not
// take the whole API down.
// The metrics parameter is optional; pass nil to skip metric recording.
func RateLimit(limiter authz.RateLimiter, m *telemetry.Metrics) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			result, err := limiter.Allow(r.Context(), ip)
			if err != nil {
				slog.Warn("rate limiter unavailable, allowing request", "error", err)
				if m != nil {
					m.RecordRateLimitDecision(r.Context(), "ip", "error")
				}
				next.ServeHTTP(w, r)
				return
			}
			if !result.Allowed {
				if m != nil {
					m.RecordRateLimitDecision(r.Context(), "ip", "denied")
				}
				writeRateLimitError(w, result.RetryAfter)
				return
			}

			if m != nil {
				m.RecordRateLimitDecision(r.Context(), "ip", "allowed")
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	// Use RemoteAddr directly. X-Forwarded-For is client-controlled and
	// must not be trusted without a validated trusted proxy list.
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeRateLimitError(w http.ResponseWriter, retryAfter int) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	w.WriteHeader(http.StatusTooManyRequests)
	if err := json.NewEncoder(w).Encode(domain.ErrorResponse{
		Error:      "rate_limited",
		Message:    "too many requests",
		RetryAfter: retryAfter,
	}); err != nil {
		slog.Error("encoding error response", "error", err)
	}
}
