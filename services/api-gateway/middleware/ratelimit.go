package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/SharanBarfa/ERM-server/pkg/telemetry"
)

// Limiter decides whether the caller identified by key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// RateLimitByIP rejects callers over their quota with 429. Limiter errors
// let the request through so a Redis outage does not close the contact form.
func RateLimitByIP(limiter Limiter, retryAfterSeconds int, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			ok, err := limiter.Allow(r.Context(), ip)
			if err != nil {
				logger.Warn("rate limiter unavailable",
					slog.String("ip", ip),
					slog.String("error", err.Error()),
				)
				next.ServeHTTP(w, r)
				return
			}
			if !ok {
				telemetry.ContactsRateLimited.Inc()
				if retryAfterSeconds > 0 {
					w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds))
				}
				writeError(w, http.StatusTooManyRequests, "Too many requests, please try again later")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP prefers the address TrustedRealIP recorded, so forwarding headers
// from untrusted peers never pick the bucket.
func clientIP(r *http.Request) string {
	if ip, ok := r.Context().Value(clientIPKey{}).(string); ok && ip != "" {
		return ip
	}
	return hostOnly(r.RemoteAddr)
}
