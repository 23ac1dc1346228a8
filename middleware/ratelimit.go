package middleware

import (
	"context"
	"net/http"
	"strconv"

	"github.com/kestrelsec/authplane"
)

// RequestLimiter is the slice of the engine the rate limit gate needs.
type RequestLimiter interface {
	AllowRequest(ctx context.Context, scope, identity string) (authplane.RateLimitResult, error)
}

// RateLimit counts each request against the scope's quota, keyed by
// client IP. Every response carries X-RateLimit-Limit, -Remaining, and
// -Reset; rejections are 429 with Retry-After in whole seconds.
func RateLimit(limiter RequestLimiter, scope string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res, err := limiter.AllowRequest(r.Context(), scope, ClientIP(r))
			if err != nil {
				// Unknown scope is a wiring bug, not a client fault.
				http.Error(w, "internal server error", http.StatusInternalServerError)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(res.Reset.Unix(), 10))

			if !res.Allowed {
				secs := int(res.RetryAfter.Seconds())
				if secs < 1 {
					secs = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(secs))
				http.Error(w, "too many requests", http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
