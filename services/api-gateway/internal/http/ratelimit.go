package httpx

import (
	"net"
	"net/http"
	"time"

	"delivery-order-system/shared/pkg/cache"
)

// RateLimit caps requests per client IP on the routes it wraps, using a
// fixed Redis window. Redis being down fails open.
func RateLimit(redis *cache.Redis, perMinute int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				ip = r.RemoteAddr
			}
			if !redis.Allow(r.Context(), ip, perMinute, time.Minute) {
				http.Error(w, "too many requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
