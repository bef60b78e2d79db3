// Package middleware: request admission control for the public listener
package middleware

import (
	"encoding/json"
	"net/http"

	"place-search/internal/logger"

	"golang.org/x/time/rate"
)

// RateLimit: process-wide token bucket refilled at qps tokens per second with a burst of qps
// Constraint: no queueing; a request without a token gets 429 immediately. qps <= 0 disables limiting.
func RateLimit(qps int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if qps <= 0 {
			return next
		}
		lim := rate.NewLimiter(rate.Limit(qps), qps)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !lim.Allow() {
				logger.L().Debug("rate_limited", "path", r.URL.Path, "ip", r.RemoteAddr)
				w.Header().Set("content-type", "application/json; charset=utf-8")
				w.Header().Set("retry-after", "1")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": "too many requests"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Wrap applies the limiter when enabled.
func Wrap(next http.Handler, enabled bool, qps int) http.Handler {
	if !enabled {
		return next
	}
	return RateLimit(qps)(next)
}
