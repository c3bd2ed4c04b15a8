package middleware

import (
	"net/http"

	"golang.org/x/time/rate"
)

// RateLimit returns middleware enforcing a global token-bucket limit across
// all requests.
//
// The limiter exists mainly to keep the search endpoint honest: fulltext
// search compiles a caller-supplied regex per request, and while Go's RE2
// engine rules out catastrophic backtracking, unthrottled compile-and-scan
// load is still the most expensive thing this service does per request.
//
// rps is the sustained refill rate; burst is the bucket size. Requests that
// find the bucket empty get 429 with Retry-After rather than queueing —
// every store operation is short, so a client can simply retry.
func RateLimit(rps float64, burst int) func(http.Handler) http.Handler {
	limiter := rate.NewLimiter(rate.Limit(rps), burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				w.Header().Set("Retry-After", "1")
				http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
