// Package middleware contains HTTP middleware functions: request IDs,
// request logging, and rate limiting. Each is a standard
// func(http.Handler) http.Handler wrapper so they compose on the chi router
// in any order.
package middleware

import (
	"context"
	"net/http"

	"github.com/rs/xid"
)

// ctxKey is unexported so no other package can collide with our context keys.
type ctxKey int

const requestIDKey ctxKey = iota

// RequestIDHeader is the header carrying the request id, inbound and
// outbound. An id supplied by the client (e.g. from an upstream proxy) is
// kept; otherwise a fresh one is generated.
const RequestIDHeader = "X-Request-ID"

// RequestID assigns each request a unique id, stores it in the request
// context, and echoes it in the response headers.
//
// xid gives a 20-char sortable id (timestamp prefix + randomness) that is
// cheap to generate per request and easy to grep across log lines.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = xid.New().String()
		}
		w.Header().Set(RequestIDHeader, id)

		ctx := context.WithValue(r.Context(), requestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID returns the request id stored by RequestID, or "" if the
// middleware did not run.
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
