// Package requesttime pins a single "now" per HTTP request so that every
// timestamp written while serving it (request dates, service times, audit events)
// agrees.
package requesttime

import (
	"net/http"
	"time"

	"credverify/pkg/requestcontext"
)

// Middleware records the arrival time of the request in its context.
func Middleware(next http.Handler) http.Handler {
	return MiddlewareWithClock(time.Now)(next)
}

// MiddlewareWithClock is Middleware with an injectable clock.
func MiddlewareWithClock(clock func() time.Time) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := requestcontext.WithTime(r.Context(), clock().UTC())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
