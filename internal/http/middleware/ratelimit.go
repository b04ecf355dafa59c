package middleware

import (
	"context"
	"net"
	"net/http"

	"github.com/andreasstove999/ecommerce-system/checkout-service-go/internal/auth"
)

type Limiter interface {
	Allow(ctx context.Context, key string) bool
}

// RateLimit keys on the authenticated user when there is one, otherwise on the client address.
func RateLimit(l Limiter, scope string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := scope + ":" + clientKey(r)
			if !l.Allow(r.Context(), key) {
				w.Header().Set("Retry-After", "60")
				writeError(w, r, http.StatusTooManyRequests, "too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientKey(r *http.Request) string {
	if p, ok := auth.FromContext(r.Context()); ok {
		return "user:" + p.UserID
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}
