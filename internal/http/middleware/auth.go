package middleware

import (
	"net/http"
	"strings"

	"github.com/andreasstove999/ecommerce-system/checkout-service-go/internal/auth"
)

// TokenVerifier turns a bearer token into the caller's principal.
type TokenVerifier interface {
	Verify(raw string) (auth.Principal, error)
}

// Authenticate requires a valid bearer token and stores the principal in the request context.
func Authenticate(v TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				writeError(w, r, http.StatusUnauthorized, "not authorized, no token")
				return
			}
			p, err := v.Verify(raw)
			if err != nil {
				writeError(w, r, http.StatusUnauthorized, "not authorized, token failed")
				return
			}
			recordUserID(r, p.UserID)
			next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), p)))
		})
	}
}

// RequireAdmin must run after Authenticate.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := auth.FromContext(r.Context())
		if !ok || !p.Role.CanManageOrders() {
			writeError(w, r, http.StatusForbidden, "not authorized as an admin")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(h, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
