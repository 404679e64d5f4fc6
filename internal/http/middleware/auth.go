package middleware

import (
	"net/http"

	"github.com/tuanvumaihuynh/sweetshop/internal/auth"
	"github.com/tuanvumaihuynh/sweetshop/internal/model"
)

// ErrorHandlerFunc writes err as the response.
type ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)

// Authenticator resolves a raw bearer credential into an identity.
type Authenticator interface {
	Authenticate(raw string) (auth.Identity, error)
}

// Authenticate rejects requests without a valid bearer credential and stores
// the resolved identity in the request context.
func Authenticate(authenticator Authenticator, onError ErrorHandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := auth.ExtractBearer(r.Header.Get("Authorization"))

			identity, err := authenticator.Authenticate(raw)
			if err != nil {
				onError(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.NewContext(r.Context(), identity)))
		})
	}
}

// RequireRole lets the request through only when the authenticated identity
// satisfies the role policy for required. It must run after Authenticate.
func RequireRole(required model.Role, onError ErrorHandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, _ := auth.FromContext(r.Context())

			if err := auth.Authorize(identity, required); err != nil {
				onError(w, r, err)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
