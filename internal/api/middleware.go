// Package api implements the PlanInsta REST API using chi.
package api

import (
	"net/http"
	"strings"

	"github.com/starford/planinsta/internal/access"
)

// TierMiddleware resolves the caller's access tier and stores it in the
// request context. A request without a token gets defaultTier; a request
// carrying an invalid "Authorization: Bearer <token>" is rejected.
func TierMiddleware(issuer *access.Issuer, defaultTier access.Tier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if auth == "" {
				next.ServeHTTP(w, r.WithContext(access.WithTier(r.Context(), defaultTier)))
				return
			}
			if !strings.HasPrefix(auth, "Bearer ") {
				writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized"))
				return
			}
			tier, err := issuer.Verify(strings.TrimPrefix(auth, "Bearer "))
			if err != nil {
				writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized"))
				return
			}
			next.ServeHTTP(w, r.WithContext(access.WithTier(r.Context(), tier)))
		})
	}
}
