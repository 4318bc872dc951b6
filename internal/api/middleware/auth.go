package middleware

import (
	"crypto/subtle"
	"net/http"
)

// RequireAdmin gates a handler behind a shared admin token carried in the
// X-Admin-Token header. An empty configured token disables the gate (local
// deployments behind a trusted proxy).
func RequireAdmin(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token != "" {
				supplied := r.Header.Get("X-Admin-Token")
				if subtle.ConstantTimeCompare([]byte(supplied), []byte(token)) != 1 {
					WriteError(w, http.StatusForbidden, ErrForbidden, "Admin token required")
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
