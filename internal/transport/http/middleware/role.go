package middleware

import (
	"crypto/subtle"
	"net/http"
)

// RequireRole returns middleware that allows access only to users whose role
// matches one of the provided role names (e.g. domain.RoleOps). Must run after Auth.
func RequireRole(g Guard, allowedRoles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := UserFromContext(r.Context())
			if !ok {
				WriteJSONError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			if err := g.RequireRole(u, allowedRoles...); err != nil {
				WriteError(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireVerified rejects clients that have not confirmed their email.
func RequireVerified(g Guard) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := UserFromContext(r.Context())
			if !ok {
				WriteJSONError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			if err := g.RequireVerified(u); err != nil {
				WriteError(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// BootstrapHeader carries the operator credential for privileged setup routes.
const BootstrapHeader = "X-Bootstrap-Token"

// RequireBootstrapToken admits requests whose BootstrapHeader equals expected.
// An empty expected value disables the route entirely.
func RequireBootstrapToken(expected string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if expected == "" {
				WriteJSONError(w, http.StatusForbidden, "operator bootstrap is disabled")
				return
			}
			got := r.Header.Get(BootstrapHeader)
			if subtle.ConstantTimeCompare([]byte(got), []byte(expected)) != 1 {
				WriteJSONError(w, http.StatusForbidden, "invalid operator credential")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
