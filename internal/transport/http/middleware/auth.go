package middleware

import (
	"context"
	"net/http"

	"github.com/go-file-exchange/internal/domain"
)

type contextKey string

const userKey contextKey = "user"

// Guard authenticates callers and applies role rules. *access.Gate implements it.
type Guard interface {
	Authenticate(ctx context.Context, authorization string) (*domain.User, error)
	RequireRole(u *domain.User, roles ...string) error
	RequireVerified(u *domain.User) error
}

// Auth returns middleware that resolves the Bearer token to a user and
// injects it into the request context.
func Auth(g Guard) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, err := g.Authenticate(r.Context(), r.Header.Get("Authorization"))
			if err != nil {
				if StatusFor(err) == http.StatusUnauthorized {
					w.Header().Set("WWW-Authenticate", "Bearer")
				}
				WriteError(w, r, err)
				return
			}
			ctx := context.WithValue(r.Context(), userKey, u)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFromContext returns the user resolved by Auth.
func UserFromContext(ctx context.Context) (*domain.User, bool) {
	u, ok := ctx.Value(userKey).(*domain.User)
	return u, ok
}
