// Package access authenticates bearer sessions and enforces role rules.
package access

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-file-exchange/internal/domain"
	jwtinfra "github.com/go-file-exchange/internal/infrastructure/jwt"
)

type tokenVerifier interface {
	Verify(token string) (*jwtinfra.Claims, error)
}

type userLookup interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// Gate resolves the caller behind an Authorization header. The token only
// names the identity; the user record is re-read on every call so that
// deleted users lose access immediately.
type Gate struct {
	tokens tokenVerifier
	users  userLookup
}

func NewGate(tokens tokenVerifier, users userLookup) *Gate {
	return &Gate{tokens: tokens, users: users}
}

// Authenticate expects "Bearer <token>".
func (g *Gate) Authenticate(ctx context.Context, authorization string) (*domain.User, error) {
	scheme, raw, ok := strings.Cut(strings.TrimSpace(authorization), " ")
	raw = strings.TrimSpace(raw)
	if !ok || !strings.EqualFold(scheme, "Bearer") || raw == "" {
		return nil, fmt.Errorf("missing bearer token: %w", domain.ErrUnauthorized)
	}
	claims, err := g.tokens.Verify(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", domain.ErrUnauthorized)
	}
	u, err := g.users.GetByEmail(ctx, claims.Email())
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrIdentityNotFound
		}
		return nil, err
	}
	return u, nil
}

// RequireRole fails with domain.ErrForbidden unless u has one of roles.
func (g *Gate) RequireRole(u *domain.User, roles ...string) error {
	for _, r := range roles {
		if u.Role == r {
			return nil
		}
	}
	return fmt.Errorf("requires role %s: %w", strings.Join(roles, " or "), domain.ErrForbidden)
}

// RequireVerified rejects clients that have not confirmed their email.
func (g *Gate) RequireVerified(u *domain.User) error {
	if u.Role == domain.RoleClient && !u.Verified {
		return fmt.Errorf("email not verified: %w", domain.ErrForbidden)
	}
	return nil
}
