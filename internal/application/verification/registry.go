// Package verification manages the short-lived secrets that prove control of
// an email address at signup.
package verification

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-file-exchange/internal/domain"
	"github.com/go-file-exchange/internal/pkg/token"
)

// Store keeps at most one entry per email.
type Store interface {
	Put(ctx context.Context, v *domain.EmailVerification) error
	Get(ctx context.Context, email string) (*domain.EmailVerification, error)
	// DeleteIfCode returns domain.ErrNotFound when no entry exists and
	// domain.ErrConflict when the entry holds a different code.
	DeleteIfCode(ctx context.Context, email, code string) error
}

// UserVerifier flips an identity's verified flag.
type UserVerifier interface {
	MarkVerified(ctx context.Context, email string) error
}

type Registry struct {
	store Store
	users UserVerifier
	ttl   time.Duration
	now   func() time.Time
}

func NewRegistry(store Store, users UserVerifier, ttl time.Duration) *Registry {
	return &Registry{store: store, users: users, ttl: ttl, now: time.Now}
}

// Issue creates a fresh secret for email, replacing any pending one.
func (r *Registry) Issue(ctx context.Context, email string) (string, error) {
	secret, err := token.New()
	if err != nil {
		return "", err
	}
	v := &domain.EmailVerification{
		Email:     email,
		Code:      secret,
		ExpiresAt: r.now().Add(r.ttl).UTC(),
	}
	if err := r.store.Put(ctx, v); err != nil {
		return "", fmt.Errorf("store verification: %w", err)
	}
	return secret, nil
}

// Claim consumes the pending secret for email and marks the identity
// verified. A secret can be claimed at most once.
func (r *Registry) Claim(ctx context.Context, email, secret string) error {
	v, err := r.store.Get(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrVerificationNotFound
		}
		return err
	}

	if v.Expired(r.now()) {
		if err := r.store.DeleteIfCode(ctx, email, v.Code); err != nil &&
			!errors.Is(err, domain.ErrNotFound) && !errors.Is(err, domain.ErrConflict) {
			slog.Warn("failed to remove expired verification", "email", email, "err", err)
		}
		return domain.ErrVerificationExpired
	}

	if subtle.ConstantTimeCompare([]byte(v.Code), []byte(secret)) != 1 {
		return domain.ErrVerificationMismatch
	}

	// The conditional delete is the linearization point: of two concurrent
	// claims only one removes the entry.
	if err := r.store.DeleteIfCode(ctx, email, secret); err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			return domain.ErrVerificationNotFound
		case errors.Is(err, domain.ErrConflict):
			return domain.ErrVerificationMismatch
		default:
			return err
		}
	}

	if err := r.users.MarkVerified(ctx, email); err != nil {
		return fmt.Errorf("mark verified: %w", err)
	}
	return nil
}
