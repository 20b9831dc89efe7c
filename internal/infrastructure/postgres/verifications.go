package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-file-exchange/internal/domain"
)

type VerificationRepo struct {
	db DBTX
}

func NewVerificationRepo(db DBTX) *VerificationRepo {
	return &VerificationRepo{db: db}
}

// Put stores v, replacing any earlier entry for the same email.
func (r *VerificationRepo) Put(ctx context.Context, v *domain.EmailVerification) error {
	query := `INSERT INTO email_verifications (email, code, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (email) DO UPDATE SET code = EXCLUDED.code, expires_at = EXCLUDED.expires_at`

	if _, err := r.db.ExecContext(ctx, query, v.Email, v.Code, v.ExpiresAt); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *VerificationRepo) Get(ctx context.Context, email string) (*domain.EmailVerification, error) {
	query := `SELECT email, code, expires_at FROM email_verifications WHERE email = $1`

	var v domain.EmailVerification
	err := r.db.QueryRowContext(ctx, query, email).Scan(&v.Email, &v.Code, &v.ExpiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("verification not found: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &v, nil
}

// DeleteIfCode removes the entry for email only while it still holds code.
// Returns domain.ErrNotFound when there is no entry and domain.ErrConflict
// when the entry holds a different code.
func (r *VerificationRepo) DeleteIfCode(ctx context.Context, email, code string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM email_verifications WHERE email = $1 AND code = $2`, email, code)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 1 {
		return nil
	}

	var exists bool
	err = r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM email_verifications WHERE email = $1)`, email).Scan(&exists)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if !exists {
		return fmt.Errorf("verification not found: %w", domain.ErrNotFound)
	}
	return fmt.Errorf("verification replaced: %w", domain.ErrConflict)
}
