package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-file-exchange/internal/domain"
)

type CapabilityRepo struct {
	db DBTX
}

func NewCapabilityRepo(db DBTX) *CapabilityRepo {
	return &CapabilityRepo{db: db}
}

// Put inserts c. A token collision yields domain.ErrConflict.
func (r *CapabilityRepo) Put(ctx context.Context, c *domain.Capability) error {
	query := `INSERT INTO download_tokens (token, file_id, client_id, expires_at, used, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.ExecContext(ctx, query, c.Token, c.FileID, c.ClientID, c.ExpiresAt, c.Used, c.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("download token collision: %w", domain.ErrConflict)
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *CapabilityRepo) Get(ctx context.Context, token string) (*domain.Capability, error) {
	query := `SELECT token, file_id, client_id, expires_at, used, used_at, created_at
		FROM download_tokens WHERE token = $1`

	var (
		c      domain.Capability
		usedAt sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, query, token).Scan(
		&c.Token, &c.FileID, &c.ClientID, &c.ExpiresAt, &c.Used, &usedAt, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("download token not found: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if usedAt.Valid {
		c.UsedAt = &usedAt.Time
	}
	return &c, nil
}

// Consume marks the token used in a single conditional statement. Zero rows
// affected means the token is unknown, used or expired.
func (r *CapabilityRepo) Consume(ctx context.Context, token string, now time.Time) error {
	query := `UPDATE download_tokens SET used = TRUE, used_at = $2
		WHERE token = $1 AND used = FALSE AND expires_at > $2`

	res, err := r.db.ExecContext(ctx, query, token, now.UTC())
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n != 1 {
		return domain.ErrInvalidCapability
	}
	return nil
}
