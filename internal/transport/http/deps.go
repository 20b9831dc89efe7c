package http

import (
	"context"
	"io"
	"time"

	"github.com/go-file-exchange/internal/domain"
)

// UserRepository is the minimal interface the router requires from a user store.
type UserRepository interface {
	// Put returns domain.ErrConflict when the id, email or username is taken.
	Put(ctx context.Context, u *domain.User) error
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	MarkVerified(ctx context.Context, email string) error
}

// FileRepository is the minimal interface the router requires from a file store.
type FileRepository interface {
	Put(ctx context.Context, f *domain.File) error
	Get(ctx context.Context, fileID string) (*domain.File, error)
	List(ctx context.Context) ([]domain.File, error)
}

// CapabilityRepository is the minimal interface the router requires from a download token store.
type CapabilityRepository interface {
	Put(ctx context.Context, c *domain.Capability) error
	Get(ctx context.Context, token string) (*domain.Capability, error)
	// Consume must be a single conditional write: exactly one of any number of
	// concurrent callers succeeds.
	Consume(ctx context.Context, token string, now time.Time) error
}

// VerificationRepository is the minimal interface the router requires from a verification store.
type VerificationRepository interface {
	Put(ctx context.Context, v *domain.EmailVerification) error
	Get(ctx context.Context, email string) (*domain.EmailVerification, error)
	DeleteIfCode(ctx context.Context, email, code string) error
}

// ContentStore is the minimal interface the router requires from a file content backend.
type ContentStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}
