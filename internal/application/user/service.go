package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-file-exchange/internal/domain"
	"github.com/go-file-exchange/internal/pkg/id"
	"github.com/go-file-exchange/internal/pkg/password"
)

type Service interface {
	// Signup registers an unverified client and sends the verification email.
	Signup(ctx context.Context, req domain.CreateUserRequest, baseURL string) (*domain.User, error)
	// CreateOpsUser registers a verified ops user.
	CreateOpsUser(ctx context.Context, req domain.CreateUserRequest) (*domain.User, error)
}

type userStore interface {
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Put(ctx context.Context, u *domain.User) error
}

type verificationSender interface {
	SendVerification(ctx context.Context, email, baseURL string) error
}

type service struct {
	repo     userStore
	verifier verificationSender
}

type ServiceDeps struct {
	UserRepo           userStore
	VerificationSender verificationSender
}

func NewService(deps ServiceDeps) Service {
	return &service{
		repo:     deps.UserRepo,
		verifier: deps.VerificationSender,
	}
}

func (s *service) Signup(ctx context.Context, req domain.CreateUserRequest, baseURL string) (*domain.User, error) {
	if req.UserType != domain.RoleClient {
		return nil, fmt.Errorf("signup is only available for client users: %w", domain.ErrBadRequest)
	}
	u, err := s.create(ctx, req, false)
	if err != nil {
		return nil, err
	}
	// The account exists either way; a failed send can be retried via resend.
	if err := s.verifier.SendVerification(ctx, u.Email, baseURL); err != nil {
		slog.Warn("failed to send verification email", "user_id", u.UserID, "err", err)
	}
	return u, nil
}

func (s *service) CreateOpsUser(ctx context.Context, req domain.CreateUserRequest) (*domain.User, error) {
	if req.UserType != domain.RoleOps {
		return nil, fmt.Errorf("user_type must be ops: %w", domain.ErrBadRequest)
	}
	return s.create(ctx, req, true)
}

func (s *service) create(ctx context.Context, req domain.CreateUserRequest, verified bool) (*domain.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if err := s.ensureFree(ctx, email, req.Username); err != nil {
		return nil, err
	}
	hash, err := password.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	now := time.Now().UTC()
	u := &domain.User{
		UserID:       id.New(),
		Email:        email,
		Username:     req.Username,
		PasswordHash: hash,
		Role:         req.UserType,
		Verified:     verified,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Put(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// ensureFree rejects an email or username that is already registered.
// Stores with unique constraints also reject duplicates on Put.
func (s *service) ensureFree(ctx context.Context, email, username string) error {
	_, err := s.repo.GetByEmail(ctx, email)
	if err == nil {
		return fmt.Errorf("email already registered: %w", domain.ErrConflict)
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	_, err = s.repo.GetByUsername(ctx, username)
	if err == nil {
		return fmt.Errorf("username already taken: %w", domain.ErrConflict)
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	return nil
}
