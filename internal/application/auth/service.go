package auth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/go-file-exchange/internal/domain"
	"github.com/go-file-exchange/internal/infrastructure/smtp"
	"github.com/go-file-exchange/internal/pkg/password"
)

type Service interface {
	// Login returns a bearer token for valid credentials. Clients must have
	// verified their email first.
	Login(ctx context.Context, req domain.LoginRequest) (string, error)
	// VerifyEmail claims the verification secret for email. alreadyVerified
	// is true when there was nothing left to verify.
	VerifyEmail(ctx context.Context, email, token string) (alreadyVerified bool, err error)
	// ResendVerification reissues the secret for an unverified client. It is
	// silent for unknown or already verified addresses.
	ResendVerification(ctx context.Context, email, baseURL string) error
	SendVerification(ctx context.Context, email, baseURL string) error
}

type userStore interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

type registry interface {
	Issue(ctx context.Context, email string) (string, error)
	Claim(ctx context.Context, email, secret string) error
}

type jwtSigner interface {
	Sign(email, role string) (string, error)
}

type service struct {
	users    userStore
	registry registry
	mailer   smtp.Mailer
	jwt      jwtSigner
	ttlText  string
	verify   func(plain, hash string) bool
}

// dummyHash is compared against when the email is unknown so that login
// takes the same bcrypt time whether or not the account exists.
var dummyHash = sync.OnceValue(func() string {
	h, err := password.Hash("not-a-real-password")
	if err != nil {
		panic(fmt.Sprintf("hash dummy password: %v", err))
	}
	return h
})

type ServiceDeps struct {
	UserRepo    userStore
	Registry    registry
	Mailer      smtp.Mailer
	JWTProvider jwtSigner
	// VerificationTTLText is shown in the email, e.g. "24 hours".
	VerificationTTLText string
}

func NewService(deps ServiceDeps) Service {
	return &service{
		users:    deps.UserRepo,
		registry: deps.Registry,
		mailer:   deps.Mailer,
		jwt:      deps.JWTProvider,
		ttlText:  deps.VerificationTTLText,
		verify:   password.Verify,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *service) Login(ctx context.Context, req domain.LoginRequest) (string, error) {
	u, err := s.users.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.verify(req.Password, dummyHash())
			return "", fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
		}
		return "", err
	}
	if !s.verify(req.Password, u.PasswordHash) {
		return "", fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
	}
	if u.Role == domain.RoleClient && !u.Verified {
		return "", fmt.Errorf("email not verified: %w", domain.ErrUnauthorized)
	}
	return s.jwt.Sign(u.Email, u.Role)
}

func (s *service) VerifyEmail(ctx context.Context, email, token string) (bool, error) {
	email = normalizeEmail(email)
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, fmt.Errorf("user not found: %w", domain.ErrNotFound)
		}
		return false, err
	}
	if u.Verified {
		return true, nil
	}
	if err := s.registry.Claim(ctx, email, token); err != nil {
		return false, err
	}
	return false, nil
}

func (s *service) ResendVerification(ctx context.Context, email, baseURL string) error {
	email = normalizeEmail(email)
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	}
	if u.Verified || u.Role != domain.RoleClient {
		return nil
	}
	return s.SendVerification(ctx, email, baseURL)
}

// SendVerification issues a new secret for email and mails the link.
func (s *service) SendVerification(ctx context.Context, email, baseURL string) error {
	secret, err := s.registry.Issue(ctx, email)
	if err != nil {
		return err
	}
	link := VerificationLink(baseURL, email, secret)
	body := fmt.Sprintf(
		"Welcome!\n\nPlease confirm your email address by opening the link below:\n\n%s\n\nThe link expires in %s.\n",
		link, s.ttlText)
	return s.mailer.SendEmail(email, "Verify your email address", body)
}

// VerificationLink builds the URL a client opens to verify email.
func VerificationLink(baseURL, email, secret string) string {
	q := url.Values{}
	q.Set("email", email)
	q.Set("token", secret)
	return baseURL + "/auth/verify-email?" + q.Encode()
}
