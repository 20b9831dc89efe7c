// Package capability issues and redeems single-use download tokens.
package capability

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/go-file-exchange/internal/domain"
	"github.com/go-file-exchange/internal/pkg/token"
)

// maxIssueAttempts bounds retries after a token collision.
const maxIssueAttempts = 3

// IssuedLink is the delivery URL handed to the client.
type IssuedLink struct {
	URL        string
	ExpiresAt  time.Time
	Capability *domain.Capability
}

// Download is an opened file ready to stream. The caller must close Content.
type Download struct {
	Content io.ReadCloser
	File    *domain.File
}

type Service interface {
	Issue(ctx context.Context, fileID, clientID, baseURL string) (*IssuedLink, error)
	Redeem(ctx context.Context, token string) (*Download, error)
}

type capabilityStore interface {
	// Put returns domain.ErrConflict if the token already exists.
	Put(ctx context.Context, c *domain.Capability) error
	Get(ctx context.Context, token string) (*domain.Capability, error)
	// Consume atomically marks the token used if it is unused and unexpired
	// at now, and returns domain.ErrInvalidCapability otherwise.
	Consume(ctx context.Context, token string, now time.Time) error
}

type fileStore interface {
	Get(ctx context.Context, fileID string) (*domain.File, error)
}

type contentStore interface {
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

type service struct {
	caps     capabilityStore
	files    fileStore
	content  contentStore
	ttl      time.Duration
	now      func() time.Time
	newToken func() (string, error)
}

type ServiceDeps struct {
	CapabilityRepo capabilityStore
	FileRepo       fileStore
	Content        contentStore
	TTL            time.Duration
}

func NewService(deps ServiceDeps) Service {
	return &service{
		caps:     deps.CapabilityRepo,
		files:    deps.FileRepo,
		content:  deps.Content,
		ttl:      deps.TTL,
		now:      time.Now,
		newToken: token.New,
	}
}

func (s *service) Issue(ctx context.Context, fileID, clientID, baseURL string) (*IssuedLink, error) {
	if _, err := s.files.Get(ctx, fileID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrFileNotFound
		}
		return nil, err
	}

	for attempt := 1; attempt <= maxIssueAttempts; attempt++ {
		tok, err := s.newToken()
		if err != nil {
			return nil, err
		}
		now := s.now().UTC()
		c := &domain.Capability{
			Token:     tok,
			FileID:    fileID,
			ClientID:  clientID,
			ExpiresAt: now.Add(s.ttl),
			CreatedAt: now,
		}
		err = s.caps.Put(ctx, c)
		if errors.Is(err, domain.ErrConflict) {
			slog.Warn("download token collision, regenerating", "attempt", attempt)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("store download token: %w", err)
		}
		return &IssuedLink{
			URL:        baseURL + "/files/download-file/" + tok,
			ExpiresAt:  c.ExpiresAt,
			Capability: c,
		}, nil
	}
	return nil, fmt.Errorf("no unique download token after %d attempts", maxIssueAttempts)
}

func (s *service) Redeem(ctx context.Context, tok string) (*Download, error) {
	c, err := s.caps.Get(ctx, tok)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidCapability
		}
		return nil, err
	}
	if !c.Redeemable(s.now()) {
		return nil, domain.ErrInvalidCapability
	}

	f, err := s.files.Get(ctx, c.FileID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrFileNotFound
		}
		return nil, err
	}
	rc, err := s.content.Open(ctx, f.Path)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrFileMissingOnStorage
		}
		return nil, fmt.Errorf("open content: %w", err)
	}

	if err := s.caps.Consume(ctx, tok, s.now()); err != nil {
		_ = rc.Close()
		return nil, err
	}
	return &Download{Content: rc, File: f}, nil
}
