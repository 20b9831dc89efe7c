package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-file-exchange/internal/domain"
)

type CapabilityRepo struct {
	mu     sync.Mutex
	tokens map[string]domain.Capability
}

func NewCapabilityRepo() *CapabilityRepo {
	return &CapabilityRepo{tokens: make(map[string]domain.Capability)}
}

func (r *CapabilityRepo) Put(_ context.Context, c *domain.Capability) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tokens[c.Token]; ok {
		return fmt.Errorf("download token collision: %w", domain.ErrConflict)
	}
	r.tokens[c.Token] = *c
	return nil
}

func (r *CapabilityRepo) Get(_ context.Context, token string) (*domain.Capability, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.tokens[token]
	if !ok {
		return nil, fmt.Errorf("download token not found: %w", domain.ErrNotFound)
	}
	return &c, nil
}

// Consume checks and flips the used flag under one lock acquisition.
func (r *CapabilityRepo) Consume(_ context.Context, token string, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.tokens[token]
	if !ok || !c.Redeemable(now) {
		return domain.ErrInvalidCapability
	}
	usedAt := now.UTC()
	c.Used = true
	c.UsedAt = &usedAt
	r.tokens[token] = c
	return nil
}
