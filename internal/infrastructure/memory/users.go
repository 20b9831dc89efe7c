// Package memory is the in-process store backend. State is lost on restart;
// it serves tests and single-node development runs.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-file-exchange/internal/domain"
)

type UserRepo struct {
	mu         sync.RWMutex
	byID       map[string]*domain.User
	byEmail    map[string]string
	byUsername map[string]string
}

func NewUserRepo() *UserRepo {
	return &UserRepo{
		byID:       make(map[string]*domain.User),
		byEmail:    make(map[string]string),
		byUsername: make(map[string]string),
	}
}

// Put inserts u. A duplicate id, email or username yields domain.ErrConflict.
func (r *UserRepo) Put(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[u.UserID]; ok {
		return fmt.Errorf("user %s already exists: %w", u.UserID, domain.ErrConflict)
	}
	if _, ok := r.byEmail[u.Email]; ok {
		return fmt.Errorf("email already registered: %w", domain.ErrConflict)
	}
	if _, ok := r.byUsername[u.Username]; ok {
		return fmt.Errorf("username already taken: %w", domain.ErrConflict)
	}
	cp := *u
	r.byID[u.UserID] = &cp
	r.byEmail[u.Email] = u.UserID
	r.byUsername[u.Username] = u.UserID
	return nil
}

func (r *UserRepo) Get(_ context.Context, userID string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.copyOf(userID)
}

func (r *UserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.copyOf(r.byEmail[email])
}

func (r *UserRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.copyOf(r.byUsername[username])
}

func (r *UserRepo) MarkVerified(_ context.Context, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[r.byEmail[email]]
	if !ok {
		return fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	u.Verified = true
	u.UpdatedAt = time.Now().UTC()
	return nil
}

// copyOf must be called with r.mu held.
func (r *UserRepo) copyOf(userID string) (*domain.User, error) {
	u, ok := r.byID[userID]
	if !ok {
		return nil, fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	cp := *u
	return &cp, nil
}
