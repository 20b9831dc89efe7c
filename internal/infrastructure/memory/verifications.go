package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-file-exchange/internal/domain"
	"github.com/patrickmn/go-cache"
)

// expiredRetention keeps an entry around after its ExpiresAt so a late claim
// is reported as expired rather than unknown.
const expiredRetention = time.Hour

// VerificationRepo keeps verification entries in a go-cache keyed by email.
// The mutex makes read-compare-delete sequences atomic.
type VerificationRepo struct {
	mu    sync.Mutex
	cache *cache.Cache
}

func NewVerificationRepo() *VerificationRepo {
	return &VerificationRepo{cache: cache.New(cache.NoExpiration, 10*time.Minute)}
}

func (r *VerificationRepo) Put(_ context.Context, v *domain.EmailVerification) error {
	ttl := time.Until(v.ExpiresAt)
	if ttl < 0 {
		ttl = 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache.Set(v.Email, *v, ttl+expiredRetention)
	return nil
}

func (r *VerificationRepo) Get(_ context.Context, email string) (*domain.EmailVerification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.get(email)
}

func (r *VerificationRepo) DeleteIfCode(_ context.Context, email, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, err := r.get(email)
	if err != nil {
		return err
	}
	if v.Code != code {
		return fmt.Errorf("verification replaced: %w", domain.ErrConflict)
	}
	r.cache.Delete(email)
	return nil
}

func (r *VerificationRepo) get(email string) (*domain.EmailVerification, error) {
	item, ok := r.cache.Get(email)
	if !ok {
		return nil, fmt.Errorf("verification not found: %w", domain.ErrNotFound)
	}
	v := item.(domain.EmailVerification)
	return &v, nil
}
