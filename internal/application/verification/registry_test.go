package verification

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-file-exchange/internal/domain"
	"github.com/go-file-exchange/internal/infrastructure/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockUserVerifier struct{ mock.Mock }

func (m *mockUserVerifier) MarkVerified(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

type mockStore struct{ mock.Mock }

func (m *mockStore) Put(ctx context.Context, v *domain.EmailVerification) error {
	return m.Called(ctx, v).Error(0)
}
func (m *mockStore) Get(ctx context.Context, email string) (*domain.EmailVerification, error) {
	args := m.Called(ctx, email)
	if v, _ := args.Get(0).(*domain.EmailVerification); v != nil {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockStore) DeleteIfCode(ctx context.Context, email, code string) error {
	return m.Called(ctx, email, code).Error(0)
}

func newRegistry(t *testing.T) (*Registry, *memory.VerificationRepo, *mockUserVerifier) {
	t.Helper()
	store := memory.NewVerificationRepo()
	users := &mockUserVerifier{}
	return NewRegistry(store, users, 24*time.Hour), store, users
}

func TestIssue_StoresEntryWithTTL(t *testing.T) {
	reg, store, _ := newRegistry(t)
	base := time.Now()
	reg.now = func() time.Time { return base }

	secret, err := reg.Issue(context.Background(), "b@x.com")
	require.NoError(t, err)
	assert.Len(t, secret, 43)

	v, err := store.Get(context.Background(), "b@x.com")
	require.NoError(t, err)
	assert.Equal(t, secret, v.Code)
	assert.WithinDuration(t, base.Add(24*time.Hour), v.ExpiresAt, time.Second)
}

func TestIssue_OverwritesPrevious(t *testing.T) {
	reg, _, users := newRegistry(t)
	ctx := context.Background()
	users.On("MarkVerified", ctx, "b@x.com").Return(nil)

	first, err := reg.Issue(ctx, "b@x.com")
	require.NoError(t, err)
	second, err := reg.Issue(ctx, "b@x.com")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	assert.ErrorIs(t, reg.Claim(ctx, "b@x.com", first), domain.ErrVerificationMismatch)
	assert.NoError(t, reg.Claim(ctx, "b@x.com", second))
}

func TestClaim_SucceedsOnce(t *testing.T) {
	reg, _, users := newRegistry(t)
	ctx := context.Background()
	users.On("MarkVerified", ctx, "b@x.com").Return(nil).Once()

	secret, err := reg.Issue(ctx, "b@x.com")
	require.NoError(t, err)

	require.NoError(t, reg.Claim(ctx, "b@x.com", secret))
	assert.ErrorIs(t, reg.Claim(ctx, "b@x.com", secret), domain.ErrVerificationNotFound)
	users.AssertExpectations(t)
}

func TestClaim_UnknownEmail(t *testing.T) {
	reg, _, _ := newRegistry(t)
	err := reg.Claim(context.Background(), "nobody@x.com", "whatever")
	assert.ErrorIs(t, err, domain.ErrVerificationNotFound)
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

func TestClaim_MismatchKeepsEntry(t *testing.T) {
	reg, store, users := newRegistry(t)
	ctx := context.Background()
	users.On("MarkVerified", ctx, "b@x.com").Return(nil)

	secret, err := reg.Issue(ctx, "b@x.com")
	require.NoError(t, err)

	assert.ErrorIs(t, reg.Claim(ctx, "b@x.com", "wrong"), domain.ErrVerificationMismatch)
	_, err = store.Get(ctx, "b@x.com")
	require.NoError(t, err)

	assert.NoError(t, reg.Claim(ctx, "b@x.com", secret))
}

func TestClaim_ExpiredRemovesEntry(t *testing.T) {
	reg, store, users := newRegistry(t)
	ctx := context.Background()
	base := time.Now()
	reg.now = func() time.Time { return base }

	secret, err := reg.Issue(ctx, "b@x.com")
	require.NoError(t, err)

	reg.now = func() time.Time { return base.Add(24 * time.Hour) }
	assert.ErrorIs(t, reg.Claim(ctx, "b@x.com", secret), domain.ErrVerificationExpired)

	_, err = store.Get(ctx, "b@x.com")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	users.AssertNotCalled(t, "MarkVerified", mock.Anything, mock.Anything)
}

func TestClaim_ConcurrentReissueIsMismatch(t *testing.T) {
	store := &mockStore{}
	users := &mockUserVerifier{}
	reg := NewRegistry(store, users, time.Hour)
	ctx := context.Background()

	store.On("Get", ctx, "b@x.com").
		Return(&domain.EmailVerification{Email: "b@x.com", Code: "c1", ExpiresAt: time.Now().Add(time.Hour)}, nil)
	store.On("DeleteIfCode", ctx, "b@x.com", "c1").Return(domain.ErrConflict)

	assert.ErrorIs(t, reg.Claim(ctx, "b@x.com", "c1"), domain.ErrVerificationMismatch)
	users.AssertNotCalled(t, "MarkVerified", mock.Anything, mock.Anything)
}

func TestClaim_ConcurrentClaimsOneWins(t *testing.T) {
	reg, _, users := newRegistry(t)
	ctx := context.Background()
	users.On("MarkVerified", ctx, "b@x.com").Return(nil).Once()

	secret, err := reg.Issue(ctx, "b@x.com")
	require.NoError(t, err)

	const n = 16
	var (
		wg sync.WaitGroup
		ok atomic.Int32
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if reg.Claim(ctx, "b@x.com", secret) == nil {
				ok.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), ok.Load())
	users.AssertExpectations(t)
}

func TestClaim_StoreErrorPropagates(t *testing.T) {
	store := &mockStore{}
	reg := NewRegistry(store, &mockUserVerifier{}, time.Hour)
	store.On("Get", mock.Anything, "b@x.com").Return(nil, errors.New("throttled"))

	err := reg.Claim(context.Background(), "b@x.com", "c1")
	assert.EqualError(t, err, "throttled")
}
