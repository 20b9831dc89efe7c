package user

import (
	"context"
	"errors"
	"testing"

	"github.com/go-file-exchange/internal/domain"
	"github.com/go-file-exchange/internal/pkg/password"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockUserStore struct{ mock.Mock }

func (m *mockUserStore) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	args := m.Called(ctx, username)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) Put(ctx context.Context, u *domain.User) error {
	return m.Called(ctx, u).Error(0)
}

type mockSender struct{ mock.Mock }

func (m *mockSender) SendVerification(ctx context.Context, email, baseURL string) error {
	return m.Called(ctx, email, baseURL).Error(0)
}

// --- helpers ---

func newSvc() (*service, *mockUserStore, *mockSender) {
	repo := &mockUserStore{}
	sender := &mockSender{}
	svc := NewService(ServiceDeps{UserRepo: repo, VerificationSender: sender}).(*service)
	return svc, repo, sender
}

func notFound() error { return domain.ErrNotFound }

func clientReq() domain.CreateUserRequest {
	return domain.CreateUserRequest{Email: "B@x.com", Username: "bob", Password: "s3cretpass", UserType: domain.RoleClient}
}

// --- Signup ---

func TestSignup_CreatesUnverifiedClientAndSendsMail(t *testing.T) {
	svc, repo, sender := newSvc()
	ctx := context.Background()

	repo.On("GetByEmail", ctx, "b@x.com").Return(nil, notFound())
	repo.On("GetByUsername", ctx, "bob").Return(nil, notFound())
	repo.On("Put", ctx, mock.MatchedBy(func(u *domain.User) bool {
		return u.Email == "b@x.com" && u.Role == domain.RoleClient && !u.Verified &&
			u.UserID != "" && password.Verify("s3cretpass", u.PasswordHash)
	})).Return(nil)
	sender.On("SendVerification", ctx, "b@x.com", "http://host").Return(nil)

	u, err := svc.Signup(ctx, clientReq(), "http://host")
	require.NoError(t, err)
	assert.Equal(t, "b@x.com", u.Email)
	assert.NotEqual(t, "s3cretpass", u.PasswordHash)
	repo.AssertExpectations(t)
	sender.AssertExpectations(t)
}

func TestSignup_RejectsOpsType(t *testing.T) {
	svc, repo, _ := newSvc()
	req := clientReq()
	req.UserType = domain.RoleOps

	_, err := svc.Signup(context.Background(), req, "http://host")
	assert.ErrorIs(t, err, domain.ErrBadRequest)
	repo.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestSignup_DuplicateEmail(t *testing.T) {
	svc, repo, sender := newSvc()
	ctx := context.Background()
	repo.On("GetByEmail", ctx, "b@x.com").Return(&domain.User{UserID: "u1"}, nil)

	_, err := svc.Signup(ctx, clientReq(), "http://host")
	assert.ErrorIs(t, err, domain.ErrConflict)
	sender.AssertNotCalled(t, "SendVerification", mock.Anything, mock.Anything, mock.Anything)
}

func TestSignup_DuplicateUsername(t *testing.T) {
	svc, repo, _ := newSvc()
	ctx := context.Background()
	repo.On("GetByEmail", ctx, "b@x.com").Return(nil, notFound())
	repo.On("GetByUsername", ctx, "bob").Return(&domain.User{UserID: "u9"}, nil)

	_, err := svc.Signup(ctx, clientReq(), "http://host")
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestSignup_StoreConflictOnPut(t *testing.T) {
	svc, repo, _ := newSvc()
	ctx := context.Background()
	repo.On("GetByEmail", ctx, "b@x.com").Return(nil, notFound())
	repo.On("GetByUsername", ctx, "bob").Return(nil, notFound())
	repo.On("Put", ctx, mock.Anything).Return(domain.ErrConflict)

	_, err := svc.Signup(ctx, clientReq(), "http://host")
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestSignup_LookupFailureIsNotTreatedAsFree(t *testing.T) {
	svc, repo, _ := newSvc()
	ctx := context.Background()
	repo.On("GetByEmail", ctx, "b@x.com").Return(nil, errors.New("throttled"))

	_, err := svc.Signup(ctx, clientReq(), "http://host")
	assert.EqualError(t, err, "throttled")
	repo.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestSignup_MailFailureStillCreates(t *testing.T) {
	svc, repo, sender := newSvc()
	ctx := context.Background()
	repo.On("GetByEmail", ctx, "b@x.com").Return(nil, notFound())
	repo.On("GetByUsername", ctx, "bob").Return(nil, notFound())
	repo.On("Put", ctx, mock.Anything).Return(nil)
	sender.On("SendVerification", ctx, "b@x.com", "http://host").Return(errors.New("smtp down"))

	u, err := svc.Signup(ctx, clientReq(), "http://host")
	require.NoError(t, err)
	assert.False(t, u.Verified)
}

// --- CreateOpsUser ---

func TestCreateOpsUser_Verified(t *testing.T) {
	svc, repo, sender := newSvc()
	ctx := context.Background()
	req := domain.CreateUserRequest{Email: "a@x.com", Username: "alice", Password: "s3cretpass", UserType: domain.RoleOps}

	repo.On("GetByEmail", ctx, "a@x.com").Return(nil, notFound())
	repo.On("GetByUsername", ctx, "alice").Return(nil, notFound())
	repo.On("Put", ctx, mock.Anything).Return(nil)

	u, err := svc.CreateOpsUser(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleOps, u.Role)
	assert.True(t, u.Verified)
	sender.AssertNotCalled(t, "SendVerification", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateOpsUser_RejectsClientType(t *testing.T) {
	svc, _, _ := newSvc()
	_, err := svc.CreateOpsUser(context.Background(), clientReq())
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}
