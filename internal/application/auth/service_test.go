package auth

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/go-file-exchange/internal/domain"
	"github.com/go-file-exchange/internal/pkg/password"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockUserStore struct{ mock.Mock }

func (m *mockUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockRegistry struct{ mock.Mock }

func (m *mockRegistry) Issue(ctx context.Context, email string) (string, error) {
	args := m.Called(ctx, email)
	return args.String(0), args.Error(1)
}
func (m *mockRegistry) Claim(ctx context.Context, email, secret string) error {
	return m.Called(ctx, email, secret).Error(0)
}

type mockMailer struct{ mock.Mock }

func (m *mockMailer) SendEmail(to, subject, body string) error {
	return m.Called(to, subject, body).Error(0)
}

type mockJWTSigner struct{ mock.Mock }

func (m *mockJWTSigner) Sign(email, role string) (string, error) {
	args := m.Called(email, role)
	return args.String(0), args.Error(1)
}

// --- builder ---

type mocks struct {
	users *mockUserStore
	reg   *mockRegistry
	mail  *mockMailer
	jwt   *mockJWTSigner
}

func newService() (Service, *mocks) {
	m := &mocks{users: &mockUserStore{}, reg: &mockRegistry{}, mail: &mockMailer{}, jwt: &mockJWTSigner{}}
	return NewService(ServiceDeps{
		UserRepo:            m.users,
		Registry:            m.reg,
		Mailer:              m.mail,
		JWTProvider:         m.jwt,
		VerificationTTLText: "24 hours",
	}), m
}

func mustHash(t *testing.T, p string) string {
	t.Helper()
	h, err := password.Hash(p)
	require.NoError(t, err)
	return h
}

// --- Login ---

func TestLogin_Success(t *testing.T) {
	svc, m := newService()
	u := &domain.User{Email: "b@x.com", Role: domain.RoleClient, Verified: true, PasswordHash: mustHash(t, "s3cretpass")}
	m.users.On("GetByEmail", mock.Anything, "b@x.com").Return(u, nil)
	m.jwt.On("Sign", "b@x.com", domain.RoleClient).Return("jwt-token", nil)

	tok, err := svc.Login(context.Background(), domain.LoginRequest{Email: " B@x.com", Password: "s3cretpass"})
	require.NoError(t, err)
	assert.Equal(t, "jwt-token", tok)
}

func TestLogin_WrongPassword(t *testing.T) {
	svc, m := newService()
	u := &domain.User{Email: "b@x.com", Role: domain.RoleClient, Verified: true, PasswordHash: mustHash(t, "s3cretpass")}
	m.users.On("GetByEmail", mock.Anything, "b@x.com").Return(u, nil)

	_, err := svc.Login(context.Background(), domain.LoginRequest{Email: "b@x.com", Password: "nope"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	m.jwt.AssertNotCalled(t, "Sign", mock.Anything, mock.Anything)
}

func TestLogin_UnknownEmail(t *testing.T) {
	svc, m := newService()
	m.users.On("GetByEmail", mock.Anything, "x@x.com").Return(nil, domain.ErrNotFound)

	_, err := svc.Login(context.Background(), domain.LoginRequest{Email: "x@x.com", Password: "whatever1"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestLogin_UnknownEmailStillComparesHash(t *testing.T) {
	svc, m := newService()
	m.users.On("GetByEmail", mock.Anything, "x@x.com").Return(nil, domain.ErrNotFound)

	var compared []string
	svc.(*service).verify = func(plain, hash string) bool {
		compared = append(compared, hash)
		return password.Verify(plain, hash)
	}

	_, err := svc.Login(context.Background(), domain.LoginRequest{Email: "x@x.com", Password: "whatever1"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	require.Len(t, compared, 1)
	assert.Equal(t, dummyHash(), compared[0])
	assert.True(t, strings.HasPrefix(compared[0], "$2"), "expected a bcrypt hash")
}

func TestLogin_UnverifiedClient(t *testing.T) {
	svc, m := newService()
	u := &domain.User{Email: "b@x.com", Role: domain.RoleClient, PasswordHash: mustHash(t, "s3cretpass")}
	m.users.On("GetByEmail", mock.Anything, "b@x.com").Return(u, nil)

	_, err := svc.Login(context.Background(), domain.LoginRequest{Email: "b@x.com", Password: "s3cretpass"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.ErrorContains(t, err, "not verified")
}

func TestLogin_StoreErrorIsNotUnauthorized(t *testing.T) {
	svc, m := newService()
	m.users.On("GetByEmail", mock.Anything, "b@x.com").Return(nil, errors.New("throttled"))

	_, err := svc.Login(context.Background(), domain.LoginRequest{Email: "b@x.com", Password: "s3cretpass"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrUnauthorized)
}

// --- VerifyEmail ---

func TestVerifyEmail_Success(t *testing.T) {
	svc, m := newService()
	m.users.On("GetByEmail", mock.Anything, "b@x.com").Return(&domain.User{Email: "b@x.com", Role: domain.RoleClient}, nil)
	m.reg.On("Claim", mock.Anything, "b@x.com", "secret").Return(nil)

	already, err := svc.VerifyEmail(context.Background(), "b@x.com", "secret")
	require.NoError(t, err)
	assert.False(t, already)
}

func TestVerifyEmail_AlreadyVerified(t *testing.T) {
	svc, m := newService()
	m.users.On("GetByEmail", mock.Anything, "b@x.com").Return(&domain.User{Email: "b@x.com", Verified: true}, nil)

	already, err := svc.VerifyEmail(context.Background(), "b@x.com", "anything")
	require.NoError(t, err)
	assert.True(t, already)
	m.reg.AssertNotCalled(t, "Claim", mock.Anything, mock.Anything, mock.Anything)
}

func TestVerifyEmail_UnknownUser(t *testing.T) {
	svc, m := newService()
	m.users.On("GetByEmail", mock.Anything, "x@x.com").Return(nil, domain.ErrNotFound)

	_, err := svc.VerifyEmail(context.Background(), "x@x.com", "secret")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestVerifyEmail_ClaimErrorsPassThrough(t *testing.T) {
	for _, claimErr := range []error{domain.ErrVerificationExpired, domain.ErrVerificationMismatch, domain.ErrVerificationNotFound} {
		svc, m := newService()
		m.users.On("GetByEmail", mock.Anything, "b@x.com").Return(&domain.User{Email: "b@x.com", Role: domain.RoleClient}, nil)
		m.reg.On("Claim", mock.Anything, "b@x.com", "secret").Return(claimErr)

		_, err := svc.VerifyEmail(context.Background(), "b@x.com", "secret")
		assert.ErrorIs(t, err, claimErr)
		assert.ErrorIs(t, err, domain.ErrBadRequest)
	}
}

// --- SendVerification / ResendVerification ---

func TestSendVerification_MailsLink(t *testing.T) {
	svc, m := newService()
	m.reg.On("Issue", mock.Anything, "b@x.com").Return("s3cr3t-token", nil)

	var body string
	m.mail.On("SendEmail", "b@x.com", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { body = args.String(2) }).
		Return(nil)

	require.NoError(t, svc.SendVerification(context.Background(), "b@x.com", "http://host"))
	assert.Contains(t, body, "http://host/auth/verify-email?email=b%40x.com&token=s3cr3t-token")
	assert.Contains(t, body, "24 hours")
}

func TestResendVerification_UnverifiedClient(t *testing.T) {
	svc, m := newService()
	m.users.On("GetByEmail", mock.Anything, "b@x.com").Return(&domain.User{Email: "b@x.com", Role: domain.RoleClient}, nil)
	m.reg.On("Issue", mock.Anything, "b@x.com").Return("tok", nil)
	m.mail.On("SendEmail", "b@x.com", mock.Anything, mock.Anything).Return(nil)

	require.NoError(t, svc.ResendVerification(context.Background(), "B@X.com", "http://host"))
	m.mail.AssertExpectations(t)
}

func TestResendVerification_SilentCases(t *testing.T) {
	cases := map[string]*domain.User{
		"verified client": {Email: "b@x.com", Role: domain.RoleClient, Verified: true},
		"ops user":        {Email: "b@x.com", Role: domain.RoleOps},
		"unknown":         nil,
	}
	for name, u := range cases {
		t.Run(name, func(t *testing.T) {
			svc, m := newService()
			if u == nil {
				m.users.On("GetByEmail", mock.Anything, "b@x.com").Return(nil, domain.ErrNotFound)
			} else {
				m.users.On("GetByEmail", mock.Anything, "b@x.com").Return(u, nil)
			}
			require.NoError(t, svc.ResendVerification(context.Background(), "b@x.com", "http://host"))
			m.reg.AssertNotCalled(t, "Issue", mock.Anything, mock.Anything)
		})
	}
}

func TestVerificationLink_EscapesValues(t *testing.T) {
	link := VerificationLink("https://files.example.com", "a+b@x.com", "abc_-123")
	require.True(t, strings.HasPrefix(link, "https://files.example.com/auth/verify-email?"))

	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "a+b@x.com", u.Query().Get("email"))
	assert.Equal(t, "abc_-123", u.Query().Get("token"))
}
