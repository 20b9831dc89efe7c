package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-file-exchange/internal/application/capability"
	fileapp "github.com/go-file-exchange/internal/application/file"
	"github.com/go-file-exchange/internal/domain"
	"github.com/go-file-exchange/internal/transport/http/middleware"
	"github.com/stretchr/testify/mock"
)

// --- mocks ---

type mockUserSvc struct{ mock.Mock }

func (m *mockUserSvc) Signup(ctx context.Context, req domain.CreateUserRequest, baseURL string) (*domain.User, error) {
	args := m.Called(ctx, req, baseURL)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserSvc) CreateOpsUser(ctx context.Context, req domain.CreateUserRequest) (*domain.User, error) {
	args := m.Called(ctx, req)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockAuthSvc struct{ mock.Mock }

func (m *mockAuthSvc) Login(ctx context.Context, req domain.LoginRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *mockAuthSvc) VerifyEmail(ctx context.Context, email, token string) (bool, error) {
	args := m.Called(ctx, email, token)
	return args.Bool(0), args.Error(1)
}

func (m *mockAuthSvc) ResendVerification(ctx context.Context, email, baseURL string) error {
	return m.Called(ctx, email, baseURL).Error(0)
}

func (m *mockAuthSvc) SendVerification(ctx context.Context, email, baseURL string) error {
	return m.Called(ctx, email, baseURL).Error(0)
}

type mockFileSvc struct{ mock.Mock }

func (m *mockFileSvc) Upload(ctx context.Context, input fileapp.UploadInput) (*domain.File, error) {
	args := m.Called(ctx, input)
	if f, _ := args.Get(0).(*domain.File); f != nil {
		return f, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockFileSvc) List(ctx context.Context) ([]domain.File, error) {
	args := m.Called(ctx)
	files, _ := args.Get(0).([]domain.File)
	return files, args.Error(1)
}

func (m *mockFileSvc) Get(ctx context.Context, fileID string) (*domain.File, error) {
	args := m.Called(ctx, fileID)
	if f, _ := args.Get(0).(*domain.File); f != nil {
		return f, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockCapSvc struct{ mock.Mock }

func (m *mockCapSvc) Issue(ctx context.Context, fileID, clientID, baseURL string) (*capability.IssuedLink, error) {
	args := m.Called(ctx, fileID, clientID, baseURL)
	if l, _ := args.Get(0).(*capability.IssuedLink); l != nil {
		return l, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockCapSvc) Redeem(ctx context.Context, token string) (*capability.Download, error) {
	args := m.Called(ctx, token)
	if d, _ := args.Get(0).(*capability.Download); d != nil {
		return d, args.Error(1)
	}
	return nil, args.Error(1)
}

// --- helpers ---

// stubGuard authenticates every request as u.
type stubGuard struct{ u *domain.User }

func (g stubGuard) Authenticate(context.Context, string) (*domain.User, error) { return g.u, nil }
func (g stubGuard) RequireRole(*domain.User, ...string) error { return nil }
func (g stubGuard) RequireVerified(*domain.User) error { return nil }

// serveAs runs h behind middleware.Auth with u as the caller.
func serveAs(u *domain.User, h http.HandlerFunc, w http.ResponseWriter, r *http.Request) {
	middleware.Auth(stubGuard{u: u})(h).ServeHTTP(w, r)
}

// withURLParam injects a chi URL param into the request context.
func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}
