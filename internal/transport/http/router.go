package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-file-exchange/internal/application/access"
	"github.com/go-file-exchange/internal/application/auth"
	"github.com/go-file-exchange/internal/application/capability"
	fileapp "github.com/go-file-exchange/internal/application/file"
	"github.com/go-file-exchange/internal/application/user"
	"github.com/go-file-exchange/internal/application/verification"
	"github.com/go-file-exchange/internal/config"
	"github.com/go-file-exchange/internal/domain"
	jwtinfra "github.com/go-file-exchange/internal/infrastructure/jwt"
	"github.com/go-file-exchange/internal/infrastructure/smtp"
	"github.com/go-file-exchange/internal/infrastructure/sns"
	"github.com/go-file-exchange/internal/transport/http/handler"
	appmiddleware "github.com/go-file-exchange/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	UserRepo         UserRepository
	FileRepo         FileRepository
	CapabilityRepo   CapabilityRepository
	VerificationRepo VerificationRepository
	Content          ContentStore
	Events           sns.Publisher
	Mailer           smtp.Mailer
	JWTProvider      *jwtinfra.Provider
}

// NewRouter builds and returns the application router. Background work
// started here stops when ctx is done.
func NewRouter(ctx context.Context, cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(appmiddleware.RequestLogger(slog.Default()))
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", appmiddleware.BootstrapHeader},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	events := deps.Events
	if events == nil {
		events = sns.Noop{}
	}

	// 5 requests/second, burst of 10, applied to unauthenticated endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(ctx, rate.Limit(5), 10, cfg.TrustedProxies...)

	gate := access.NewGate(deps.JWTProvider, deps.UserRepo)
	registry := verification.NewRegistry(deps.VerificationRepo, deps.UserRepo, cfg.VerificationTTL)
	authSvc := auth.NewService(auth.ServiceDeps{
		UserRepo:            deps.UserRepo,
		Registry:            registry,
		Mailer:              deps.Mailer,
		JWTProvider:         deps.JWTProvider,
		VerificationTTLText: humanDuration(cfg.VerificationTTL),
	})
	userSvc := user.NewService(user.ServiceDeps{
		UserRepo:           deps.UserRepo,
		VerificationSender: authSvc,
	})
	fileSvc := fileapp.NewService(fileapp.ServiceDeps{
		FileRepo:          deps.FileRepo,
		Content:           deps.Content,
		Events:            events,
		MaxFileSize:       cfg.MaxFileSize,
		AllowedExtensions: cfg.AllowedExtensions,
	})
	capSvc := capability.NewService(capability.ServiceDeps{
		CapabilityRepo: deps.CapabilityRepo,
		FileRepo:       deps.FileRepo,
		Content:        deps.Content,
		TTL:            cfg.DownloadTokenTTL,
	})

	healthH := handler.NewHealthHandler()
	userH := handler.NewUserHandler(userSvc, cfg.PublicBaseURL)
	sessionH := handler.NewSessionHandler(authSvc)
	emailH := handler.NewEmailConfirmHandler(authSvc, cfg.PublicBaseURL)
	fileH := handler.NewFileHandler(fileSvc, capSvc, cfg.MaxFileSize, cfg.PublicBaseURL)

	authMw := appmiddleware.Auth(gate)

	// ── Public routes (no auth) ──────────────────────────────────────────
	r.Get("/health-check/{action}", healthH.Ping)

	r.Route("/auth", func(r chi.Router) {
		r.Use(sensitiveRL.Limit)
		r.Post("/signup", userH.Signup)
		r.Post("/login", sessionH.Login)
		r.Get("/verify-email", emailH.Verify)
		r.Post("/resend-verification", emailH.Resend)
		r.With(appmiddleware.RequireBootstrapToken(cfg.OpsBootstrapToken)).
			Post("/create-ops-user", userH.CreateOpsUser)
	})

	r.Route("/files", func(r chi.Router) {
		// The token in the URL is the only credential.
		r.With(sensitiveRL.Limit).Get("/download-file/{token}", fileH.Download)

		// ── Authenticated routes ─────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.With(appmiddleware.RequireRole(gate, domain.RoleOps)).Post("/upload", fileH.Upload)

			r.Group(func(r chi.Router) {
				r.Use(appmiddleware.RequireRole(gate, domain.RoleClient))
				r.Use(appmiddleware.RequireVerified(gate))

				r.Get("/list", fileH.List)
				r.Get("/download/{file_id}", fileH.DownloadLink)
			})
		})
	})

	return r
}

// humanDuration renders whole hours as "24 hours" for the verification email.
func humanDuration(d time.Duration) string {
	if d >= time.Hour && d%time.Hour == 0 {
		h := int(d / time.Hour)
		if h == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", h)
	}
	return d.String()
}
