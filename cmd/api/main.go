package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-file-exchange/internal/config"
	"github.com/go-file-exchange/internal/infrastructure/dynamo"
	jwtinfra "github.com/go-file-exchange/internal/infrastructure/jwt"
	"github.com/go-file-exchange/internal/infrastructure/memory"
	minioinfra "github.com/go-file-exchange/internal/infrastructure/minio"
	"github.com/go-file-exchange/internal/infrastructure/postgres"
	s3infra "github.com/go-file-exchange/internal/infrastructure/s3"
	"github.com/go-file-exchange/internal/infrastructure/smtp"
	"github.com/go-file-exchange/internal/infrastructure/sns"
	"github.com/go-file-exchange/internal/infrastructure/storage"
	transporthttp "github.com/go-file-exchange/internal/transport/http"
	"github.com/joho/godotenv"
)

func main() {
	envErr := godotenv.Load()

	cfg := config.Load()
	slog.SetDefault(newLogger(cfg))
	if envErr != nil {
		slog.Info("no .env file found, reading from environment")
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("server exited", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	jwtProvider, err := jwtinfra.NewProvider(cfg)
	if err != nil {
		return fmt.Errorf("jwt provider: %w", err)
	}

	deps, closeStores, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStores()

	content, err := openContent(ctx, cfg)
	if err != nil {
		return err
	}
	deps.Content = content

	events, err := sns.NewPublisher(ctx, cfg)
	if err != nil {
		return fmt.Errorf("sns publisher: %w", err)
	}
	deps.Events = events
	deps.Mailer = smtp.NewMailer(cfg)
	deps.JWTProvider = jwtProvider

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.AppPort),
		Handler:           transporthttp.NewRouter(ctx, cfg, deps),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       5 * time.Minute,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting",
			"port", cfg.AppPort, "env", cfg.AppEnv,
			"store", cfg.StoreBackend, "storage", cfg.StorageBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}
	slog.Info("server stopped")
	return nil
}

// openStores builds the record stores for STORE_BACKEND. The returned func
// releases any connections.
func openStores(ctx context.Context, cfg *config.Config) (*transporthttp.Deps, func(), error) {
	noop := func() {}
	switch cfg.StoreBackend {
	case config.StoreDynamo:
		client, err := dynamo.NewClient(ctx, cfg)
		if err != nil {
			return nil, noop, fmt.Errorf("dynamo client: %w", err)
		}
		// Creates tables if they don't exist.
		dynamo.Bootstrap(ctx, client, cfg.DynamoTables)
		return &transporthttp.Deps{
			UserRepo:         dynamo.NewUserRepo(client, cfg.DynamoTables.Users),
			FileRepo:         dynamo.NewFileRepo(client, cfg.DynamoTables.Files),
			CapabilityRepo:   dynamo.NewCapabilityRepo(client, cfg.DynamoTables.DownloadTokens),
			VerificationRepo: dynamo.NewVerificationRepo(client, cfg.DynamoTables.EmailVerifications),
		}, noop, nil

	case config.StorePostgres:
		db, err := postgres.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, noop, fmt.Errorf("postgres: %w", err)
		}
		if err := postgres.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, noop, fmt.Errorf("postgres migrate: %w", err)
		}
		return &transporthttp.Deps{
			UserRepo:         postgres.NewUserRepo(db),
			FileRepo:         postgres.NewFileRepo(db),
			CapabilityRepo:   postgres.NewCapabilityRepo(db),
			VerificationRepo: postgres.NewVerificationRepo(db),
		}, func() { _ = db.Close() }, nil

	case config.StoreMemory:
		slog.Warn("using in-memory store; all data is lost on restart")
		return &transporthttp.Deps{
			UserRepo:         memory.NewUserRepo(),
			FileRepo:         memory.NewFileRepo(),
			CapabilityRepo:   memory.NewCapabilityRepo(),
			VerificationRepo: memory.NewVerificationRepo(),
		}, noop, nil
	}
	return nil, noop, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
}

func openContent(ctx context.Context, cfg *config.Config) (transporthttp.ContentStore, error) {
	switch cfg.StorageBackend {
	case config.StorageLocal:
		local, err := storage.NewLocal(cfg.UploadDir)
		if err != nil {
			return nil, err
		}
		return local, nil
	case config.StorageS3:
		client, err := s3infra.NewClient(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("s3 client: %w", err)
		}
		return s3infra.NewStore(client, cfg.S3BucketName), nil
	case config.StorageMinio:
		client, err := minioinfra.NewClient(cfg)
		if err != nil {
			return nil, fmt.Errorf("minio client: %w", err)
		}
		store, err := minioinfra.NewStore(ctx, client, cfg.MinioBucket)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
	return nil, fmt.Errorf("unknown STORAGE_BACKEND %q", cfg.StorageBackend)
}

func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.LogFormat, "text") {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}
