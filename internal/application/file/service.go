package file

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/go-file-exchange/internal/domain"
	"github.com/go-file-exchange/internal/pkg/id"
	"github.com/google/uuid"
)

type UploadInput struct {
	// Content must be seekable: it is hashed and measured before being stored.
	Content    io.ReadSeeker
	Filename   string
	Size       int64 // as declared by the client, -1 if unknown
	UploaderID string
}

type Service interface {
	Upload(ctx context.Context, input UploadInput) (*domain.File, error)
	// List returns all files, newest first.
	List(ctx context.Context) ([]domain.File, error)
	Get(ctx context.Context, fileID string) (*domain.File, error)
}

type fileStore interface {
	Put(ctx context.Context, f *domain.File) error
	Get(ctx context.Context, fileID string) (*domain.File, error)
	List(ctx context.Context) ([]domain.File, error)
}

type contentStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64) error
	Delete(ctx context.Context, key string) error
}

type eventPublisher interface {
	FileUploaded(ctx context.Context, f *domain.File) error
}

type service struct {
	files      fileStore
	content    contentStore
	events     eventPublisher
	maxSize    int64
	allowedExt map[string]bool
	allowed    string
}

type ServiceDeps struct {
	FileRepo          fileStore
	Content           contentStore
	Events            eventPublisher
	MaxFileSize       int64 // <= 0 disables the limit
	AllowedExtensions []string
}

func NewService(deps ServiceDeps) Service {
	allowed := make(map[string]bool, len(deps.AllowedExtensions))
	names := make([]string, 0, len(deps.AllowedExtensions))
	for _, ext := range deps.AllowedExtensions {
		ext = strings.ToLower(ext)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		allowed[ext] = true
		names = append(names, ext)
	}
	return &service{
		files:      deps.FileRepo,
		content:    deps.Content,
		events:     deps.Events,
		maxSize:    deps.MaxFileSize,
		allowedExt: allowed,
		allowed:    strings.Join(names, ", "),
	}
}

func (s *service) Upload(ctx context.Context, input UploadInput) (*domain.File, error) {
	original := sanitizeFilename(input.Filename)
	if original == "" {
		return nil, fmt.Errorf("no file provided: %w", domain.ErrBadRequest)
	}
	ext := strings.ToLower(path.Ext(original))
	if !s.allowedExt[ext] {
		return nil, fmt.Errorf("file type not allowed, allowed types: %s: %w", s.allowed, domain.ErrBadRequest)
	}
	if s.maxSize > 0 && input.Size > s.maxSize {
		return nil, s.tooLarge()
	}

	size, hash, err := s.measure(input.Content)
	if err != nil {
		return nil, err
	}

	key := uuid.NewString() + ext
	if err := s.content.Put(ctx, key, input.Content, size); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrStorage, err)
	}

	f := &domain.File{
		FileID:           id.New(),
		Filename:         key,
		OriginalFilename: original,
		Path:             key,
		Size:             size,
		Type:             ext,
		Hash:             hash,
		UploaderID:       input.UploaderID,
		CreatedAt:        time.Now().UTC(),
	}
	if err := s.files.Put(ctx, f); err != nil {
		if delErr := s.content.Delete(ctx, key); delErr != nil {
			slog.Warn("failed to remove orphaned content", "key", key, "err", delErr)
		}
		return nil, fmt.Errorf("store file record: %w", err)
	}

	if err := s.events.FileUploaded(ctx, f); err != nil {
		slog.Warn("failed to publish upload event", "file_id", f.FileID, "err", err)
	}
	return f, nil
}

// measure reads content once to compute its size and sha256, then rewinds it.
func (s *service) measure(content io.ReadSeeker) (int64, string, error) {
	var r io.Reader = content
	if s.maxSize > 0 {
		r = io.LimitReader(content, s.maxSize+1)
	}
	h := sha256.New()
	n, err := io.Copy(h, r)
	if err != nil {
		return 0, "", fmt.Errorf("read upload: %w", err)
	}
	if s.maxSize > 0 && n > s.maxSize {
		return 0, "", s.tooLarge()
	}
	if _, err := content.Seek(0, io.SeekStart); err != nil {
		return 0, "", fmt.Errorf("rewind upload: %w", err)
	}
	return n, hex.EncodeToString(h.Sum(nil)), nil
}

func (s *service) tooLarge() error {
	return fmt.Errorf("file too large, maximum size is %d bytes: %w", s.maxSize, domain.ErrBadRequest)
}

func (s *service) List(ctx context.Context) ([]domain.File, error) {
	files, err := s.files.List(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(files, func(i, j int) bool {
		if files[i].CreatedAt.Equal(files[j].CreatedAt) {
			return files[i].FileID > files[j].FileID
		}
		return files[i].CreatedAt.After(files[j].CreatedAt)
	})
	return files, nil
}

func (s *service) Get(ctx context.Context, fileID string) (*domain.File, error) {
	f, err := s.files.Get(ctx, fileID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrFileNotFound
		}
		return nil, err
	}
	return f, nil
}

// sanitizeFilename keeps only the last path element of a client-supplied name.
func sanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = strings.TrimSpace(path.Base(name))
	if name == "." || name == "/" || name == ".." {
		return ""
	}
	return name
}
