package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-file-exchange/internal/domain"
)

type FileRepo struct {
	mu    sync.RWMutex
	files map[string]domain.File
}

func NewFileRepo() *FileRepo {
	return &FileRepo{files: make(map[string]domain.File)}
}

func (r *FileRepo) Put(_ context.Context, f *domain.File) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.files[f.FileID]; ok {
		return fmt.Errorf("file %s already exists: %w", f.FileID, domain.ErrConflict)
	}
	r.files[f.FileID] = *f
	return nil
}

func (r *FileRepo) Get(_ context.Context, fileID string) (*domain.File, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.files[fileID]
	if !ok {
		return nil, fmt.Errorf("file not found: %w", domain.ErrNotFound)
	}
	return &f, nil
}

// List returns all files in no particular order.
func (r *FileRepo) List(_ context.Context) ([]domain.File, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	files := make([]domain.File, 0, len(r.files))
	for _, f := range r.files {
		files = append(files, f)
	}
	return files, nil
}
