package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-file-exchange/internal/domain"
)

const fileColumns = `file_id, filename, original_filename, path, size, type, hash, uploader_id, created_at`

type FileRepo struct {
	db DBTX
}

func NewFileRepo(db DBTX) *FileRepo {
	return &FileRepo{db: db}
}

func (r *FileRepo) Put(ctx context.Context, f *domain.File) error {
	query := `INSERT INTO files (` + fileColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.ExecContext(ctx, query,
		f.FileID, f.Filename, f.OriginalFilename, f.Path, f.Size, f.Type, f.Hash, f.UploaderID, f.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("file already exists: %w", domain.ErrConflict)
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *FileRepo) Get(ctx context.Context, fileID string) (*domain.File, error) {
	query := `SELECT ` + fileColumns + ` FROM files WHERE file_id = $1`

	f, err := scanFile(r.db.QueryRowContext(ctx, query, fileID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("file not found: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return f, nil
}

// List returns every file record, newest first.
func (r *FileRepo) List(ctx context.Context) ([]domain.File, error) {
	query := `SELECT ` + fileColumns + ` FROM files ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	files := []domain.File{}
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		files = append(files, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return files, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFile(row rowScanner) (*domain.File, error) {
	var f domain.File
	err := row.Scan(&f.FileID, &f.Filename, &f.OriginalFilename, &f.Path, &f.Size, &f.Type, &f.Hash, &f.UploaderID, &f.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &f, nil
}
