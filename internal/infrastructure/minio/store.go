// Package minioinfra stores file content in a MinIO (or other S3-compatible)
// bucket through the native MinIO client.
package minioinfra

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/go-file-exchange/internal/config"
	"github.com/go-file-exchange/internal/domain"
	"github.com/go-file-exchange/internal/pkg/contenttype"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Store keeps file content as objects in a single bucket.
type Store struct {
	client *minio.Client
	bucket string
}

// normaliseEndpoint accepts "minio:9000" or a URL with an http/https scheme
// and no path. A bare host:port is treated as plain HTTP.
func normaliseEndpoint(raw string) (endpoint string, secure bool, err error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false, fmt.Errorf("empty endpoint")
	}
	if !strings.Contains(raw, "://") {
		return raw, false, nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", false, err
	}
	if u.Host == "" {
		return "", false, fmt.Errorf("invalid endpoint %q", raw)
	}
	if u.Path != "" && u.Path != "/" {
		return "", false, fmt.Errorf("endpoint must not contain a path")
	}
	return u.Host, u.Scheme == "https", nil
}

// NewClient creates a MinIO client from MINIO_* settings.
func NewClient(cfg *config.Config) (*minio.Client, error) {
	if cfg.MinioAccessKey == "" || cfg.MinioSecretKey == "" {
		return nil, fmt.Errorf("minio credentials are not configured")
	}
	endpoint, secure, err := normaliseEndpoint(cfg.MinioEndpoint)
	if err != nil {
		return nil, err
	}
	return minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: secure,
	})
}

// NewStore checks that bucket exists, creating it if needed.
func NewStore(ctx context.Context, client *minio.Client, bucket string) (*Store, error) {
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", bucket, err)
		}
	}
	return &Store{client: client, bucket: bucket}, nil
}

// Put uploads r under key. A size of -1 streams as a multipart upload.
func (s *Store) Put(ctx context.Context, key string, r io.Reader, size int64) error {
	_, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contenttype.For(key),
	})
	if err != nil {
		return fmt.Errorf("minio put object: %w", err)
	}
	return nil
}

// Open streams the object stored under key. GetObject is lazy, so the
// object is stat'ed first to report a missing key here rather than on read.
func (s *Store) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("minio get object: %w", err)
	}
	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		if isNoSuchKey(err) {
			return nil, fmt.Errorf("object %s: %w", key, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("minio stat object: %w", err)
	}
	return obj, nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	return s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
}

func isNoSuchKey(err error) bool {
	return minio.ToErrorResponse(err).Code == "NoSuchKey"
}
