// Package miniostore implements relapse.BlobStore on a MinIO server.
package miniostore

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/sagarc03/relapse"
	"github.com/sagarc03/relapse/blob/internal"
)

// Config holds configuration for Store.
type Config struct {
	Endpoint  string // host:port, no scheme
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

type Store struct {
	client *minio.Client
	bucket string
}

// New creates a MinIO client. Setting Region lets URLs be signed without a
// round trip to look up the bucket location.
func New(cfg Config) (*Store, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("new minio store: %w", err)
	}

	return &Store{client: client, bucket: cfg.Bucket}, nil
}

// EnsureBucket creates the bucket when it does not exist yet.
func (s *Store) EnsureBucket(ctx context.Context) error {
	if s.bucket == "" {
		return fmt.Errorf("minio ensure bucket: %w", relapse.ErrNotConfigured)
	}

	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("minio ensure bucket: %w", err)
	}
	if exists {
		return nil
	}

	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("minio ensure bucket %q: %w", s.bucket, err)
	}
	return nil
}

func (s *Store) Upload(ctx context.Context, key string, content io.Reader, contentType string, policy relapse.AccessPolicy) error {
	if s.bucket == "" {
		return fmt.Errorf("minio upload: %w: set storage.bucket", relapse.ErrNotConfigured)
	}

	_, err := s.client.PutObject(ctx, s.bucket, key, content, internal.SizeOf(content), minio.PutObjectOptions{
		ContentType:  contentType,
		UserMetadata: map[string]string{"x-amz-acl": string(policy)},
	})
	if err != nil {
		return fmt.Errorf("minio upload %s: %w", key, err)
	}
	return nil
}

func (s *Store) SignURL(ctx context.Context, key string, expires time.Duration) (string, error) {
	if s.bucket == "" {
		return "", fmt.Errorf("minio sign url: %w: set storage.bucket", relapse.ErrNotConfigured)
	}

	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, expires, nil)
	if err != nil {
		return "", fmt.Errorf("minio sign url %s: %w", key, err)
	}
	return u.String(), nil
}
