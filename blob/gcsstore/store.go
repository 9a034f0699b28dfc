// Package gcsstore implements relapse.BlobStore on Google Cloud Storage.
package gcsstore

import (
	"context"
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/storage"
	"github.com/sagarc03/relapse"
	"google.golang.org/api/option"
)

// Config holds configuration for Store.
type Config struct {
	Bucket string
	// CredentialsFile is a service account JSON key. Application Default
	// Credentials are used when empty.
	CredentialsFile string
	// GoogleAccessID and PrivateKey override the signer detected from the
	// client credentials. Both are optional.
	GoogleAccessID string
	PrivateKey     []byte
}

type Store struct {
	client         *storage.Client
	bucket         string
	googleAccessID string
	privateKey     []byte
}

// New creates a GCS-backed blob store.
func New(ctx context.Context, cfg Config, opts ...option.ClientOption) (*Store, error) {
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("new gcs store: %w", err)
	}

	return &Store{
		client:         client,
		bucket:         cfg.Bucket,
		googleAccessID: cfg.GoogleAccessID,
		privateKey:     cfg.PrivateKey,
	}, nil
}

func (s *Store) Upload(ctx context.Context, key string, content io.Reader, contentType string, policy relapse.AccessPolicy) error {
	if s.bucket == "" {
		return fmt.Errorf("gcs upload: %w: set GCP_BUCKET", relapse.ErrNotConfigured)
	}

	// Cancelling the writer's context abandons the upload; Close would
	// commit whatever was written.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentType
	w.PredefinedACL = string(policy)

	if _, err := io.Copy(w, content); err != nil {
		cancel()
		return fmt.Errorf("gcs upload %s: write: %w", key, err)
	}

	if err := w.Close(); err != nil {
		return fmt.Errorf("gcs upload %s: close: %w", key, err)
	}

	return nil
}

func (s *Store) SignURL(_ context.Context, key string, expires time.Duration) (string, error) {
	if s.bucket == "" {
		return "", fmt.Errorf("gcs sign url: %w: set GCP_BUCKET", relapse.ErrNotConfigured)
	}

	signed, err := s.client.Bucket(s.bucket).SignedURL(key, &storage.SignedURLOptions{
		GoogleAccessID: s.googleAccessID,
		PrivateKey:     s.privateKey,
		Method:         "GET",
		Expires:        time.Now().Add(expires),
		Scheme:         storage.SigningSchemeV4,
	})
	if err != nil {
		return "", fmt.Errorf("gcs sign url %s: %w", key, err)
	}

	return signed, nil
}

// Close releases the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}
