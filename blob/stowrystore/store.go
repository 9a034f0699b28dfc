// Package stowrystore implements relapse.BlobStore on a Stowry object
// server using its presigned URL scheme.
package stowrystore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/sagarc03/relapse"
	"github.com/sagarc03/relapse/blob/internal"
	"github.com/sagarc03/stowry-go"
)

const (
	// DefaultTimeout is the default HTTP client timeout.
	DefaultTimeout = 30 * time.Second

	uploadExpiry = 15 * time.Minute
)

// Config holds configuration for Store.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
}

type Store struct {
	config     Config
	signer     *stowry.Client
	httpClient *http.Client
}

// Option configures a Store.
type Option func(*Store)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(s *Store) {
		s.httpClient = client
	}
}

func New(cfg Config, opts ...Option) *Store {
	s := &Store{
		config:     cfg,
		signer:     stowry.NewClient(cfg.Endpoint, cfg.AccessKey, cfg.SecretKey),
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Upload stores content with a presigned PUT. Stowry decides read access
// from its server mode, so policy is not sent.
func (s *Store) Upload(ctx context.Context, key string, content io.Reader, contentType string, _ relapse.AccessPolicy) error {
	if s.config.Endpoint == "" {
		return fmt.Errorf("stowry upload: %w: set storage.endpoint", relapse.ErrNotConfigured)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, s.signer.PresignPut(key, int(uploadExpiry/time.Second)), content)
	if err != nil {
		return fmt.Errorf("stowry upload %s: create request: %w", key, err)
	}
	req.Header.Set("Content-Type", contentType)
	if size := internal.SizeOf(content); size >= 0 {
		req.ContentLength = size
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("stowry upload %s: %w", key, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("stowry upload %s: %w", key, &APIError{StatusCode: resp.StatusCode, Body: string(body)})
	}

	return nil
}

func (s *Store) SignURL(_ context.Context, key string, expires time.Duration) (string, error) {
	if s.config.Endpoint == "" {
		return "", fmt.Errorf("stowry sign url: %w: set storage.endpoint", relapse.ErrNotConfigured)
	}
	return s.signer.PresignGet(key, int(expires/time.Second)), nil
}

// APIError is a non-success response from the Stowry server.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return "server error: " + strconv.Itoa(e.StatusCode) + " - " + e.Body
}

// Is reports whether target is an *APIError with the same StatusCode.
func (e *APIError) Is(target error) bool {
	var t *APIError
	if !errors.As(target, &t) {
		return false
	}
	return t.StatusCode == e.StatusCode
}
