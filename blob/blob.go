package blob

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sagarc03/relapse"
	"github.com/sagarc03/relapse/blob/gcsstore"
	"github.com/sagarc03/relapse/blob/miniostore"
	"github.com/sagarc03/relapse/blob/s3store"
	"github.com/sagarc03/relapse/blob/stowrystore"
)

const (
	BackendAuto   = "auto"
	BackendS3     = "s3"
	BackendGCS    = "gcs"
	BackendMinio  = "minio"
	BackendStowry = "stowry"
)

// Config selects and configures the blob backend.
type Config struct {
	Backend         string
	Bucket          string
	GCPBucket       string
	Region          string
	Endpoint        string
	AccessKey       string
	SecretKey       string
	CredentialsFile string
	UseSSL          bool
}

// ResolveBackend returns the concrete backend name. In auto mode a GCS
// bucket or credentials file selects gcs, anything else selects s3.
func (c Config) ResolveBackend() string {
	backend := strings.ToLower(strings.TrimSpace(c.Backend))
	if backend != "" && backend != BackendAuto {
		return backend
	}
	if c.GCPBucket != "" || c.CredentialsFile != "" {
		return BackendGCS
	}
	return BackendS3
}

func (c Config) bucketFor(backend string) string {
	if backend == BackendGCS && c.GCPBucket != "" {
		return c.GCPBucket
	}
	return c.Bucket
}

// Store is a blob store that holds client resources.
type Store interface {
	relapse.BlobStore
	io.Closer
}

// Connect builds the configured backend. When no bucket is configured the
// returned store is Unconfigured, so the server can start and report the
// problem per request.
func Connect(ctx context.Context, cfg Config) (Store, error) {
	backend := cfg.ResolveBackend()
	bucket := cfg.bucketFor(backend)

	switch backend {
	case BackendS3:
		if bucket == "" {
			return Unconfigured{Hint: "set AWS_S3_BUCKET"}, nil
		}
		store, err := s3store.New(ctx, s3store.Config{
			Bucket:    bucket,
			Region:    cfg.Region,
			Endpoint:  cfg.Endpoint,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
		})
		if err != nil {
			return nil, err
		}
		return nopCloser{store}, nil

	case BackendGCS:
		if bucket == "" {
			return Unconfigured{Hint: "set GCP_BUCKET"}, nil
		}
		return gcsstore.New(ctx, gcsstore.Config{
			Bucket:          bucket,
			CredentialsFile: cfg.CredentialsFile,
		})

	case BackendMinio:
		if bucket == "" {
			return Unconfigured{Hint: "set storage.bucket"}, nil
		}
		store, err := miniostore.New(cfg.minio(bucket))
		if err != nil {
			return nil, err
		}
		return nopCloser{store}, nil

	case BackendStowry:
		if cfg.Endpoint == "" {
			return Unconfigured{Hint: "set storage.endpoint"}, nil
		}
		return nopCloser{stowrystore.New(stowrystore.Config{
			Endpoint:  cfg.Endpoint,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
		})}, nil

	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", backend)
	}
}

func (c Config) minio(bucket string) miniostore.Config {
	endpoint, secure := splitEndpoint(c.Endpoint, c.UseSSL)
	return miniostore.Config{
		Endpoint:  endpoint,
		AccessKey: c.AccessKey,
		SecretKey: c.SecretKey,
		Bucket:    bucket,
		Region:    c.Region,
		UseSSL:    secure,
	}
}

// EnsureBucket creates the configured bucket on backends where relapse
// manages buckets itself (minio). It reports whether the backend does;
// for the others it does nothing.
func EnsureBucket(ctx context.Context, cfg Config) (bool, error) {
	backend := cfg.ResolveBackend()
	if backend != BackendMinio {
		return false, nil
	}

	bucket := cfg.bucketFor(backend)
	if bucket == "" {
		return true, fmt.Errorf("ensure bucket: %w: set storage.bucket", relapse.ErrNotConfigured)
	}

	store, err := miniostore.New(cfg.minio(bucket))
	if err != nil {
		return true, err
	}
	return true, store.EnsureBucket(ctx)
}

// splitEndpoint strips a URL scheme from endpoint, letting it decide TLS.
func splitEndpoint(endpoint string, useSSL bool) (string, bool) {
	switch {
	case strings.HasPrefix(endpoint, "https://"):
		return strings.TrimPrefix(endpoint, "https://"), true
	case strings.HasPrefix(endpoint, "http://"):
		return strings.TrimPrefix(endpoint, "http://"), false
	default:
		return endpoint, useSSL
	}
}

// Unconfigured fails every operation with relapse.ErrNotConfigured.
type Unconfigured struct {
	Hint string
}

func (u Unconfigured) Upload(context.Context, string, io.Reader, string, relapse.AccessPolicy) error {
	return u.err()
}

func (u Unconfigured) SignURL(context.Context, string, time.Duration) (string, error) {
	return "", u.err()
}

func (Unconfigured) Close() error { return nil }

func (u Unconfigured) err() error {
	if u.Hint == "" {
		return relapse.ErrNotConfigured
	}
	return fmt.Errorf("%w: %s", relapse.ErrNotConfigured, u.Hint)
}

type nopCloser struct {
	relapse.BlobStore
}

func (nopCloser) Close() error { return nil }
