// Package s3store implements relapse.BlobStore on Amazon S3 and
// S3-compatible services.
package s3store

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/sagarc03/relapse"
	"github.com/sagarc03/relapse/blob/internal"
)

// Config holds configuration for Store.
type Config struct {
	Bucket    string
	Region    string
	Endpoint  string // Optional custom endpoint (MinIO, LocalStack, etc.)
	AccessKey string // Optional; the default AWS credential chain is used when empty
	SecretKey string
}

type Store struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
}

// New creates an S3-backed blob store.
func New(ctx context.Context, cfg Config) (*Store, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("new s3 store: load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &Store{
		client:  client,
		presign: s3.NewPresignClient(client),
		bucket:  cfg.Bucket,
	}, nil
}

func (s *Store) Upload(ctx context.Context, key string, content io.Reader, contentType string, policy relapse.AccessPolicy) error {
	if s.bucket == "" {
		return fmt.Errorf("s3 upload: %w: set AWS_S3_BUCKET", relapse.ErrNotConfigured)
	}

	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        content,
		ContentType: aws.String(contentType),
		ACL:         types.ObjectCannedACL(policy),
	}
	if size := internal.SizeOf(content); size >= 0 {
		input.ContentLength = aws.Int64(size)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("s3 upload %s: %w", key, err)
	}

	return nil
}

func (s *Store) SignURL(ctx context.Context, key string, expires time.Duration) (string, error) {
	if s.bucket == "" {
		return "", fmt.Errorf("s3 sign url: %w: set AWS_S3_BUCKET", relapse.ErrNotConfigured)
	}

	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(expires))
	if err != nil {
		return "", fmt.Errorf("s3 sign url %s: %w", key, err)
	}

	return req.URL, nil
}
