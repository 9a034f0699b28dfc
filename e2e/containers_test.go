package e2e_test

import (
	"context"
	"sync"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/testcontainers/testcontainers-go"
	pgcontainer "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	minioAccessKey = "minioadmin"
	minioSecretKey = "minioadmin"
)

var (
	pgOnce    sync.Once
	pgDSN     string
	pgErr     error
	pgCleanup func()

	minioOnce     sync.Once
	minioEndpoint string
	minioErr      error
	minioCleanup  func()
)

// getSharedPostgresURL returns the URL of a PostgreSQL container shared by
// all tests in the package.
func getSharedPostgresURL(t *testing.T) string {
	t.Helper()

	pgOnce.Do(func() {
		ctx := context.Background()

		container, err := pgcontainer.Run(ctx,
			"postgres:18-alpine",
			pgcontainer.WithDatabase("testdb"),
			pgcontainer.WithUsername("testuser"),
			pgcontainer.WithPassword("testpass"),
			pgcontainer.BasicWaitStrategies(),
		)
		if err != nil {
			pgErr = err
			return
		}

		pgCleanup = func() { _ = testcontainers.TerminateContainer(container) }

		pgDSN, pgErr = container.ConnectionString(ctx, "sslmode=disable")
	})

	if pgErr != nil {
		t.Fatalf("failed to start postgres container: %v", pgErr)
	}
	return pgDSN
}

// getSharedMinio returns the host:port of a MinIO container shared by all
// tests in the package.
func getSharedMinio(t *testing.T) string {
	t.Helper()

	minioOnce.Do(func() {
		ctx := context.Background()

		container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
			ContainerRequest: testcontainers.ContainerRequest{
				Image:        "minio/minio:latest",
				ExposedPorts: []string{"9000/tcp"},
				Env: map[string]string{
					"MINIO_ROOT_USER":     minioAccessKey,
					"MINIO_ROOT_PASSWORD": minioSecretKey,
				},
				Cmd:        []string{"server", "/data"},
				WaitingFor: wait.ForHTTP("/minio/health/live").WithPort("9000"),
			},
			Started: true,
		})
		if err != nil {
			minioErr = err
			return
		}

		minioCleanup = func() { _ = testcontainers.TerminateContainer(container) }

		minioEndpoint, minioErr = container.Endpoint(ctx, "")
	})

	if minioErr != nil {
		t.Fatalf("failed to start minio container: %v", minioErr)
	}
	return minioEndpoint
}

// bucketExists reports whether bucket exists on the shared MinIO server.
func bucketExists(t *testing.T, endpoint, bucket string) bool {
	t.Helper()

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(minioAccessKey, minioSecretKey, ""),
		Secure: false,
	})
	if err != nil {
		t.Fatalf("create minio client: %v", err)
	}

	exists, err := client.BucketExists(context.Background(), bucket)
	if err != nil {
		t.Fatalf("check bucket %s: %v", bucket, err)
	}
	return exists
}
