package e2e_test

import (
	"context"
	"sync"
	"testing"

	tcminio "github.com/testcontainers/testcontainers-go/modules/minio"
)

var (
	minioOnce     sync.Once
	minioEndpoint string
	minioUser     string
	minioPassword string
	minioCleanup  func()
)

// getSharedMinio returns a shared MinIO container for E2E tests.
// The container is reused across all tests for performance.
func getSharedMinio(t *testing.T) (endpoint, user, password string) {
	t.Helper()

	minioOnce.Do(func() {
		ctx := context.Background()

		container, err := tcminio.Run(ctx, "minio/minio:RELEASE.2024-01-16T16-07-38Z")
		if err != nil {
			t.Fatalf("failed to start minio container: %v", err)
		}

		minioCleanup = func() {
			if err := container.Terminate(context.Background()); err != nil {
				t.Logf("failed to terminate container: %s", err)
			}
		}

		hostPort, err := container.ConnectionString(ctx)
		if err != nil {
			minioCleanup()
			t.Fatalf("failed to get connection string: %v", err)
		}

		minioEndpoint = "http://" + hostPort
		minioUser = container.Username
		minioPassword = container.Password
	})

	return minioEndpoint, minioUser, minioPassword
}
