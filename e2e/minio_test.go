package e2e_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	minioImage     = "minio/minio:RELEASE.2025-04-22T22-12-26Z"
	minioAccessKey = "minioadmin"
	minioSecretKey = "minioadmin"
	minioRegion    = "us-east-1"
)

// MinioInstance is a running MinIO server reachable from the host.
type MinioInstance struct {
	Endpoint string
	Client   *s3.Client
}

var (
	minioOnce      sync.Once
	minioInstance  *MinioInstance
	minioErr       error
	minioContainer testcontainers.Container
)

// getSharedMinio returns a MinIO server shared by all E2E tests.
// The container is reused across tests for performance.
func getSharedMinio(t *testing.T) *MinioInstance {
	t.Helper()

	minioOnce.Do(func() {
		ctx := context.Background()

		container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
			ContainerRequest: testcontainers.ContainerRequest{
				Image:        minioImage,
				ExposedPorts: []string{"9000/tcp"},
				Env: map[string]string{
					"MINIO_ROOT_USER":     minioAccessKey,
					"MINIO_ROOT_PASSWORD": minioSecretKey,
				},
				Cmd:        []string{"server", "/data"},
				WaitingFor: wait.ForHTTP("/minio/health/live").WithPort("9000/tcp"),
			},
			Started: true,
		})
		if err != nil {
			minioErr = fmt.Errorf("start minio container: %w", err)
			return
		}
		minioContainer = container

		endpoint, err := container.PortEndpoint(ctx, "9000/tcp", "http")
		if err != nil {
			minioErr = fmt.Errorf("minio endpoint: %w", err)
			return
		}

		client := s3.New(s3.Options{
			Region:       minioRegion,
			BaseEndpoint: aws.String(endpoint),
			UsePathStyle: true,
			Credentials:  credentials.NewStaticCredentialsProvider(minioAccessKey, minioSecretKey, ""),
		})

		minioInstance = &MinioInstance{Endpoint: endpoint, Client: client}
	})

	if minioErr != nil {
		t.Fatalf("minio: %v", minioErr)
	}

	return minioInstance
}

// createBucket creates a fresh bucket for one test.
func (m *MinioInstance) createBucket(t *testing.T, name string) {
	t.Helper()

	_, err := m.Client.CreateBucket(context.Background(), &s3.CreateBucketInput{
		Bucket: aws.String(name),
	})
	if err != nil {
		t.Fatalf("create bucket %s: %v", name, err)
	}
}

func stopSharedMinio() {
	if minioContainer == nil {
		return
	}
	_ = testcontainers.TerminateContainer(minioContainer)
}
