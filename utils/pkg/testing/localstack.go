package laketesting

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/localstack"
	"github.com/testcontainers/testcontainers-go/wait"
)

const localstackRegion = "us-east-1"

// LocalStack is a running LocalStack container exposing S3.
type LocalStack struct {
	Endpoint string
	Region   string
	Client   *s3.Client
}

// NewLocalStack starts a LocalStack container for the duration of the test. The test is skipped
// in -short mode or when LAKE_INTEGRATION is not set, since it requires Docker.
func NewLocalStack(t *testing.T) *LocalStack {
	t.Helper()

	if testing.Short() || os.Getenv("LAKE_INTEGRATION") == "" {
		t.Skip("skipping LocalStack integration test (set LAKE_INTEGRATION=1 to run)")
	}

	ctx := t.Context()
	container, err := localstack.Run(ctx,
		"localstack/localstack:3.8",
		testcontainers.WithWaitStrategy(
			wait.ForHTTP("/_localstack/health").
				WithPort("4566/tcp").
				WithStartupTimeout(2*time.Minute),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "4566/tcp")
	require.NoError(t, err)
	endpoint := fmt.Sprintf("http://%s:%s", host, port.Port())

	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(localstackRegion),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("test", "test", "")),
	)
	require.NoError(t, err)

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = true
		o.BaseEndpoint = aws.String(endpoint)
	})

	return &LocalStack{
		Endpoint: endpoint,
		Region:   localstackRegion,
		Client:   client,
	}
}

// CreateBucket creates a bucket and fails the test on error.
func (l *LocalStack) CreateBucket(t *testing.T, bucket string) {
	t.Helper()
	_, err := l.Client.CreateBucket(t.Context(), &s3.CreateBucketInput{Bucket: aws.String(bucket)})
	require.NoError(t, err)
}

// PutObject uploads body under key and fails the test on error.
func (l *LocalStack) PutObject(t *testing.T, bucket, key string, body []byte) {
	t.Helper()
	_, err := l.Client.PutObject(t.Context(), &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(body),
	})
	require.NoError(t, err)
}
