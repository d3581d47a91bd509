package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/malbeclabs/jvlake/utils/pkg/retry"
)

// S3API is the subset of the S3 client used by the S3 store.
type S3API interface {
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

type S3Config struct {
	Bucket       string
	Region       string
	Endpoint     string // custom endpoint, e.g. LocalStack or MinIO
	UsePathStyle bool
	Retry        retry.Config
}

// S3 is a Store over an S3 bucket. Directories are key prefixes delimited by "/".
type S3 struct {
	client S3API
	bucket string
	retry  retry.Config
}

// NewS3 creates an S3 store using the default AWS credential chain.
func NewS3(ctx context.Context, cfg S3Config) (*S3, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 bucket is required")
	}

	var loadOpts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(cfg.Region))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	if awsCfg.Region == "" {
		awsCfg.Region = "us-east-1"
	}

	client := s3.NewFromConfig(awsCfg, clientOptions(cfg))

	s := NewS3WithClient(client, cfg.Bucket)
	if cfg.Retry.MaxAttempts > 0 {
		s.retry = cfg.Retry
	}
	return s, nil
}

// clientOptions configures the SDK client. The SDK retryer is limited to a single attempt
// since every call already runs under retry.Do.
func clientOptions(cfg S3Config) func(*s3.Options) {
	return func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		o.RetryMaxAttempts = 1
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	}
}

// NewS3WithClient creates an S3 store over an existing client.
func NewS3WithClient(client S3API, bucket string) *S3 {
	return &S3{
		client: client,
		bucket: bucket,
		retry:  retry.DefaultConfig(),
	}
}

func dirPrefix(dir string) string {
	dir = strings.Trim(dir, "/")
	if dir == "" || dir == "." {
		return ""
	}
	return dir + "/"
}

func (s *S3) ReadDir(ctx context.Context, dir string) ([]Entry, error) {
	prefix := dirPrefix(dir)

	var entries []Entry
	var continuationToken *string
	for {
		input := &s3.ListObjectsV2Input{
			Bucket:            aws.String(s.bucket),
			Prefix:            aws.String(prefix),
			Delimiter:         aws.String("/"),
			ContinuationToken: continuationToken,
		}

		var out *s3.ListObjectsV2Output
		err := retry.Do(ctx, s.retry, func() error {
			var err error
			out, err = s.client.ListObjectsV2(ctx, input)
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("s3: list s3://%s/%s: %w", s.bucket, prefix, err)
		}

		for _, cp := range out.CommonPrefixes {
			name := strings.TrimSuffix(strings.TrimPrefix(aws.ToString(cp.Prefix), prefix), "/")
			if name == "" {
				continue
			}
			entries = append(entries, Entry{Name: name, IsDir: true})
		}
		for _, obj := range out.Contents {
			key := aws.ToString(obj.Key)
			// Zero-byte "folder" markers share the prefix itself as their key.
			if key == prefix || strings.HasSuffix(key, "/") {
				continue
			}
			entries = append(entries, Entry{
				Name: strings.TrimPrefix(key, prefix),
				Size: aws.ToInt64(obj.Size),
			})
		}

		if !aws.ToBool(out.IsTruncated) || out.NextContinuationToken == nil {
			break
		}
		continuationToken = out.NextContinuationToken
	}

	// S3 has no empty directories: a prefix with no keys does not exist.
	if len(entries) == 0 {
		return nil, fmt.Errorf("s3: list s3://%s/%s: %w", s.bucket, prefix, ErrNotExist)
	}
	return entries, nil
}

func (s *S3) ReadFile(ctx context.Context, path string) ([]byte, error) {
	key := strings.TrimPrefix(path, "/")

	var data []byte
	err := retry.Do(ctx, s.retry, func() error {
		out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			var nsk *types.NoSuchKey
			if errors.As(err, &nsk) {
				return retry.Permanent(ErrNotExist)
			}
			return err
		}
		defer out.Body.Close()

		data, err = io.ReadAll(out.Body)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("s3: get s3://%s/%s: %w", s.bucket, key, err)
	}
	return data, nil
}
