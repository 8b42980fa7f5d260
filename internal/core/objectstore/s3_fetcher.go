package objectstore

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	cfg "github.com/Archit1030/FloatChat-AI/internal/config"
	"github.com/Archit1030/FloatChat-AI/internal/core"
)

// S3Fetcher stages NetCDF archives from object storage onto local disk so
// the windowed reader can seek through them. Multi-gigabyte files download
// through the parallel manager.Downloader.
type S3Fetcher struct {
	client  *s3.Client
	bucket  string
	dataDir string
}

var _ core.DatasetFetcher = (*S3Fetcher)(nil)

func NewS3Fetcher(ctx context.Context, cfg *cfg.Config) (*S3Fetcher, error) {
	if cfg.AwsAccessKey == "" || cfg.AwsSecretKey == "" {
		return nil, fmt.Errorf("AWS credentials not set")
	}
	if cfg.AwsRegion == "" {
		return nil, fmt.Errorf("AWS_REGION not set")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(
		ctx,
		awsconfig.WithRegion(cfg.AwsRegion),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AwsAccessKey, cfg.AwsSecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg)
	log.Println("Connected to AWS S3 successfully")

	return &S3Fetcher{
		client:  client,
		bucket:  cfg.BucketName,
		dataDir: cfg.DataDir,
	}, nil
}

// Fetch resolves an s3://bucket/key URI (bucket defaults to the configured
// one when the URI is just s3:///key) and downloads the object into the
// data directory, returning the local path. An already-staged file is
// reused.
func (f *S3Fetcher) Fetch(ctx context.Context, uri string) (string, error) {
	bucket, key, err := parseS3URI(uri, f.bucket)
	if err != nil {
		return "", err
	}

	local := filepath.Join(f.dataDir, filepath.Base(key))
	if _, err := os.Stat(local); err == nil {
		return local, nil
	}

	if err := os.MkdirAll(f.dataDir, 0o755); err != nil {
		return "", fmt.Errorf("create data dir: %w", err)
	}

	out, err := os.Create(local)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", local, err)
	}
	defer out.Close()

	downloader := manager.NewDownloader(f.client)

	ctxGet, cancel := context.WithTimeout(ctx, 30*time.Minute)
	defer cancel()

	_, err = downloader.Download(ctxGet, out, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		_ = os.Remove(local)
		return "", fmt.Errorf("s3 download failed: %w", err)
	}

	return local, nil
}

// parseS3URI splits s3://bucket/key; an empty bucket segment falls back to
// the default.
func parseS3URI(uri, defaultBucket string) (bucket, key string, err error) {
	trimmed := strings.TrimPrefix(uri, "s3://")
	if trimmed == uri {
		return "", "", fmt.Errorf("not an s3 uri: %s", uri)
	}
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) != 2 || parts[1] == "" {
		return "", "", fmt.Errorf("s3 uri missing key: %s", uri)
	}
	bucket = parts[0]
	if bucket == "" {
		bucket = defaultBucket
	}
	if bucket == "" {
		return "", "", fmt.Errorf("s3 uri missing bucket: %s", uri)
	}
	return bucket, parts[1], nil
}
