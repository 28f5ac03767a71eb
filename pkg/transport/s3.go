package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// S3Config configures an [S3] transport.
type S3Config struct {
	Endpoint  string // host[:port] of the S3-compatible service
	Region    string // default us-east-1
	AccessKey string // empty for anonymous access
	SecretKey string
	Bucket    string
	Prefix    string // key prefix under which the repository layout starts
	UseSSL    bool
}

// ParseS3URL splits s3://bucket/prefix into bucket and prefix.
func ParseS3URL(raw string) (bucket, prefix string, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", err
	}
	if u.Scheme != "s3" || u.Host == "" {
		return "", "", fmt.Errorf("invalid s3 url %q (expected s3://bucket/prefix)", raw)
	}
	return u.Host, strings.Trim(u.Path, "/"), nil
}

// S3 reads repository files from an S3 bucket.
type S3 struct {
	client *minio.Client
	bucket string
	prefix string
}

// NewS3 creates an S3 transport.
func NewS3(cfg S3Config) (*S3, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("s3 endpoint is required")
	}
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(strings.TrimSpace(cfg.AccessKey), strings.TrimSpace(cfg.SecretKey), ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("init s3 client: %w", err)
	}
	return &S3{client: client, bucket: bucket, prefix: strings.Trim(cfg.Prefix, "/")}, nil
}

// URL returns s3://bucket/key for path.
func (s *S3) URL(path string) string {
	return "s3://" + s.bucket + "/" + s.key(path)
}

// Get downloads the object at path.
func (s *S3) Get(ctx context.Context, path string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, s.key(path), minio.GetObjectOptions{})
	if err != nil {
		return nil, s.classify(path, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, s.classify(path, err)
	}
	return data, nil
}

// Exists stats the object at path.
func (s *S3) Exists(ctx context.Context, path string) (bool, error) {
	_, err := s.client.StatObject(ctx, s.bucket, s.key(path), minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}
	if err := s.classify(path, err); !errors.Is(err, ErrNotFound) {
		return false, err
	}
	return false, nil
}

func (s *S3) classify(path string, err error) error {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket":
		return fmt.Errorf("%s: %w", s.URL(path), ErrNotFound)
	}
	return fmt.Errorf("%w: %s: %v", ErrNetwork, s.URL(path), err)
}

func (s *S3) key(path string) string {
	path = strings.TrimLeft(path, "/")
	if s.prefix == "" {
		return path
	}
	return s.prefix + "/" + path
}

var _ Transport = (*S3)(nil)
