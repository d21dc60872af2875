package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Config holds the settings of an S3-compatible endpoint.
type S3Config struct {
	Endpoint string // host[:port], without scheme
	Region   string
	KeyID    string
	Secret   string
	URLStyle string // "path" (default) or "vhost"
}

// S3Fetcher downloads objects from S3-compatible storage.
type S3Fetcher struct {
	client *s3.Client
}

// NewS3Fetcher creates a fetcher for the configured endpoint. Path-style
// addressing is used unless URLStyle is "vhost".
func NewS3Fetcher(cfg S3Config) (*S3Fetcher, error) {
	if cfg.KeyID == "" || cfg.Secret == "" {
		return nil, fmt.Errorf("S3 config is incomplete: key id and secret are required")
	}
	opts := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.KeyID, cfg.Secret, ""),
		UsePathStyle: cfg.URLStyle != "vhost",
	}
	if opts.Region == "" {
		opts.Region = "us-east-1"
	}
	if cfg.Endpoint != "" {
		endpoint := cfg.Endpoint
		if !strings.Contains(endpoint, "://") {
			endpoint = "https://" + endpoint
		}
		opts.BaseEndpoint = aws.String(endpoint)
	}
	return &S3Fetcher{client: s3.New(opts)}, nil
}

// Fetch downloads an "s3://bucket/key" object.
func (f *S3Fetcher) Fetch(ctx context.Context, uri string, w io.Writer) error {
	bucket, key, err := ParseS3Path(uri)
	if err != nil {
		return err
	}
	out, err := f.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("GetObject %q: %w", uri, err)
	}
	defer out.Body.Close() //nolint:errcheck
	if _, err := io.Copy(w, out.Body); err != nil {
		return fmt.Errorf("download %q: %w", uri, err)
	}
	return nil
}

// ParseS3Path extracts bucket and key from an "s3://bucket/path/to/file" URI.
func ParseS3Path(s3Path string) (bucket, key string, err error) {
	u, err := url.Parse(s3Path)
	if err != nil {
		return "", "", fmt.Errorf("parse S3 path %q: %w", s3Path, err)
	}
	if u.Scheme != "s3" {
		return "", "", fmt.Errorf("expected s3:// scheme, got %q in %q", u.Scheme, s3Path)
	}
	bucket = u.Host
	key = strings.TrimPrefix(u.Path, "/")
	if bucket == "" {
		return "", "", fmt.Errorf("empty bucket in S3 path %q", s3Path)
	}
	if key == "" {
		return "", "", fmt.Errorf("empty key in S3 path %q", s3Path)
	}
	return bucket, key, nil
}
