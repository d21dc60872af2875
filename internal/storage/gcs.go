package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCSFetcher downloads objects from Google Cloud Storage.
type GCSFetcher struct {
	client *storage.Client
}

// NewGCSFetcher creates a fetcher authenticated with a service account key
// file, or with application default credentials when keyFile is empty.
func NewGCSFetcher(ctx context.Context, keyFile string) (*GCSFetcher, error) {
	var opts []option.ClientOption
	if keyFile != "" {
		opts = append(opts, option.WithAuthCredentialsFile(option.ServiceAccount, keyFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create GCS client: %w", err)
	}
	return &GCSFetcher{client: client}, nil
}

// Fetch downloads a "gs://bucket/key" object.
func (f *GCSFetcher) Fetch(ctx context.Context, uri string, w io.Writer) error {
	bucket, key, err := parseGCSPath(uri)
	if err != nil {
		return err
	}
	r, err := f.client.Bucket(bucket).Object(key).NewReader(ctx)
	if err != nil {
		return fmt.Errorf("open GCS object %q: %w", uri, err)
	}
	defer r.Close() //nolint:errcheck
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("download %q: %w", uri, err)
	}
	return nil
}

// Close releases the client.
func (f *GCSFetcher) Close() error { return f.client.Close() }

// parseGCSPath extracts bucket and key from a "gs://bucket/path/to/file" URI.
func parseGCSPath(path string) (bucket, key string, err error) {
	u, err := url.Parse(path)
	if err != nil {
		return "", "", fmt.Errorf("parse GCS path %q: %w", path, err)
	}
	if u.Scheme != "gs" {
		return "", "", fmt.Errorf("expected gs:// scheme, got %q in %q", u.Scheme, path)
	}
	bucket = u.Host
	key = strings.TrimPrefix(u.Path, "/")
	if key == "" {
		return "", "", fmt.Errorf("empty key in GCS path %q", path)
	}
	return bucket, key, nil
}
