// Package storage resolves snapshot locations to local files. Local paths
// pass through; s3://, gs:// and Azure URIs are downloaded to a temporary
// file by the fetcher registered for their scheme.
package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path"
	"strings"

	"recdiff/internal/domain"
)

// Fetcher copies a remote object into w.
type Fetcher interface {
	Fetch(ctx context.Context, uri string, w io.Writer) error
}

// Resolver maps URI schemes to fetchers.
type Resolver struct {
	fetchers map[string]Fetcher
	dir      string
	logger   *slog.Logger
}

// NewResolver creates a resolver that downloads into dir (the system temp
// directory when empty).
func NewResolver(dir string, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Resolver{fetchers: map[string]Fetcher{}, dir: dir, logger: logger}
}

// Register binds a fetcher to one or more schemes (without "://").
func (r *Resolver) Register(f Fetcher, schemes ...string) {
	for _, s := range schemes {
		r.fetchers[strings.ToLower(s)] = f
	}
}

// Scheme returns the lower-cased URI scheme of location, or "" for a local
// path. Windows drive letters are not schemes.
func Scheme(location string) string {
	i := strings.Index(location, "://")
	if i <= 1 {
		return ""
	}
	return strings.ToLower(location[:i])
}

// IsRemote reports whether location names a remote object.
func IsRemote(location string) bool {
	s := Scheme(location)
	return s != "" && s != "file"
}

// Resolve returns a local path for location. For remote objects the file is
// a temporary copy that keeps the object's extension; call cleanup when done
// with it. cleanup is never nil.
func (r *Resolver) Resolve(ctx context.Context, location string) (local string, cleanup func(), err error) {
	noop := func() {}
	scheme := Scheme(location)
	switch scheme {
	case "":
		return location, noop, nil
	case "file":
		u, err := url.Parse(location)
		if err != nil {
			return "", noop, fmt.Errorf("parse %q: %w", location, err)
		}
		return u.Path, noop, nil
	}

	f, ok := r.fetchers[scheme]
	if !ok {
		return "", noop, domain.ErrValidation("no storage configured for %s:// locations", scheme)
	}

	tmp, err := os.CreateTemp(r.dir, "recdiff-*"+path.Ext(objectPath(location)))
	if err != nil {
		return "", noop, fmt.Errorf("create temp file: %w", err)
	}
	cleanup = func() { _ = os.Remove(tmp.Name()) }

	r.logger.Info("fetching remote snapshot", "location", location, "file", tmp.Name())
	if err := f.Fetch(ctx, location, tmp); err != nil {
		_ = tmp.Close()
		cleanup()
		return "", noop, fmt.Errorf("fetch %s: %w", location, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return "", noop, fmt.Errorf("write %s: %w", tmp.Name(), err)
	}
	return tmp.Name(), cleanup, nil
}

func objectPath(location string) string {
	u, err := url.Parse(location)
	if err != nil {
		return location
	}
	return u.Path
}
