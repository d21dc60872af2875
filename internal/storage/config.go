package storage

import (
	"context"
	"log/slog"

	"recdiff/internal/config"
)

// NewResolverFromConfig registers a fetcher for every cloud configured in
// cfg. Unconfigured schemes fail at Resolve time.
func NewResolverFromConfig(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Resolver, error) {
	r := NewResolver(cfg.DownloadDir, logger)
	if cfg.HasS3Config() {
		s3cfg := S3Config{KeyID: *cfg.S3KeyID, Secret: *cfg.S3Secret, URLStyle: cfg.S3URLStyle}
		if cfg.S3Endpoint != nil {
			s3cfg.Endpoint = *cfg.S3Endpoint
		}
		if cfg.S3Region != nil {
			s3cfg.Region = *cfg.S3Region
		}
		f, err := NewS3Fetcher(s3cfg)
		if err != nil {
			return nil, err
		}
		r.Register(f, "s3")
	}
	if cfg.HasGCSConfig() {
		f, err := NewGCSFetcher(ctx, cfg.GCSKeyFile)
		if err != nil {
			return nil, err
		}
		r.Register(f, "gs")
	}
	if cfg.HasAzureConfig() {
		f, err := NewAzureFetcher(cfg.AzureAccountName, cfg.AzureAccountKey)
		if err != nil {
			return nil, err
		}
		r.Register(f, "az", "abfss")
	}
	return r, nil
}
