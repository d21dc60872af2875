// Package config handles application configuration and environment loading.
package config

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Defaults applied by LoadFromEnv.
const (
	DefaultListenAddr     = ":8080"
	DefaultPageSize       = 50
	DefaultMaxParallel    = 4
	DefaultPatternTimeout = 250 * time.Millisecond
	DefaultRateLimitRPS   = 20
	DefaultRateLimitBurst = 40
)

// Config holds the configuration of the report server and the compare
// service.
type Config struct {
	ListenAddr  string // HTTP listen address (default ":8080")
	TLSCertFile string // TLS certificate file path (optional)
	TLSKeyFile  string // TLS private key file path (optional)
	LogLevel    string // log level: debug, info, warn, error (default "info")

	// Comparison inputs. SourcePath and TargetPath may be local paths or
	// s3://, gs://, az:// or abfss:// URIs.
	SourcePath string
	TargetPath string
	DiffConfig string // optional JSON/YAML comparison config file
	Keyword    string // optional key inference keyword

	PageSize       int           // rows per report page (default 50)
	MaxParallel    int           // tables diffed concurrently (default 4)
	StrictKeys     bool          // fail on duplicate keys instead of last-wins
	PatternTimeout time.Duration // per-match regex timeout (default 250ms)
	DownloadDir    string        // temp directory for remote snapshots

	RateLimitRPS   float64 // report server requests per second per client; 0 disables
	RateLimitBurst int     // token bucket size (default 40)

	// CORSOrigins lists the origins allowed to fetch the report server from
	// a browser. Empty disables CORS headers.
	CORSOrigins []string

	// S3 fields are optional: nil when not configured.
	S3KeyID    *string
	S3Secret   *string
	S3Endpoint *string
	S3Region   *string
	S3URLStyle string // "path" (default) or "vhost"

	GCSKeyFile string // service account key file; enables gs:// with GCS_ENABLED
	GCSEnabled bool

	AzureAccountName string
	AzureAccountKey  string

	// Warnings collects non-fatal warnings generated during config loading.
	// These are logged by the caller after the logger is initialised.
	Warnings []string
}

// SlogLevel maps the LogLevel string to an slog.Level.
func (c *Config) SlogLevel() slog.Level {
	return ParseLevel(c.LogLevel)
}

// ParseLevel maps a level name to an slog.Level; unknown names are info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// HasS3Config returns true if the S3 credentials are set.
func (c *Config) HasS3Config() bool {
	return c.S3KeyID != nil && c.S3Secret != nil
}

// HasGCSConfig returns true if gs:// locations can be fetched.
func (c *Config) HasGCSConfig() bool {
	return c.GCSEnabled || c.GCSKeyFile != ""
}

// HasAzureConfig returns true if the Azure account is set.
func (c *Config) HasAzureConfig() bool {
	return c.AzureAccountName != "" && c.AzureAccountKey != ""
}

// LoadFromEnv loads configuration from environment variables.
// Cloud storage variables are optional.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		ListenAddr:       os.Getenv("LISTEN_ADDR"),
		TLSCertFile:      os.Getenv("TLS_CERT_FILE"),
		TLSKeyFile:       os.Getenv("TLS_KEY_FILE"),
		LogLevel:         os.Getenv("LOG_LEVEL"),
		SourcePath:       os.Getenv("SOURCE_PATH"),
		TargetPath:       os.Getenv("TARGET_PATH"),
		DiffConfig:       os.Getenv("DIFF_CONFIG"),
		Keyword:          os.Getenv("KEY_KEYWORD"),
		DownloadDir:      os.Getenv("DOWNLOAD_DIR"),
		StrictKeys:       parseBoolEnvDefault("STRICT_KEYS", false),
		S3URLStyle:       os.Getenv("S3_URL_STYLE"),
		GCSKeyFile:       os.Getenv("GCS_KEY_FILE"),
		GCSEnabled:       parseBoolEnvDefault("GCS_ENABLED", false),
		AzureAccountName: os.Getenv("AZURE_ACCOUNT_NAME"),
		AzureAccountKey:  os.Getenv("AZURE_ACCOUNT_KEY"),
	}

	var err error
	if cfg.PageSize, err = parseIntEnv("PAGE_SIZE", DefaultPageSize); err != nil {
		return nil, err
	}
	if cfg.MaxParallel, err = parseIntEnv("MAX_PARALLEL", DefaultMaxParallel); err != nil {
		return nil, err
	}
	if cfg.RateLimitBurst, err = parseIntEnv("RATE_LIMIT_BURST", DefaultRateLimitBurst); err != nil {
		return nil, err
	}
	cfg.RateLimitRPS = DefaultRateLimitRPS
	if v := strings.TrimSpace(os.Getenv("RATE_LIMIT_RPS")); v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("RATE_LIMIT_RPS: invalid number %q", v)
		}
		cfg.RateLimitRPS = rps
	}
	cfg.CORSOrigins = splitList(os.Getenv("CORS_ALLOWED_ORIGINS"))
	cfg.PatternTimeout = DefaultPatternTimeout
	if v := os.Getenv("PATTERN_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("PATTERN_TIMEOUT: %w", err)
		}
		cfg.PatternTimeout = d
	}

	// S3 fields are optional, only set if present
	if v := os.Getenv("KEY_ID"); v != "" {
		cfg.S3KeyID = &v
	}
	if v := os.Getenv("SECRET"); v != "" {
		cfg.S3Secret = &v
	}
	if v := os.Getenv("ENDPOINT"); v != "" {
		cfg.S3Endpoint = &v
	}
	if v := os.Getenv("REGION"); v != "" {
		cfg.S3Region = &v
	}

	// Defaults
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = DefaultListenAddr
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if (cfg.TLSCertFile == "") != (cfg.TLSKeyFile == "") {
		return nil, fmt.Errorf("both TLS_CERT_FILE and TLS_KEY_FILE must be set together")
	}
	if cfg.PageSize <= 0 {
		return nil, fmt.Errorf("PAGE_SIZE must be positive, got %d", cfg.PageSize)
	}
	if cfg.MaxParallel <= 0 {
		cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("MAX_PARALLEL=%d is not positive; using %d", cfg.MaxParallel, DefaultMaxParallel))
		cfg.MaxParallel = DefaultMaxParallel
	}
	if cfg.PatternTimeout <= 0 {
		cfg.Warnings = append(cfg.Warnings, "PATTERN_TIMEOUT is not positive; regex matches are unbounded")
	}
	if (cfg.S3KeyID == nil) != (cfg.S3Secret == nil) {
		cfg.Warnings = append(cfg.Warnings, "only one of KEY_ID and SECRET is set; s3:// locations are disabled")
	}
	if (cfg.AzureAccountName == "") != (cfg.AzureAccountKey == "") {
		cfg.Warnings = append(cfg.Warnings, "only one of AZURE_ACCOUNT_NAME and AZURE_ACCOUNT_KEY is set; Azure locations are disabled")
	}

	return cfg, nil
}

// ValidateInputs checks that a source and a target are configured.
func (c *Config) ValidateInputs() error {
	if c.SourcePath == "" || c.TargetPath == "" {
		return fmt.Errorf("SOURCE_PATH and TARGET_PATH must both be set")
	}
	return nil
}

// splitList splits a comma separated value, dropping blank items.
func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func parseIntEnv(key string, defaultVal int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func parseBoolEnvDefault(key string, defaultVal bool) bool {
	v := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	if v == "" {
		return defaultVal
	}
	if v == "0" || v == "false" || v == "no" || v == "off" {
		return false
	}
	if v == "1" || v == "true" || v == "yes" || v == "on" {
		return true
	}
	return defaultVal
}

// LoadDotEnv reads a .env file and sets any variables not already in the environment.
// Lines must be in KEY=VALUE format. Comments (#) and blank lines are skipped.
func LoadDotEnv(path string) error {
	f, err := os.Open(path) //nolint:gosec // path is caller-controlled
	if err != nil {
		if os.IsNotExist(err) {
			return nil // .env not found is not an error
		}
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = stripQuotes(strings.TrimSpace(value))
		// Environment variables take precedence.
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("setenv %s: %w", key, err)
			}
		}
	}
	return scanner.Err()
}

// stripQuotes removes surrounding double or single quotes from a value.
func stripQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
