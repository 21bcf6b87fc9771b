// Package config reads pipeline configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Blob backend selectors.
const (
	BackendS3 = "s3"
	BackendFS = "fs"
)

// Defaults.
const (
	DefaultDataBucket    = "wknc-stats-data"
	DefaultDataKey       = "data/spins.json"
	DefaultWebsiteBucket = "www.wkncstats.xyz"
	DefaultWebsiteKey    = "index.html"
	DefaultRequestDelay  = 3 * time.Second
	DefaultLogLevel      = "info"
)

// Config holds the environment-sourced settings for one run.
type Config struct {
	DataBucket    string
	DataKey       string
	WebsiteBucket string
	WebsiteKey    string

	// RequestDelay is the wait between paginated API requests.
	RequestDelay time.Duration

	LogLevel string

	// BlobBackend selects the object store: BackendS3 (default) or
	// BackendFS for local runs.
	BlobBackend string
	// BlobFSRoot is the directory backing the filesystem store.
	BlobFSRoot string
}

// Load reads configuration from the environment, applying defaults for
// anything unset.
func Load() (*Config, error) {
	cfg := &Config{
		DataBucket:    envOr("DATA_BUCKET", DefaultDataBucket),
		DataKey:       envOr("DATA_KEY", DefaultDataKey),
		WebsiteBucket: envOr("WEBSITE_BUCKET", DefaultWebsiteBucket),
		WebsiteKey:    envOr("WEBSITE_KEY", DefaultWebsiteKey),
		RequestDelay:  DefaultRequestDelay,
		LogLevel:      envOr("LOG_LEVEL", DefaultLogLevel),
		BlobBackend:   envOr("BLOB_BACKEND", BackendS3),
		BlobFSRoot:    envOr("BLOB_FS_ROOT", "data"),
	}

	if v := os.Getenv("REQUEST_DELAY_SECONDS"); v != "" {
		seconds, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("parsing REQUEST_DELAY_SECONDS: %w", err)
		}
		cfg.RequestDelay = time.Duration(seconds * float64(time.Second))
	}

	switch cfg.BlobBackend {
	case BackendS3, BackendFS:
	default:
		return nil, fmt.Errorf("unknown BLOB_BACKEND %q", cfg.BlobBackend)
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
