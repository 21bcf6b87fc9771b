package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"DATA_BUCKET", "DATA_KEY", "WEBSITE_BUCKET", "WEBSITE_KEY",
		"REQUEST_DELAY_SECONDS", "LOG_LEVEL", "BLOB_BACKEND", "BLOB_FS_ROOT",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.DataBucket != DefaultDataBucket {
		t.Errorf("DataBucket = %q, want %q", cfg.DataBucket, DefaultDataBucket)
	}
	if cfg.DataKey != DefaultDataKey {
		t.Errorf("DataKey = %q, want %q", cfg.DataKey, DefaultDataKey)
	}
	if cfg.WebsiteBucket != DefaultWebsiteBucket {
		t.Errorf("WebsiteBucket = %q, want %q", cfg.WebsiteBucket, DefaultWebsiteBucket)
	}
	if cfg.RequestDelay != DefaultRequestDelay {
		t.Errorf("RequestDelay = %v, want %v", cfg.RequestDelay, DefaultRequestDelay)
	}
	if cfg.BlobBackend != BackendS3 {
		t.Errorf("BlobBackend = %q, want %q", cfg.BlobBackend, BackendS3)
	}
}

func TestLoadOverrides(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		check   func(t *testing.T, cfg *Config)
		wantErr bool
	}{
		{
			name: "buckets and keys",
			env: map[string]string{
				"DATA_BUCKET":    "my-data",
				"DATA_KEY":       "spins/current.json",
				"WEBSITE_BUCKET": "my-site",
				"WEBSITE_KEY":    "stats.html",
			},
			check: func(t *testing.T, cfg *Config) {
				if cfg.DataBucket != "my-data" || cfg.DataKey != "spins/current.json" {
					t.Errorf("data target = %s/%s", cfg.DataBucket, cfg.DataKey)
				}
				if cfg.WebsiteBucket != "my-site" || cfg.WebsiteKey != "stats.html" {
					t.Errorf("website target = %s/%s", cfg.WebsiteBucket, cfg.WebsiteKey)
				}
			},
		},
		{
			name: "fractional request delay",
			env:  map[string]string{"REQUEST_DELAY_SECONDS": "0.5"},
			check: func(t *testing.T, cfg *Config) {
				if cfg.RequestDelay != 500*time.Millisecond {
					t.Errorf("RequestDelay = %v, want 500ms", cfg.RequestDelay)
				}
			},
		},
		{
			name:    "bad request delay",
			env:     map[string]string{"REQUEST_DELAY_SECONDS": "soon"},
			wantErr: true,
		},
		{
			name: "filesystem backend",
			env: map[string]string{
				"BLOB_BACKEND": "fs",
				"BLOB_FS_ROOT": "/tmp/spinstats",
			},
			check: func(t *testing.T, cfg *Config) {
				if cfg.BlobBackend != BackendFS {
					t.Errorf("BlobBackend = %q, want %q", cfg.BlobBackend, BackendFS)
				}
				if cfg.BlobFSRoot != "/tmp/spinstats" {
					t.Errorf("BlobFSRoot = %q", cfg.BlobFSRoot)
				}
			},
		},
		{
			name:    "unknown backend",
			env:     map[string]string{"BLOB_BACKEND": "gcs"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for key, value := range tt.env {
				t.Setenv(key, value)
			}

			cfg, err := Load()

			if tt.wantErr {
				if err == nil {
					t.Fatal("Load() error = nil, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			tt.check(t, cfg)
		})
	}
}
