// fitsync - Fitbit data synchronization into a relational store
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitsync

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// TestDefaultConfig verifies that defaultConfig() returns proper defaults
func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()

	if cfg.Fitbit.SecondsBetweenCalls != 24 {
		t.Errorf("Fitbit.SecondsBetweenCalls = %d, want 24", cfg.Fitbit.SecondsBetweenCalls)
	}
	if cfg.Fitbit.APIBaseURL != "https://api.fitbit.com" {
		t.Errorf("Fitbit.APIBaseURL = %q", cfg.Fitbit.APIBaseURL)
	}
	if cfg.Fitbit.RateLimitOffset != 5*time.Minute {
		t.Errorf("Fitbit.RateLimitOffset = %v, want 5m", cfg.Fitbit.RateLimitOffset)
	}
	if cfg.Database.Driver != "duckdb" {
		t.Errorf("Database.Driver = %q, want duckdb", cfg.Database.Driver)
	}
	if cfg.Sync.RetryDelay != 5*time.Minute {
		t.Errorf("Sync.RetryDelay = %v, want 5m", cfg.Sync.RetryDelay)
	}
	if cfg.Sync.Interval != 24*time.Hour {
		t.Errorf("Sync.Interval = %v, want 24h", cfg.Sync.Interval)
	}
	if cfg.Archive.Enabled {
		t.Error("Archive.Enabled should be false by default")
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("Logging = %+v, want info/json", cfg.Logging)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate, got %v", err)
	}
}

func TestLoadWithKoanfEnvOverrides(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("FITBIT_SECONDS_BETWEEN_CALLS", "0")
	t.Setenv("DATABASE_DRIVER", "sqlite")
	t.Setenv("DATABASE_PATH", "/tmp/fitsync.db")
	t.Setenv("SYNC_RETRY_DELAY", "30s")
	t.Setenv("SYNC_STREAMS", "steps, sleep")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("UNRELATED_VARIABLE", "ignored")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}

	if cfg.Fitbit.SecondsBetweenCalls != 0 {
		t.Errorf("SecondsBetweenCalls = %d, want 0", cfg.Fitbit.SecondsBetweenCalls)
	}
	if cfg.Database.Driver != "sqlite" || cfg.Database.Path != "/tmp/fitsync.db" {
		t.Errorf("Database = %+v", cfg.Database)
	}
	if cfg.Sync.RetryDelay != 30*time.Second {
		t.Errorf("RetryDelay = %v, want 30s", cfg.Sync.RetryDelay)
	}
	if len(cfg.Sync.Streams) != 2 || cfg.Sync.Streams[0] != "steps" || cfg.Sync.Streams[1] != "sleep" {
		t.Errorf("Streams = %v, want [steps sleep]", cfg.Sync.Streams)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
}

func TestLoadWithKoanfFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
fitbit:
  seconds_between_calls: 10
database:
  driver: sqlite
  path: /var/lib/fitsync.db
logging:
  level: warn
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("LOG_LEVEL", "error")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}
	if cfg.Fitbit.SecondsBetweenCalls != 10 {
		t.Errorf("SecondsBetweenCalls = %d, want 10 from file", cfg.Fitbit.SecondsBetweenCalls)
	}
	if cfg.Database.Path != "/var/lib/fitsync.db" {
		t.Errorf("Database.Path = %q", cfg.Database.Path)
	}
	if cfg.Logging.Level != "error" {
		t.Errorf("Logging.Level = %q, env should win over file", cfg.Logging.Level)
	}
	if cfg.Sync.Interval != 24*time.Hour {
		t.Errorf("Sync.Interval = %v, default should survive", cfg.Sync.Interval)
	}
}

func TestLoadWithKoanfRejectsNegativePacing(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("FITBIT_SECONDS_BETWEEN_CALLS", "-1")

	_, err := LoadWithKoanf()
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "FITBIT_SECONDS_BETWEEN_CALLS") {
		t.Errorf("error = %v, want mention of FITBIT_SECONDS_BETWEEN_CALLS", err)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"bad driver", func(c *Config) { c.Database.Driver = "mysql" }, "DATABASE_DRIVER"},
		{"postgres without dsn", func(c *Config) { c.Database.Driver = "postgres" }, "DATABASE_DSN"},
		{"postgres with dsn", func(c *Config) {
			c.Database.Driver = "postgres"
			c.Database.DSN = "postgres://u:p@localhost/fitsync"
		}, ""},
		{"api url with path", func(c *Config) { c.Fitbit.APIBaseURL = "https://api.fitbit.com/1" }, "FITBIT_API_BASE_URL"},
		{"token url ftp", func(c *Config) { c.Fitbit.TokenURL = "ftp://api.fitbit.com/token" }, "FITBIT_TOKEN_URL"},
		{"unknown stream", func(c *Config) { c.Sync.Streams = []string{"weight"} }, "SYNC_STREAMS"},
		{"bad timezone", func(c *Config) { c.Sync.Timezone = "Mars/Olympus" }, "SYNC_TIMEZONE"},
		{"short interval", func(c *Config) { c.Sync.Interval = time.Second }, "SYNC_INTERVAL"},
		{"archive without path", func(c *Config) {
			c.Archive.Enabled = true
			c.Archive.Path = ""
		}, "ARCHIVE_PATH"},
		{"archive without gc interval", func(c *Config) {
			c.Archive.Enabled = true
			c.Archive.GCInterval = 0
		}, "ARCHIVE_GC_INTERVAL"},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, "HTTP_PORT"},
		{"server disabled ignores port", func(c *Config) {
			c.Server.Enabled = false
			c.Server.Port = 0
		}, ""},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, "LOG_LEVEL"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "LOG_FORMAT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want mention of %s", err, tt.wantErr)
			}
		})
	}
}

func TestEnvTransformFunc(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"FITBIT_SECONDS_BETWEEN_CALLS": "fitbit.seconds_between_calls",
		"SECONDS_BETWEEN_CALLS":        "fitbit.seconds_between_calls",
		"DATABASE_URL":                 "database.dsn",
		"LOG_FILE_DIR":                 "logging.file_dir",
		"HOME":                         "",
	}
	for in, want := range tests {
		if got := envTransformFunc(in); got != want {
			t.Errorf("envTransformFunc(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLocation(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()
	loc, err := cfg.Location()
	if err != nil || loc != time.Local {
		t.Errorf("Location() = %v, %v; want Local", loc, err)
	}

	cfg.Sync.Timezone = "UTC"
	loc, err = cfg.Location()
	if err != nil || loc.String() != "UTC" {
		t.Errorf("Location() = %v, %v; want UTC", loc, err)
	}

	if got := cfg.SecondsBetweenCalls(); got != 24*time.Second {
		t.Errorf("SecondsBetweenCalls() = %v, want 24s", got)
	}
}
