// fitsync - Fitbit data synchronization into a relational store
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitsync

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths searched for a config file, first match wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/fitsync/config.yaml",
	"/etc/fitsync/config.yml",
}

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Fitbit: FitbitConfig{
			APIBaseURL:          "https://api.fitbit.com",
			TokenURL:            "https://api.fitbit.com/oauth2/token",
			SecondsBetweenCalls: 24,
			RequestTimeout:      30 * time.Second,
			RateLimitOffset:     5 * time.Minute,
			StarterTokensFile:   "fitbit_starter_tokens.json",
		},
		CircuitBreaker: CircuitBreakerConfig{
			MaxRequests:         3,
			Interval:            time.Minute,
			Timeout:             2 * time.Minute,
			ConsecutiveFailures: 5,
		},
		Database: DatabaseConfig{
			Driver:    "duckdb",
			Path:      "/data/fitsync.duckdb",
			MaxMemory: "1GB",
			Threads:   0,
		},
		Sync: SyncConfig{
			RetryDelay: 5 * time.Minute,
			Interval:   24 * time.Hour,
			RunOnStart: true,
			Timezone:   "Local",
		},
		Archive: ArchiveConfig{
			Enabled: false,
			Path:    "/data/archive",
			TTL:     30 * 24 * time.Hour,

			GCInterval: time.Hour,
		},
		Server: ServerConfig{
			Enabled:         true,
			Host:            "127.0.0.1",
			Port:            8780,
			Timeout:         30 * time.Second,
			TriggerRateReqs: 5,
			TriggerRateWin:  time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Supervisor: SupervisorConfig{
			FailureThreshold: 5.0,
			FailureDecay:     30.0,
			FailureBackoff:   15 * time.Second,
			ShutdownTimeout:  10 * time.Second,
		},
	}
}

// LoadWithKoanf loads configuration with layered sources:
//  1. Built-in defaults
//  2. Optional YAML config file
//  3. Environment variables (highest priority)
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths are split on commas when they arrive as a single env string.
var sliceConfigPaths = []string{
	"sync.streams",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps lower-cased environment variable names to koanf paths.
var envMappings = map[string]string{
	// Fitbit API
	"fitbit_api_base_url":          "fitbit.api_base_url",
	"fitbit_token_url":             "fitbit.token_url",
	"fitbit_seconds_between_calls": "fitbit.seconds_between_calls",
	"seconds_between_calls":        "fitbit.seconds_between_calls",
	"fitbit_request_timeout":       "fitbit.request_timeout",
	"fitbit_rate_limit_offset":     "fitbit.rate_limit_offset",
	"fitbit_starter_tokens_file":   "fitbit.starter_tokens_file",

	// Circuit breaker
	"circuit_breaker_max_requests":         "circuit_breaker.max_requests",
	"circuit_breaker_interval":             "circuit_breaker.interval",
	"circuit_breaker_timeout":              "circuit_breaker.timeout",
	"circuit_breaker_consecutive_failures": "circuit_breaker.consecutive_failures",

	// Database
	"database_driver":   "database.driver",
	"database_path":     "database.path",
	"duckdb_path":       "database.path",
	"database_dsn":      "database.dsn",
	"database_url":      "database.dsn",
	"duckdb_max_memory": "database.max_memory",
	"duckdb_threads":    "database.threads",

	// Sync
	"sync_retry_delay":  "sync.retry_delay",
	"sync_interval":     "sync.interval",
	"sync_run_on_start": "sync.run_on_start",
	"sync_timezone":     "sync.timezone",
	"sync_streams":      "sync.streams",

	// Archive
	"archive_enabled":     "archive.enabled",
	"archive_path":        "archive.path",
	"archive_ttl":         "archive.ttl",
	"archive_gc_interval": "archive.gc_interval",

	// Server
	"server_enabled":           "server.enabled",
	"http_host":                "server.host",
	"http_port":                "server.port",
	"http_timeout":             "server.timeout",
	"sync_trigger_rate_reqs":   "server.trigger_rate_requests",
	"sync_trigger_rate_window": "server.trigger_rate_window",

	// Logging
	"log_level":    "logging.level",
	"log_format":   "logging.format",
	"log_caller":   "logging.caller",
	"log_file_dir": "logging.file_dir",

	// Supervisor
	"supervisor_failure_threshold": "supervisor.failure_threshold",
	"supervisor_failure_decay":     "supervisor.failure_decay",
	"supervisor_failure_backoff":   "supervisor.failure_backoff",
	"supervisor_shutdown_timeout":  "supervisor.shutdown_timeout",
}

// envTransformFunc maps environment variable names to koanf paths.
// Unmapped variables return "" and are ignored.
//
// Examples:
//   - FITBIT_SECONDS_BETWEEN_CALLS -> fitbit.seconds_between_calls
//   - DATABASE_DRIVER -> database.driver
//   - LOG_LEVEL -> logging.level
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}
