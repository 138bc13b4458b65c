// fitsync - Fitbit data synchronization into a relational store
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitsync

// Package config loads fitsync configuration from built-in defaults, an
// optional YAML file and environment variables, in that order of precedence
// (environment wins).
//
// Example config.yaml:
//
//	fitbit:
//	  seconds_between_calls: 24
//	  starter_tokens_file: /etc/fitsync/fitbit_starter_tokens.json
//	database:
//	  driver: duckdb
//	  path: /data/fitsync.duckdb
//	sync:
//	  interval: 24h
//	  retry_delay: 5m
//	logging:
//	  level: info
//	  file_dir: /var/log/fitsync
package config

import "time"

// Config is the root configuration.
type Config struct {
	Fitbit         FitbitConfig         `koanf:"fitbit"`
	CircuitBreaker CircuitBreakerConfig `koanf:"circuit_breaker"`
	Database       DatabaseConfig       `koanf:"database"`
	Sync           SyncConfig           `koanf:"sync"`
	Archive        ArchiveConfig        `koanf:"archive"`
	Server         ServerConfig         `koanf:"server"`
	Logging        LoggingConfig        `koanf:"logging"`
	Supervisor     SupervisorConfig     `koanf:"supervisor"`
}

// FitbitConfig controls the web API client.
type FitbitConfig struct {
	// APIBaseURL is prefixed to every resource path.
	APIBaseURL string `koanf:"api_base_url"`

	// TokenURL is the OAuth2 token endpoint used for the refresh grant.
	TokenURL string `koanf:"token_url"`

	// SecondsBetweenCalls is slept before every data request to stay well
	// under the provider's hourly quota (150 calls/hour).
	// Default: 24
	SecondsBetweenCalls int `koanf:"seconds_between_calls"`

	// RequestTimeout bounds a single HTTP exchange.
	RequestTimeout time.Duration `koanf:"request_timeout"`

	// RateLimitOffset is added to the next top of the hour when a 429 is seen.
	// Default: 5m
	RateLimitOffset time.Duration `koanf:"rate_limit_offset"`

	// StarterTokensFile is the JSON file read by "fitsync build" to seed
	// the credential row.
	StarterTokensFile string `koanf:"starter_tokens_file"`
}

// CircuitBreakerConfig tunes the breaker wrapped around outbound calls.
type CircuitBreakerConfig struct {
	MaxRequests         uint32        `koanf:"max_requests"`
	Interval            time.Duration `koanf:"interval"`
	Timeout             time.Duration `koanf:"timeout"`
	ConsecutiveFailures uint32        `koanf:"consecutive_failures"`
}

// DatabaseConfig selects and configures the storage engine.
type DatabaseConfig struct {
	// Driver is one of duckdb, sqlite, postgres.
	Driver string `koanf:"driver"`

	// Path is the database file for duckdb and sqlite. Empty means in-memory.
	Path string `koanf:"path"`

	// DSN is the connection string for postgres.
	DSN string `koanf:"dsn"`

	MaxMemory string `koanf:"max_memory"` // duckdb only
	Threads   int    `koanf:"threads"`    // duckdb only, 0 = NumCPU
}

// SyncConfig controls the sync runner and the periodic manager.
type SyncConfig struct {
	// RetryDelay is slept before restarting a pass after a network failure.
	// Default: 5m
	RetryDelay time.Duration `koanf:"retry_delay"`

	// Interval between scheduled passes in serve mode.
	Interval time.Duration `koanf:"interval"`

	// RunOnStart triggers a pass as soon as serve mode starts.
	RunOnStart bool `koanf:"run_on_start"`

	// Timezone decides which calendar day is "today". Default: Local
	Timezone string `koanf:"timezone"`

	// Streams restricts the pass to a subset; empty means all, in pathway order.
	Streams []string `koanf:"streams"`
}

// ArchiveConfig controls the optional raw payload archive.
type ArchiveConfig struct {
	Enabled bool          `koanf:"enabled"`
	Path    string        `koanf:"path"`
	TTL     time.Duration `koanf:"ttl"`

	// GCInterval spaces value log garbage collection runs in serve mode.
	GCInterval time.Duration `koanf:"gc_interval"`
}

// ServerConfig controls the status API used in serve mode.
type ServerConfig struct {
	Enabled         bool          `koanf:"enabled"`
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	Timeout         time.Duration `koanf:"timeout"`
	TriggerRateReqs int           `koanf:"trigger_rate_requests"`
	TriggerRateWin  time.Duration `koanf:"trigger_rate_window"`
}

// LoggingConfig mirrors logging.Config.
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	Level string `koanf:"level"`

	// Format is json or console.
	Format string `koanf:"format"`

	Caller bool `koanf:"caller"`

	// FileDir, when set, receives fitsync_YYYYMM.log in append mode.
	FileDir string `koanf:"file_dir"`
}

// SupervisorConfig tunes the suture tree used in serve mode.
type SupervisorConfig struct {
	FailureThreshold float64       `koanf:"failure_threshold"`
	FailureDecay     float64       `koanf:"failure_decay"`
	FailureBackoff   time.Duration `koanf:"failure_backoff"`
	ShutdownTimeout  time.Duration `koanf:"shutdown_timeout"`
}

// Load reads configuration with the layered koanf loader.
func Load() (*Config, error) {
	return LoadWithKoanf()
}

// Location resolves Sync.Timezone; an empty or "Local" value gives time.Local.
func (c *Config) Location() (*time.Location, error) {
	if c.Sync.Timezone == "" || c.Sync.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Sync.Timezone)
}

// SecondsBetweenCalls returns the pacing delay as a duration.
func (c *Config) SecondsBetweenCalls() time.Duration {
	return time.Duration(c.Fitbit.SecondsBetweenCalls) * time.Second
}
