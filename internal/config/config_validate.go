// fitsync - Fitbit data synchronization into a relational store
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitsync

package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/tomtom215/fitsync/internal/models"
)

// Validate checks that required configuration is present and valid
func (c *Config) Validate() error {
	if err := c.validateFitbit(); err != nil {
		return err
	}

	if err := c.validateDatabase(); err != nil {
		return err
	}

	if err := c.validateSync(); err != nil {
		return err
	}

	if err := c.validateArchive(); err != nil {
		return err
	}

	if err := c.validateServer(); err != nil {
		return err
	}

	return c.validateLogging()
}

func (c *Config) validateFitbit() error {
	if err := validateHTTPURL(c.Fitbit.APIBaseURL, "FITBIT_API_BASE_URL"); err != nil {
		return err
	}
	if err := validateEndpointURL(c.Fitbit.TokenURL, "FITBIT_TOKEN_URL"); err != nil {
		return err
	}
	if c.Fitbit.SecondsBetweenCalls < 0 {
		return fmt.Errorf("FITBIT_SECONDS_BETWEEN_CALLS must be a non-negative integer")
	}
	if c.Fitbit.RequestTimeout <= 0 {
		return fmt.Errorf("FITBIT_REQUEST_TIMEOUT must be positive")
	}
	if c.Fitbit.RateLimitOffset < 0 {
		return fmt.Errorf("FITBIT_RATE_LIMIT_OFFSET must not be negative")
	}
	if c.Fitbit.RateLimitOffset >= time.Hour {
		return fmt.Errorf("FITBIT_RATE_LIMIT_OFFSET must be less than one hour")
	}
	return nil
}

var validDrivers = map[string]bool{
	"duckdb":   true,
	"sqlite":   true,
	"postgres": true,
}

func (c *Config) validateDatabase() error {
	if !validDrivers[c.Database.Driver] {
		return fmt.Errorf("DATABASE_DRIVER must be one of: duckdb, sqlite, postgres")
	}
	if c.Database.Driver == "postgres" && c.Database.DSN == "" {
		return fmt.Errorf("DATABASE_DSN is required when DATABASE_DRIVER=postgres")
	}
	if c.Database.Threads < 0 {
		return fmt.Errorf("DUCKDB_THREADS must not be negative")
	}
	return nil
}

func (c *Config) validateSync() error {
	if c.Sync.RetryDelay < 0 {
		return fmt.Errorf("SYNC_RETRY_DELAY must not be negative")
	}
	if c.Sync.Interval < time.Minute {
		return fmt.Errorf("SYNC_INTERVAL must be at least 1m, got %s", c.Sync.Interval)
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("SYNC_TIMEZONE is invalid: %w", err)
	}
	for _, s := range c.Sync.Streams {
		if _, ok := models.ParseStream(s); !ok {
			return fmt.Errorf("SYNC_STREAMS contains unknown stream %q", s)
		}
	}
	return nil
}

func (c *Config) validateArchive() error {
	if !c.Archive.Enabled {
		return nil
	}
	if c.Archive.Path == "" {
		return fmt.Errorf("ARCHIVE_PATH is required when ARCHIVE_ENABLED=true")
	}
	if c.Archive.TTL < 0 {
		return fmt.Errorf("ARCHIVE_TTL must not be negative")
	}
	if c.Archive.GCInterval <= 0 {
		return fmt.Errorf("ARCHIVE_GC_INTERVAL must be positive")
	}
	return nil
}

func (c *Config) validateServer() error {
	if !c.Server.Enabled {
		return nil
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.TriggerRateReqs < 1 {
		return fmt.Errorf("SYNC_TRIGGER_RATE_REQS must be at least 1")
	}
	if c.Server.TriggerRateWin <= 0 {
		return fmt.Errorf("SYNC_TRIGGER_RATE_WINDOW must be positive")
	}
	return nil
}

var validLogLevels = map[string]bool{
	"trace": true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validLogFormats = map[string]bool{
	"json":    true,
	"console": true,
}

func (c *Config) validateLogging() error {
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}

// validateHTTPURL checks that rawURL is an http(s) base URL with no path or query.
func validateHTTPURL(rawURL, fieldName string) error {
	parsedURL, err := parseHTTPURL(rawURL, fieldName)
	if err != nil {
		return err
	}
	if parsedURL.Path != "" && parsedURL.Path != "/" {
		return fmt.Errorf("%s should be base URL only, remove path: %s", fieldName, parsedURL.Path)
	}
	if parsedURL.RawQuery != "" {
		return fmt.Errorf("%s should not contain query parameters, remove: ?%s", fieldName, parsedURL.RawQuery)
	}
	return nil
}

// validateEndpointURL is validateHTTPURL without the path restriction.
func validateEndpointURL(rawURL, fieldName string) error {
	_, err := parseHTTPURL(rawURL, fieldName)
	return err
}

func parseHTTPURL(rawURL, fieldName string) (*url.URL, error) {
	if rawURL == "" {
		return nil, fmt.Errorf("%s is required", fieldName)
	}
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%s failed to parse URL: %w", fieldName, err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return nil, fmt.Errorf("%s scheme must be http or https, got: %s", fieldName, parsedURL.Scheme)
	}
	if parsedURL.Host == "" {
		return nil, fmt.Errorf("%s host is required", fieldName)
	}
	return parsedURL, nil
}
