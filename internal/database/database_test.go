// fitsync - Fitbit data synchronization into a relational store
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitsync

package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/tomtom215/fitsync/internal/config"
	"github.com/tomtom215/fitsync/internal/models"
)

// testDBSemaphore serializes DuckDB instances; concurrent CGO connections
// across many parallel tests can hang under CI resource pressure.
var testDBSemaphore = make(chan struct{}, 1)

// setupTestDB opens a fresh database for driver and closes it when the test ends.
func setupTestDB(t *testing.T, driver string) *DB {
	t.Helper()

	cfg := &config.DatabaseConfig{Driver: driver, MaxMemory: "256MB", Threads: 1}
	switch driver {
	case DriverSQLite:
		cfg.Path = filepath.Join(t.TempDir(), "fitsync.db")
	case DriverDuckDB:
		testDBSemaphore <- struct{}{}
		t.Cleanup(func() { <-testDBSemaphore })
		cfg.Path = ":memory:"
	}

	db, err := New(cfg)
	if err != nil {
		t.Fatalf("New(%s) error = %v", driver, err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})
	return db
}

// embeddedDrivers are the engines that run without external services.
var embeddedDrivers = []string{DriverSQLite, DriverDuckDB}

func forEachDriver(t *testing.T, fn func(t *testing.T, db *DB)) {
	t.Helper()
	for _, driver := range embeddedDrivers {
		t.Run(driver, func(t *testing.T) {
			fn(t, setupTestDB(t, driver))
		})
	}
}

func TestNewUnsupportedDriver(t *testing.T) {
	t.Parallel()

	_, err := New(&config.DatabaseConfig{Driver: "mysql"})
	if err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}

func TestCreateTablesIsIdempotent(t *testing.T) {
	forEachDriver(t, func(t *testing.T, db *DB) {
		ctx := context.Background()
		created, err := db.CreateTables(ctx)
		if err != nil {
			t.Fatalf("CreateTables() error = %v", err)
		}
		if len(created) != 0 {
			t.Errorf("CreateTables() after New created %v, want none", created)
		}

		for _, name := range TableNames() {
			exists, err := db.tableExists(ctx, name)
			if err != nil {
				t.Fatalf("tableExists(%s) error = %v", name, err)
			}
			if !exists {
				t.Errorf("table %s missing", name)
			}
		}

		version, err := db.GetCurrentSchemaVersion(ctx)
		if err != nil {
			t.Fatalf("GetCurrentSchemaVersion() error = %v", err)
		}
		if version != 1 {
			t.Errorf("schema version = %d, want 1", version)
		}
	})
}

func TestCreateTablesReportsNewTables(t *testing.T) {
	cfg := &config.DatabaseConfig{Driver: DriverSQLite, Path: filepath.Join(t.TempDir(), "fresh.db")}
	db, err := Open(cfg)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer closeQuietly(db)

	created, err := db.CreateTables(context.Background())
	if err != nil {
		t.Fatalf("CreateTables() error = %v", err)
	}
	if len(created) != len(TableNames()) {
		t.Errorf("created %d tables, want %d: %v", len(created), len(TableNames()), created)
	}
}

func TestCredentialRoundTrip(t *testing.T) {
	forEachDriver(t, func(t *testing.T, db *DB) {
		ctx := context.Background()

		if _, err := db.LoadCredential(ctx); !errors.Is(err, ErrNoCredential) {
			t.Fatalf("LoadCredential() on empty table error = %v, want ErrNoCredential", err)
		}

		expires := time.Date(2024, 3, 1, 18, 30, 0, 0, time.UTC)
		cred := &models.Credential{
			ClientID:     "22ABCD",
			ClientSecret: "secret",
			AccessToken:  "access-1",
			RefreshToken: "refresh-1",
			ExpiresIn:    28800,
			ExpiresAt:    expires,
			Scope:        "activity heartrate sleep",
			TokenType:    "Bearer",
			UserID:       "ABC123",
		}
		if err := db.SaveCredential(ctx, cred); err != nil {
			t.Fatalf("SaveCredential() error = %v", err)
		}

		cred.AccessToken = "access-2"
		cred.RefreshToken = "refresh-2"
		if err := db.SaveCredential(ctx, cred); err != nil {
			t.Fatalf("SaveCredential() second call error = %v", err)
		}

		got, err := db.LoadCredential(ctx)
		if err != nil {
			t.Fatalf("LoadCredential() error = %v", err)
		}
		if got.ID != models.CredentialID {
			t.Errorf("ID = %d, want %d", got.ID, models.CredentialID)
		}
		if got.AccessToken != "access-2" || got.RefreshToken != "refresh-2" {
			t.Errorf("tokens = %q/%q, want the second save", got.AccessToken, got.RefreshToken)
		}
		if !got.ExpiresAt.Equal(expires) {
			t.Errorf("ExpiresAt = %v, want %v", got.ExpiresAt, expires)
		}
		if got.ExpiresIn != 28800 || got.Scope != cred.Scope || got.TokenType != "Bearer" || got.UserID != "ABC123" {
			t.Errorf("credential = %+v", got)
		}

		status, err := db.TableStatus(ctx, models.TableCredentials)
		if err != nil {
			t.Fatalf("TableStatus() error = %v", err)
		}
		if status.Rows != 1 {
			t.Errorf("credential rows = %d, want 1", status.Rows)
		}
	})
}

func TestCredentialWithoutExpiry(t *testing.T) {
	db := setupTestDB(t, DriverSQLite)
	ctx := context.Background()

	if err := db.SaveCredential(ctx, &models.Credential{ClientID: "id", ClientSecret: "s", RefreshToken: "r"}); err != nil {
		t.Fatalf("SaveCredential() error = %v", err)
	}
	got, err := db.LoadCredential(ctx)
	if err != nil {
		t.Fatalf("LoadCredential() error = %v", err)
	}
	if !got.ExpiresAt.IsZero() {
		t.Errorf("ExpiresAt = %v, want zero", got.ExpiresAt)
	}
	if !got.NeedsRefresh(time.Now()) {
		t.Error("credential without expiry should need a refresh")
	}
}

func TestUserProfileRoundTrip(t *testing.T) {
	forEachDriver(t, func(t *testing.T, db *DB) {
		ctx := context.Background()

		if _, err := db.LoadUserProfile(ctx); !errors.Is(err, ErrNoUserProfile) {
			t.Fatalf("LoadUserProfile() on empty table error = %v, want ErrNoUserProfile", err)
		}

		running := 104.5
		profile := &models.UserProfile{
			StartDate:           time.Date(2019, 11, 2, 0, 0, 0, 0, time.UTC),
			StrideLengthRunning: &running,
		}
		if err := db.SaveUserProfile(ctx, profile); err != nil {
			t.Fatalf("SaveUserProfile() error = %v", err)
		}

		got, err := db.LoadUserProfile(ctx)
		if err != nil {
			t.Fatalf("LoadUserProfile() error = %v", err)
		}
		if !got.StartDate.Equal(profile.StartDate) {
			t.Errorf("StartDate = %v, want %v", got.StartDate, profile.StartDate)
		}
		if got.StrideLengthRunning == nil || *got.StrideLengthRunning != running {
			t.Errorf("StrideLengthRunning = %v, want %v", got.StrideLengthRunning, running)
		}
		if got.StrideLengthWalking != nil {
			t.Errorf("StrideLengthWalking = %v, want nil", *got.StrideLengthWalking)
		}
	})
}

func TestSeedSleepStages(t *testing.T) {
	forEachDriver(t, func(t *testing.T, db *DB) {
		ctx := context.Background()

		for i := 0; i < 2; i++ {
			if err := db.SeedSleepStages(ctx); err != nil {
				t.Fatalf("SeedSleepStages() call %d error = %v", i+1, err)
			}
		}

		labels, err := db.SleepStageLabels(ctx)
		if err != nil {
			t.Fatalf("SleepStageLabels() error = %v", err)
		}
		want := map[int64]string{1: "deep", 2: "light", 3: "rem", 4: "wake", 5: "asleep", 6: "restless", 7: "awake"}
		if len(labels) != len(want) {
			t.Fatalf("labels = %v, want %v", labels, want)
		}
		for id, label := range want {
			if labels[id] != label {
				t.Errorf("stage %d = %q, want %q", id, labels[id], label)
			}
		}
	})
}
