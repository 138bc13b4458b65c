// fitsync - Fitbit data synchronization into a relational store
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitsync

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/fitsync/internal/logging"
)

// Migration represents a versioned database migration.
type Migration struct {
	Version     int       // Unique version number (monotonically increasing)
	Name        string    // Human-readable migration name
	Description string    // Description of what this migration does
	SQL         string    // SQL statement to execute, empty for bookkeeping-only entries
	AppliedAt   time.Time // When the migration was applied (populated on query)
}

func (db *DB) schemaMigrationsTable() string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS schema_migrations (
	version INTEGER PRIMARY KEY,
	name %[1]s NOT NULL,
	description %[1]s,
	applied_at %[2]s NOT NULL
)`, db.dialect.columnType(kindText), db.dialect.columnType(kindTimestamp))
}

// getMigrations returns all versioned migrations in order.
//
// Version 1 is the initial schema, which CreateTables builds from
// tableSpecs. Later schema changes are appended here and must never be
// modified or removed once released.
func (db *DB) getMigrations() []Migration {
	return []Migration{
		{Version: 1, Name: "initial_schema", Description: "Credential, profile, stage lookup and six data tables"},
	}
}

// getAppliedMigrations returns a map of version -> Migration for all applied migrations
func (db *DB) getAppliedMigrations(ctx context.Context) (map[int]Migration, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT version, name, description, applied_at FROM schema_migrations ORDER BY version`)
	if err != nil {
		return nil, fmt.Errorf("failed to query applied migrations: %w", err)
	}
	defer closeWithLog(rows, "migration rows")

	applied := make(map[int]Migration)
	for rows.Next() {
		var m Migration
		var desc *string
		var appliedAt nullTime
		if err := rows.Scan(&m.Version, &m.Name, &desc, &appliedAt); err != nil {
			return nil, fmt.Errorf("failed to scan migration row: %w", err)
		}
		if desc != nil {
			m.Description = *desc
		}
		m.AppliedAt = appliedAt.Time
		applied[m.Version] = m
	}
	return applied, rows.Err()
}

// runVersionedMigrations executes only new migrations that haven't been applied yet.
func (db *DB) runVersionedMigrations() error {
	ctx, cancel := schemaContext()
	defer cancel()

	if _, err := db.conn.ExecContext(ctx, db.schemaMigrationsTable()); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied, err := db.getAppliedMigrations(ctx)
	if err != nil {
		return fmt.Errorf("failed to get applied migrations: %w", err)
	}

	newMigrations := 0
	for _, m := range db.getMigrations() {
		if _, exists := applied[m.Version]; exists {
			continue
		}

		if m.SQL != "" {
			if _, err := db.conn.ExecContext(ctx, m.SQL); err != nil {
				return fmt.Errorf("failed to execute migration v%d (%s): %w", m.Version, m.Name, err)
			}
		}

		_, err := db.conn.ExecContext(ctx,
			db.dialect.rebind(`INSERT INTO schema_migrations (version, name, description, applied_at) VALUES (?, ?, ?, ?)`),
			m.Version, m.Name, m.Description, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("failed to record migration v%d: %w", m.Version, err)
		}

		newMigrations++
	}

	if newMigrations > 0 {
		logging.Info().Int("count", newMigrations).Msg("Applied database migrations")
	}
	return nil
}

// GetCurrentSchemaVersion returns the highest applied migration version
func (db *DB) GetCurrentSchemaVersion(ctx context.Context) (int, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var version int
	err := db.conn.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return version, nil
}

// Migrate applies pending migrations. New does this itself; callers that
// open with Open and create tables explicitly call it first.
func (db *DB) Migrate() error {
	return db.runVersionedMigrations()
}
