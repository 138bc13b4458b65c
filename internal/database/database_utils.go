// fitsync - Fitbit data synchronization into a relational store
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitsync

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tomtom215/fitsync/internal/logging"
	"github.com/tomtom215/fitsync/internal/metrics"
)

// ensureContext creates a context with 30-second timeout if none provided
func (db *DB) ensureContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		return context.WithTimeout(context.Background(), 30*time.Second)
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		return context.WithTimeout(ctx, 30*time.Second)
	}

	return ctx, func() {}
}

// Checkpoint forces a WAL checkpoint on duckdb and sqlite.
func (db *DB) Checkpoint(ctx context.Context) error {
	var stmt string
	switch db.dialect.name {
	case DriverDuckDB:
		stmt = "CHECKPOINT"
	case DriverSQLite:
		stmt = "PRAGMA wal_checkpoint(TRUNCATE)"
	default:
		return nil
	}

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("checkpoint failed: %w", err)
	}
	return nil
}

// observe records the duration and outcome of one storage operation.
func observe(operation, table string, start time.Time, err error) {
	metrics.RecordDBQuery(operation, table, time.Since(start), err)
}

// rollback aborts tx unless it was committed.
func rollback(tx *sql.Tx) {
	if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
		logging.Warn().Err(err).Msg("Failed to roll back transaction")
	}
}
