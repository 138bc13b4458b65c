// fitsync - Fitbit data synchronization into a relational store
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitsync

package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/tomtom215/fitsync/internal/config"
	"github.com/tomtom215/fitsync/internal/logging"
)

// DB wraps a database/sql pool for one engine.
type DB struct {
	conn    *sql.DB
	cfg     *config.DatabaseConfig
	dialect dialect
}

// New opens the configured engine, applies migrations and creates any
// missing table.
func New(cfg *config.DatabaseConfig) (*DB, error) {
	db, err := Open(cfg)
	if err != nil {
		return nil, err
	}

	if err := db.initialize(); err != nil {
		closeQuietly(db.conn)
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return db, nil
}

// Open connects without touching the schema.
func Open(cfg *config.DatabaseConfig) (*DB, error) {
	d, err := lookupDialect(cfg.Driver)
	if err != nil {
		return nil, err
	}

	// Ensure parent directory exists for database file
	if d.name != DriverPostgres && isFilePath(cfg.Path) {
		dbDir := filepath.Dir(cfg.Path)
		if dbDir != "" && dbDir != "." {
			if err := os.MkdirAll(dbDir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create database directory %s: %w", dbDir, err)
			}
		}
	}

	conn, err := sql.Open(d.sqlDriver, d.dsn(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", d.name, err)
	}

	db := &DB{conn: conn, cfg: cfg, dialect: d}
	db.configureConnectionPool()

	pingCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to connect to %s database: %w", d.name, err)
	}

	logging.Debug().Str("driver", d.name).Msg("Database connection opened")
	return db, nil
}

func isFilePath(path string) bool {
	return path != "" && !strings.HasPrefix(path, ":memory:")
}

// configureConnectionPool sets connection pool parameters
func (db *DB) configureConnectionPool() {
	switch db.dialect.name {
	case DriverSQLite:
		// One writer; also keeps an in-memory database on a single connection.
		db.conn.SetMaxOpenConns(1)
		db.conn.SetMaxIdleConns(1)
		db.conn.SetConnMaxLifetime(0)
	default:
		db.conn.SetMaxOpenConns(runtime.NumCPU())
		db.conn.SetMaxIdleConns(2)
		db.conn.SetConnMaxLifetime(time.Hour)
		db.conn.SetConnMaxIdleTime(5 * time.Minute)
	}
}

// initialize records migrations and creates tables
func (db *DB) initialize() error {
	if err := db.runVersionedMigrations(); err != nil {
		return err
	}

	ctx, cancel := schemaContext()
	defer cancel()
	if _, err := db.CreateTables(ctx); err != nil {
		return err
	}

	if err := db.Checkpoint(ctx); err != nil {
		logging.Warn().Err(err).Msg("Failed to checkpoint after schema initialization")
	}
	return nil
}

// Driver returns the configured engine name.
func (db *DB) Driver() string {
	return db.dialect.name
}

// Conn returns the underlying SQL database connection.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Ping checks if the database connection is alive
func (db *DB) Ping(ctx context.Context) error {
	if db.conn == nil {
		return fmt.Errorf("database connection is nil")
	}
	return db.conn.PingContext(ctx)
}

// Close flushes the WAL where the engine has one and closes the pool.
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := db.Checkpoint(ctx); err != nil {
		logging.Warn().Err(err).Msg("Failed to checkpoint database before close")
	}
	cancel()

	return db.conn.Close()
}
