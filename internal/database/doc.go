// fitsync - Fitbit data synchronization into a relational store
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitsync

// Package database is the relational storage layer for fitsync.
//
// # Overview
//
// A single DB type wraps database/sql and hides the differences between the
// three supported engines:
//
//   - duckdb (default): embedded analytical store, github.com/duckdb/duckdb-go/v2
//   - sqlite: embedded file store, github.com/mattn/go-sqlite3
//   - postgres: server RDBMS through github.com/jackc/pgx/v5/stdlib
//
// # Architecture
//
//   - database.go: lifecycle (open, pool configuration, initialization, close)
//   - dialect.go: per-engine DSN, column types, identifier quoting, placeholder rebinding
//   - database_schema.go: table definitions and CREATE TABLE generation
//   - migrations.go: versioned migrations tracked in schema_migrations
//   - credentials.go: TokenStore implementation and the user profile row
//   - storage.go: the sync storage boundary (max date, keys on date, ApplyDay)
//   - scan.go: nullable time scanning across drivers
//
// # Time Handling
//
// Every timestamp is stored as a naive TIMESTAMP holding the UTC wall clock.
// Values read back are normalized to UTC so primary keys built by the
// normalizer and keys read from storage compare equal through
// models.KeyString.
//
// # Reconciliation
//
// ApplyDay runs one transaction per (table, date): rows whose key already
// exists are deleted and re-inserted, new keys are inserted. Readers never
// observe a deleted-but-not-reinserted key.
//
// # Usage
//
//	db, err := database.New(&cfg.Database)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	created, err := db.CreateTables(ctx)
package database
