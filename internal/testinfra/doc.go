// fitsync - Fitbit data synchronization into a relational store
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitsync

// Package testinfra starts the containers used by integration tests.
//
// StartPostgres runs a PostgreSQL server for the postgres storage dialect
// and ties its lifetime to the test:
//
//	func TestPostgresStorage(t *testing.T) {
//	    pg := testinfra.StartPostgres(t, context.Background())
//	    db, err := database.New(&config.DatabaseConfig{Driver: "postgres", DSN: pg.DSN})
//	    // ...
//	}
//
// Everything here is behind the integration build tag. Tests are skipped
// when no container provider is reachable.
package testinfra
