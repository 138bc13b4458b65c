// fitsync - Fitbit data synchronization into a relational store
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitsync

package database

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"

	// Engine drivers, registered as "duckdb", "sqlite3" and "pgx".
	_ "github.com/duckdb/duckdb-go/v2"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"

	"github.com/tomtom215/fitsync/internal/config"
)

// Supported driver names, as used in configuration.
const (
	DriverDuckDB   = "duckdb"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// columnKind is the logical type of a column.
type columnKind int

const (
	kindInteger columnKind = iota
	kindBigInt
	kindFloat
	kindBool
	kindTimestamp
	kindText
)

// dialect captures what differs between engines.
type dialect struct {
	name       string
	sqlDriver  string
	positional bool // $1, $2 placeholders instead of ?
	types      map[columnKind]string
}

var dialects = map[string]dialect{
	DriverDuckDB: {
		name:      DriverDuckDB,
		sqlDriver: "duckdb",
		types: map[columnKind]string{
			kindInteger:   "INTEGER",
			kindBigInt:    "BIGINT",
			kindFloat:     "DOUBLE",
			kindBool:      "BOOLEAN",
			kindTimestamp: "TIMESTAMP",
			kindText:      "VARCHAR",
		},
	},
	DriverSQLite: {
		name:      DriverSQLite,
		sqlDriver: "sqlite3",
		types: map[columnKind]string{
			kindInteger:   "INTEGER",
			kindBigInt:    "BIGINT",
			kindFloat:     "REAL",
			kindBool:      "BOOLEAN",
			kindTimestamp: "TIMESTAMP",
			kindText:      "TEXT",
		},
	},
	DriverPostgres: {
		name:       DriverPostgres,
		sqlDriver:  "pgx",
		positional: true,
		types: map[columnKind]string{
			kindInteger:   "INTEGER",
			kindBigInt:    "BIGINT",
			kindFloat:     "DOUBLE PRECISION",
			kindBool:      "BOOLEAN",
			kindTimestamp: "TIMESTAMP",
			kindText:      "TEXT",
		},
	},
}

func lookupDialect(driver string) (dialect, error) {
	if driver == "" {
		driver = DriverDuckDB
	}
	d, ok := dialects[driver]
	if !ok {
		return dialect{}, fmt.Errorf("unsupported database driver %q", driver)
	}
	return d, nil
}

// dsn builds the driver connection string from configuration.
func (d dialect) dsn(cfg *config.DatabaseConfig) string {
	switch d.name {
	case DriverPostgres:
		return cfg.DSN
	case DriverSQLite:
		path := cfg.Path
		if path == "" {
			path = ":memory:"
		}
		return "file:" + path + "?_foreign_keys=on&_busy_timeout=5000"
	default:
		numThreads := cfg.Threads
		if numThreads <= 0 {
			numThreads = runtime.NumCPU()
		}
		maxMemory := cfg.MaxMemory
		if maxMemory == "" {
			maxMemory = "1GB"
		}
		path := cfg.Path
		if path == "" {
			path = ":memory:"
		}
		return fmt.Sprintf("%s?access_mode=read_write&threads=%d&max_memory=%s", path, numThreads, maxMemory)
	}
}

func (d dialect) columnType(k columnKind) string {
	return d.types[k]
}

// quote returns ident as a quoted identifier. Column names are camelCase and
// must keep their case on postgres.
func (d dialect) quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

// rebind rewrites ? placeholders for engines that use positional parameters.
func (d dialect) rebind(query string) string {
	if !d.positional {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// placeholders returns n comma separated ? markers.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?, ", n-1) + "?"
}
