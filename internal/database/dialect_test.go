// fitsync - Fitbit data synchronization into a relational store
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitsync

package database

import (
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/fitsync/internal/config"
)

func TestRebind(t *testing.T) {
	t.Parallel()

	pg := dialects[DriverPostgres]
	got := pg.rebind(`INSERT INTO "t" ("a", "b") VALUES (?, ?)`)
	if got != `INSERT INTO "t" ("a", "b") VALUES ($1, $2)` {
		t.Errorf("rebind = %q", got)
	}

	lite := dialects[DriverSQLite]
	if q := "SELECT ? + ?"; lite.rebind(q) != q {
		t.Errorf("sqlite rebind should be identity")
	}
}

func TestQuote(t *testing.T) {
	t.Parallel()

	d := dialects[DriverDuckDB]
	if got := d.quote("logId"); got != `"logId"` {
		t.Errorf("quote(logId) = %s", got)
	}
	if got := d.quote(`a"b`); got != `"a""b"` {
		t.Errorf("quote escape = %s", got)
	}
}

func TestDSN(t *testing.T) {
	t.Parallel()

	tests := []struct {
		driver string
		cfg    config.DatabaseConfig
		want   string
	}{
		{DriverDuckDB, config.DatabaseConfig{Path: "/data/f.duckdb", Threads: 2, MaxMemory: "512MB"}, "/data/f.duckdb?access_mode=read_write&threads=2&max_memory=512MB"},
		{DriverSQLite, config.DatabaseConfig{Path: "/data/f.db"}, "file:/data/f.db?"},
		{DriverSQLite, config.DatabaseConfig{}, "file::memory:?"},
		{DriverPostgres, config.DatabaseConfig{DSN: "postgres://u@h/db"}, "postgres://u@h/db"},
	}
	for _, tt := range tests {
		d := dialects[tt.driver]
		if got := d.dsn(&tt.cfg); !strings.HasPrefix(got, tt.want) {
			t.Errorf("%s dsn = %q, want prefix %q", tt.driver, got, tt.want)
		}
	}
}

func TestCreateTableQueryPostgresTypes(t *testing.T) {
	t.Parallel()

	db := &DB{dialect: dialects[DriverPostgres]}
	q := db.createTableQuery(tableIndex["fitbit_user_info"])
	for _, want := range []string{`"id" INTEGER PRIMARY KEY`, `"start_date" TIMESTAMP`, `"stride_length_running" DOUBLE PRECISION`} {
		if !strings.Contains(q, want) {
			t.Errorf("query missing %q:\n%s", want, q)
		}
	}
	if strings.HasSuffix(strings.TrimSpace(strings.TrimSuffix(q, ")")), ",") {
		t.Errorf("trailing comma in:\n%s", q)
	}
}

func TestNullTimeScan(t *testing.T) {
	t.Parallel()

	want := time.Date(2020, 5, 1, 8, 21, 0, 0, time.UTC)
	tests := []struct {
		name  string
		src   any
		valid bool
	}{
		{"nil", nil, false},
		{"time", want.In(time.FixedZone("X", 3600)), true},
		{"sqlite string", "2020-05-01 08:21:00+00:00", true},
		{"bytes", []byte("2020-05-01T08:21:00Z"), true},
		{"naive", "2020-05-01 08:21:00", true},
		{"empty", "", false},
	}
	for _, tt := range tests {
		var n nullTime
		if err := n.Scan(tt.src); err != nil {
			t.Errorf("%s: Scan() error = %v", tt.name, err)
			continue
		}
		if n.Valid != tt.valid {
			t.Errorf("%s: Valid = %v, want %v", tt.name, n.Valid, tt.valid)
		}
		if n.Valid && !n.Time.Equal(want) {
			t.Errorf("%s: Time = %v, want %v", tt.name, n.Time, want)
		}
	}

	var n nullTime
	if err := n.Scan(42); err == nil {
		t.Error("Scan(int) should fail")
	}
	if err := n.Scan("yesterday"); err == nil {
		t.Error("Scan(garbage) should fail")
	}
}
