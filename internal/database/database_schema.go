// fitsync - Fitbit data synchronization into a relational store
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitsync

/*
database_schema.go - Database Schema Management

Tables:
  - fitbit_credentials: the single OAuth2 credential row (id = 1)
  - fitbit_user_info: registration date and stride lengths (id = 1)
  - sleep_stage_id: lookup table for sleep_intraday.sleep_stage
  - activities: logged activities keyed by logId
  - activities_daily_summary: one row per date
  - activities_steps_intraday: one row per minute
  - heart_rate_intraday: one row per minute
  - sleep_daily_summary: one row per date
  - sleep_intraday: one row per sleep stage interval

Column names match the Fitbit payload fields (camelCase for activity and
summary tables) and are always quoted. Every data table carries a "date"
column holding the sync date, which is what MaxDate and KeysOnDate read.
*/

//nolint:staticcheck // File documentation, not package doc
package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/fitsync/internal/models"
)

type column struct {
	name string
	kind columnKind
}

type tableSpec struct {
	name    string
	key     string
	keyKind columnKind
	columns []column
}

func (t *tableSpec) hasColumn(name string) bool {
	for _, c := range t.columns {
		if c.name == name {
			return true
		}
	}
	return false
}

// tableSpecs lists every table in creation order.
var tableSpecs = []*tableSpec{
	{
		name: models.TableCredentials, key: "id", keyKind: kindInteger,
		columns: []column{
			{"id", kindInteger},
			{"client_id", kindText},
			{"client_secret", kindText},
			{"access_token", kindText},
			{"refresh_token", kindText},
			{"expires_in", kindBigInt},
			{"expires_at", kindTimestamp},
			{"scope", kindText},
			{"token_type", kindText},
			{"user_id", kindText},
		},
	},
	{
		name: models.TableUserInfo, key: "id", keyKind: kindInteger,
		columns: []column{
			{"id", kindInteger},
			{"start_date", kindTimestamp},
			{"stride_length_running", kindFloat},
			{"stride_length_walking", kindFloat},
		},
	},
	{
		name: models.TableSleepStages, key: "id", keyKind: kindInteger,
		columns: []column{
			{"id", kindInteger},
			{"stage", kindText},
		},
	},
	{
		name: models.TableActivities, key: "logId", keyKind: kindBigInt,
		columns: []column{
			{"logId", kindBigInt},
			{"activityId", kindInteger},
			{"activityParentId", kindInteger},
			{"activityParentName", kindText},
			{"name", kindText},
			{"description", kindText},
			{"hasStartTime", kindBool},
			{"isFavorite", kindBool},
			{"hasActiveZoneMinutes", kindBool},
			{"date", kindTimestamp},
			{"startDateTime", kindTimestamp},
			{"endDateTime", kindTimestamp},
			{"durationMinutes", kindInteger},
			{"steps", kindInteger},
			{"calories", kindInteger},
		},
	},
	{
		name: models.TableActivitiesDailySummary, key: "date", keyKind: kindTimestamp,
		columns: []column{
			{"date", kindTimestamp},
			{"activeScore", kindInteger},
			{"activityCalories", kindInteger},
			{"caloriesBMR", kindInteger},
			{"caloriesOut", kindInteger},
			{"marginalCalories", kindInteger},
			{"sedentaryMinutes", kindInteger},
			{"lightlyActiveMinutes", kindInteger},
			{"fairlyActiveMinutes", kindInteger},
			{"veryActiveMinutes", kindInteger},
			{"restingHeartRate", kindInteger},
			{"steps", kindInteger},
		},
	},
	{
		name: models.TableStepsIntraday, key: "time", keyKind: kindTimestamp,
		columns: []column{
			{"date", kindTimestamp},
			{"time", kindTimestamp},
			{"num_steps", kindInteger},
		},
	},
	{
		name: models.TableHeartRateIntraday, key: "time", keyKind: kindTimestamp,
		columns: []column{
			{"date", kindTimestamp},
			{"time", kindTimestamp},
			{"bpm", kindInteger},
		},
	},
	{
		name: models.TableSleepDailySummary, key: "date", keyKind: kindTimestamp,
		columns: []column{
			{"date", kindTimestamp},
			{"totalMinutesAsleep", kindInteger},
			{"totalTimeInBed", kindInteger},
			{"deepMinutes", kindInteger},
			{"remMinutes", kindInteger},
			{"lightMinutes", kindInteger},
			{"wakeMinutes", kindInteger},
			{"totalSleepRecords", kindInteger},
			{"sleepBreakTimes", kindText},
		},
	},
	{
		name: models.TableSleepIntraday, key: "time", keyKind: kindTimestamp,
		columns: []column{
			{"date", kindTimestamp},
			{"time", kindTimestamp},
			{"duration_seconds", kindInteger},
			{"sleep_stage", kindInteger},
		},
	},
}

var tableIndex = func() map[string]*tableSpec {
	m := make(map[string]*tableSpec, len(tableSpecs))
	for _, t := range tableSpecs {
		m[t.name] = t
	}
	return m
}()

// lookupTable restricts table names to the known schema.
func lookupTable(name string) (*tableSpec, error) {
	t, ok := tableIndex[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTable, name)
	}
	return t, nil
}

// TableNames returns every table in creation order.
func TableNames() []string {
	names := make([]string, len(tableSpecs))
	for i, t := range tableSpecs {
		names[i] = t.name
	}
	return names
}

// schemaContext returns a context with timeout for schema operations
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// createTableQuery renders CREATE TABLE IF NOT EXISTS for t.
func (db *DB) createTableQuery(t *tableSpec) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s (\n", db.dialect.quote(t.name))
	for _, c := range t.columns {
		fmt.Fprintf(&b, "\t%s %s", db.dialect.quote(c.name), db.dialect.columnType(c.kind))
		if c.name == t.key {
			b.WriteString(" PRIMARY KEY")
		}
		b.WriteString(",\n")
	}
	out := strings.TrimSuffix(b.String(), ",\n")
	return out + "\n)"
}

// createIndexQueries returns the secondary indexes for t. Data tables are
// always read by date.
func (db *DB) createIndexQueries(t *tableSpec) []string {
	if !t.hasColumn("date") || t.key == "date" {
		return nil
	}
	name := "idx_" + t.name + "_date"
	return []string{fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s)",
		db.dialect.quote(name), db.dialect.quote(t.name), db.dialect.quote("date"))}
}

// CreateTables creates every missing table and returns the names of the
// tables that did not exist before.
func (db *DB) CreateTables(ctx context.Context) ([]string, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var created []string
	for _, t := range tableSpecs {
		exists, err := db.tableExists(ctx, t.name)
		if err != nil {
			return created, err
		}

		if _, err := db.conn.ExecContext(ctx, db.createTableQuery(t)); err != nil {
			return created, fmt.Errorf("failed to create table %s: %w", t.name, err)
		}
		for _, q := range db.createIndexQueries(t) {
			if _, err := db.conn.ExecContext(ctx, q); err != nil {
				return created, fmt.Errorf("failed to create index on %s: %w", t.name, err)
			}
		}

		if !exists {
			created = append(created, t.name)
		}
	}
	return created, nil
}

// tableExists checks the engine catalog for name.
func (db *DB) tableExists(ctx context.Context, name string) (bool, error) {
	var query string
	switch db.dialect.name {
	case DriverSQLite:
		query = "SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?"
	case DriverPostgres:
		query = "SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = current_schema() AND table_name = ?"
	default:
		query = "SELECT COUNT(*) FROM information_schema.tables WHERE table_name = ?"
	}

	var n int
	if err := db.conn.QueryRowContext(ctx, db.dialect.rebind(query), name).Scan(&n); err != nil {
		return false, fmt.Errorf("failed to check table %s: %w", name, err)
	}
	return n > 0, nil
}
