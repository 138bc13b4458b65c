// fitsync - Fitbit data synchronization into a relational store
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitsync

package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/fitsync/internal/models"
)

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// TableEmpty reports whether table has no rows.
func (db *DB) TableEmpty(ctx context.Context, table string) (bool, error) {
	spec, err := lookupTable(table)
	if err != nil {
		return false, err
	}
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	var n int
	query := fmt.Sprintf("SELECT COUNT(*) FROM (SELECT 1 FROM %s LIMIT 1) t", db.dialect.quote(spec.name))
	err = db.conn.QueryRowContext(ctx, query).Scan(&n)
	observe("table_empty", table, start, err)
	if err != nil {
		return false, fmt.Errorf("failed to check %s: %w", table, err)
	}
	return n == 0, nil
}

// MaxDate returns the latest stored sync date in table. ok is false when
// the table has no rows.
func (db *DB) MaxDate(ctx context.Context, table string) (date time.Time, ok bool, err error) {
	spec, err := lookupTable(table)
	if err != nil {
		return time.Time{}, false, err
	}
	if !spec.hasColumn("date") {
		return time.Time{}, false, fmt.Errorf("table %s has no date column", table)
	}
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	var latest nullTime
	query := fmt.Sprintf("SELECT MAX(%s) FROM %s", db.dialect.quote("date"), db.dialect.quote(spec.name))
	err = db.conn.QueryRowContext(ctx, query).Scan(&latest)
	observe("max_date", table, start, err)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to read max date of %s: %w", table, err)
	}
	return latest.Time, latest.Valid, nil
}

// KeysOnDate returns the canonical primary keys stored for date.
func (db *DB) KeysOnDate(ctx context.Context, table string, date time.Time) ([]string, error) {
	spec, err := lookupTable(table)
	if err != nil {
		return nil, err
	}
	if !spec.hasColumn("date") {
		return nil, fmt.Errorf("table %s has no date column", table)
	}
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	keys, err := db.keysOnDate(ctx, spec, date)
	observe("keys_on_date", table, start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to read keys of %s on %s: %w", table, date.Format(time.DateOnly), err)
	}
	return keys, nil
}

func (db *DB) keysOnDate(ctx context.Context, spec *tableSpec, date time.Time) ([]string, error) {
	query := db.dialect.rebind(fmt.Sprintf("SELECT %s FROM %s WHERE %s = ?",
		db.dialect.quote(spec.key), db.dialect.quote(spec.name), db.dialect.quote("date")))

	rows, err := db.conn.QueryContext(ctx, query, bindValue(date))
	if err != nil {
		return nil, err
	}
	defer closeWithLog(rows, "key rows")

	var keys []string
	for rows.Next() {
		if spec.keyKind == kindTimestamp {
			var k nullTime
			if err := rows.Scan(&k); err != nil {
				return nil, err
			}
			if k.Valid {
				keys = append(keys, models.KeyString(k.Time))
			}
			continue
		}
		var k sql.NullInt64
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		if k.Valid {
			keys = append(keys, models.KeyString(k.Int64))
		}
	}
	return keys, rows.Err()
}

// DeleteByKey removes the row whose primary key is key.
func (db *DB) DeleteByKey(ctx context.Context, table string, key any) error {
	spec, err := lookupTable(table)
	if err != nil {
		return err
	}
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	err = db.deleteKey(ctx, db.conn, spec, key)
	observe("delete", table, start, err)
	return err
}

// Insert writes one row. Columns missing from row are stored as NULL.
func (db *DB) Insert(ctx context.Context, table string, row models.Row) error {
	spec, err := lookupTable(table)
	if err != nil {
		return err
	}
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	err = db.insertRow(ctx, db.conn, spec, row)
	observe("insert", table, start, err)
	return err
}

// ApplyDay reconciles one (table, date) cell inside a single transaction.
// Every record is deleted by key before it is inserted. replace and insert
// differ only in what the caller counts: keys are unique across dates, so a
// key new to this date may still be stored under another one.
func (db *DB) ApplyDay(ctx context.Context, table string, replace, insert []models.Record) error {
	spec, err := lookupTable(table)
	if err != nil {
		return err
	}
	if len(replace) == 0 && len(insert) == 0 {
		return nil
	}
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	err = db.inTx(ctx, func(tx *sql.Tx) error {
		for _, batch := range [][]models.Record{replace, insert} {
			for _, r := range batch {
				if err := checkRecordTable(spec, r); err != nil {
					return err
				}
				if err := db.deleteKey(ctx, tx, spec, r.Key()); err != nil {
					return err
				}
				if err := db.insertRow(ctx, tx, spec, r.Row()); err != nil {
					return err
				}
			}
		}
		return nil
	})
	observe("apply_day", table, start, err)
	if err != nil {
		return fmt.Errorf("failed to apply %d replaced and %d new rows to %s: %w", len(replace), len(insert), table, err)
	}
	return nil
}

func checkRecordTable(spec *tableSpec, r models.Record) error {
	if r.Table() != spec.name {
		return fmt.Errorf("record for table %s passed to %s", r.Table(), spec.name)
	}
	return nil
}

func (db *DB) deleteKey(ctx context.Context, ex execer, spec *tableSpec, key any) error {
	query := db.dialect.rebind(fmt.Sprintf("DELETE FROM %s WHERE %s = ?",
		db.dialect.quote(spec.name), db.dialect.quote(spec.key)))
	if _, err := ex.ExecContext(ctx, query, bindValue(key)); err != nil {
		return fmt.Errorf("delete from %s: %w", spec.name, err)
	}
	return nil
}

func (db *DB) insertRow(ctx context.Context, ex execer, spec *tableSpec, row models.Row) error {
	for name := range row {
		if !spec.hasColumn(name) {
			return fmt.Errorf("insert into %s: unknown column %q", spec.name, name)
		}
	}

	cols := make([]string, len(spec.columns))
	args := make([]any, len(spec.columns))
	for i, c := range spec.columns {
		cols[i] = db.dialect.quote(c.name)
		args[i] = bindValue(row[c.name])
	}

	query := db.dialect.rebind(fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		db.dialect.quote(spec.name), strings.Join(cols, ", "), placeholders(len(cols))))
	if _, err := ex.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert into %s: %w", spec.name, err)
	}
	return nil
}

// inTx runs fn in a transaction, committing only when fn succeeds.
func (db *DB) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer rollback(tx)

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// TableStatuses reports row counts and the latest date for every data table.
func (db *DB) TableStatuses(ctx context.Context) ([]models.TableStatus, error) {
	out := make([]models.TableStatus, 0, len(models.DataTables()))
	for _, table := range models.DataTables() {
		status, err := db.TableStatus(ctx, table)
		if err != nil {
			return nil, err
		}
		out = append(out, status)
	}
	return out, nil
}

// TableStatus reports the row count and latest date of one table.
func (db *DB) TableStatus(ctx context.Context, table string) (models.TableStatus, error) {
	spec, err := lookupTable(table)
	if err != nil {
		return models.TableStatus{}, err
	}
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	status := models.TableStatus{Table: table}
	err = db.conn.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", db.dialect.quote(spec.name))).Scan(&status.Rows)
	observe("count", table, start, err)
	if err != nil {
		return status, fmt.Errorf("failed to count %s: %w", table, err)
	}

	if spec.hasColumn("date") {
		latest, ok, err := db.MaxDate(ctx, table)
		if err != nil {
			return status, err
		}
		if ok {
			status.MaxDate = &latest
		}
	}
	return status, nil
}
