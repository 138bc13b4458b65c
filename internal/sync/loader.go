// fitsync - Fitbit data synchronization into a relational store
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitsync

package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/fitsync/internal/logging"
	"github.com/tomtom215/fitsync/internal/metrics"
	"github.com/tomtom215/fitsync/internal/models"
	"github.com/tomtom215/fitsync/internal/normalize"
)

// Storage is the storage boundary used by the loader.
type Storage interface {
	PlanStore
	KeysOnDate(ctx context.Context, table string, date time.Time) ([]string, error)
	ApplyDay(ctx context.Context, table string, replace, insert []models.Record) error
}

// Fetcher retrieves one raw resource. *fitbit.Client satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, path string) ([]byte, error)
}

// Archiver keeps raw bodies. *archive.Archive satisfies it.
type Archiver interface {
	Put(ctx context.Context, stream string, date time.Time, path string, body []byte) error
}

// Loader syncs one stream at a time.
type Loader struct {
	store   Storage
	fetcher Fetcher
	planner *Planner
	archive Archiver
	parse   func(stream string, raw []byte, date time.Time) normalize.Result
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithArchive stores every fetched body in a before it is normalized.
func WithArchive(a Archiver) LoaderOption {
	return func(l *Loader) { l.archive = a }
}

// NewLoader creates a loader.
func NewLoader(store Storage, fetcher Fetcher, planner *Planner, opts ...LoaderOption) *Loader {
	l := &Loader{
		store:   store,
		fetcher: fetcher,
		planner: planner,
		parse:   normalize.Parse,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Sync fetches and reconciles every planned date of stream, in ascending
// order. The returned stats cover the dates completed before any error.
func (l *Loader) Sync(ctx context.Context, stream models.Stream) (models.StreamStats, error) {
	stats := models.StreamStats{Stream: stream}

	pathway, ok := PathwayFor(stream)
	if !ok {
		return stats, fmt.Errorf("unknown stream %q", stream)
	}

	dateRange, err := l.planner.PlanRange(ctx, pathway.Tables)
	if err != nil {
		return stats, fmt.Errorf("plan %s: %w", stream, err)
	}

	logger := logging.Ctx(ctx)
	logger.Info().
		Str("stream", string(stream)).
		Str("range", dateRange.String()).
		Msg("Syncing stream")

	for _, date := range dateRange.Dates() {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if err := l.syncDate(ctx, pathway, date, &stats); err != nil {
			return stats, err
		}
		stats.Dates++
		metrics.RecordDateProcessed(string(stream))
	}

	logger.Info().
		Str("stream", string(stream)).
		Int("dates", stats.Dates).
		Int("replaced", stats.Replaced).
		Int("inserted", stats.Inserted).
		Int("absent", stats.Absent).
		Msg("Stream synced")
	return stats, nil
}

func (l *Loader) syncDate(ctx context.Context, p Pathway, date time.Time, stats *models.StreamStats) error {
	stream := string(p.Stream)
	path := p.Path(date)

	body, err := l.fetcher.Fetch(ctx, path)
	if err != nil {
		return fmt.Errorf("fetch %s for %s: %w", stream, date.Format(time.DateOnly), err)
	}

	if l.archive != nil {
		if err := l.archive.Put(ctx, stream, date, path, body); err != nil {
			logging.Ctx(ctx).Warn().Err(err).
				Str("stream", stream).
				Str("date", date.Format(time.DateOnly)).
				Msg("Failed to archive response")
		}
	}

	result := l.parse(stream, body, date)
	for _, table := range p.Tables {
		if err := l.reconcile(ctx, p.Stream, table, date, result[table], stats); err != nil {
			return err
		}
	}
	return nil
}

func (l *Loader) reconcile(ctx context.Context, stream models.Stream, table string, date time.Time, tr normalize.TableResult, stats *models.StreamStats) error {
	metrics.RecordDropped(table, tr.Dropped)
	stats.Dropped += tr.Dropped

	if tr.Absent() {
		logging.Ctx(ctx).Debug().
			Str("stream", string(stream)).
			Str("table", table).
			Str("date", date.Format(time.DateOnly)).
			Str("reason", tr.Reason).
			Msg("Table absent, skipping")
		metrics.RecordTableAbsent(string(stream), table)
		stats.Absent++
		return nil
	}

	stored, err := l.store.KeysOnDate(ctx, table, date)
	if err != nil {
		return fmt.Errorf("read keys of %s on %s: %w", table, date.Format(time.DateOnly), err)
	}
	replace, insert := partition(tr.Records, stored)

	if err := l.store.ApplyDay(ctx, table, replace, insert); err != nil {
		return fmt.Errorf("write %s on %s: %w", table, date.Format(time.DateOnly), err)
	}

	metrics.RecordTableWrite(string(stream), table, len(replace), len(insert))
	stats.Replaced += len(replace)
	stats.Inserted += len(insert)
	return nil
}

// partition splits records into those whose key is already stored and those
// that are new.
func partition(records []models.Record, stored []string) (replace, insert []models.Record) {
	known := make(map[string]struct{}, len(stored))
	for _, k := range stored {
		known[k] = struct{}{}
	}
	for _, r := range records {
		if _, ok := known[models.KeyString(r.Key())]; ok {
			replace = append(replace, r)
		} else {
			insert = append(insert, r)
		}
	}
	return replace, insert
}
