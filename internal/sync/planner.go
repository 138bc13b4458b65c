// fitsync - Fitbit data synchronization into a relational store
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitsync

package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/fitsync/internal/fitbit"
)

// PlanStore is the read side of the storage boundary used for planning.
type PlanStore interface {
	TableEmpty(ctx context.Context, table string) (bool, error)
	MaxDate(ctx context.Context, table string) (time.Time, bool, error)
}

// DateRange is an inclusive range of calendar dates.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Empty reports whether the range holds no dates.
func (r DateRange) Empty() bool {
	return r.Start.After(r.End)
}

// Dates returns every date from Start to End inclusive, ascending.
func (r DateRange) Dates() []time.Time {
	if r.Empty() {
		return nil
	}
	var dates []time.Time
	for d := r.Start; !d.After(r.End); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}
	return dates
}

func (r DateRange) String() string {
	return r.Start.Format(time.DateOnly) + ".." + r.End.Format(time.DateOnly)
}

// Planner computes the date range each stream must re-fetch.
type Planner struct {
	store     PlanStore
	startDate time.Time
	clock     fitbit.Clock
	loc       *time.Location
}

// NewPlanner returns a planner bounded below by startDate. Today is taken
// from clock in loc.
func NewPlanner(store PlanStore, startDate time.Time, clock fitbit.Clock, loc *time.Location) *Planner {
	if loc == nil {
		loc = time.Local
	}
	return &Planner{
		store:     store,
		startDate: calendarDate(startDate),
		clock:     clock,
		loc:       loc,
	}
}

// Today returns the current calendar date.
func (p *Planner) Today() time.Time {
	now := p.clock.Now().In(p.loc)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// PlanRange returns the range covering tables.
func (p *Planner) PlanRange(ctx context.Context, tables []string) (DateRange, error) {
	if len(tables) == 0 {
		return DateRange{}, fmt.Errorf("no tables to plan")
	}

	var start time.Time
	for i, table := range tables {
		mark, err := p.highWater(ctx, table)
		if err != nil {
			return DateRange{}, err
		}
		if i == 0 || mark.Before(start) {
			start = mark
		}
	}

	if padded := start.AddDate(0, 0, -1); !padded.Before(p.startDate) {
		start = padded
	}

	return DateRange{Start: start, End: p.Today()}, nil
}

func (p *Planner) highWater(ctx context.Context, table string) (time.Time, error) {
	empty, err := p.store.TableEmpty(ctx, table)
	if err != nil {
		return time.Time{}, fmt.Errorf("check %s: %w", table, err)
	}
	if empty {
		return p.startDate, nil
	}

	latest, ok, err := p.store.MaxDate(ctx, table)
	if err != nil {
		return time.Time{}, fmt.Errorf("max date of %s: %w", table, err)
	}
	if !ok {
		return p.startDate, nil
	}
	return calendarDate(latest), nil
}

func calendarDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
