// fitsync - Fitbit data synchronization into a relational store
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitsync

package sync

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/tomtom215/fitsync/internal/models"
)

func day(s string) time.Time {
	d, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return d
}

// fakeClock advances on every Sleep and records the requested durations.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock(now time.Time) *fakeClock { return &fakeClock{now: now} }

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sleeps = append(f.sleeps, d)
	f.now = f.now.Add(d)
	return nil
}

func (f *fakeClock) Sleeps() []time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]time.Duration(nil), f.sleeps...)
}

// memStore keeps rows per table keyed by canonical key.
type memStore struct {
	mu       sync.Mutex
	tables   map[string]map[string]models.Row
	applyErr error
	applied  []string
}

func newMemStore() *memStore {
	return &memStore{tables: make(map[string]map[string]models.Row)}
}

func (s *memStore) put(r models.Record) {
	t := s.tables[r.Table()]
	if t == nil {
		t = make(map[string]models.Row)
		s.tables[r.Table()] = t
	}
	t[models.KeyString(r.Key())] = r.Row()
}

func (s *memStore) seed(records ...models.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		s.put(r)
	}
}

func (s *memStore) rows(table string) map[string]models.Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]models.Row, len(s.tables[table]))
	for k, v := range s.tables[table] {
		out[k] = v
	}
	return out
}

func (s *memStore) TableEmpty(_ context.Context, table string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tables[table]) == 0, nil
}

func (s *memStore) MaxDate(_ context.Context, table string) (time.Time, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var latest time.Time
	found := false
	for _, row := range s.tables[table] {
		d := row["date"].(time.Time)
		if !found || d.After(latest) {
			latest, found = d, true
		}
	}
	return latest, found, nil
}

func (s *memStore) KeysOnDate(_ context.Context, table string, date time.Time) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var keys []string
	for k, row := range s.tables[table] {
		if row["date"].(time.Time).Equal(date) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *memStore) ApplyDay(_ context.Context, table string, replace, insert []models.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.applyErr != nil {
		return s.applyErr
	}
	// Keys are table-wide: put overwrites a row stored under another date.
	for _, r := range append(append([]models.Record(nil), replace...), insert...) {
		s.put(r)
	}
	s.applied = append(s.applied, table)
	return nil
}

func (s *memStore) TableStatuses(_ context.Context) ([]models.TableStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.TableStatus
	for _, table := range models.DataTables() {
		out = append(out, models.TableStatus{Table: table, Rows: int64(len(s.tables[table]))})
	}
	return out, nil
}

// fakeFetcher serves bodies by path and records every request.
type fakeFetcher struct {
	mu       sync.Mutex
	bodies   map[string]string
	fallback string
	errs     map[string]error
	paths    []string
}

func (f *fakeFetcher) Fetch(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paths = append(f.paths, path)
	if err, ok := f.errs[path]; ok {
		return nil, err
	}
	if body, ok := f.bodies[path]; ok {
		return []byte(body), nil
	}
	return []byte(f.fallback), nil
}

func (f *fakeFetcher) Paths() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.paths...)
}

// stepsBody returns a steps payload with one sample per given time.
func stepsBody(values map[string]int) string {
	times := make([]string, 0, len(values))
	for t := range values {
		times = append(times, t)
	}
	sort.Strings(times)

	body := `{"activities-steps-intraday":{"dataset":[`
	for i, t := range times {
		if i > 0 {
			body += ","
		}
		body += fmt.Sprintf(`{"time":%q,"value":%d}`, t, values[t])
	}
	return body + `],"datasetInterval":1,"datasetType":"minute"}}`
}
