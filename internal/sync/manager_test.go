// fitsync - Fitbit data synchronization into a relational store
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitsync

package sync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tomtom215/fitsync/internal/models"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met within 5s")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestManagerRunOnStart(t *testing.T) {
	t.Parallel()

	syncer := &scriptedSyncer{}
	runner := NewRunner(syncer, nil, newFakeClock(time.Now()), time.Minute)
	m := NewManager(runner, newMemStore(), time.Hour, true)

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := m.Start(context.Background()); err == nil {
		t.Error("second Start() should fail")
	}

	waitFor(t, func() bool {
		st, _ := m.Status(context.Background())
		return st.LastFinished != nil
	})

	st, err := m.Status(context.Background())
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if st.Running || st.LastError != "" || st.LastRunID == "" {
		t.Errorf("status = %+v", st)
	}
	if len(st.Streams) != 4 {
		t.Errorf("Streams = %v, want 4 entries", st.Streams)
	}
	if len(st.Tables) != len(models.DataTables()) {
		t.Errorf("Tables = %v", st.Tables)
	}

	if err := m.Stop(); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
	if err := m.Stop(); !errors.Is(err, ErrNotRunning) {
		t.Errorf("second Stop() error = %v, want ErrNotRunning", err)
	}
}

func TestManagerTriggerSync(t *testing.T) {
	t.Parallel()

	syncer := &scriptedSyncer{block: make(chan struct{})}
	runner := NewRunner(syncer, nil, newFakeClock(time.Now()), time.Minute)
	m := NewManager(runner, nil, time.Hour, false)

	if err := m.TriggerSync(nil); !errors.Is(err, ErrNotRunning) {
		t.Errorf("TriggerSync() before Start = %v, want ErrNotRunning", err)
	}
	if err := m.Start(context.Background()); err != nil {
		t.Fatal(err)
	}

	if err := m.TriggerSync([]models.Stream{models.StreamSleep}); err != nil {
		t.Fatalf("TriggerSync() error = %v", err)
	}
	waitFor(t, func() bool {
		st, _ := m.Status(context.Background())
		return st.Running
	})
	if err := m.TriggerSync(nil); !errors.Is(err, ErrSyncInProgress) {
		t.Errorf("TriggerSync() during a pass = %v, want ErrSyncInProgress", err)
	}

	close(syncer.block)
	waitFor(t, func() bool {
		st, _ := m.Status(context.Background())
		return st.LastFinished != nil && !st.Running
	})
	if got := syncer.Calls(); len(got) != 1 || got[0] != models.StreamSleep {
		t.Errorf("calls = %v, want [sleep]", got)
	}

	if err := m.Stop(); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
}

func TestManagerStopCancelsPass(t *testing.T) {
	t.Parallel()

	syncer := &scriptedSyncer{block: make(chan struct{})}
	runner := NewRunner(syncer, nil, newFakeClock(time.Now()), time.Minute)
	m := NewManager(runner, nil, time.Hour, true)

	if err := m.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool {
		st, _ := m.Status(context.Background())
		return st.Running
	})

	done := make(chan error, 1)
	go func() { done <- m.Stop() }()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Stop() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Stop() did not return while a pass was blocked")
	}

	st, _ := m.Status(context.Background())
	if st.LastError == "" {
		t.Error("canceled pass should record its error")
	}
}

func TestManagerRejectsBadInterval(t *testing.T) {
	t.Parallel()
	m := NewManager(NewRunner(&scriptedSyncer{}, nil, newFakeClock(time.Now()), time.Minute), nil, 0, false)
	if err := m.Start(context.Background()); err == nil {
		t.Error("Start() with zero interval should fail")
	}
}
