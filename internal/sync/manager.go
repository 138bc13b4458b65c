// fitsync - Fitbit data synchronization into a relational store
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitsync

package sync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tomtom215/fitsync/internal/logging"
	"github.com/tomtom215/fitsync/internal/models"
)

// ErrSyncInProgress is returned by TriggerSync while a pass is running.
var ErrSyncInProgress = errors.New("sync pass already in progress")

// ErrNotRunning is returned by TriggerSync before Start or after Stop.
var ErrNotRunning = errors.New("sync manager is not running")

// PassRunner runs one pass. *Runner satisfies it.
type PassRunner interface {
	Run(ctx context.Context) (*Report, error)
	RunStreams(ctx context.Context, streams []models.Stream) (*Report, error)
}

// StatusStore reports stored table extents.
type StatusStore interface {
	TableStatuses(ctx context.Context) ([]models.TableStatus, error)
}

// Manager runs sync passes on an interval and on demand.
type Manager struct {
	runner     PassRunner
	store      StatusStore
	interval   time.Duration
	runOnStart bool

	mu      sync.RWMutex
	running bool
	status  models.SyncStatus
	cancel  context.CancelFunc
	ctx     context.Context

	syncMu sync.Mutex // held for the duration of a pass
	wg     sync.WaitGroup
}

// NewManager creates a manager. A pass starts every interval; runOnStart
// also starts one immediately.
func NewManager(runner PassRunner, store StatusStore, interval time.Duration, runOnStart bool) *Manager {
	return &Manager{
		runner:     runner,
		store:      store,
		interval:   interval,
		runOnStart: runOnStart,
	}
}

// Start begins the periodic synchronization process.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return fmt.Errorf("sync manager is already running")
	}
	if m.interval <= 0 {
		return fmt.Errorf("sync interval must be positive, got %s", m.interval)
	}

	m.ctx, m.cancel = context.WithCancel(ctx)
	m.running = true

	logging.Info().
		Dur("interval", m.interval).
		Bool("run_on_start", m.runOnStart).
		Msg("Starting sync manager...")

	m.wg.Add(1)
	go m.syncLoop(m.ctx)
	return nil
}

// Stop cancels any pass in flight and waits for it to return.
func (m *Manager) Stop() error {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return ErrNotRunning
	}
	m.running = false
	m.cancel()
	m.mu.Unlock()

	logging.Info().Msg("Stopping sync manager...")
	m.wg.Wait()
	logging.Info().Msg("Sync manager stopped")
	return nil
}

// TriggerSync starts a pass over streams in the background. An empty list
// means the runner's configured streams.
func (m *Manager) TriggerSync(streams []models.Stream) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.running {
		return ErrNotRunning
	}

	if !m.syncMu.TryLock() {
		return ErrSyncInProgress
	}

	ctx := m.ctx
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer m.syncMu.Unlock()
		m.execute(ctx, streams)
	}()
	return nil
}

// Status returns the state of the last pass and the stored table extents.
func (m *Manager) Status(ctx context.Context) (models.SyncStatus, error) {
	m.mu.RLock()
	status := m.status
	status.Streams = append([]models.StreamStats(nil), m.status.Streams...)
	m.mu.RUnlock()

	if m.store == nil {
		return status, nil
	}
	tables, err := m.store.TableStatuses(ctx)
	if err != nil {
		return status, fmt.Errorf("table statuses: %w", err)
	}
	status.Tables = tables
	return status, nil
}

func (m *Manager) syncLoop(ctx context.Context) {
	defer m.wg.Done()

	if m.runOnStart {
		m.tick(ctx)
	}

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.tick(ctx)
		}
	}
}

func (m *Manager) tick(ctx context.Context) {
	if !m.syncMu.TryLock() {
		logging.Warn().Msg("Previous sync pass still running, skipping scheduled pass")
		return
	}
	defer m.syncMu.Unlock()
	m.execute(ctx, nil)
}

func (m *Manager) execute(ctx context.Context, streams []models.Stream) {
	started := time.Now()
	m.mu.Lock()
	m.status.Running = true
	m.status.LastStarted = &started
	m.mu.Unlock()

	var (
		report *Report
		err    error
	)
	if len(streams) == 0 {
		report, err = m.runner.Run(ctx)
	} else {
		report, err = m.runner.RunStreams(ctx, streams)
	}

	finished := time.Now()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status.Running = false
	m.status.LastFinished = &finished
	m.status.LastError = ""
	if err != nil {
		m.status.LastError = err.Error()
	}
	if report != nil {
		m.status.LastRunID = report.RunID
		m.status.Retries = report.Retries
		m.status.Streams = report.Streams
	}
}
