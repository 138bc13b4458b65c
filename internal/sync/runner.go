// fitsync - Fitbit data synchronization into a relational store
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitsync

package sync

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/fitsync/internal/fitbit"
	"github.com/tomtom215/fitsync/internal/logging"
	"github.com/tomtom215/fitsync/internal/metrics"
	"github.com/tomtom215/fitsync/internal/models"
)

// StreamSyncer syncs a single stream. *Loader satisfies it.
type StreamSyncer interface {
	Sync(ctx context.Context, stream models.Stream) (models.StreamStats, error)
}

// Report describes one completed or halted pass.
type Report struct {
	RunID    string
	Started  time.Time
	Finished time.Time
	Retries  int

	// Streams holds the stats of the final attempt only.
	Streams []models.StreamStats
}

// Runner executes sync passes.
type Runner struct {
	syncer     StreamSyncer
	streams    []models.Stream
	clock      fitbit.Clock
	retryDelay time.Duration
}

// NewRunner creates a runner over streams, which must be in pathway order.
func NewRunner(syncer StreamSyncer, streams []models.Stream, clock fitbit.Clock, retryDelay time.Duration) *Runner {
	if len(streams) == 0 {
		streams = models.AllStreams()
	}
	return &Runner{
		syncer:     syncer,
		streams:    streams,
		clock:      clock,
		retryDelay: retryDelay,
	}
}

// Streams returns the streams a default pass covers.
func (r *Runner) Streams() []models.Stream {
	out := make([]models.Stream, len(r.streams))
	copy(out, r.streams)
	return out
}

// Run executes one pass over the configured streams.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	return r.RunStreams(ctx, r.streams)
}

// RunStreams executes one pass over streams. A transient network failure is
// logged, waited out for the retry delay and the pass restarts from the
// first stream. Any other failure halts the pass and is returned.
func (r *Runner) RunStreams(ctx context.Context, streams []models.Stream) (*Report, error) {
	report := &Report{
		RunID:   uuid.New().String(),
		Started: r.clock.Now(),
	}
	ctx = logging.ContextWithRunID(ctx, report.RunID)
	logger := logging.Ctx(ctx)

	logger.Info().Int("streams", len(streams)).Msg("Sync pass started")

	for {
		stats, err := r.attempt(ctx, streams)
		report.Streams = stats
		if err == nil {
			break
		}

		if ctx.Err() != nil {
			return r.finish(report, "canceled", ctx.Err())
		}
		if !fitbit.IsTransient(err) {
			return r.finish(report, passResult(err), err)
		}

		logger.Error().Msgf("%s - %v", r.clock.Now().Format(time.RFC3339), err)
		logger.Warn().
			Dur("retry_delay", r.retryDelay).
			Int("retries", report.Retries+1).
			Msg("Network failure, restarting sync pass after delay")
		metrics.RecordSyncRetry()
		report.Retries++

		if err := r.clock.Sleep(ctx, r.retryDelay); err != nil {
			return r.finish(report, "canceled", err)
		}
	}

	report, err := r.finish(report, "success", nil)
	logger.Info().
		Int("retries", report.Retries).
		Dur("duration", report.Finished.Sub(report.Started)).
		Msg("Sync pass completed")
	return report, err
}

func (r *Runner) attempt(ctx context.Context, streams []models.Stream) ([]models.StreamStats, error) {
	all := make([]models.StreamStats, 0, len(streams))
	for _, stream := range streams {
		stats, err := r.syncer.Sync(ctx, stream)
		all = append(all, stats)
		if err != nil {
			return all, err
		}
	}
	return all, nil
}

func passResult(err error) string {
	var reqErr *fitbit.RequestError
	switch {
	case fitbit.IsAuth(err):
		return "auth_error"
	case errors.As(err, &reqErr):
		return "request_error"
	default:
		return "other"
	}
}

func (r *Runner) finish(report *Report, result string, err error) (*Report, error) {
	report.Finished = r.clock.Now()
	metrics.RecordSyncPass(report.Finished.Sub(report.Started), result)
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		logging.Error().Err(err).Str("run_id", report.RunID).Msg("Sync pass halted")
	}
	return report, err
}
