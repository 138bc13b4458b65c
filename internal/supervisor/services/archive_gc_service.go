// fitsync - Fitbit data synchronization into a relational store
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitsync

package services

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/fitsync/internal/logging"
)

// GarbageCollector is satisfied by *archive.Archive.
type GarbageCollector interface {
	CollectGarbage(ratio float64) error
}

// DefaultGCRatio is the value log discard ratio passed to badger.
const DefaultGCRatio = 0.5

// ArchiveGCService periodically reclaims value log space in the raw archive.
// Expired entries only give their space back after a GC run.
type ArchiveGCService struct {
	gc       GarbageCollector
	interval time.Duration
	ratio    float64
	name     string
}

// NewArchiveGCService runs gc every interval with DefaultGCRatio.
func NewArchiveGCService(gc GarbageCollector, interval time.Duration) *ArchiveGCService {
	return &ArchiveGCService{
		gc:       gc,
		interval: interval,
		ratio:    DefaultGCRatio,
		name:     "archive-gc",
	}
}

// Serve implements suture.Service. A GC failure is returned so the
// supervisor restarts the loop with backoff.
func (s *ArchiveGCService) Serve(ctx context.Context) error {
	if s.interval <= 0 {
		return fmt.Errorf("archive gc interval must be positive, got %s", s.interval)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			start := time.Now()
			if err := s.gc.CollectGarbage(s.ratio); err != nil {
				return fmt.Errorf("archive gc failed: %w", err)
			}
			logging.Debug().Dur("duration", time.Since(start)).Msg("Archive garbage collection complete")
		}
	}
}

// String implements fmt.Stringer for logging.
func (s *ArchiveGCService) String() string {
	return s.name
}
