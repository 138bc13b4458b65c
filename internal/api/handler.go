// fitsync - Fitbit data synchronization into a relational store
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitsync

package api

import (
	"context"
	"time"

	"github.com/tomtom215/fitsync/internal/models"
)

// SyncController is the part of the sync manager the API drives.
type SyncController interface {
	Status(ctx context.Context) (models.SyncStatus, error)
	TriggerSync(streams []models.Stream) error
}

// Pinger checks storage connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler holds the dependencies shared by all endpoints.
type Handler struct {
	sync      SyncController
	db        Pinger
	version   string
	startTime time.Time
	now       func() time.Time
}

// NewHandler creates a handler. Either dependency may be nil; the endpoints
// that need it then report it as unavailable.
func NewHandler(sync SyncController, db Pinger, version string) *Handler {
	return &Handler{
		sync:      sync,
		db:        db,
		version:   version,
		startTime: time.Now(),
		now:       time.Now,
	}
}
