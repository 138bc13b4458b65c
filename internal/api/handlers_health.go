// fitsync - Fitbit data synchronization into a relational store
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitsync

package api

import (
	"net/http"

	"github.com/tomtom215/fitsync/internal/models"
)

// Health reports database connectivity, whether a pass is running and when
// the last one finished. A failed ping answers 503 so probes can act on it.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	start := h.now()

	dbConnected := h.db != nil && h.db.Ping(r.Context()) == nil

	health := models.HealthStatus{
		Status:            "healthy",
		Version:           h.version,
		DatabaseConnected: dbConnected,
		Uptime:            h.now().Sub(h.startTime).Seconds(),
	}

	if h.sync != nil {
		// A status error means the database is down, which the ping reports.
		status, _ := h.sync.Status(r.Context())
		health.SyncRunning = status.Running
		health.LastSyncTime = status.LastFinished
	}

	code := http.StatusOK
	if !dbConnected {
		health.Status = "degraded"
		code = http.StatusServiceUnavailable
	}

	respondData(w, r, code, health, start)
}
