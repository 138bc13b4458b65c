// fitsync - Fitbit data synchronization into a relational store
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitsync

package api

import (
	"errors"
	"net/http"

	"github.com/tomtom215/fitsync/internal/logging"
	"github.com/tomtom215/fitsync/internal/models"
	intsync "github.com/tomtom215/fitsync/internal/sync"
)

// TriggerRequest is the optional body of POST /api/v1/sync/trigger.
type TriggerRequest struct {
	Streams []string `json:"streams" validate:"omitempty,max=4,dive,stream"`
}

// SyncStatus returns the last pass and the stored table extents.
func (h *Handler) SyncStatus(w http.ResponseWriter, r *http.Request) {
	start := h.now()

	if h.sync == nil {
		respondError(w, r, http.StatusServiceUnavailable, CodeSyncUnavailable, "Sync manager is not configured", nil)
		return
	}

	status, err := h.sync.Status(r.Context())
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, CodeSyncStatus, "Failed to read sync status", err)
		return
	}

	respondData(w, r, http.StatusOK, status, start)
}

// SyncTrigger starts a pass in the background and answers 202.
func (h *Handler) SyncTrigger(w http.ResponseWriter, r *http.Request) {
	start := h.now()

	if h.sync == nil {
		respondError(w, r, http.StatusServiceUnavailable, CodeSyncUnavailable, "Sync manager is not configured", nil)
		return
	}

	var req TriggerRequest
	if err := decodeJSON(w, r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		respondError(w, r, http.StatusBadRequest, CodeInvalidBody, "Request body must be a JSON object", nil)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondAPIError(w, r, http.StatusBadRequest, apiErr)
		return
	}

	var streams []models.Stream
	if len(req.Streams) > 0 {
		resolved, err := intsync.ResolveStreams(req.Streams)
		if err != nil {
			respondError(w, r, http.StatusBadRequest, CodeValidation, err.Error(), nil)
			return
		}
		streams = resolved
	}

	switch err := h.sync.TriggerSync(streams); {
	case errors.Is(err, intsync.ErrSyncInProgress):
		respondError(w, r, http.StatusConflict, CodeSyncInProgress, "A sync pass is already running", nil)
		return
	case errors.Is(err, intsync.ErrNotRunning):
		respondError(w, r, http.StatusServiceUnavailable, CodeSyncNotRunning, "Sync manager is not running", nil)
		return
	case err != nil:
		respondError(w, r, http.StatusInternalServerError, CodeInternal, "Failed to trigger sync", err)
		return
	}

	logging.Ctx(r.Context()).Info().
		Interface("streams", streams).
		Msg("Sync pass triggered via API")

	respondData(w, r, http.StatusAccepted, models.TriggerResponse{Accepted: true, Streams: streams}, start)
}
