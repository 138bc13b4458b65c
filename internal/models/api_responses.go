// fitsync - Fitbit data synchronization into a relational store
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitsync

package models

import "time"

// APIResponse is the envelope returned by every status API endpoint.
//
// Success:
//
//	{
//	  "status": "success",
//	  "data": {...},
//	  "metadata": {"timestamp": "2026-01-02T12:00:00Z", "request_id": "..."}
//	}
//
// Error:
//
//	{
//	  "status": "error",
//	  "error": {"code": "SYNC_IN_PROGRESS", "message": "A sync pass is already running"},
//	  "metadata": {"timestamp": "2026-01-02T12:00:00Z"}
//	}
type APIResponse struct {
	Status   string    `json:"status"`
	Data     any       `json:"data,omitempty"`
	Metadata Metadata  `json:"metadata"`
	Error    *APIError `json:"error,omitempty"`
}

// Metadata carries response bookkeeping.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	RequestID   string    `json:"request_id,omitempty"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
}

// APIError is a machine-readable error with a human message.
type APIError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// TableStatus reports the stored extent of one data table.
type TableStatus struct {
	Table   string     `json:"table"`
	Rows    int64      `json:"rows"`
	MaxDate *time.Time `json:"max_date,omitempty"`
}

// SyncStatus is the state exposed by the status API.
type SyncStatus struct {
	Running      bool          `json:"running"`
	LastRunID    string        `json:"last_run_id,omitempty"`
	LastStarted  *time.Time    `json:"last_started,omitempty"`
	LastFinished *time.Time    `json:"last_finished,omitempty"`
	LastError    string        `json:"last_error,omitempty"`
	Retries      int           `json:"retries"`
	Streams      []StreamStats `json:"streams,omitempty"`
	Tables       []TableStatus `json:"tables,omitempty"`
}

// StreamStats summarizes one stream's part of a pass.
type StreamStats struct {
	Stream   Stream `json:"stream"`
	Dates    int    `json:"dates"`
	Replaced int    `json:"replaced"`
	Inserted int    `json:"inserted"`
	Absent   int    `json:"absent"`
	Dropped  int    `json:"dropped"`
}

// HealthStatus is returned by GET /health.
type HealthStatus struct {
	Status            string     `json:"status"`
	Version           string     `json:"version"`
	DatabaseConnected bool       `json:"database_connected"`
	SyncRunning       bool       `json:"sync_running"`
	LastSyncTime      *time.Time `json:"last_sync_time,omitempty"`
	Uptime            float64    `json:"uptime_seconds"`
}

// TriggerResponse acknowledges an accepted sync trigger.
type TriggerResponse struct {
	Accepted bool     `json:"accepted"`
	Streams  []Stream `json:"streams,omitempty"`
}
