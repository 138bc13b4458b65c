// fitsync - Fitbit data synchronization into a relational store
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitsync

package api

// Error codes carried in models.APIError.Code.
const (
	CodeValidation       = "VALIDATION_ERROR"
	CodeInvalidBody      = "INVALID_REQUEST"
	CodeSyncInProgress   = "SYNC_IN_PROGRESS"
	CodeSyncNotRunning   = "SYNC_NOT_RUNNING"
	CodeSyncStatus       = "SYNC_STATUS_ERROR"
	CodeSyncUnavailable  = "SYNC_UNAVAILABLE"
	CodeRateLimited      = "RATE_LIMITED"
	CodeNotFound         = "NOT_FOUND"
	CodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	CodeInternal         = "INTERNAL_ERROR"
)
