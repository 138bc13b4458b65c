// fitsync - Fitbit data synchronization into a relational store
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitsync

/*
Package api serves the status API used in serve mode.

Endpoints:

	GET  /health               database connectivity and last sync time
	GET  /api/v1/sync/status   state of the last pass and stored table extents
	POST /api/v1/sync/trigger  start a pass now, optionally over a subset of streams
	GET  /metrics              Prometheus exposition

Every JSON endpoint answers with the models.APIResponse envelope. The trigger
endpoint is rate limited per client IP with go-chi/httprate and answers 409
while a pass is already running.

Trigger body (optional):

	{"streams": ["steps", "sleep"]}
*/
package api
