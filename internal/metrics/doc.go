// fitsync - Fitbit data synchronization into a relational store
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitsync

/*
Package metrics provides Prometheus metrics collection and export for observability.

# Overview

The package provides metrics for:
  - Fitbit API calls, rate-limit waits and token refreshes
  - Circuit breaker state transitions
  - Sync passes, per-table reconciliation and absent outputs
  - Storage query performance
  - Status API latency and throughput
  - Raw payload archive writes

All collectors are registered on the default registry through promauto.

# Metrics Endpoint

In serve mode metrics are exposed at /metrics in Prometheus text format:

	curl http://127.0.0.1:8780/metrics

# Usage Example

	start := time.Now()
	err := db.ApplyDay(ctx, table, replace, insert)
	metrics.RecordDBQuery("apply_day", table, time.Since(start), err)

	metrics.RecordRateLimitWait("data", wait)
	metrics.RecordTableWrite("steps", "activities_steps_intraday", len(replace), len(insert))
*/
package metrics
