// fitsync - Fitbit data synchronization into a relational store
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitsync

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Database Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fitsync_db_query_duration_seconds",
			Help:    "Duration of storage queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitsync_db_query_errors_total",
			Help: "Total number of storage query errors",
		},
		[]string{"operation", "table"},
	)

	// Fitbit API Metrics
	FitbitRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitsync_fitbit_requests_total",
			Help: "Total number of Fitbit API requests by kind and status code",
		},
		[]string{"kind", "status_code"}, // kind: "data", "profile", "token"
	)

	FitbitRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fitsync_fitbit_request_duration_seconds",
			Help:    "Duration of Fitbit API requests in seconds, excluding pacing sleeps",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"kind"},
	)

	RateLimitWaits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitsync_rate_limit_waits_total",
			Help: "Total number of HTTP 429 responses that triggered a wait",
		},
		[]string{"kind"},
	)

	RateLimitWaitSeconds = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fitsync_rate_limit_wait_seconds_total",
			Help: "Total seconds spent waiting for the rate-limit window to reset",
		},
	)

	TokenRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitsync_token_refreshes_total",
			Help: "Total number of OAuth2 token refresh attempts",
		},
		[]string{"result"}, // "success", "auth_error", "network_error"
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "fitsync_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitsync_circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitsync_circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Sync Metrics
	SyncPassDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fitsync_sync_pass_duration_seconds",
			Help:    "Duration of complete sync passes in seconds",
			Buckets: []float64{1, 10, 60, 300, 900, 1800, 3600, 7200, 14400},
		},
	)

	SyncPasses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitsync_sync_passes_total",
			Help: "Total number of sync passes by outcome",
		},
		[]string{"result"}, // "success", "auth_error", "request_error", "canceled", "other"
	)

	SyncRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fitsync_sync_retries_total",
			Help: "Total number of whole-pass restarts after a network failure",
		},
	)

	SyncLastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fitsync_sync_last_success_timestamp",
			Help: "Unix timestamp of the last successful sync pass",
		},
	)

	SyncDatesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitsync_sync_dates_processed_total",
			Help: "Total number of (stream, date) cells fetched and reconciled",
		},
		[]string{"stream"},
	)

	SyncRecordsWritten = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitsync_sync_records_written_total",
			Help: "Total number of records written by reconciliation",
		},
		[]string{"stream", "table", "operation"}, // operation: "replace", "insert"
	)

	SyncTablesAbsent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitsync_sync_tables_absent_total",
			Help: "Total number of normalizer outputs that were absent and skipped",
		},
		[]string{"stream", "table"},
	)

	SyncRecordsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitsync_sync_records_dropped_total",
			Help: "Total number of raw entries dropped because no primary key could be derived",
		},
		[]string{"table"},
	)

	// Archive Metrics
	ArchiveWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitsync_archive_writes_total",
			Help: "Total number of raw payloads written to the archive",
		},
		[]string{"stream", "result"},
	)

	// Status API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitsync_api_requests_total",
			Help: "Total number of status API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fitsync_api_request_duration_seconds",
			Help:    "Duration of status API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fitsync_api_active_requests",
			Help: "Current number of in-flight status API requests",
		},
	)
)

// RecordDBQuery records a storage operation.
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation, table).Inc()
	}
}

// RecordFitbitRequest records one HTTP exchange with the provider. A status
// code of 0 means the request never got a response.
func RecordFitbitRequest(kind string, statusCode int, duration time.Duration) {
	FitbitRequestsTotal.WithLabelValues(kind, strconv.Itoa(statusCode)).Inc()
	FitbitRequestDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// RecordRateLimitWait records a 429 response and the wait it caused.
func RecordRateLimitWait(kind string, wait time.Duration) {
	RateLimitWaits.WithLabelValues(kind).Inc()
	RateLimitWaitSeconds.Add(wait.Seconds())
}

// RecordTokenRefresh records a refresh attempt outcome.
func RecordTokenRefresh(result string) {
	TokenRefreshes.WithLabelValues(result).Inc()
}

// RecordSyncPass records a finished pass. result is one of the SyncPasses labels.
func RecordSyncPass(duration time.Duration, result string) {
	SyncPassDuration.Observe(duration.Seconds())
	SyncPasses.WithLabelValues(result).Inc()
	if result == "success" {
		SyncLastSuccess.Set(float64(time.Now().Unix()))
	}
}

// RecordSyncRetry records a whole-pass restart.
func RecordSyncRetry() {
	SyncRetries.Inc()
}

// RecordDateProcessed records one reconciled (stream, date) cell.
func RecordDateProcessed(stream string) {
	SyncDatesProcessed.WithLabelValues(stream).Inc()
}

// RecordTableWrite records the outcome of one (table, date) reconciliation.
func RecordTableWrite(stream, table string, replaced, inserted int) {
	if replaced > 0 {
		SyncRecordsWritten.WithLabelValues(stream, table, "replace").Add(float64(replaced))
	}
	if inserted > 0 {
		SyncRecordsWritten.WithLabelValues(stream, table, "insert").Add(float64(inserted))
	}
}

// RecordTableAbsent records a skipped absent normalizer output.
func RecordTableAbsent(stream, table string) {
	SyncTablesAbsent.WithLabelValues(stream, table).Inc()
}

// RecordDropped records raw entries discarded by the normalizer.
func RecordDropped(table string, n int) {
	if n > 0 {
		SyncRecordsDropped.WithLabelValues(table).Add(float64(n))
	}
}

// RecordArchiveWrite records a raw payload archive write.
func RecordArchiveWrite(stream string, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	ArchiveWrites.WithLabelValues(stream, result).Inc()
}

// RecordAPIRequest records a status API request.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest adjusts the in-flight request gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}
