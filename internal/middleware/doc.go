// fitsync - Fitbit data synchronization into a relational store
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitsync

/*
Package middleware provides the HTTP middleware used by the status API.

Key Components:

  - RequestID: accepts or generates an X-Request-ID and threads it into the
    logging context
  - PrometheusMetrics: request count, latency and in-flight instrumentation

Both have the chi signature func(http.Handler) http.Handler:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.PrometheusMetrics)

The metrics middleware labels requests by chi route pattern rather than raw
path so that path parameters do not explode label cardinality.
*/
package middleware
