// fitsync - Fitbit data synchronization into a relational store
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitsync

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/fitsync/internal/config"
	"github.com/tomtom215/fitsync/internal/logging"
	"github.com/tomtom215/fitsync/internal/middleware"
)

// RouterConfig holds the limits applied by the router.
type RouterConfig struct {
	// TriggerRateRequests per TriggerRateWindow are allowed per client IP on
	// the trigger endpoint.
	TriggerRateRequests int
	TriggerRateWindow   time.Duration

	// TriggerKeyFunc overrides the rate limit key. Default: httprate.KeyByIP
	TriggerKeyFunc httprate.KeyFunc
}

// RouterConfigFrom maps the server section of the configuration.
func RouterConfigFrom(cfg config.ServerConfig) RouterConfig {
	return RouterConfig{
		TriggerRateRequests: cfg.TriggerRateReqs,
		TriggerRateWindow:   cfg.TriggerRateWin,
	}
}

// NewRouter builds the chi router for h.
func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.PrometheusMetrics)
	r.Use(requestLogger)

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		respondError(w, req, http.StatusNotFound, CodeNotFound, "Not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		respondError(w, req, http.StatusMethodNotAllowed, CodeMethodNotAllowed, "Method not allowed", nil)
	})

	r.Get("/health", h.Health)

	r.Route("/api/v1/sync", func(r chi.Router) {
		r.Get("/status", h.SyncStatus)
		r.With(triggerRateLimit(cfg)).Post("/trigger", h.SyncTrigger)
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}

func triggerRateLimit(cfg RouterConfig) func(http.Handler) http.Handler {
	if cfg.TriggerRateRequests <= 0 || cfg.TriggerRateWindow <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	keyFunc := cfg.TriggerKeyFunc
	if keyFunc == nil {
		keyFunc = httprate.KeyByIP
	}

	return httprate.Limit(
		cfg.TriggerRateRequests,
		cfg.TriggerRateWindow,
		httprate.WithKeyFuncs(keyFunc),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			respondError(w, r, http.StatusTooManyRequests, CodeRateLimited, "Too many sync triggers, try again later", nil)
		}),
	)
}

// requestLogger logs each request at debug level once it completes.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		logging.Ctx(r.Context()).Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Msg("HTTP request")
	})
}
