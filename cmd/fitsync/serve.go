// fitsync - Fitbit data synchronization into a relational store
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitsync

package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tomtom215/fitsync/internal/api"
	"github.com/tomtom215/fitsync/internal/logging"
	"github.com/tomtom215/fitsync/internal/supervisor"
	"github.com/tomtom215/fitsync/internal/supervisor/services"
	intsync "github.com/tomtom215/fitsync/internal/sync"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run sync passes on an interval and serve the status API",
		Long: `Run a sync pass every SYNC_INTERVAL (and once at start when
SYNC_RUN_ON_START is set) under a supervisor tree, and serve:

  GET  /health
  GET  /api/v1/sync/status
  POST /api/v1/sync/trigger
  GET  /metrics

on HTTP_HOST:HTTP_PORT unless SERVER_ENABLED=false.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd)
		},
	}
}

func (a *app) serve(cmd *cobra.Command) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	db, err := a.openDatabase()
	if err != nil {
		return err
	}
	defer closeWithLog(db, "database")

	arch, err := a.openArchive()
	if err != nil {
		return err
	}
	if arch != nil {
		defer closeWithLog(arch, "archive")
	}

	client, err := a.newClient(ctx, db)
	if err != nil {
		return err
	}
	runner, err := a.newRunner(ctx, db, client, arch, nil)
	if err != nil {
		return err
	}
	manager := intsync.NewManager(runner, db, a.cfg.Sync.Interval, a.cfg.Sync.RunOnStart)

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfigFrom(a.cfg.Supervisor))
	if err != nil {
		return fmt.Errorf("failed to create supervisor tree: %w", err)
	}

	if arch != nil {
		tree.AddStorageService(services.NewArchiveGCService(arch, a.cfg.Archive.GCInterval))
	}
	tree.AddSyncService(services.NewSyncService(manager))

	if a.cfg.Server.Enabled {
		handler := api.NewHandler(manager, db, version)
		server := &http.Server{
			Addr:              net.JoinHostPort(a.cfg.Server.Host, strconv.Itoa(a.cfg.Server.Port)),
			Handler:           api.NewRouter(handler, api.RouterConfigFrom(a.cfg.Server)),
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       a.cfg.Server.Timeout,
			WriteTimeout:      a.cfg.Server.Timeout,
			IdleTimeout:       60 * time.Second,
		}
		tree.AddAPIService(services.NewHTTPServerService(server, a.cfg.Supervisor.ShutdownTimeout))
		logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
			cancel()
		case <-ctx.Done():
		}
	}()

	logging.Info().Str("version", version).Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	var serveErr error
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
			serveErr = err
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("fitsync stopped")
	return serveErr
}
