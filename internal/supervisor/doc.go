// fitsync - Fitbit data synchronization into a relational store
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitsync

/*
Package supervisor provides process supervision for "fitsync serve" using
suture v4.

# Overview

Services are organized into three layers for failure isolation:

	RootSupervisor ("fitsync")
	├── StorageSupervisor ("storage-layer")
	│   └── ArchiveGCService (if ARCHIVE_ENABLED)
	├── SyncSupervisor ("sync-layer")
	│   └── SyncService
	└── APISupervisor ("api-layer")
	    └── HTTPServerService (if SERVER_ENABLED)

Each layer counts failures and backs off independently. A sync manager that
keeps failing to start does not take the status API down with it.

Supervisor events (service start, failure, restart, backoff) are logged
through sutureslog, and logging.NewSlogLogger routes them into the same
zerolog stream as the rest of the process.

# Usage

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(),
	    supervisor.TreeConfigFrom(cfg.Supervisor))
	if err != nil {
	    return err
	}
	tree.AddSyncService(services.NewSyncService(manager))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Supervisor.ShutdownTimeout))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return tree.Serve(ctx)

See the services subpackage for the individual wrappers.
*/
package supervisor
