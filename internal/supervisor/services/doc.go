// fitsync - Fitbit data synchronization into a relational store
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitsync

/*
Package services provides suture.Service wrappers for fitsync components.

Each wrapper translates a component's lifecycle into suture's context-aware
Serve pattern and implements fmt.Stringer so supervisor events name it:

  - SyncService: Start/Stop of the sync manager
  - HTTPServerService: ListenAndServe/Shutdown of the status API server
  - ArchiveGCService: periodic value log garbage collection of the raw archive

Serve returns ctx.Err() on a clean shutdown. Any other error makes the
supervisor restart the service under its backoff policy.
*/
package services
