// fitsync - Fitbit data synchronization into a relational store
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitsync

/*
Package sync pulls per-day Fitbit data into the relational store.

Key Components:

  - Pathway: the fixed stream table, binding each stream to one resource
    path template and its target tables in write order
  - Planner: derives the inclusive date range a stream must re-fetch from the
    stored high-water marks and the user's registration date
  - Loader: fetches, normalizes and reconciles every planned date of a stream
  - Runner: executes one pass over every configured stream, restarting the
    whole pass after a transient network failure
  - Manager: runs passes periodically in serve mode and on demand

Reconciliation:

For each (table, date) the loader reads the primary keys already stored on
that date and partitions the fetched records. Known keys are deleted and
re-inserted with the new values, new keys are inserted. Both steps run in
one storage transaction per (table, date). Tables the normalizer reports as
absent are left untouched.

Planning:

	high-water(table) = max(date) if the table has rows, else start_date
	start             = min(high-water) over the stream's tables
	start             = start - 1 day, unless that precedes start_date
	end               = today in sync.timezone

Execution is strictly sequential: one stream at a time, one date at a time
in ascending order, one API call in flight.

Usage Example:

	loader := sync.NewLoader(db, client, sync.NewPlanner(db, profile.StartDate, clock, loc))
	runner := sync.NewRunner(loader, streams, clock, cfg.Sync.RetryDelay)
	report, err := runner.Run(ctx)
*/
package sync
