// fitsync - Fitbit data synchronization into a relational store
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitsync

// Package archive keeps the raw Fitbit response bodies fetched by sync
// passes in BadgerDB.
//
// Entries are keyed by stream and calendar date, so re-fetching a day
// overwrites the previous body. Entries expire through Badger's native TTL.
// The archive is optional and only opened when archive.enabled is set; it
// lets a day be inspected (fitsync archive show) without spending API quota.
//
// # Usage
//
//	a, err := archive.Open(cfg.Archive)
//	if err != nil {
//	    return err
//	}
//	defer a.Close()
//
//	err = a.Put(ctx, "sleep", date, "/1.2/user/-/sleep/date/2021-07-24.json", body)
//	entry, err := a.Get(ctx, "sleep", date)
package archive
