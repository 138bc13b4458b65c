// fitsync - Fitbit data synchronization into a relational store
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitsync

// Package normalize turns raw Fitbit API payloads into typed records.
//
// Every stream maps to a fixed set of tables (see models.Stream). Parse
// returns one TableResult per table; a table whose sub-document is missing,
// empty or structurally malformed is reported as absent so the loader can
// skip it for that date without failing the pass. Individual scalar fields
// are decoded leniently: a value of the wrong kind becomes NULL on that
// record rather than an error.
//
// All timestamps are naive device-local times from the API and are carried
// as UTC values so they round-trip through every storage dialect unchanged.
package normalize
