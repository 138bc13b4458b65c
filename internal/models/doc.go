// fitsync - Fitbit data synchronization into a relational store
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitsync

/*
Package models defines the data structures shared across fitsync.

Key Components:

  - Credential: the single OAuth2 credential row, mutated on every token refresh
  - UserProfile: registration date and stride lengths, written once at build time
  - Stream: a named Fitbit data source (activities, steps, heart_rate, sleep)
  - Record: a typed per-day record bound to one storage table
  - Row: a column-name to value map used by the storage layer
  - APIResponse: the envelope returned by the status API

Record Variants:

  - Activity and ActivitySummary (stream "activities")
  - StepsSample (stream "steps")
  - HeartRateSample (stream "heart_rate")
  - SleepSummary and SleepStageSample (stream "sleep")

Every record carries a Date field naming the sync day it belongs to. Records
are keyed either by a natural id (Activity.LogID) or by a timestamp. KeyString
renders either form into the canonical string used to compare stored keys with
incoming ones.

All timestamps are wall-clock values as reported by the provider, stored with
a UTC location so that every storage engine round-trips them unchanged.
*/
package models
