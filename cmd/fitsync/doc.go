// fitsync - Fitbit data synchronization into a relational store
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitsync

/*
Command fitsync synchronizes one user's Fitbit data into a relational store.

Usage:

	fitsync build [-v] [-s seconds] [--download]
	fitsync run   [-v] [-s seconds] [--streams steps,sleep]
	fitsync serve [-v]
	fitsync archive show [stream] [--date YYYY-MM-DD] [--json]
	fitsync archive purge <stream>

build creates the schema, seeds the credential row from the starter token
file, fetches the profile and seeds the sleep stage lookup table. run executes
one sync pass and exits. serve runs passes on an interval under a supervisor
tree and exposes the status API.

Configuration comes from built-in defaults, an optional YAML file (--config
or CONFIG_PATH) and environment variables. See internal/config.
*/
package main
