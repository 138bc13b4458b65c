// fitsync - Fitbit data synchronization into a relational store
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitsync

package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomtom215/fitsync/internal/archive"
	"github.com/tomtom215/fitsync/internal/database"
	"github.com/tomtom215/fitsync/internal/fitbit"
	"github.com/tomtom215/fitsync/internal/logging"
	intsync "github.com/tomtom215/fitsync/internal/sync"
)

// closer is anything with a Close method worth logging on failure.
type closer interface {
	Close() error
}

func closeWithLog(c closer, what string) {
	if err := c.Close(); err != nil {
		logging.Error().Err(err).Str("component", what).Msg("Error closing")
	}
}

// openDatabase opens the configured store and brings the schema up to date.
func (a *app) openDatabase() (*database.DB, error) {
	db, err := database.New(&a.cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	logging.Info().
		Str("driver", db.Driver()).
		Str("path", a.cfg.Database.Path).
		Msg("Database initialized")
	return db, nil
}

// openArchive returns nil when the archive is disabled.
func (a *app) openArchive() (*archive.Archive, error) {
	if !a.cfg.Archive.Enabled {
		return nil, nil
	}
	arch, err := archive.Open(a.cfg.Archive)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	return arch, nil
}

func (a *app) clientOptions() []fitbit.Option {
	return []fitbit.Option{fitbit.WithVerbose(a.verbose)}
}

// newClient builds an API client around the stored credential.
func (a *app) newClient(ctx context.Context, db *database.DB) (*fitbit.Client, error) {
	cred, err := db.LoadCredential(ctx)
	if errors.Is(err, database.ErrNoCredential) {
		return nil, fmt.Errorf("%w: run \"fitsync build\" first", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load credential: %w", err)
	}
	return fitbit.NewClient(a.cfg, db, cred, a.clientOptions()...), nil
}

// newRunner wires planner, loader and runner. streams overrides the
// configured subset when non-empty. arch may be nil.
func (a *app) newRunner(ctx context.Context, db *database.DB, client *fitbit.Client, arch *archive.Archive, streams []string) (*intsync.Runner, error) {
	profile, err := db.LoadUserProfile(ctx)
	if errors.Is(err, database.ErrNoUserProfile) {
		return nil, fmt.Errorf("%w: run \"fitsync build\" first", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user profile: %w", err)
	}

	loc, err := a.cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("invalid sync timezone: %w", err)
	}

	if len(streams) == 0 {
		streams = a.cfg.Sync.Streams
	}
	resolved, err := intsync.ResolveStreams(streams)
	if err != nil {
		return nil, err
	}

	clock := fitbit.RealClock()
	planner := intsync.NewPlanner(db, profile.StartDate, clock, loc)

	var opts []intsync.LoaderOption
	if arch != nil {
		opts = append(opts, intsync.WithArchive(arch))
	}
	loader := intsync.NewLoader(db, client, planner, opts...)

	return intsync.NewRunner(loader, resolved, clock, a.cfg.Sync.RetryDelay), nil
}
