// fitsync - Fitbit data synchronization into a relational store
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitsync

// Package bootstrap prepares a fresh installation: it creates the schema,
// seeds the credential row from the starter token file, reads the user
// profile and fills the sleep stage lookup table. Every step is skipped when
// its table already holds data, so running it twice is harmless.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomtom215/fitsync/internal/database"
	"github.com/tomtom215/fitsync/internal/logging"
	"github.com/tomtom215/fitsync/internal/models"
)

// Store is the storage used during bootstrap. *database.DB satisfies it.
type Store interface {
	Migrate() error
	CreateTables(ctx context.Context) ([]string, error)
	TableEmpty(ctx context.Context, table string) (bool, error)
	LoadCredential(ctx context.Context) (*models.Credential, error)
	SaveCredential(ctx context.Context, c *models.Credential) error
	SaveUserProfile(ctx context.Context, p *models.UserProfile) error
	SeedSleepStages(ctx context.Context) error
}

// Client is the Fitbit API surface used during bootstrap.
type Client interface {
	Refresh(ctx context.Context) error
	FetchProfile(ctx context.Context) (*models.UserProfile, error)
}

// ClientFactory builds a client around cred.
type ClientFactory func(cred *models.Credential) Client

// Result reports what a build changed.
type Result struct {
	CreatedTables    []string
	CredentialSeeded bool
	ProfileSeeded    bool
	StagesSeeded     bool
}

// Builder runs the bootstrap steps.
type Builder struct {
	store      Store
	newClient  ClientFactory
	tokensPath string

	client Client
}

// NewBuilder creates a builder that seeds credentials from tokensPath.
func NewBuilder(store Store, newClient ClientFactory, tokensPath string) *Builder {
	return &Builder{store: store, newClient: newClient, tokensPath: tokensPath}
}

// Build runs every step in order and stops at the first failure.
func (b *Builder) Build(ctx context.Context) (*Result, error) {
	res := &Result{}

	if err := b.store.Migrate(); err != nil {
		return res, fmt.Errorf("migrate: %w", err)
	}
	created, err := b.store.CreateTables(ctx)
	if err != nil {
		return res, fmt.Errorf("create tables: %w", err)
	}
	res.CreatedTables = created
	if len(created) > 0 {
		logging.Info().Strs("tables", created).Msg("Created tables")
	} else {
		logging.Debug().Msg("All tables already exist")
	}

	if res.CredentialSeeded, err = b.seedCredential(ctx); err != nil {
		return res, err
	}
	if res.ProfileSeeded, err = b.seedProfile(ctx); err != nil {
		return res, err
	}
	if res.StagesSeeded, err = b.seedSleepStages(ctx); err != nil {
		return res, err
	}
	return res, nil
}

func (b *Builder) seedCredential(ctx context.Context) (bool, error) {
	empty, err := b.store.TableEmpty(ctx, models.TableCredentials)
	if err != nil {
		return false, fmt.Errorf("check credentials: %w", err)
	}
	if !empty {
		return false, nil
	}

	logging.Info().Str("path", b.tokensPath).Msg("Populating credentials from starter tokens")
	tokens, err := ReadStarterTokens(b.tokensPath)
	if err != nil {
		return false, err
	}

	cred := tokens.Credential()
	if err := b.store.SaveCredential(ctx, cred); err != nil {
		return false, fmt.Errorf("save starter credential: %w", err)
	}

	// The starter pair is single use: refresh now, then erase it.
	b.client = b.newClient(cred)
	if err := b.client.Refresh(ctx); err != nil {
		return false, fmt.Errorf("refresh starter tokens: %w", err)
	}
	if err := ClearStarterTokens(b.tokensPath); err != nil {
		return true, err
	}
	return true, nil
}

func (b *Builder) seedProfile(ctx context.Context) (bool, error) {
	empty, err := b.store.TableEmpty(ctx, models.TableUserInfo)
	if err != nil {
		return false, fmt.Errorf("check user info: %w", err)
	}
	if !empty {
		return false, nil
	}

	logging.Info().Msg("Populating user info from profile endpoint")
	client, err := b.apiClient(ctx)
	if err != nil {
		return false, err
	}
	profile, err := client.FetchProfile(ctx)
	if err != nil {
		return false, fmt.Errorf("fetch profile: %w", err)
	}
	if err := b.store.SaveUserProfile(ctx, profile); err != nil {
		return false, fmt.Errorf("save user info: %w", err)
	}
	logging.Info().Time("start_date", profile.StartDate).Msg("User info saved")
	return true, nil
}

func (b *Builder) seedSleepStages(ctx context.Context) (bool, error) {
	empty, err := b.store.TableEmpty(ctx, models.TableSleepStages)
	if err != nil {
		return false, fmt.Errorf("check sleep stages: %w", err)
	}
	if !empty {
		return false, nil
	}

	logging.Info().Msg("Populating sleep stage ids")
	if err := b.store.SeedSleepStages(ctx); err != nil {
		return false, fmt.Errorf("seed sleep stages: %w", err)
	}
	return true, nil
}

// apiClient reuses the client built while seeding the credential, or builds
// one from the stored row.
func (b *Builder) apiClient(ctx context.Context) (Client, error) {
	if b.client != nil {
		return b.client, nil
	}
	cred, err := b.store.LoadCredential(ctx)
	if errors.Is(err, database.ErrNoCredential) {
		return nil, fmt.Errorf("no credential stored, run build with a starter token file: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("load credential: %w", err)
	}
	b.client = b.newClient(cred)
	return b.client, nil
}
