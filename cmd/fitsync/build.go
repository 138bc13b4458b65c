// fitsync - Fitbit data synchronization into a relational store
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitsync

package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tomtom215/fitsync/internal/bootstrap"
	"github.com/tomtom215/fitsync/internal/database"
	"github.com/tomtom215/fitsync/internal/fitbit"
	"github.com/tomtom215/fitsync/internal/logging"
	"github.com/tomtom215/fitsync/internal/models"
)

func newBuildCmd(a *app) *cobra.Command {
	var (
		download bool
		seconds  int
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Create the schema and seed credentials, profile and sleep stages",
		Long: `Create every table that does not exist yet, then seed:

  fitbit_credentials  from the starter token file (refreshed once, then the
                      file's access_token and refresh_token are blanked)
  fitbit_user_info    from the profile endpoint
  sleep_stage_id      with the seven stage labels

Each seed runs only when its table is empty, so build is safe to repeat.

Examples:
  fitsync build -v
  fitsync build --download -s 30`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.applyPacing(cmd, seconds); err != nil {
				return err
			}
			return a.runBuild(cmd, download)
		},
	}

	cmd.Flags().BoolVar(&download, "download", false, "run a full sync pass after building")
	addPacingFlag(cmd, &seconds)
	return cmd
}

func (a *app) runBuild(cmd *cobra.Command, download bool) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Open skips CreateTables so the builder can report what it created.
	db, err := database.Open(&a.cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer closeWithLog(db, "database")

	factory := func(cred *models.Credential) bootstrap.Client {
		return fitbit.NewClient(a.cfg, db, cred, a.clientOptions()...)
	}
	result, err := bootstrap.NewBuilder(db, factory, a.cfg.Fitbit.StarterTokensFile).Build(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if a.verbose && len(result.CreatedTables) > 0 {
		fmt.Fprintf(out, "Created tables: %s\n", strings.Join(result.CreatedTables, ", "))
	}
	fmt.Fprintf(out, "Build complete: %d tables created, credential seeded: %t, profile seeded: %t, sleep stages seeded: %t\n",
		len(result.CreatedTables), result.CredentialSeeded, result.ProfileSeeded, result.StagesSeeded)

	if !download {
		return nil
	}

	logging.Info().Msg("Starting full download")
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
	_, err = runner.Run(ctx)
	return err
}
