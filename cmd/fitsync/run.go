// fitsync - Fitbit data synchronization into a relational store
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitsync

package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	intsync "github.com/tomtom215/fitsync/internal/sync"
)

func newRunCmd(a *app) *cobra.Command {
	var (
		seconds int
		streams []string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one sync pass and exit",
		Long: `Run one sync pass over every configured stream in order:
activities, steps, heart_rate, sleep.

A network failure sleeps SYNC_RETRY_DELAY and restarts the pass from the
first stream. Authentication and request errors stop the pass and exit
non-zero.

Examples:
  fitsync run
  fitsync run -v -s 0
  fitsync run --streams steps,sleep`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.applyPacing(cmd, seconds); err != nil {
				return err
			}
			if _, err := intsync.ResolveStreams(streams); err != nil {
				return err
			}
			return a.runPass(cmd, streams)
		},
	}

	addPacingFlag(cmd, &seconds)
	cmd.Flags().StringSliceVar(&streams, "streams", nil, "restrict the pass to these streams")
	return cmd
}

func (a *app) runPass(cmd *cobra.Command, streams []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := a.openDatabase()
	if err != nil {
		return err
	}
	defer closeWithLog(db, "database")

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
	runner, err := a.newRunner(ctx, db, client, arch, streams)
	if err != nil {
		return err
	}

	report, err := runner.Run(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, s := range report.Streams {
		fmt.Fprintf(out, "%-10s dates=%d inserted=%d replaced=%d absent=%d dropped=%d\n",
			s.Stream, s.Dates, s.Inserted, s.Replaced, s.Absent, s.Dropped)
	}
	return nil
}
