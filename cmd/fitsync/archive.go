// fitsync - Fitbit data synchronization into a relational store
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitsync

package main

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/tomtom215/fitsync/internal/archive"
	intsync "github.com/tomtom215/fitsync/internal/sync"
)

var errArchivePathRequired = errors.New("ARCHIVE_PATH is not set")

func newArchiveCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "archive",
		Short: "Inspect or purge archived raw API responses",
	}
	cmd.AddCommand(newArchiveShowCmd(a))
	cmd.AddCommand(newArchivePurgeCmd(a))
	return cmd
}

func newArchiveShowCmd(a *app) *cobra.Command {
	var (
		date   string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "show [stream]",
		Short: "List archived responses, or print one body with --date",
		Example: `  fitsync archive show
  fitsync archive show steps --json
  fitsync archive show sleep --date 2024-03-01`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stream := ""
			if len(args) == 1 {
				stream = args[0]
				if _, err := intsync.ResolveStreams(args); err != nil {
					return err
				}
			}
			if date != "" && stream == "" {
				return errors.New("--date requires a stream")
			}

			arch, err := a.openArchiveForInspection()
			if err != nil {
				return err
			}
			defer closeWithLog(arch, "archive")

			out := cmd.OutOrStdout()
			if date != "" {
				day, err := time.Parse(time.DateOnly, date)
				if err != nil {
					return fmt.Errorf("invalid --date %q, want YYYY-MM-DD: %w", date, err)
				}
				entry, err := arch.Get(cmd.Context(), stream, day)
				if err != nil {
					return err
				}
				_, err = out.Write(entry.Body)
				return err
			}

			entries, err := arch.List(cmd.Context(), stream)
			if err != nil {
				return err
			}
			if asJSON {
				return writeEntriesJSON(out, entries)
			}
			return writeEntriesTable(out, entries)
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "print the archived body for this date (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the listing as JSON")
	return cmd
}

func newArchivePurgeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "purge <stream>",
		Short: "Delete every archived response for a stream",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := intsync.ResolveStreams(args); err != nil {
				return err
			}
			arch, err := a.openArchiveForInspection()
			if err != nil {
				return err
			}
			defer closeWithLog(arch, "archive")

			n, err := arch.Delete(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Purged %d archived responses for %s\n", n, args[0])
			return nil
		},
	}
}

// openArchiveForInspection opens ARCHIVE_PATH whether or not archiving is
// enabled for sync passes.
func (a *app) openArchiveForInspection() (*archive.Archive, error) {
	if a.cfg.Archive.Path == "" {
		return nil, errArchivePathRequired
	}
	arch, err := archive.Open(a.cfg.Archive)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	return arch, nil
}

func writeEntriesJSON(w io.Writer, entries []archive.Entry) error {
	if entries == nil {
		entries = []archive.Entry{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode entries: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func writeEntriesTable(w io.Writer, entries []archive.Entry) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STREAM\tDATE\tPATH\tSIZE\tFETCHED")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n",
			e.Stream, e.Date.Format(time.DateOnly), e.Path, e.Size, e.FetchedAt.Format(time.RFC3339))
	}
	return tw.Flush()
}
