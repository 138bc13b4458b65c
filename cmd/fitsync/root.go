// fitsync - Fitbit data synchronization into a relational store
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitsync

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tomtom215/fitsync/internal/config"
	"github.com/tomtom215/fitsync/internal/logging"
)

// errNegativePacing is returned for a negative -s value.
var errNegativePacing = errors.New("seconds between calls must be a non-negative integer")

// app carries state shared by every subcommand.
type app struct {
	configPath string
	verbose    bool
	cfg        *config.Config

	// loadConfig is replaced in tests.
	loadConfig func() (*config.Config, error)
}

func newRootCmd() *cobra.Command {
	return newCommand(&app{loadConfig: config.Load})
}

func newCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:          "fitsync",
		Short:        "Synchronize Fitbit data into a relational store",
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return logging.Close()
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "path to a YAML config file (overrides CONFIG_PATH)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "debug logging and one line per API call")

	root.AddCommand(newBuildCmd(a))
	root.AddCommand(newRunCmd(a))
	root.AddCommand(newServeCmd(a))
	root.AddCommand(newArchiveCmd(a))

	return root
}

// setup loads configuration and initializes logging.
func (a *app) setup() error {
	if a.configPath != "" {
		if err := os.Setenv(config.ConfigPathEnvVar, a.configPath); err != nil {
			return fmt.Errorf("set %s: %w", config.ConfigPathEnvVar, err)
		}
	}

	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	a.cfg = cfg

	level := cfg.Logging.Level
	if a.verbose {
		level = "debug"
	}
	if err := logging.Init(logging.Config{
		Level:     level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
		Output:    os.Stderr,
		FileDir:   cfg.Logging.FileDir,
	}); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	return nil
}

// addPacingFlag registers -s/--seconds-between-calls on cmd.
func addPacingFlag(cmd *cobra.Command, seconds *int) {
	cmd.Flags().IntVarP(seconds, "seconds-between-calls", "s", 0,
		"seconds to sleep before every API call (default from config)")
}

// applyPacing overrides the configured pacing when -s was given.
func (a *app) applyPacing(cmd *cobra.Command, seconds int) error {
	if !cmd.Flags().Changed("seconds-between-calls") {
		return nil
	}
	if seconds < 0 {
		return errNegativePacing
	}
	a.cfg.Fitbit.SecondsBetweenCalls = seconds
	return nil
}
