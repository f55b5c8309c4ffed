// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StoryTable Contributors

package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/storytable/storytable/internal/config"
	"github.com/storytable/storytable/internal/logging"
)

// NewRootCmd creates the storytable command tree. A nil deps uses the
// production implementations.
func NewRootCmd(d *deps) *cobra.Command {
	d = d.withDefaults()

	cmd := &cobra.Command{
		Use:           "storytable",
		Short:         "StoryTable - tabletop campaign and world-building server",
		Long:          `StoryTable serves the Playground world-building API and its account layer.`,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	config.RegisterFlags(cmd.PersistentFlags())

	cmd.AddCommand(
		newServeCmd(d),
		newMigrateCmd(d),
		newUserCmd(d),
		newSessionCmd(d),
		newTreeCmd(d),
	)
	return cmd
}

// loadConfig reads configuration for cmd and installs the default logger.
func loadConfig(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return nil, nil, err
	}
	logger := logging.SetDefault(logging.Options{
		Service: "storytable",
		Version: version,
		Format:  cfg.LogFormat,
		Writer:  cmd.ErrOrStderr(),
	})
	return cfg, logger, nil
}
