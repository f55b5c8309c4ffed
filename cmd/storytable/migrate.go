// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StoryTable Contributors

package main

import (
	"strconv"
	"strings"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/storytable/storytable/pkg/errutil"
)

func newMigrateCmd(d *deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database migrations",
		Long:  `Apply, revert and inspect the embedded PostgreSQL schema migrations.`,
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withMigrator(cmd, d, func(m migrator) error {
					cmd.Println("Running migrations...")
					if err := m.Up(); err != nil {
						return err
					}
					cmd.Println("Migrations completed successfully")
					return nil
				})
			},
		},
		newMigrateDownCmd(d),
		&cobra.Command{
			Use:   "status",
			Short: "Show applied and pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withMigrator(cmd, d, func(m migrator) error {
					return printStatus(cmd, m)
				})
			},
		},
		&cobra.Command{
			Use:   "force VERSION",
			Short: "Mark VERSION as applied without running it",
			Long: `Mark VERSION as the current schema version and clear the dirty flag.
Use it to recover after a failed migration has been repaired by hand.`,
			Args: cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				version, err := parseForceVersion(args[0])
				if err != nil {
					return err
				}
				return withMigrator(cmd, d, func(m migrator) error {
					if err := m.Force(version); err != nil {
						return err
					}
					cmd.Printf("Forced schema version to %d\n", version)
					return nil
				})
			},
		},
	)
	return cmd
}

func newMigrateDownCmd(d *deps) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "down",
		Short: "Revert all migrations (drops every table)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return oops.Code("CONFIRMATION_REQUIRED").Errorf("migrate down drops all data; pass --yes to confirm")
			}
			return withMigrator(cmd, d, func(m migrator) error {
				cmd.Println("Reverting migrations...")
				if err := m.Down(); err != nil {
					return err
				}
				cmd.Println("All migrations reverted")
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm dropping all data")
	return cmd
}

func withMigrator(cmd *cobra.Command, d *deps, fn func(m migrator) error) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.RequireDatabase(); err != nil {
		return err
	}
	m, err := d.newMigrator(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if err := m.Close(); err != nil {
			errutil.LogError(logger, "closing migrator", err)
		}
	}()
	return fn(m)
}

func migrateUp(d *deps, databaseURL string) (err error) {
	m, err := d.newMigrator(databaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := m.Close(); err == nil {
			err = closeErr
		}
	}()
	return m.Up()
}

func printStatus(cmd *cobra.Command, m migrator) error {
	st, err := m.Status()
	if err != nil {
		return err
	}
	state := "clean"
	if st.Dirty {
		state = "dirty"
	}
	cmd.Printf("Schema version: %d (%s)\n", st.Version, state)
	for _, mig := range st.Applied {
		cmd.Printf("  [x] %s\n", mig.Name)
	}
	for _, mig := range st.Pending {
		cmd.Printf("  [ ] %s\n", mig.Name)
	}
	if len(st.Pending) == 0 {
		cmd.Println("Schema is up to date")
	}
	return nil
}

// parseForceVersion parses a non-negative schema version.
func parseForceVersion(s string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, oops.Code("INVALID_VERSION").With("input", s).Errorf("version must be an integer: %q", s)
	}
	if v < 0 {
		return 0, oops.Code("INVALID_VERSION").With("input", s).Errorf("version must be non-negative, got %d", v)
	}
	return v, nil
}
