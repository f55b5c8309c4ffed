// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StoryTable Contributors

package main

import "github.com/spf13/cobra"

func newSessionCmd(d *deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Manage login sessions",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "purge",
		Short: "Delete expired sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, d, func(a *app) error {
				n, err := a.auth.PurgeExpiredSessions(cmd.Context())
				if err != nil {
					return err
				}
				cmd.Printf("Purged %d expired sessions\n", n)
				return nil
			})
		},
	})
	return cmd
}
