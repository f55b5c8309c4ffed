// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StoryTable Contributors

package main

import (
	"bufio"
	"strings"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/storytable/storytable/internal/auth"
)

func newUserCmd(d *deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts and roles",
	}
	cmd.AddCommand(
		newUserCreateCmd(d),
		newRoleCmd(d, "grant", "Grant ROLE to USERNAME", func(a *app, cmd *cobra.Command, username string, role auth.RoleCode) error {
			return a.auth.GrantRole(cmd.Context(), username, role)
		}),
		newRoleCmd(d, "revoke", "Revoke ROLE from USERNAME", func(a *app, cmd *cobra.Command, username string, role auth.RoleCode) error {
			return a.auth.RevokeRole(cmd.Context(), username, role)
		}),
	)
	return cmd
}

func newUserCreateCmd(d *deps) *cobra.Command {
	var (
		email         string
		password      string
		passwordStdin bool
		roles         []string
	)
	cmd := &cobra.Command{
		Use:   "create USERNAME",
		Short: "Create an active user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if passwordStdin {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return oops.Code("PASSWORD_READ_FAILED").Wrap(err)
				}
				password = strings.TrimRight(line, "\r\n")
			}
			if password == "" {
				return oops.Code(auth.CodeInvalidPassword).Errorf("a password is required (--password or --password-stdin)")
			}
			parsed, err := parseRoles(roles)
			if err != nil {
				return err
			}

			return withApp(cmd, d, func(a *app) error {
				user, err := a.auth.CreateUser(cmd.Context(), auth.CreateUserInput{
					Username: args[0],
					Email:    email,
					Password: password,
				})
				if err != nil {
					return err
				}
				for _, role := range parsed {
					if err := a.auth.GrantRole(cmd.Context(), user.Username, role); err != nil {
						return err
					}
				}
				cmd.Printf("Created user %s (%s)\n", user.Username, user.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&password, "password", "", "password (prefer --password-stdin)")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "read the password from the first line of stdin")
	cmd.Flags().StringSliceVar(&roles, "role", nil, "role to grant (repeatable)")
	return cmd
}

type roleAction func(a *app, cmd *cobra.Command, username string, role auth.RoleCode) error

func newRoleCmd(d *deps, verb, short string, action roleAction) *cobra.Command {
	return &cobra.Command{
		Use:   verb + " USERNAME ROLE",
		Short: short,
		Long:  "Roles: " + strings.Join(roleNames(), ", "),
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			role, ok := auth.ParseRoleCode(args[1])
			if !ok {
				return oops.Code(auth.CodeUnknownRole).With("role", args[1]).Errorf("unknown role %q", args[1])
			}
			return withApp(cmd, d, func(a *app) error {
				if err := action(a, cmd, args[0], role); err != nil {
					return err
				}
				cmd.Printf("%s %s: %s\n", verb, role, args[0])
				return nil
			})
		},
	}
}

func parseRoles(in []string) ([]auth.RoleCode, error) {
	out := make([]auth.RoleCode, 0, len(in))
	for _, s := range in {
		role, ok := auth.ParseRoleCode(s)
		if !ok {
			return nil, oops.Code(auth.CodeUnknownRole).With("role", s).Errorf("unknown role %q", s)
		}
		out = append(out, role)
	}
	return out, nil
}

func roleNames() []string {
	codes := auth.Roles()
	out := make([]string, len(codes))
	for i, c := range codes {
		out[i] = string(c)
	}
	return out
}

// withApp loads configuration, opens the service graph and runs fn.
func withApp(cmd *cobra.Command, d *deps, fn func(a *app) error) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	a, err := openApp(cmd.Context(), d, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}
