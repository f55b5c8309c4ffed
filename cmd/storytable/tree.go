// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StoryTable Contributors

package main

import (
	"os"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/storytable/storytable/internal/playground/importer"
)

func newTreeCmd(d *deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Work with Playground content trees",
	}
	cmd.AddCommand(newTreeImportCmd(d), newTreeSchemaCmd())
	return cmd
}

func newTreeImportCmd(d *deps) *cobra.Command {
	var (
		owner  string
		parent string
	)
	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Import a YAML tree document for a user",
		Long: `Import a YAML tree document. Every node is created through the same
placement rules the API enforces; the import stops at the first invalid node.
Run "storytable tree schema" for the document schema.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parentID, err := parseParentFlag(parent)
			if err != nil {
				return err
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return oops.Code("IMPORT_READ_FAILED").With("path", args[0]).Wrap(err)
			}
			doc, err := importer.Parse(data)
			if err != nil {
				return err
			}

			return withApp(cmd, d, func(a *app) error {
				scope, user, err := a.scopeFor(cmd.Context(), owner)
				if err != nil {
					return err
				}
				res, err := importer.Import(cmd.Context(), a.tree, scope, parentID, doc)
				if err != nil {
					if res != nil && res.Created > 0 {
						cmd.Printf("Import incomplete: %d of %d nodes were created for %s and left in place\n",
							res.Created, doc.Count(), user.Username)
					}
					return err
				}
				cmd.Printf("Created %d of %d nodes for %s\n", res.Created, doc.Count(), user.Username)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "username that will own the imported nodes")
	cmd.Flags().StringVar(&parent, "parent", "", "existing node id to import under")
	_ = cmd.MarkFlagRequired("owner") //nolint:errcheck // flag is defined above
	return cmd
}

func newTreeSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the tree import JSON Schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			schema, err := importer.GenerateSchema()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(append(schema, '\n'))
			return err
		},
	}
}

func parseParentFlag(s string) (*ulid.ULID, error) {
	if s == "" {
		return nil, nil
	}
	id, err := ulid.ParseStrict(s)
	if err != nil {
		return nil, oops.Code("INVALID_INPUT").With("parent", s).Errorf("invalid parent id %q", s)
	}
	return &id, nil
}
