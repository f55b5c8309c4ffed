// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StoryTable Contributors

package main

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storytable/storytable/internal/store"
)

// fakeMigrator records calls made by the migrate commands.
type fakeMigrator struct {
	status  store.Status
	upErr   error
	forced  []int
	ups     int
	downs   int
	closed  bool
	failOps error
}

func (f *fakeMigrator) Up() error {
	f.ups++
	return f.upErr
}

func (f *fakeMigrator) Down() error {
	f.downs++
	return f.failOps
}

func (f *fakeMigrator) Force(version int) error {
	f.forced = append(f.forced, version)
	return f.failOps
}

func (f *fakeMigrator) Status() (store.Status, error) {
	return f.status, f.failOps
}

func (f *fakeMigrator) Close() error {
	f.closed = true
	return nil
}

// testDeps never reaches a real database.
func testDeps(m *fakeMigrator) *deps {
	return &deps{
		connect: func(context.Context, string, store.RetryConfig, *slog.Logger) (*pgxpool.Pool, error) {
			return nil, errors.New("no database in unit tests")
		},
		newMigrator: func(string) (migrator, error) {
			return m, nil
		},
	}
}

func execute(t *testing.T, d *deps, args ...string) (string, error) {
	t.Helper()
	t.Setenv("DATABASE_URL", "")
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cmd := NewRootCmd(d)
	out := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootCommand_HasExpectedSubcommands(t *testing.T) {
	out, err := execute(t, nil, "--help")
	require.NoError(t, err)

	for _, sub := range []string{"serve", "migrate", "user", "session", "tree"} {
		assert.Contains(t, out, sub, "Help missing %q command", sub)
	}
}

func TestRootCommand_ConfigFlagsArePersistent(t *testing.T) {
	cmd := NewRootCmd(nil)
	for _, name := range []string{"config", "database-url", "http-addr", "log-format"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), "missing persistent flag %q", name)
	}
}

func TestRootCommand_VersionFlag(t *testing.T) {
	cmd := NewRootCmd(nil)
	cmd.Version = "test-version"
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--version"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "test-version")
}

func TestSubcommandHelp(t *testing.T) {
	tests := []struct {
		args []string
		want []string
	}{
		{[]string{"migrate", "--help"}, []string{"up", "down", "status", "force"}},
		{[]string{"user", "--help"}, []string{"create", "grant", "revoke"}},
		{[]string{"session", "--help"}, []string{"purge"}},
		{[]string{"tree", "--help"}, []string{"import", "schema"}},
		{[]string{"serve", "--help"}, []string{"--auto-migrate", "--metrics-addr"}},
	}

	for _, tt := range tests {
		t.Run(tt.args[0], func(t *testing.T) {
			out, err := execute(t, nil, tt.args...)
			require.NoError(t, err)
			for _, want := range tt.want {
				assert.Contains(t, out, want)
			}
		})
	}
}
