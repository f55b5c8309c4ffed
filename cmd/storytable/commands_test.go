// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StoryTable Contributors

package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storytable/storytable/pkg/errutil"
)

func TestServe_RequiresDatabaseURL(t *testing.T) {
	_, err := execute(t, testDeps(&fakeMigrator{}), "serve")

	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
}

func TestServe_AutoMigrateFailureStopsStartup(t *testing.T) {
	m := &fakeMigrator{upErr: assert.AnError}
	_, err := execute(t, testDeps(m), "serve", "--auto-migrate", "--database-url", testDatabaseURL)

	require.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, 1, m.ups)
	assert.True(t, m.closed)
}

func TestServe_InvalidConfig(t *testing.T) {
	_, err := execute(t, testDeps(nil), "serve", "--log-format", "xml", "--database-url", testDatabaseURL)

	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
	errutil.AssertErrorContext(t, err, "key", "log_format")
}

func TestDatabaseCommands_ReportConnectFailure(t *testing.T) {
	tests := [][]string{
		{"session", "purge"},
		{"user", "grant", "alice", "world_builder"},
		{"user", "revoke", "alice", "admin"},
		{"user", "create", "alice", "--password", "correct horse"},
	}

	for _, args := range tests {
		t.Run(args[0]+" "+args[1], func(t *testing.T) {
			_, err := execute(t, testDeps(nil), append(args, "--database-url", testDatabaseURL)...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "no database in unit tests")
		})
	}
}

func TestUserCommands_RejectBadInputBeforeConnecting(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code string
	}{
		{"grant unknown role", []string{"user", "grant", "alice", "overlord"}, "AUTH_UNKNOWN_ROLE"},
		{"revoke unknown role", []string{"user", "revoke", "alice", "overlord"}, "AUTH_UNKNOWN_ROLE"},
		{"create without password", []string{"user", "create", "alice"}, "AUTH_INVALID_PASSWORD"},
		{"create with unknown role", []string{"user", "create", "alice", "--password", "pw123456", "--role", "overlord"}, "AUTH_UNKNOWN_ROLE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, testDeps(nil), append(tt.args, "--database-url", testDatabaseURL)...)
			require.Error(t, err)
			errutil.AssertErrorCode(t, err, tt.code)
		})
	}
}

func TestTreeSchema(t *testing.T) {
	out, err := execute(t, nil, "tree", "schema")
	require.NoError(t, err)

	var schema map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &schema))
	assert.Contains(t, out, "nodes")
}

func TestTreeImport_RejectsBadInputBeforeConnecting(t *testing.T) {
	dir := t.TempDir()
	valid := filepath.Join(dir, "tree.yaml")
	require.NoError(t, os.WriteFile(valid, []byte("nodes:\n  - type: cosmos\n    name: Prime\n"), 0o600))
	invalid := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(invalid, []byte("nodes:\n  - type: galaxy\n    name: Nope\n"), 0o600))

	tests := []struct {
		name string
		args []string
		code string
	}{
		{"missing file", []string{"tree", "import", filepath.Join(dir, "missing.yaml"), "--owner", "alice"}, "IMPORT_READ_FAILED"},
		{"bad parent id", []string{"tree", "import", valid, "--owner", "alice", "--parent", "not-a-ulid"}, "INVALID_INPUT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, testDeps(nil), append(tt.args, "--database-url", testDatabaseURL)...)
			require.Error(t, err)
			errutil.AssertErrorCode(t, err, tt.code)
		})
	}

	t.Run("schema violation", func(t *testing.T) {
		_, err := execute(t, testDeps(nil), "tree", "import", invalid, "--owner", "alice", "--database-url", testDatabaseURL)
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "IMPORT_INVALID_DOCUMENT")
	})

	t.Run("owner is required", func(t *testing.T) {
		_, err := execute(t, testDeps(nil), "tree", "import", valid)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "owner")
	})
}

func TestParseParentFlag(t *testing.T) {
	id, err := parseParentFlag("")
	require.NoError(t, err)
	assert.Nil(t, id)

	id, err = parseParentFlag("01ARZ3NDEKTSV4RRFFQ69G5FAV")
	require.NoError(t, err)
	require.NotNil(t, id)
	assert.Equal(t, "01ARZ3NDEKTSV4RRFFQ69G5FAV", id.String())
}
