// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StoryTable Contributors

package errutil_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storytable/storytable/pkg/errutil"
)

func TestCode(t *testing.T) {
	assert.Empty(t, errutil.Code(nil))
	assert.Empty(t, errutil.Code(errors.New("plain")))
	assert.Equal(t, "NODE_NOT_FOUND", errutil.Code(oops.Code("NODE_NOT_FOUND").Errorf("gone")))

	wrapped := oops.With("path", "nodes[0]").Wrap(oops.Code("INVALID_INPUT").Errorf("bad"))
	assert.Equal(t, "INVALID_INPUT", errutil.Code(wrapped))
}

func TestLogError_WithOopsError(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	err := oops.Code("TREE_LIST_FAILED").
		With("owner_id", "01J").
		Errorf("query failed")

	errutil.LogError(logger, "list tree", err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "ERROR", entry["level"])
	assert.Equal(t, "list tree", entry["msg"])
	assert.Equal(t, "TREE_LIST_FAILED", entry["code"])
	assert.Contains(t, entry, "context")
}

func TestLogError_WithStandardError(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	errutil.LogError(logger, "list tree", errors.New("connection reset"))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "ERROR", entry["level"])
	assert.Contains(t, entry["error"], "connection reset")
	assert.NotContains(t, entry, "code")
}
