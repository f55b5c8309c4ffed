// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StoryTable Contributors

package errutil

import (
	"maps"
	"slices"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestingT is the part of testing.TB the assertions below use.
type TestingT interface {
	Helper()
	Errorf(format string, args ...any)
	FailNow()
}

// AssertErrorCode asserts that err carries the domain code, e.g.
// TREE_NODE_NOT_FOUND. A nil or code-less error stops the test.
func AssertErrorCode(t TestingT, err error, code string) {
	t.Helper()
	if err == nil {
		require.Failf(t, "missing error", "expected error with code %s, got nil", code)
		return
	}
	if _, ok := oops.AsOops(err); !ok {
		require.Failf(t, "error has no code", "expected code %s, got %T: %v", code, err, err)
		return
	}
	assert.Equalf(t, code, Code(err), "wrong error code on %q", err.Error())
}

// AssertErrorContext asserts that err carries key with value in its oops context.
func AssertErrorContext(t TestingT, err error, key string, value any) {
	t.Helper()
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		require.Failf(t, "error has no context", "expected context %q, got %T: %v", key, err, err)
		return
	}
	ctx := oopsErr.Context()
	got, present := ctx[key]
	if !present {
		assert.Failf(t, "missing error context",
			"key %q not set on %s error %q; has %v", key, Code(err), err.Error(), slices.Sorted(maps.Keys(ctx)))
		return
	}
	assert.Equalf(t, value, got, "context %q on %s error", key, Code(err))
}
