// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StoryTable Contributors

package playground_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storytable/storytable/internal/playground"
	"github.com/storytable/storytable/pkg/errutil"
)

func TestNormalizeName(t *testing.T) {
	got, err := playground.NormalizeName("  Ninth Spire ")
	require.NoError(t, err)
	assert.Equal(t, "Ninth Spire", got)

	got, err = playground.NormalizeName(strings.Repeat("é", playground.MaxNameLength))
	require.NoError(t, err)
	assert.Equal(t, playground.MaxNameLength, len([]rune(got)))

	for _, bad := range []string{"", "   ", strings.Repeat("x", playground.MaxNameLength+1), "bad\x00name", "\xff"} {
		_, err := playground.NormalizeName(bad)
		require.Error(t, err, "%q", bad)
		errutil.AssertErrorCode(t, err, playground.CodeInvalidInput)
	}
}
