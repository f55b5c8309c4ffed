// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StoryTable Contributors

package auth_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storytable/storytable/internal/auth"
	"github.com/storytable/storytable/pkg/errutil"
)

// testIterations keeps the suite fast; production uses DefaultIterations.
const testIterations = 1000

func TestPBKDF2Hasher_Hash(t *testing.T) {
	hasher := auth.NewPBKDF2Hasher(testIterations)

	t.Run("produces self-describing hash", func(t *testing.T) {
		hash, err := hasher.Hash("password123")
		require.NoError(t, err)

		parts := strings.Split(hash, "$")
		require.Len(t, parts, 4)
		assert.Equal(t, "pbkdf2_sha256", parts[0])
		assert.Equal(t, "1000", parts[1])
		assert.NotEmpty(t, parts[2])
		assert.NotEmpty(t, parts[3])
	})

	t.Run("same password produces different hashes (salt)", func(t *testing.T) {
		hash1, err := hasher.Hash("samepassword")
		require.NoError(t, err)
		hash2, err := hasher.Hash("samepassword")
		require.NoError(t, err)
		assert.NotEqual(t, hash1, hash2)
	})

	t.Run("rejects empty password", func(t *testing.T) {
		_, err := hasher.Hash("")
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "AUTH_EMPTY_PASSWORD")
	})

	t.Run("non-positive iterations select default", func(t *testing.T) {
		hash, err := auth.NewPBKDF2Hasher(0).Hash("x")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(hash, "pbkdf2_sha256$310000$"))
	})
}

func TestPBKDF2Hasher_Verify(t *testing.T) {
	hasher := auth.NewPBKDF2Hasher(testIterations)

	passwords := []string{"correcthorse", "p", "ünïcødé pässwörd", strings.Repeat("long", 50)}
	for _, p := range passwords {
		hash, err := hasher.Hash(p)
		require.NoError(t, err)
		assert.True(t, hasher.Verify(p, hash), "password %q should verify", p)
		assert.False(t, hasher.Verify(p+"x", hash), "password %q+x should not verify", p)
	}

	t.Run("hash from a different iteration count still verifies", func(t *testing.T) {
		hash, err := auth.NewPBKDF2Hasher(2000).Hash("portable")
		require.NoError(t, err)
		assert.True(t, hasher.Verify("portable", hash))
	})
}

func TestPBKDF2Hasher_VerifyMalformed(t *testing.T) {
	hasher := auth.NewPBKDF2Hasher(testIterations)
	valid, err := hasher.Hash("secret123")
	require.NoError(t, err)
	parts := strings.Split(valid, "$")

	tests := []struct {
		name   string
		stored string
	}{
		{"empty", ""},
		{"garbage", "not-a-hash"},
		{"truncated", strings.Join(parts[:3], "$")},
		{"wrong scheme", "argon2id$1000$" + parts[2] + "$" + parts[3]},
		{"argon2 phc string", "$argon2id$v=19$m=65536,t=1,p=4$AAAA$BBBB"},
		{"non-numeric iterations", "pbkdf2_sha256$abc$" + parts[2] + "$" + parts[3]},
		{"zero iterations", "pbkdf2_sha256$0$" + parts[2] + "$" + parts[3]},
		{"negative iterations", "pbkdf2_sha256$-5$" + parts[2] + "$" + parts[3]},
		{"huge iterations", "pbkdf2_sha256$999999999999$" + parts[2] + "$" + parts[3]},
		{"bad salt encoding", "pbkdf2_sha256$1000$!!!$" + parts[3]},
		{"empty salt", "pbkdf2_sha256$1000$$" + parts[3]},
		{"bad hash encoding", "pbkdf2_sha256$1000$" + parts[2] + "$!!!"},
		{"empty hash", "pbkdf2_sha256$1000$" + parts[2] + "$"},
		{"extra field", valid + "$extra"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				assert.False(t, hasher.Verify("secret123", tt.stored))
			})
		})
	}
}
