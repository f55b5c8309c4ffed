// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StoryTable Contributors

package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"strconv"
	"strings"

	"github.com/samber/oops"
	"golang.org/x/crypto/pbkdf2"
)

// PBKDF2 parameters. The iteration count is recorded in every encoded hash,
// so raising DefaultIterations never invalidates stored passwords.
const (
	hashScheme        = "pbkdf2_sha256"
	DefaultIterations = 310_000
	maxIterations     = 10_000_000
	saltLen           = 16
	keyLen            = 32
)

// ErrEmptyPassword is returned when attempting to hash an empty password.
var ErrEmptyPassword = oops.Code("AUTH_EMPTY_PASSWORD").Errorf("password cannot be empty")

// PasswordHasher provides password hashing and verification.
type PasswordHasher interface {
	// Hash produces a self-describing hash of the password.
	Hash(password string) (string, error)

	// Verify reports whether password matches the stored hash.
	// Malformed hashes never match.
	Verify(password, stored string) bool
}

// PBKDF2Hasher implements PasswordHasher using PBKDF2-HMAC-SHA256.
type PBKDF2Hasher struct {
	iterations int
}

// NewPBKDF2Hasher creates a hasher that derives new hashes with the given
// iteration count. Non-positive values select DefaultIterations.
func NewPBKDF2Hasher(iterations int) *PBKDF2Hasher {
	if iterations <= 0 {
		iterations = DefaultIterations
	}
	return &PBKDF2Hasher{iterations: iterations}
}

// Hash produces an encoded hash in the form
// pbkdf2_sha256$<iterations>$<salt>$<hash>.
func (h *PBKDF2Hasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}

	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", oops.Code("AUTH_SALT_FAILED").Wrap(err)
	}

	key := pbkdf2.Key([]byte(password), salt, h.iterations, keyLen, sha256.New)

	return strings.Join([]string{
		hashScheme,
		strconv.Itoa(h.iterations),
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	}, "$"), nil
}

// Verify checks the password against an encoded hash. Any parse failure
// yields false; the caller never learns which part was wrong.
func (h *PBKDF2Hasher) Verify(password, stored string) bool {
	parts := strings.Split(stored, "$")
	if len(parts) != 4 || parts[0] != hashScheme {
		return false
	}

	iterations, err := strconv.Atoi(parts[1])
	if err != nil || iterations <= 0 || iterations > maxIterations {
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[2])
	if err != nil || len(salt) == 0 {
		return false
	}

	expected, err := base64.RawStdEncoding.DecodeString(parts[3])
	if err != nil || len(expected) == 0 || len(expected) > 1024 {
		return false
	}

	computed := pbkdf2.Key([]byte(password), salt, iterations, len(expected), sha256.New)
	return subtle.ConstantTimeCompare(computed, expected) == 1
}

var _ PasswordHasher = (*PBKDF2Hasher)(nil)
