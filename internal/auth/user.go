// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StoryTable Contributors

package auth

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Username and password constraints.
const (
	MinUsernameLength = 3
	MaxUsernameLength = 30
	MinPasswordLength = 8
	MaxPasswordLength = 256
	MaxEmailLength    = 254
)

var usernameRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)

// User is an account that can author content.
type User struct {
	ID           ulid.ULID
	Username     string
	Email        *string
	PasswordHash string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// SessionUser is the authenticated identity attached to a request.
type SessionUser struct {
	ID       ulid.ULID
	Username string
	Email    *string
	Role     RoleCode
}

// NewUser creates a validated, active User.
func NewUser(username string, email *string, passwordHash string, now time.Time) (*User, error) {
	if err := ValidateUsername(username); err != nil {
		return nil, err
	}
	if passwordHash == "" {
		return nil, oops.Code(CodeInvalidPassword).Errorf("password hash cannot be empty")
	}
	return &User{
		ID:           ulid.Make(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// ValidateUsername validates a username:
// 3-30 characters, starting with a letter, then letters, digits or underscores.
func ValidateUsername(username string) error {
	if username == "" {
		return oops.Code(CodeInvalidUsername).Errorf("username cannot be empty")
	}
	if len(username) < MinUsernameLength {
		return oops.Code(CodeInvalidUsername).
			With("min", MinUsernameLength).
			Errorf("username must be at least %d characters", MinUsernameLength)
	}
	if len(username) > MaxUsernameLength {
		return oops.Code(CodeInvalidUsername).
			With("max", MaxUsernameLength).
			Errorf("username must be at most %d characters", MaxUsernameLength)
	}
	if !usernameRegex.MatchString(username) {
		return oops.Code(CodeInvalidUsername).
			Errorf("username must start with a letter and contain only letters, numbers, and underscores")
	}
	return nil
}

// ValidatePassword checks password length bounds.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return oops.Code(CodeInvalidPassword).
			With("min", MinPasswordLength).
			Errorf("password must be at least %d characters", MinPasswordLength)
	}
	if len(password) > MaxPasswordLength {
		return oops.Code(CodeInvalidPassword).
			With("max", MaxPasswordLength).
			Errorf("password must be at most %d characters", MaxPasswordLength)
	}
	return nil
}

// NormalizeEmail trims and lower-cases an optional email address.
// Blank input yields nil.
func NormalizeEmail(email string) (*string, error) {
	e := strings.ToLower(strings.TrimSpace(email))
	if e == "" {
		return nil, nil
	}
	at := strings.IndexByte(e, '@')
	if at < 1 || at == len(e)-1 || strings.Count(e, "@") != 1 || len(e) > MaxEmailLength {
		return nil, oops.Code(CodeInvalidEmail).Errorf("email address is invalid")
	}
	return &e, nil
}

// UserRepository manages user and role-assignment persistence.
type UserRepository interface {
	// Create stores a new user.
	Create(ctx context.Context, user *User) error

	// GetByID retrieves a user by ID.
	GetByID(ctx context.Context, id ulid.ULID) (*User, error)

	// GetByUsername retrieves a user by username (case-insensitive).
	GetByUsername(ctx context.Context, username string) (*User, error)

	// ListRoleCodes returns every role code granted to a user.
	ListRoleCodes(ctx context.Context, userID ulid.ULID) ([]RoleCode, error)

	// GrantRole assigns a role. Granting a held role is a no-op.
	GrantRole(ctx context.Context, userID ulid.ULID, role RoleCode) error

	// RevokeRole removes a role assignment. Returns ErrNotFound if not held.
	RevokeRole(ctx context.Context, userID ulid.ULID, role RoleCode) error
}
