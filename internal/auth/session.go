// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StoryTable Contributors

package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Session configuration.
const (
	SessionIDBytes = 30                  // 30 bytes = 40 base64url chars
	SessionTTL     = 14 * 24 * time.Hour // absolute lifetime, never renewed
)

// Session is a persisted login session. The ID is an opaque high-entropy
// index and carries no structure.
type Session struct {
	ID        string
	UserID    ulid.ULID
	CreatedAt time.Time
	ExpiresAt time.Time
}

// NewSession creates a session for userID starting at now.
func NewSession(userID ulid.ULID, now time.Time) (*Session, error) {
	if userID.IsZero() {
		return nil, oops.Code("SESSION_INVALID_USER").Errorf("user ID cannot be zero")
	}
	id, err := NewSessionID()
	if err != nil {
		return nil, err
	}
	return &Session{
		ID:        id,
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(SessionTTL),
	}, nil
}

// NewSessionID returns a URL-safe random token of fixed length.
func NewSessionID() (string, error) {
	b := make([]byte, SessionIDBytes)
	if _, err := rand.Read(b); err != nil {
		return "", oops.Code("SESSION_ID_GENERATE_FAILED").
			With("requested_bytes", SessionIDBytes).
			Wrap(err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// SessionRepository manages session persistence.
type SessionRepository interface {
	// Create stores a new session.
	Create(ctx context.Context, session *Session) error

	// GetActive retrieves a session whose expiry is still in the future
	// according to the database clock. Returns ErrNotFound otherwise.
	GetActive(ctx context.Context, id string) (*Session, error)

	// Delete removes a session. Returns ErrNotFound if no row matched.
	Delete(ctx context.Context, id string) error

	// DeleteExpired removes every expired session and returns the count.
	DeleteExpired(ctx context.Context) (int64, error)
}
