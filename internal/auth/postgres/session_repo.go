// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StoryTable Contributors

package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/storytable/storytable/internal/auth"
)

// SessionRepository implements auth.SessionRepository using PostgreSQL.
// Expiry is always compared against the database clock.
type SessionRepository struct {
	db DB
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(db DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create stores a new session.
func (r *SessionRepository) Create(ctx context.Context, session *auth.Session) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO sessions (id, user_id, created_at, expires_at)
		VALUES ($1, $2, $3, $4)
	`, session.ID, session.UserID.String(), session.CreatedAt, session.ExpiresAt)
	if err != nil {
		return oops.Code("SESSION_CREATE_FAILED").
			With("operation", "insert session").
			With("user_id", session.UserID.String()).
			Wrap(err)
	}
	return nil
}

// GetActive retrieves a session that has not yet expired.
func (r *SessionRepository) GetActive(ctx context.Context, id string) (*auth.Session, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, user_id, created_at, expires_at
		FROM sessions
		WHERE id = $1 AND expires_at > now()
	`, id)

	var (
		session   auth.Session
		userIDStr string
	)
	err := row.Scan(&session.ID, &userIDStr, &session.CreatedAt, &session.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("SESSION_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("SESSION_GET_FAILED").With("operation", "get active session").Wrap(err)
	}

	session.UserID, err = ulid.Parse(userIDStr)
	if err != nil {
		return nil, oops.Code("SESSION_INVALID_USER_ID").With("user_id", userIDStr).Wrap(err)
	}
	return &session, nil
}

// Delete removes a session by ID.
func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	if err != nil {
		return oops.Code("SESSION_DELETE_FAILED").With("operation", "delete session").Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("SESSION_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	return nil
}

// DeleteExpired removes all expired sessions and returns the count.
func (r *SessionRepository) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := r.db.Exec(ctx, `DELETE FROM sessions WHERE expires_at <= now()`)
	if err != nil {
		return 0, oops.Code("SESSION_DELETE_EXPIRED_FAILED").
			With("operation", "delete expired sessions").
			Wrap(err)
	}
	return result.RowsAffected(), nil
}

// Compile-time interface check.
var _ auth.SessionRepository = (*SessionRepository)(nil)
