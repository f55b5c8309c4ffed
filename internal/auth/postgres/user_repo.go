// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StoryTable Contributors

package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/storytable/storytable/internal/auth"
)

// Unique index names from the users migration.
const (
	usernameUniqueIndex = "users_username_lower_key"
	emailUniqueIndex    = "users_email_key"
)

// UserRepository implements auth.UserRepository using PostgreSQL.
type UserRepository struct {
	db DB
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create stores a new user.
func (r *UserRepository) Create(ctx context.Context, user *auth.User) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO users (id, username, email, password_hash, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		user.ID.String(),
		user.Username,
		user.Email,
		user.PasswordHash,
		user.Active,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		switch pgErr.ConstraintName {
		case usernameUniqueIndex:
			return oops.Code(auth.CodeUsernameTaken).With("username", user.Username).Errorf("username is already taken")
		case emailUniqueIndex:
			return oops.Code(auth.CodeEmailTaken).Errorf("email is already registered")
		}
	}
	return oops.Code("USER_CREATE_FAILED").
		With("operation", "insert user").
		With("username", user.Username).
		Wrap(err)
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id ulid.ULID) (*auth.User, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, username, email, password_hash, active, created_at, updated_at
		FROM users
		WHERE id = $1
	`, id.String())

	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").With("id", id.String()).Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_GET_FAILED").With("operation", "get user by id").With("id", id.String()).Wrap(err)
	}
	return user, nil
}

// GetByUsername retrieves a user by username (case-insensitive).
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*auth.User, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, username, email, password_hash, active, created_at, updated_at
		FROM users
		WHERE lower(username) = lower($1)
	`, username)

	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_GET_FAILED").With("operation", "get user by username").Wrap(err)
	}
	return user, nil
}

// ListRoleCodes returns every role code granted to a user.
func (r *UserRepository) ListRoleCodes(ctx context.Context, userID ulid.ULID) ([]auth.RoleCode, error) {
	rows, err := r.db.Query(ctx, `
		SELECT role_code FROM user_roles WHERE user_id = $1
	`, userID.String())
	if err != nil {
		return nil, oops.Code("USER_ROLES_FAILED").
			With("operation", "list user roles").
			With("user_id", userID.String()).
			Wrap(err)
	}
	defer rows.Close()

	codes := make([]auth.RoleCode, 0)
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, oops.Code("USER_ROLES_FAILED").With("operation", "scan role code").Wrap(err)
		}
		codes = append(codes, auth.RoleCode(code))
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("USER_ROLES_FAILED").With("operation", "iterate role codes").Wrap(err)
	}
	return codes, nil
}

// GrantRole assigns a role. Granting a held role is a no-op.
func (r *UserRepository) GrantRole(ctx context.Context, userID ulid.ULID, role auth.RoleCode) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO user_roles (user_id, role_code, granted_at)
		VALUES ($1, $2, now())
		ON CONFLICT (user_id, role_code) DO NOTHING
	`, userID.String(), string(role))
	if err != nil {
		return oops.Code("USER_ROLE_GRANT_FAILED").
			With("user_id", userID.String()).
			With("role", string(role)).
			Wrap(err)
	}
	return nil
}

// RevokeRole removes a role assignment.
func (r *UserRepository) RevokeRole(ctx context.Context, userID ulid.ULID, role auth.RoleCode) error {
	result, err := r.db.Exec(ctx, `
		DELETE FROM user_roles WHERE user_id = $1 AND role_code = $2
	`, userID.String(), string(role))
	if err != nil {
		return oops.Code("USER_ROLE_REVOKE_FAILED").
			With("user_id", userID.String()).
			With("role", string(role)).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("USER_ROLE_NOT_FOUND").
			With("user_id", userID.String()).
			With("role", string(role)).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

// scanUser scans a single row into a User.
// pgx.ErrNoRows is returned unchanged for callers to handle.
func scanUser(row pgx.Row) (*auth.User, error) {
	var (
		idStr string
		user  auth.User
	)
	err := row.Scan(&idStr, &user.Username, &user.Email, &user.PasswordHash, &user.Active, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err //nolint:wrapcheck // callers wrap with context-specific info
		}
		return nil, oops.With("operation", "scan user").Wrap(err)
	}

	user.ID, err = ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("USER_INVALID_ID").With("id", idStr).Wrap(err)
	}
	return &user, nil
}

// Compile-time interface check.
var _ auth.UserRepository = (*UserRepository)(nil)
