// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StoryTable Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// dummyPasswordHash is verified when a username does not exist so that
// unknown users and wrong passwords take the same time. It never matches.
//
//nolint:gosec // G101: intentionally fake hash, not a credential.
const dummyPasswordHash = "pbkdf2_sha256$310000$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// ServiceConfig holds dependencies for Service.
type ServiceConfig struct {
	Users    UserRepository
	Sessions SessionRepository
	Hasher   PasswordHasher
	Logger   *slog.Logger     // optional, defaults to slog.Default()
	Now      func() time.Time // optional, defaults to time.Now
}

// Service provides authentication operations.
type Service struct {
	users    UserRepository
	sessions SessionRepository
	hasher   PasswordHasher
	logger   *slog.Logger
	now      func() time.Time
}

// NewService creates a new Service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Users == nil {
		return nil, oops.Code("AUTH_INVALID_CONFIG").Errorf("users repository is required")
	}
	if cfg.Sessions == nil {
		return nil, oops.Code("AUTH_INVALID_CONFIG").Errorf("sessions repository is required")
	}
	if cfg.Hasher == nil {
		return nil, oops.Code("AUTH_INVALID_CONFIG").Errorf("password hasher is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		users:    cfg.Users,
		sessions: cfg.Sessions,
		hasher:   cfg.Hasher,
		logger:   logger.With("component", "auth"),
		now:      now,
	}, nil
}

// CreateUserInput carries registration fields.
type CreateUserInput struct {
	Username string
	Email    string
	Password string
}

// CreateUser validates input and stores a new active user.
func (s *Service) CreateUser(ctx context.Context, in CreateUserInput) (*User, error) {
	username := strings.TrimSpace(in.Username)
	if err := ValidateUsername(username); err != nil {
		return nil, err
	}
	if err := ValidatePassword(in.Password); err != nil {
		return nil, err
	}
	email, err := NormalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, oops.Code("AUTH_REGISTER_FAILED").With("operation", "hash password").Wrap(err)
	}

	user, err := NewUser(username, email, hash, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err //nolint:wrapcheck // repository codes (e.g. AUTH_USERNAME_TAKEN) pass through
	}

	s.logger.InfoContext(ctx, "user created", "user_id", user.ID.String(), "username", user.Username)
	return user, nil
}

// Register creates a user and logs them in.
func (s *Service) Register(ctx context.Context, in CreateUserInput) (*Session, *User, error) {
	user, err := s.CreateUser(ctx, in)
	if err != nil {
		return nil, nil, err
	}
	session, err := s.CreateSession(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}
	return session, user, nil
}

// Login authenticates a user and creates a session.
// Unknown users, inactive users and wrong passwords are indistinguishable.
func (s *Service) Login(ctx context.Context, username, password string) (*Session, *User, error) {
	user, lookupErr := s.users.GetByUsername(ctx, strings.TrimSpace(username))

	targetHash := dummyPasswordHash
	exists := false
	switch {
	case lookupErr == nil:
		targetHash = user.PasswordHash
		exists = true
	case !errors.Is(lookupErr, ErrNotFound):
		return nil, nil, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "get user by username").
			Wrap(lookupErr)
	}

	valid := s.hasher.Verify(password, targetHash)
	if !exists || !valid || !user.Active {
		s.logger.DebugContext(ctx, "login rejected")
		return nil, nil, oops.Code(CodeInvalidCredentials).Errorf("invalid username or password")
	}

	session, err := s.CreateSession(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}
	return session, user, nil
}

// CreateSession starts a new session for userID with an absolute expiry
// SessionTTL from now.
func (s *Service) CreateSession(ctx context.Context, userID ulid.ULID) (*Session, error) {
	session, err := NewSession(userID, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, oops.Code("AUTH_SESSION_CREATE_FAILED").
			With("operation", "persist session").
			With("user_id", userID.String()).
			Wrap(err)
	}
	return session, nil
}

// DestroySession deletes the session if it exists.
// An empty id or an already-deleted session is not an error.
func (s *Service) DestroySession(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	err := s.sessions.Delete(ctx, sessionID)
	if err == nil || errors.Is(err, ErrNotFound) {
		return nil
	}
	return oops.Code("AUTH_LOGOUT_FAILED").With("operation", "delete session").Wrap(err)
}

// SessionUser resolves a session id to the authenticated user and their
// primary role. It returns (nil, nil) whenever the session, the user, or an
// active state is missing; errors are reserved for storage failures.
func (s *Service) SessionUser(ctx context.Context, sessionID string) (*SessionUser, error) {
	if sessionID == "" {
		return nil, nil
	}

	session, err := s.sessions.GetActive(ctx, sessionID)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, oops.Code("AUTH_SESSION_LOOKUP_FAILED").With("operation", "get active session").Wrap(err)
	}
	user, err := s.users.GetByID(ctx, session.UserID)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, oops.Code("AUTH_SESSION_LOOKUP_FAILED").
			With("operation", "get session user").
			With("user_id", session.UserID.String()).
			Wrap(err)
	}
	if !user.Active {
		return nil, nil
	}

	roles, err := s.users.ListRoleCodes(ctx, user.ID)
	if err != nil {
		return nil, oops.Code("AUTH_SESSION_LOOKUP_FAILED").
			With("operation", "list user roles").
			With("user_id", user.ID.String()).
			Wrap(err)
	}

	return &SessionUser{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		Role:     PickPrimaryRole(roles),
	}, nil
}

// GrantRole assigns role to the named user.
func (s *Service) GrantRole(ctx context.Context, username string, role RoleCode) error {
	user, err := s.lookupUser(ctx, username)
	if err != nil {
		return err
	}
	if _, ok := ParseRoleCode(string(role)); !ok {
		return oops.Code(CodeUnknownRole).With("role", string(role)).Errorf("unknown role %q", role)
	}
	if err := s.users.GrantRole(ctx, user.ID, role); err != nil {
		return oops.With("operation", "grant role").With("role", string(role)).Wrap(err)
	}
	s.logger.InfoContext(ctx, "role granted", "user_id", user.ID.String(), "role", string(role))
	return nil
}

// RevokeRole removes role from the named user.
func (s *Service) RevokeRole(ctx context.Context, username string, role RoleCode) error {
	user, err := s.lookupUser(ctx, username)
	if err != nil {
		return err
	}
	if err := s.users.RevokeRole(ctx, user.ID, role); err != nil {
		return oops.With("operation", "revoke role").With("role", string(role)).Wrap(err)
	}
	s.logger.InfoContext(ctx, "role revoked", "user_id", user.ID.String(), "role", string(role))
	return nil
}

// PurgeExpiredSessions removes expired session rows.
func (s *Service) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	n, err := s.sessions.DeleteExpired(ctx)
	if err != nil {
		return 0, oops.With("operation", "purge expired sessions").Wrap(err)
	}
	return n, nil
}

func (s *Service) lookupUser(ctx context.Context, username string) (*User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if errors.Is(err, ErrNotFound) {
		return nil, oops.Code(CodeUserNotFound).With("username", username).Errorf("user %q not found", username)
	}
	if err != nil {
		return nil, oops.With("operation", "get user by username").Wrap(err)
	}
	return user, nil
}
