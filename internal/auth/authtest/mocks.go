// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StoryTable Contributors

// Package authtest provides testify mocks for the auth repositories and hasher.
package authtest

import (
	"context"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/mock"

	"github.com/storytable/storytable/internal/auth"
)

// UserRepository is a mock auth.UserRepository.
type UserRepository struct {
	mock.Mock
}

// NewUserRepository creates a UserRepository whose expectations are
// asserted when the test ends.
func NewUserRepository(t interface {
	mock.TestingT
	Cleanup(func())
},
) *UserRepository {
	m := &UserRepository{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *UserRepository) Create(ctx context.Context, user *auth.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *UserRepository) GetByID(ctx context.Context, id ulid.ULID) (*auth.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*auth.User)
	return u, args.Error(1)
}

func (m *UserRepository) GetByUsername(ctx context.Context, username string) (*auth.User, error) {
	args := m.Called(ctx, username)
	u, _ := args.Get(0).(*auth.User)
	return u, args.Error(1)
}

func (m *UserRepository) ListRoleCodes(ctx context.Context, userID ulid.ULID) ([]auth.RoleCode, error) {
	args := m.Called(ctx, userID)
	codes, _ := args.Get(0).([]auth.RoleCode)
	return codes, args.Error(1)
}

func (m *UserRepository) GrantRole(ctx context.Context, userID ulid.ULID, role auth.RoleCode) error {
	return m.Called(ctx, userID, role).Error(0)
}

func (m *UserRepository) RevokeRole(ctx context.Context, userID ulid.ULID, role auth.RoleCode) error {
	return m.Called(ctx, userID, role).Error(0)
}

// SessionRepository is a mock auth.SessionRepository.
type SessionRepository struct {
	mock.Mock
}

// NewSessionRepository creates a SessionRepository whose expectations are
// asserted when the test ends.
func NewSessionRepository(t interface {
	mock.TestingT
	Cleanup(func())
},
) *SessionRepository {
	m := &SessionRepository{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *SessionRepository) Create(ctx context.Context, session *auth.Session) error {
	return m.Called(ctx, session).Error(0)
}

func (m *SessionRepository) GetActive(ctx context.Context, id string) (*auth.Session, error) {
	args := m.Called(ctx, id)
	s, _ := args.Get(0).(*auth.Session)
	return s, args.Error(1)
}

func (m *SessionRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *SessionRepository) DeleteExpired(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// PasswordHasher is a mock auth.PasswordHasher.
type PasswordHasher struct {
	mock.Mock
}

// NewPasswordHasher creates a PasswordHasher whose expectations are
// asserted when the test ends.
func NewPasswordHasher(t interface {
	mock.TestingT
	Cleanup(func())
},
) *PasswordHasher {
	m := &PasswordHasher{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *PasswordHasher) Hash(password string) (string, error) {
	args := m.Called(password)
	return args.String(0), args.Error(1)
}

func (m *PasswordHasher) Verify(password, stored string) bool {
	return m.Called(password, stored).Bool(0)
}

var (
	_ auth.UserRepository    = (*UserRepository)(nil)
	_ auth.SessionRepository = (*SessionRepository)(nil)
	_ auth.PasswordHasher    = (*PasswordHasher)(nil)
)
