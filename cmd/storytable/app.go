// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StoryTable Contributors

package main

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"

	"github.com/storytable/storytable/internal/access"
	"github.com/storytable/storytable/internal/auth"
	authpg "github.com/storytable/storytable/internal/auth/postgres"
	"github.com/storytable/storytable/internal/config"
	"github.com/storytable/storytable/internal/playground"
	playpg "github.com/storytable/storytable/internal/playground/postgres"
	"github.com/storytable/storytable/internal/store"
)

// app is the database-backed service graph shared by the commands.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	pool   *pgxpool.Pool
	users  *authpg.UserRepository
	auth   *auth.Service
	tree   *playground.Service
}

func openApp(ctx context.Context, d *deps, cfg *config.Config, logger *slog.Logger) (*app, error) {
	if err := cfg.RequireDatabase(); err != nil {
		return nil, err
	}

	pool, err := d.connect(ctx, cfg.DatabaseURL, store.RetryConfig{
		Attempts: cfg.DBRetryAttempts,
		Base:     cfg.DBRetryBase,
		Max:      store.DefaultRetryConfig().Max,
	}, logger)
	if err != nil {
		return nil, err
	}

	users := authpg.NewUserRepository(pool)
	authSvc, err := auth.NewService(auth.ServiceConfig{
		Users:    users,
		Sessions: authpg.NewSessionRepository(pool),
		Hasher:   auth.NewPBKDF2Hasher(cfg.PasswordIterations),
		Logger:   logger,
	})
	if err != nil {
		pool.Close()
		return nil, err
	}

	treeSvc, err := playground.NewService(playground.ServiceConfig{
		Nodes:      playpg.NewNodeRepository(pool),
		Links:      playpg.NewLinkRepository(pool),
		Transactor: playpg.NewTransactor(pool),
		Logger:     logger,
	})
	if err != nil {
		pool.Close()
		return nil, err
	}

	return &app{
		cfg:    cfg,
		logger: logger,
		pool:   pool,
		users:  users,
		auth:   authSvc,
		tree:   treeSvc,
	}, nil
}

func (a *app) Close() {
	a.pool.Close()
}

// scopeFor resolves the content scope of the named user the same way the
// API does for a session.
func (a *app) scopeFor(ctx context.Context, username string) (access.Scope, *auth.User, error) {
	user, err := a.users.GetByUsername(ctx, username)
	if errors.Is(err, auth.ErrNotFound) {
		return access.Scope{}, nil, oops.Code(auth.CodeUserNotFound).With("username", username).Errorf("user %q not found", username)
	}
	if err != nil {
		return access.Scope{}, nil, oops.With("operation", "get user by username").Wrap(err)
	}
	roles, err := a.users.ListRoleCodes(ctx, user.ID)
	if err != nil {
		return access.Scope{}, nil, oops.With("operation", "list roles").Wrap(err)
	}
	caps := access.Resolve(auth.PickPrimaryRole(roles))
	if !caps.WorldBuilding {
		return access.Scope{}, nil, oops.Code("FORBIDDEN").With("username", username).With("role", string(caps.Role)).
			Errorf("user %q may not use the playground", username)
	}
	return caps.Scope(user.ID), user, nil
}
