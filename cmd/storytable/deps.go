// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StoryTable Contributors

package main

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/storytable/storytable/internal/store"
)

// migrator is the part of store.Migrator the migrate commands use.
type migrator interface {
	Up() error
	Down() error
	Force(version int) error
	Status() (store.Status, error)
	Close() error
}

// deps holds the process-level factories commands call. Tests replace them.
type deps struct {
	connect     func(ctx context.Context, dsn string, retry store.RetryConfig, logger *slog.Logger) (*pgxpool.Pool, error)
	newMigrator func(databaseURL string) (migrator, error)
}

func (d *deps) withDefaults() *deps {
	out := deps{}
	if d != nil {
		out = *d
	}
	if out.connect == nil {
		out.connect = store.Connect
	}
	if out.newMigrator == nil {
		out.newMigrator = func(databaseURL string) (migrator, error) {
			return store.NewMigrator(databaseURL)
		}
	}
	return &out
}
