// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StoryTable Contributors

package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// RetryConfig bounds how long Connect waits for the database to come up.
type RetryConfig struct {
	Attempts uint64
	Base     time.Duration
	Max      time.Duration
}

// DefaultRetryConfig suits a database starting alongside the server.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{Attempts: 8, Base: 250 * time.Millisecond, Max: 5 * time.Second}
}

type pinger interface {
	Ping(ctx context.Context) error
	Close()
}

// Connect opens a pgx pool for dsn and pings it until it answers or the
// retry budget runs out.
func Connect(ctx context.Context, dsn string, cfg RetryConfig, logger *slog.Logger) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, oops.Code("DB_INVALID_DSN").Wrap(err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").Wrap(err)
	}
	if err := waitReady(ctx, pool, cfg, logger); err != nil {
		return nil, err
	}
	return pool, nil
}

// waitReady closes p when it never becomes reachable.
func waitReady(ctx context.Context, p pinger, cfg RetryConfig, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	backoff := retry.NewExponential(cfg.Base)
	if cfg.Max > 0 {
		backoff = retry.WithCappedDuration(cfg.Max, backoff)
	}
	backoff = retry.WithMaxRetries(cfg.Attempts, backoff)

	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if err := p.Ping(ctx); err != nil {
			logger.Warn("database not ready", "attempt", attempt, "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		p.Close()
		return oops.Code("DB_UNAVAILABLE").With("attempts", attempt).Wrap(err)
	}
	return nil
}
