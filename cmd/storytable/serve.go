// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StoryTable Contributors

package main

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/storytable/storytable/internal/observability"
	"github.com/storytable/storytable/internal/ratelimit"
	"github.com/storytable/storytable/internal/web"
	"github.com/storytable/storytable/pkg/errutil"
)

const observabilityStopTimeout = 5 * time.Second

func newServeCmd(d *deps) *cobra.Command {
	var autoMigrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Long: `Run the HTTP API server. The metrics and health server is started on
--metrics-addr unless it is empty.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, d, autoMigrate)
		},
	}
	cmd.Flags().BoolVar(&autoMigrate, "auto-migrate", false, "apply pending migrations before serving")
	return cmd
}

func runServe(cmd *cobra.Command, d *deps, autoMigrate bool) error {
	ctx := cmd.Context()
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.RequireDatabase(); err != nil {
		return err
	}

	if autoMigrate {
		if err := migrateUp(d, cfg.DatabaseURL); err != nil {
			return err
		}
		logger.InfoContext(ctx, "migrations applied")
	}

	a, err := openApp(ctx, d, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	var (
		metrics *observability.Metrics
		reg     prometheus.Registerer
	)
	if cfg.MetricsAddr != "" {
		obs := observability.NewServer(cfg.MetricsAddr, a.pool.Ping, logger)
		obsErrs, err := obs.Start()
		if err != nil {
			return err
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), observabilityStopTimeout)
			defer cancel()
			if err := obs.Stop(stopCtx); err != nil {
				errutil.LogError(logger, "observability shutdown failed", err)
			}
		}()
		go func() {
			for err := range obsErrs {
				errutil.LogError(logger, "observability server failed", err)
			}
		}()
		metrics = obs.Metrics()
		reg = obs.Registerer()
	}

	limiter := ratelimit.New(ratelimit.Config{}, reg)
	defer limiter.Close()

	srv, err := web.New(web.Config{
		Auth:          a.auth,
		Tree:          a.tree,
		Logger:        logger,
		Metrics:       metrics,
		Limiter:       limiter,
		SecureCookies: cfg.Production(),
	})
	if err != nil {
		return err
	}

	logger.InfoContext(ctx, "starting storytable",
		"version", version, "commit", commit, "env", cfg.Env, "http_addr", cfg.HTTPAddr)
	return srv.ListenAndServe(ctx, cfg.HTTPAddr)
}
