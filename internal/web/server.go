// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StoryTable Contributors

// Package web exposes the authentication and Playground operations as a JSON
// HTTP API under /api.
package web

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/storytable/storytable/internal/access"
	"github.com/storytable/storytable/internal/auth"
	"github.com/storytable/storytable/internal/observability"
	"github.com/storytable/storytable/internal/playground"
)

// Authenticator is the slice of auth.Service the API uses.
type Authenticator interface {
	Register(ctx context.Context, in auth.CreateUserInput) (*auth.Session, *auth.User, error)
	Login(ctx context.Context, username, password string) (*auth.Session, *auth.User, error)
	DestroySession(ctx context.Context, sessionID string) error
	SessionUser(ctx context.Context, sessionID string) (*auth.SessionUser, error)
}

// TreeService is the slice of playground.Service the API uses.
type TreeService interface {
	CreateNode(ctx context.Context, scope access.Scope, in playground.CreateNodeInput) (*playground.Node, error)
	GetNode(ctx context.Context, scope access.Scope, id ulid.ULID) (*playground.Node, error)
	UpdateNode(ctx context.Context, scope access.Scope, id ulid.ULID, in playground.UpdateNodeInput) (*playground.Node, error)
	DeleteNode(ctx context.Context, scope access.Scope, id ulid.ULID) error
	MoveNode(ctx context.Context, scope access.Scope, id ulid.ULID, newParentID *ulid.ULID) (*playground.Node, error)
	ReorderNode(ctx context.Context, scope access.Scope, id ulid.ULID, sortOrder int) (*playground.Node, error)
	GetTree(ctx context.Context, scope access.Scope) (*playground.Tree, error)
	GetLinks(ctx context.Context, scope access.Scope, nodeID ulid.ULID) (playground.Links, error)
	SetLinks(ctx context.Context, scope access.Scope, nodeID ulid.ULID, raw map[string]any) (playground.Links, error)
}

// AttemptLimiter throttles credential attempts per client key.
// *ratelimit.Limiter satisfies it.
type AttemptLimiter interface {
	Allow(key string) (bool, time.Duration)
}

// Config holds the dependencies of the API.
type Config struct {
	Auth          Authenticator
	Tree          TreeService
	Logger        *slog.Logger           // optional
	Metrics       *observability.Metrics // optional
	Limiter       AttemptLimiter         // optional, throttles register and login
	SecureCookies bool
}

// Server is the HTTP API.
type Server struct {
	auth    Authenticator
	tree    TreeService
	logger  *slog.Logger
	metrics *observability.Metrics
	limiter AttemptLimiter
	secure  bool
	handler http.Handler
}

const shutdownTimeout = 10 * time.Second

// New builds the API router.
func New(cfg Config) (*Server, error) {
	if cfg.Auth == nil {
		return nil, oops.Code("WEB_INVALID_CONFIG").Errorf("authenticator is required")
	}
	if cfg.Tree == nil {
		return nil, oops.Code("WEB_INVALID_CONFIG").Errorf("tree service is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		auth:    cfg.Auth,
		tree:    cfg.Tree,
		logger:  logger.With("component", "web"),
		metrics: cfg.Metrics,
		limiter: cfg.Limiter,
		secure:  cfg.SecureCookies,
	}
	s.handler = s.routes()
	return s, nil
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.accessLog)
	r.Use(middleware.Recoverer)
	if s.metrics != nil {
		r.Use(s.metrics.Middleware)
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody("NOT_FOUND", "route not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody("METHOD_NOT_ALLOWED", "method not allowed"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(s.loadSession)

		r.Route("/auth", func(r chi.Router) {
			r.With(s.limitAttempts).Post("/register", s.handleRegister)
			r.With(s.limitAttempts).Post("/login", s.handleLogin)
			r.Post("/logout", s.handleLogout)
			r.With(requireUser).Get("/me", s.handleMe)
		})

		r.Route("/playground", func(r chi.Router) {
			r.Use(requireUser, requireWorldBuilding)

			read := requirePermission("read:tree:node")
			write := requirePermission("write:tree:node")

			r.With(read).Get("/tree", s.handleGetTree)
			r.With(write).Post("/nodes", s.handleCreateNode)
			r.Route("/nodes/{id}", func(r chi.Router) {
				r.With(read).Get("/", s.handleGetNode)
				r.With(write).Patch("/", s.handleUpdateNode)
				r.With(write).Delete("/", s.handleDeleteNode)
				r.With(write).Post("/move", s.handleMoveNode)
				r.With(write).Post("/reorder", s.handleReorderNode)
				r.With(requirePermission("read:toolbox:link")).Get("/links", s.handleGetLinks)
				r.With(requirePermission("write:toolbox:link")).Put("/links", s.handleSetLinks)
			})
		})
	})
	return r
}

// Serve serves on ln until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	s.logger.InfoContext(ctx, "http server started", "addr", ln.Addr().String())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return oops.Code("HTTP_SERVE_FAILED").Wrap(err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return oops.Code("HTTP_SHUTDOWN_FAILED").Wrap(err)
	}
	<-errCh
	s.logger.InfoContext(ctx, "http server stopped")
	return nil
}

// ListenAndServe listens on addr and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return oops.Code("HTTP_LISTEN_FAILED").With("addr", addr).Wrap(err)
	}
	return s.Serve(ctx, ln)
}
