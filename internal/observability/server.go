// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StoryTable Contributors

// Package observability serves Prometheus metrics and health probes on a
// separate listener, and provides the HTTP metrics middleware.
package observability

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/samber/oops"
)

// ReadinessChecker reports nil when the service can take traffic.
type ReadinessChecker func(ctx context.Context) error

const readinessTimeout = 2 * time.Second

// Server serves /metrics, /healthz/liveness and /healthz/readiness.
type Server struct {
	addr     string
	logger   *slog.Logger
	registry *prometheus.Registry
	metrics  *Metrics
	isReady  ReadinessChecker

	listener   net.Listener
	httpServer *http.Server
	running    atomic.Bool
}

// NewServer creates a server on its own registry. A nil checker means always
// ready.
func NewServer(addr string, ready ReadinessChecker, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return &Server{
		addr:     addr,
		logger:   logger.With("component", "observability"),
		registry: registry,
		metrics:  NewMetrics(registry),
		isReady:  ready,
	}
}

// Metrics returns the application metrics registered on this server.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// Registerer returns the registry served on /metrics.
func (s *Server) Registerer() prometheus.Registerer {
	return s.registry
}

// Handler returns the probe and metrics routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{EnableOpenMetrics: true}))
	r.Get("/healthz/liveness", s.handleLiveness)
	r.Get("/healthz/readiness", s.handleReadiness)
	return r
}

// Start listens and serves in the background. The returned channel receives
// a serve error, if any, and is closed when the server stops.
func (s *Server) Start() (<-chan error, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, oops.Code("OBSERVABILITY_RUNNING").Errorf("observability server already running")
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		s.running.Store(false)
		return nil, oops.Code("OBSERVABILITY_LISTEN_FAILED").With("addr", s.addr).Wrap(err)
	}
	s.listener = listener

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.httpServer = srv

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("observability server error", "error", err)
			errCh <- err
		}
	}()

	s.logger.Info("observability server started", "addr", listener.Addr().String())
	return errCh, nil
}

// Stop shuts the server down. Stopping a stopped server is a no-op.
func (s *Server) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}
	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.running.Store(true)
		return oops.With("operation", "shutdown observability server").Wrap(err)
	}
	s.logger.Info("observability server stopped")
	return nil
}

// Addr returns the bound address, or "" before Start.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}

func (s *Server) handleLiveness(w http.ResponseWriter, _ *http.Request) {
	writeProbe(w, http.StatusOK, "ok\n")
}

func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	if s.isReady == nil {
		writeProbe(w, http.StatusOK, "ok\n")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()
	if err := s.isReady(ctx); err != nil {
		s.logger.WarnContext(ctx, "readiness check failed", "error", err)
		writeProbe(w, http.StatusServiceUnavailable, "not ready\n")
		return
	}
	writeProbe(w, http.StatusOK, "ok\n")
}

func writeProbe(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	//nolint:errcheck // client may have gone away
	w.Write([]byte(body))
}
