// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StoryTable Contributors

// Package logging builds the slog logger used by every StoryTable process.
// Records carry the service name and build version, plus the request id and
// OpenTelemetry trace ids found in the context.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/trace"
)

// Options configures New.
type Options struct {
	Service string
	Version string
	Format  string // "json" (default) or "text"
	Level   slog.Level
	Writer  io.Writer // defaults to os.Stderr
}

type contextHandler struct {
	next    slog.Handler
	service string
	version string
}

func (h *contextHandler) Handle(ctx context.Context, r slog.Record) error {
	r.AddAttrs(
		slog.String("service", h.service),
		slog.String("version", h.version),
	)
	if id := middleware.GetReqID(ctx); id != "" {
		r.AddAttrs(slog.String("request_id", id))
	}
	sc := trace.SpanContextFromContext(ctx)
	if sc.HasTraceID() {
		r.AddAttrs(slog.String("trace_id", sc.TraceID().String()))
	}
	if sc.HasSpanID() {
		r.AddAttrs(slog.String("span_id", sc.SpanID().String()))
	}
	//nolint:wrapcheck // Handler passthrough
	return h.next.Handle(ctx, r)
}

func (h *contextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextHandler{next: h.next.WithAttrs(attrs), service: h.service, version: h.version}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{next: h.next.WithGroup(name), service: h.service, version: h.version}
}

// New creates a logger from opts.
func New(opts Options) *slog.Logger {
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}
	handlerOpts := &slog.HandlerOptions{Level: opts.Level}

	var base slog.Handler
	if opts.Format == "text" {
		base = slog.NewTextHandler(w, handlerOpts)
	} else {
		base = slog.NewJSONHandler(w, handlerOpts)
	}
	return slog.New(&contextHandler{next: base, service: opts.Service, version: opts.Version})
}

// SetDefault installs New(opts) as the slog default and returns it.
func SetDefault(opts Options) *slog.Logger {
	logger := New(opts)
	slog.SetDefault(logger)
	return logger
}
