// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StoryTable Contributors

// Package errutil holds helpers for oops errors shared across packages.
package errutil

import (
	"log/slog"

	"github.com/samber/oops"
)

// Code returns the error code carried by err, or "" when err carries none.
// When codes are nested the innermost one wins.
func Code(err error) string {
	if err == nil {
		return ""
	}
	if oopsErr, ok := oops.AsOops(err); ok {
		return oopsErr.Code()
	}
	return ""
}

// LogError logs err at error level. oops errors contribute their code and
// context as attributes.
func LogError(logger *slog.Logger, msg string, err error) {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		logger.Error(msg, "error", err)
		return
	}
	attrs := []any{"error", oopsErr.Error()}
	if code := oopsErr.Code(); code != "" {
		attrs = append(attrs, "code", code)
	}
	if ctx := oopsErr.Context(); len(ctx) > 0 {
		attrs = append(attrs, "context", ctx)
	}
	logger.Error(msg, attrs...)
}
