// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StoryTable Contributors

package web

import (
	"context"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/storytable/storytable/internal/access"
	"github.com/storytable/storytable/internal/auth"
	"github.com/storytable/storytable/internal/observability"
)

type userKey struct{}

func withUser(ctx context.Context, u *auth.SessionUser) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

// currentUser returns the authenticated user, or nil.
func currentUser(ctx context.Context) *auth.SessionUser {
	u, _ := ctx.Value(userKey{}).(*auth.SessionUser)
	return u
}

// scopeFor returns the visibility scope of the authenticated user.
func scopeFor(ctx context.Context) access.Scope {
	return access.FromContext(ctx).Scope(currentUser(ctx).ID)
}

// loadSession resolves the session cookie. Requests without a usable session
// continue anonymously; storage failures end the request.
func (s *Server) loadSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionID := auth.SessionIDFromRequest(r)
		if sessionID == "" {
			next.ServeHTTP(w, r)
			return
		}
		user, err := s.auth.SessionUser(r.Context(), sessionID)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		if user == nil {
			next.ServeHTTP(w, r)
			return
		}
		ctx := withUser(r.Context(), user)
		ctx = access.WithCapabilities(ctx, access.Resolve(user.Role))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if currentUser(r.Context()) == nil {
			writeJSON(w, http.StatusUnauthorized, errorBody("UNAUTHORIZED", "authentication required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func requireWorldBuilding(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !access.FromContext(r.Context()).WorldBuilding {
			writeJSON(w, http.StatusForbidden, errorBody("FORBIDDEN", "world building is not available for this account"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func requirePermission(permission string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !access.FromContext(r.Context()).Allows(permission) {
				writeJSON(w, http.StatusForbidden, errorBody("FORBIDDEN", "permission denied"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// limitAttempts rejects credential requests from clients that exhausted
// their attempts. The key is the client address set by middleware.RealIP.
func (s *Server) limitAttempts(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter == nil {
			next.ServeHTTP(w, r)
			return
		}
		if ok, wait := s.limiter.Allow(clientKey(r)); !ok {
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			writeJSON(w, http.StatusTooManyRequests, errorBody("RATE_LIMITED", "too many attempts, try again later"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientKey(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// accessLog logs one line per request once the response is written.
func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		level := slog.LevelInfo
		if status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		s.logger.LogAttrs(r.Context(), level, "http request",
			slog.String("method", r.Method),
			slog.String("route", observability.RoutePattern(r)),
			slog.Int("status", status),
			slog.Int("bytes", ww.BytesWritten()),
			slog.Duration("duration", time.Since(start)),
		)
	})
}
