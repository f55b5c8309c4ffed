// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StoryTable Contributors

// Package auth provides authentication primitives for StoryTable.
//
// # Domain Types
//
// Domain types should be created using their constructors:
//   - NewUser - creates a User with a validated username and password hash
//   - NewSession - creates a Session with a fresh opaque id and absolute expiry
//
// # Sessions
//
// A session is Active while its expiry is strictly in the future. Expired and
// missing sessions resolve to "not authenticated" (a nil *SessionUser), never
// to an error. Sessions are never renewed on use.
//
// # Services
//
// Service coordinates registration, login, logout and session resolution.
// SessionUser is the single entry point used by the web layer to decide who
// is making a request.
package auth
