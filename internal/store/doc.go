// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StoryTable Contributors

// Package store owns the PostgreSQL connection pool and the embedded schema
// migrations. Repositories live next to their domain packages.
package store
