// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StoryTable Contributors

// Package postgres implements playground repositories on PostgreSQL.
package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/storytable/storytable/internal/access"
)

// DB is the query surface shared by *pgxpool.Pool and pgx.Tx.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Pool is a DB that can open transactions. *pgxpool.Pool and
// pgxmock.PgxPoolIface satisfy it.
type Pool interface {
	DB
	Begin(ctx context.Context) (pgx.Tx, error)
}

// conn returns the transaction stored in ctx by Transactor, or db.
func conn(ctx context.Context, db DB) DB {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return db
}

// ownerFilter converts a scope into the optional owner id parameter used by
// the "$n::text IS NULL OR owner_id = $n" predicate.
func ownerFilter(scope access.Scope) *string {
	if scope.All {
		return nil
	}
	s := scope.UserID.String()
	return &s
}

// ulidToStringPtr converts a ULID pointer to a string pointer for SQL parameters.
func ulidToStringPtr(id *ulid.ULID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

// parseOptionalULID parses an optional ULID string pointer into a ULID pointer.
func parseOptionalULID(strPtr *string, fieldName string) (*ulid.ULID, error) {
	if strPtr == nil {
		return nil, nil
	}
	id, err := ulid.Parse(*strPtr)
	if err != nil {
		return nil, oops.With("operation", "parse "+fieldName).With(fieldName, *strPtr).Wrap(err)
	}
	return &id, nil
}

func ulidStrings(ids []ulid.ULID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
