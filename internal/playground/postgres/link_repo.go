// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StoryTable Contributors

package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/storytable/storytable/internal/playground"
)

// LinkRepository implements playground.LinkRepository using PostgreSQL.
// Each link row records its position so lists round-trip in order.
type LinkRepository struct {
	db DB
}

// NewLinkRepository creates a new LinkRepository.
func NewLinkRepository(db DB) *LinkRepository {
	return &LinkRepository{db: db}
}

// ListByNode returns the links held by one node.
func (r *LinkRepository) ListByNode(ctx context.Context, nodeID ulid.ULID) (playground.Links, error) {
	rows, err := conn(ctx, r.db).Query(ctx, `
		SELECT node_id, toolbox_type, content_id
		FROM toolbox_links
		WHERE node_id = $1
		ORDER BY toolbox_type, position
	`, nodeID.String())
	if err != nil {
		return nil, oops.With("operation", "list links").With("node_id", nodeID.String()).Wrap(err)
	}
	grouped, err := collectLinks(rows)
	if err != nil {
		return nil, err
	}
	links := grouped[nodeID]
	if links == nil {
		links = playground.Links{}
	}
	return links, nil
}

// ListByNodes returns links for many nodes in one query.
func (r *LinkRepository) ListByNodes(ctx context.Context, nodeIDs []ulid.ULID) (map[ulid.ULID]playground.Links, error) {
	if len(nodeIDs) == 0 {
		return map[ulid.ULID]playground.Links{}, nil
	}
	rows, err := conn(ctx, r.db).Query(ctx, `
		SELECT node_id, toolbox_type, content_id
		FROM toolbox_links
		WHERE node_id = ANY($1)
		ORDER BY node_id, toolbox_type, position
	`, ulidStrings(nodeIDs))
	if err != nil {
		return nil, oops.With("operation", "list links").With("node_count", len(nodeIDs)).Wrap(err)
	}
	return collectLinks(rows)
}

// DeleteByNode removes every link held by a node.
func (r *LinkRepository) DeleteByNode(ctx context.Context, nodeID ulid.ULID) error {
	_, err := conn(ctx, r.db).Exec(ctx, `DELETE FROM toolbox_links WHERE node_id = $1`, nodeID.String())
	if err != nil {
		return oops.With("operation", "delete links").With("node_id", nodeID.String()).Wrap(err)
	}
	return nil
}

// Insert stores links for a node in a single statement.
func (r *LinkRepository) Insert(ctx context.Context, nodeID ulid.ULID, links playground.Links, createdBy ulid.ULID) error {
	var (
		types     []string
		contents  []string
		positions []int32
	)
	for _, t := range playground.ToolboxTypes() {
		for i, id := range links[t] {
			types = append(types, string(t))
			contents = append(contents, id)
			positions = append(positions, int32(i)) //nolint:gosec // list lengths are small
		}
	}
	if len(types) == 0 {
		return nil
	}

	_, err := conn(ctx, r.db).Exec(ctx, `
		INSERT INTO toolbox_links (node_id, toolbox_type, content_id, position, created_by, created_at)
		SELECT $1, l.toolbox_type, l.content_id, l.position, $2, now()
		FROM unnest($3::text[], $4::text[], $5::int[]) AS l(toolbox_type, content_id, position)
	`, nodeID.String(), createdBy.String(), types, contents, positions)
	if err != nil {
		return oops.With("operation", "insert links").
			With("node_id", nodeID.String()).
			With("count", len(types)).
			Wrap(err)
	}
	return nil
}

func collectLinks(rows pgx.Rows) (map[ulid.ULID]playground.Links, error) {
	defer rows.Close()

	out := make(map[ulid.ULID]playground.Links)
	for rows.Next() {
		var nodeStr, toolboxType, contentID string
		if err := rows.Scan(&nodeStr, &toolboxType, &contentID); err != nil {
			return nil, oops.With("operation", "scan link").Wrap(err)
		}
		nodeID, err := ulid.Parse(nodeStr)
		if err != nil {
			return nil, oops.Code("TREE_NODE_INVALID_ID").With("node_id", nodeStr).Wrap(err)
		}
		links := out[nodeID]
		if links == nil {
			links = playground.Links{}
			out[nodeID] = links
		}
		t := playground.ToolboxType(toolboxType)
		links[t] = append(links[t], contentID)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.With("operation", "iterate links").Wrap(err)
	}
	return out, nil
}

// Compile-time interface check.
var _ playground.LinkRepository = (*LinkRepository)(nil)
