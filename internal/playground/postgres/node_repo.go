// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StoryTable Contributors

package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/storytable/storytable/internal/access"
	"github.com/storytable/storytable/internal/playground"
)

const nodeColumns = `id, owner_id, type, parent_id, sort_order, name, summary, tags, markdown, metadata, published, created_at, updated_at`

// maxLineageDepth bounds the ancestor walk. Real trees are far shallower.
const maxLineageDepth = 256

// NodeRepository implements playground.NodeRepository using PostgreSQL.
type NodeRepository struct {
	db DB
}

// NewNodeRepository creates a new NodeRepository.
func NewNodeRepository(db DB) *NodeRepository {
	return &NodeRepository{db: db}
}

// Get retrieves a node visible to scope.
func (r *NodeRepository) Get(ctx context.Context, scope access.Scope, id ulid.ULID) (*playground.Node, error) {
	row := conn(ctx, r.db).QueryRow(ctx, `
		SELECT `+nodeColumns+`
		FROM tree_nodes
		WHERE id = $1 AND ($2::text IS NULL OR owner_id = $2)
	`, id.String(), ownerFilter(scope))
	node, err := scanNode(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("TREE_NODE_NOT_FOUND").With("id", id.String()).Wrap(playground.ErrNotFound)
	}
	if err != nil {
		return nil, oops.With("operation", "get node").With("id", id.String()).Wrap(err)
	}
	return node, nil
}

// Create persists a new node.
func (r *NodeRepository) Create(ctx context.Context, node *playground.Node) error {
	_, err := conn(ctx, r.db).Exec(ctx, `
		INSERT INTO tree_nodes (`+nodeColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`,
		node.ID.String(),
		node.OwnerID.String(),
		string(node.Type),
		ulidToStringPtr(node.ParentID),
		node.SortOrder,
		node.Name,
		node.Summary,
		node.Tags,
		node.Markdown,
		node.Metadata,
		node.Published,
		node.CreatedAt,
		node.UpdatedAt,
	)
	if err != nil {
		return oops.With("operation", "create node").With("id", node.ID.String()).Wrap(err)
	}
	return nil
}

// MaxSiblingOrder returns the highest sort order among a node's would-be
// siblings.
func (r *NodeRepository) MaxSiblingOrder(ctx context.Context, parentID *ulid.ULID, ownerID ulid.ULID) (int, bool, error) {
	var row pgx.Row
	if parentID != nil {
		row = conn(ctx, r.db).QueryRow(ctx,
			`SELECT max(sort_order) FROM tree_nodes WHERE parent_id = $1`, parentID.String())
	} else {
		row = conn(ctx, r.db).QueryRow(ctx,
			`SELECT max(sort_order) FROM tree_nodes WHERE parent_id IS NULL AND owner_id = $1`, ownerID.String())
	}

	var maxOrder *int
	if err := row.Scan(&maxOrder); err != nil {
		return 0, false, oops.With("operation", "max sibling order").Wrap(err)
	}
	if maxOrder == nil {
		return 0, false, nil
	}
	return *maxOrder, true, nil
}

// List returns every node visible to scope ordered by (sort_order, name).
func (r *NodeRepository) List(ctx context.Context, scope access.Scope) ([]*playground.Node, error) {
	rows, err := conn(ctx, r.db).Query(ctx, `
		SELECT `+nodeColumns+`
		FROM tree_nodes
		WHERE ($1::text IS NULL OR owner_id = $1)
		ORDER BY sort_order, name
	`, ownerFilter(scope))
	if err != nil {
		return nil, oops.With("operation", "list nodes").Wrap(err)
	}
	defer rows.Close()

	nodes := make([]*playground.Node, 0)
	for rows.Next() {
		node, err := scanNode(rows)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.With("operation", "iterate nodes").Wrap(err)
	}
	return nodes, nil
}

// Update writes the editable content fields of a node.
func (r *NodeRepository) Update(ctx context.Context, node *playground.Node) error {
	result, err := conn(ctx, r.db).Exec(ctx, `
		UPDATE tree_nodes SET name = $2, summary = $3, tags = $4, markdown = $5,
		metadata = $6, published = $7, updated_at = $8
		WHERE id = $1
	`, node.ID.String(), node.Name, node.Summary, node.Tags, node.Markdown,
		node.Metadata, node.Published, node.UpdatedAt)
	if err != nil {
		return oops.With("operation", "update node").With("id", node.ID.String()).Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("TREE_NODE_NOT_FOUND").With("id", node.ID.String()).Wrap(playground.ErrNotFound)
	}
	return nil
}

// Move sets a node's parent and sort order.
func (r *NodeRepository) Move(ctx context.Context, id ulid.ULID, parentID *ulid.ULID, sortOrder int) error {
	result, err := conn(ctx, r.db).Exec(ctx, `
		UPDATE tree_nodes SET parent_id = $2, sort_order = $3, updated_at = now()
		WHERE id = $1
	`, id.String(), ulidToStringPtr(parentID), sortOrder)
	if err != nil {
		return oops.With("operation", "move node").With("id", id.String()).Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("TREE_NODE_NOT_FOUND").With("id", id.String()).Wrap(playground.ErrNotFound)
	}
	return nil
}

// Reorder sets a node's sort order.
func (r *NodeRepository) Reorder(ctx context.Context, id ulid.ULID, sortOrder int) error {
	result, err := conn(ctx, r.db).Exec(ctx, `
		UPDATE tree_nodes SET sort_order = $2, updated_at = now() WHERE id = $1
	`, id.String(), sortOrder)
	if err != nil {
		return oops.With("operation", "reorder node").With("id", id.String()).Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("TREE_NODE_NOT_FOUND").With("id", id.String()).Wrap(playground.ErrNotFound)
	}
	return nil
}

// Delete removes a node. Foreign keys cascade to descendants and links.
func (r *NodeRepository) Delete(ctx context.Context, id ulid.ULID) error {
	result, err := conn(ctx, r.db).Exec(ctx, `DELETE FROM tree_nodes WHERE id = $1`, id.String())
	if err != nil {
		return oops.With("operation", "delete node").With("id", id.String()).Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("TREE_NODE_NOT_FOUND").With("id", id.String()).Wrap(playground.ErrNotFound)
	}
	return nil
}

// Lineage returns id followed by its ancestors, nearest first.
func (r *NodeRepository) Lineage(ctx context.Context, id ulid.ULID) ([]ulid.ULID, error) {
	rows, err := conn(ctx, r.db).Query(ctx, `
		WITH RECURSIVE chain AS (
			SELECT id, parent_id, 0 AS depth FROM tree_nodes WHERE id = $1
			UNION ALL
			SELECT n.id, n.parent_id, c.depth + 1
			FROM tree_nodes n JOIN chain c ON n.id = c.parent_id
			WHERE c.depth < $2
		)
		SELECT id FROM chain ORDER BY depth
	`, id.String(), maxLineageDepth)
	if err != nil {
		return nil, oops.With("operation", "node lineage").With("id", id.String()).Wrap(err)
	}
	defer rows.Close()

	var out []ulid.ULID
	for rows.Next() {
		var idStr string
		if err := rows.Scan(&idStr); err != nil {
			return nil, oops.With("operation", "scan lineage").Wrap(err)
		}
		parsed, err := ulid.Parse(idStr)
		if err != nil {
			return nil, oops.Code("TREE_NODE_INVALID_ID").With("id", idStr).Wrap(err)
		}
		out = append(out, parsed)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.With("operation", "iterate lineage").Wrap(err)
	}
	return out, nil
}

// scanNode scans a single row into a Node.
// pgx.ErrNoRows is returned unchanged for callers to handle.
func scanNode(row pgx.Row) (*playground.Node, error) {
	var (
		node     playground.Node
		idStr    string
		ownerStr string
		typeStr  string
		parentID *string
	)
	err := row.Scan(&idStr, &ownerStr, &typeStr, &parentID, &node.SortOrder, &node.Name,
		&node.Summary, &node.Tags, &node.Markdown, &node.Metadata, &node.Published,
		&node.CreatedAt, &node.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err //nolint:wrapcheck // callers wrap with context-specific info
		}
		return nil, oops.With("operation", "scan node").Wrap(err)
	}

	if node.ID, err = ulid.Parse(idStr); err != nil {
		return nil, oops.Code("TREE_NODE_INVALID_ID").With("id", idStr).Wrap(err)
	}
	if node.OwnerID, err = ulid.Parse(ownerStr); err != nil {
		return nil, oops.Code("TREE_NODE_INVALID_ID").With("owner_id", ownerStr).Wrap(err)
	}
	if node.ParentID, err = parseOptionalULID(parentID, "parent_id"); err != nil {
		return nil, err
	}
	node.Type = playground.NodeType(typeStr)
	if node.Tags == nil {
		node.Tags = []string{}
	}
	if node.Metadata == nil {
		node.Metadata = map[string]any{}
	}
	return &node, nil
}

// Compile-time interface check.
var _ playground.NodeRepository = (*NodeRepository)(nil)
