// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StoryTable Contributors

package playground

import (
	"context"

	"github.com/oklog/ulid/v2"

	"github.com/storytable/storytable/internal/access"
)

// NodeRepository manages tree node persistence.
type NodeRepository interface {
	// Get retrieves a node visible to scope. Returns ErrNotFound otherwise.
	Get(ctx context.Context, scope access.Scope, id ulid.ULID) (*Node, error)

	// Create persists a new node.
	// Callers must validate the node before calling this method.
	Create(ctx context.Context, node *Node) error

	// MaxSiblingOrder returns the highest sort order among the children of
	// parentID, or among ownerID's root nodes when parentID is nil. ok is
	// false when there are no siblings.
	MaxSiblingOrder(ctx context.Context, parentID *ulid.ULID, ownerID ulid.ULID) (max int, ok bool, err error)

	// List returns every node visible to scope.
	List(ctx context.Context, scope access.Scope) ([]*Node, error)

	// Update writes the editable content fields of a node.
	Update(ctx context.Context, node *Node) error

	// Move sets a node's parent and sort order.
	Move(ctx context.Context, id ulid.ULID, parentID *ulid.ULID, sortOrder int) error

	// Reorder sets a node's sort order.
	Reorder(ctx context.Context, id ulid.ULID, sortOrder int) error

	// Delete removes a node. Descendants and their links are removed with it.
	Delete(ctx context.Context, id ulid.ULID) error

	// Lineage returns id followed by each of its ancestors up to the root.
	Lineage(ctx context.Context, id ulid.ULID) ([]ulid.ULID, error)
}

// LinkRepository manages toolbox link persistence.
type LinkRepository interface {
	// ListByNode returns the links held by one node.
	ListByNode(ctx context.Context, nodeID ulid.ULID) (Links, error)

	// ListByNodes returns links for many nodes. Nodes without links are
	// absent from the result.
	ListByNodes(ctx context.Context, nodeIDs []ulid.ULID) (map[ulid.ULID]Links, error)

	// DeleteByNode removes every link held by a node.
	DeleteByNode(ctx context.Context, nodeID ulid.ULID) error

	// Insert stores links for a node, preserving the order of each list.
	Insert(ctx context.Context, nodeID ulid.ULID, links Links, createdBy ulid.ULID) error
}

// Transactor runs fn inside a database transaction. Repository calls made
// with the context passed to fn participate in that transaction.
type Transactor interface {
	InTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
