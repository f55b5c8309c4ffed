// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StoryTable Contributors

package playgroundtest

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/storytable/storytable/internal/access"
	"github.com/storytable/storytable/internal/playground"
)

// MemoryStore is an in-memory NodeRepository and LinkRepository with the
// same visibility and cascade rules as the PostgreSQL implementation.
type MemoryStore struct {
	mu    sync.Mutex
	nodes map[ulid.ULID]*playground.Node
	links map[ulid.ULID]playground.Links
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nodes: make(map[ulid.ULID]*playground.Node),
		links: make(map[ulid.ULID]playground.Links),
	}
}

func copyNode(n *playground.Node) *playground.Node {
	c := *n
	c.Tags = slices.Clone(n.Tags)
	c.Metadata = maps.Clone(n.Metadata)
	return &c
}

func notFound(id ulid.ULID) error {
	return oops.Code("TREE_NODE_NOT_FOUND").With("id", id.String()).Wrap(playground.ErrNotFound)
}

// Get returns a copy of the node when it is visible to scope.
func (s *MemoryStore) Get(_ context.Context, scope access.Scope, id ulid.ULID) (*playground.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.nodes[id]
	if !ok || !scope.Owns(n.OwnerID) {
		return nil, notFound(id)
	}
	return copyNode(n), nil
}

// Create stores a copy of node.
func (s *MemoryStore) Create(_ context.Context, node *playground.Node) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes[node.ID] = copyNode(node)
	return nil
}

// MaxSiblingOrder returns the highest sort order among the owner's children of parentID.
func (s *MemoryStore) MaxSiblingOrder(_ context.Context, parentID *ulid.ULID, ownerID ulid.ULID) (int, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	maxOrder, found := 0, false
	for _, n := range s.nodes {
		var sibling bool
		if parentID == nil {
			sibling = n.ParentID == nil && n.OwnerID == ownerID
		} else {
			sibling = n.ParentID != nil && *n.ParentID == *parentID
		}
		if sibling && (!found || n.SortOrder > maxOrder) {
			maxOrder, found = n.SortOrder, true
		}
	}
	return maxOrder, found, nil
}

// List returns copies of every node visible to scope.
func (s *MemoryStore) List(_ context.Context, scope access.Scope) ([]*playground.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*playground.Node, 0, len(s.nodes))
	for _, n := range s.nodes {
		if scope.Owns(n.OwnerID) {
			out = append(out, copyNode(n))
		}
	}
	playground.SortNodes(out)
	return out, nil
}

// Update replaces the editable fields of an existing node.
func (s *MemoryStore) Update(_ context.Context, node *playground.Node) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.nodes[node.ID]
	if !ok {
		return notFound(node.ID)
	}
	c := copyNode(node)
	c.ParentID, c.SortOrder, c.OwnerID, c.Type = cur.ParentID, cur.SortOrder, cur.OwnerID, cur.Type
	s.nodes[node.ID] = c
	return nil
}

// Move reparents the node and sets its sort order.
func (s *MemoryStore) Move(_ context.Context, id ulid.ULID, parentID *ulid.ULID, sortOrder int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.nodes[id]
	if !ok {
		return notFound(id)
	}
	n.ParentID = parentID
	n.SortOrder = sortOrder
	return nil
}

// Reorder sets the node's sort order without changing its parent.
func (s *MemoryStore) Reorder(_ context.Context, id ulid.ULID, sortOrder int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.nodes[id]
	if !ok {
		return notFound(id)
	}
	n.SortOrder = sortOrder
	return nil
}

// Delete removes the node, its descendants, and their links.
func (s *MemoryStore) Delete(_ context.Context, id ulid.ULID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.nodes[id]; !ok {
		return notFound(id)
	}
	doomed := []ulid.ULID{id}
	for i := 0; i < len(doomed); i++ {
		for _, n := range s.nodes {
			if n.ParentID != nil && *n.ParentID == doomed[i] {
				doomed = append(doomed, n.ID)
			}
		}
	}
	for _, d := range doomed {
		delete(s.nodes, d)
		delete(s.links, d)
	}
	return nil
}

// Lineage returns the ids from the node up to its root.
func (s *MemoryStore) Lineage(_ context.Context, id ulid.ULID) ([]ulid.ULID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []ulid.ULID
	for cur, ok := s.nodes[id]; ok; {
		out = append(out, cur.ID)
		if cur.ParentID == nil || len(out) > len(s.nodes) {
			break
		}
		cur, ok = s.nodes[*cur.ParentID]
	}
	return out, nil
}

// ListByNode returns a copy of the node's links.
func (s *MemoryStore) ListByNode(_ context.Context, nodeID ulid.ULID) (playground.Links, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneLinks(s.links[nodeID]), nil
}

// ListByNodes returns links keyed by node id, skipping nodes without links.
func (s *MemoryStore) ListByNodes(_ context.Context, nodeIDs []ulid.ULID) (map[ulid.ULID]playground.Links, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[ulid.ULID]playground.Links)
	for _, id := range nodeIDs {
		if l, ok := s.links[id]; ok {
			out[id] = cloneLinks(l)
		}
	}
	return out, nil
}

// DeleteByNode removes every link of the node.
func (s *MemoryStore) DeleteByNode(_ context.Context, nodeID ulid.ULID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.links, nodeID)
	return nil
}

// Insert stores a copy of links for the node.
func (s *MemoryStore) Insert(_ context.Context, nodeID ulid.ULID, links playground.Links, _ ulid.ULID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.links[nodeID] = cloneLinks(links)
	return nil
}

func cloneLinks(l playground.Links) playground.Links {
	if l == nil {
		return playground.Links{}
	}
	out := make(playground.Links, len(l))
	for t, ids := range l {
		out[t] = slices.Clone(ids)
	}
	return out
}

var (
	_ playground.NodeRepository = (*MemoryStore)(nil)
	_ playground.LinkRepository = (*MemoryStore)(nil)
)
