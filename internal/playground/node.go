// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StoryTable Contributors

package playground

import (
	"slices"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// NodeType is a member of the fixed node type catalog.
type NodeType string

// Node types.
const (
	TypeCosmos  NodeType = "cosmos"
	TypeWorld   NodeType = "world"
	TypeEra     NodeType = "era"
	TypeSetting NodeType = "setting"
	TypeFolder  NodeType = "folder"
	TypePage    NodeType = "page"
)

// RootType is the only type allowed without a parent.
const RootType = TypeCosmos

var nodeTypes = []NodeType{TypeCosmos, TypeWorld, TypeEra, TypeSetting, TypeFolder, TypePage}

// childTypes is the type-adjacency table. Types absent from it are leaves.
var childTypes = map[NodeType][]NodeType{
	TypeCosmos:  {TypeWorld},
	TypeWorld:   {TypeEra},
	TypeEra:     {TypeSetting},
	TypeSetting: {TypeFolder, TypePage},
	TypeFolder:  {TypeFolder, TypePage},
}

// NodeTypes returns the node type catalog.
func NodeTypes() []NodeType {
	return slices.Clone(nodeTypes)
}

// ParseNodeType parses a catalog type name.
func ParseNodeType(s string) (NodeType, bool) {
	t := NodeType(strings.TrimSpace(s))
	if slices.Contains(nodeTypes, t) {
		return t, true
	}
	return "", false
}

// AllowedChildTypes returns the types a child of parent may have. A nil
// parent stands for the top level, which admits only RootType.
func AllowedChildTypes(parent *NodeType) []NodeType {
	if parent == nil {
		return []NodeType{RootType}
	}
	return slices.Clone(childTypes[*parent])
}

// CanContain reports whether a node of type child may sit under parent.
func CanContain(parent *NodeType, child NodeType) bool {
	return slices.Contains(AllowedChildTypes(parent), child)
}

// Node is a single entry of the content tree.
type Node struct {
	ID        ulid.ULID
	OwnerID   ulid.ULID
	Type      NodeType
	ParentID  *ulid.ULID
	SortOrder int
	Name      string
	Summary   *string
	Tags      []string
	Markdown  *string
	Metadata  map[string]any
	Published bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsRoot reports whether the node has no parent.
func (n *Node) IsRoot() bool {
	return n.ParentID == nil
}

// defaultMarkdown returns the initial document body for a new node.
// Pages start with an empty document; other types have none.
func defaultMarkdown(t NodeType) *string {
	if t == TypePage {
		empty := ""
		return &empty
	}
	return nil
}
