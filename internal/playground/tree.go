// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StoryTable Contributors

package playground

import (
	"cmp"
	"slices"

	"github.com/oklog/ulid/v2"
)

// TreeNode is a node with its ordered children.
type TreeNode struct {
	*Node
	Children []*TreeNode
}

// Tree is the assembled view of every node in a scope.
type Tree struct {
	// Nodes is the flat list in (sort order, name) order.
	Nodes []*Node

	// Roots is the nested forest.
	Roots []*TreeNode

	// LinksByNode holds links for every setting node in Nodes.
	LinksByNode map[ulid.ULID]Links
}

// BuildTree groups nodes under their parents. A node whose parent is not in
// nodes is promoted to a root. Siblings are ordered by sort order, then
// name, at every level.
func BuildTree(nodes []*Node) []*TreeNode {
	byID := make(map[ulid.ULID]*TreeNode, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = &TreeNode{Node: n, Children: []*TreeNode{}}
	}

	roots := make([]*TreeNode, 0)
	for _, n := range nodes {
		tn := byID[n.ID]
		if n.ParentID != nil {
			if parent, ok := byID[*n.ParentID]; ok && parent != tn {
				parent.Children = append(parent.Children, tn)
				continue
			}
		}
		roots = append(roots, tn)
	}

	sortLevel(roots)
	return roots
}

func sortLevel(level []*TreeNode) {
	slices.SortStableFunc(level, func(a, b *TreeNode) int {
		return compareNodes(a.Node, b.Node)
	})
	for _, tn := range level {
		sortLevel(tn.Children)
	}
}

// SortNodes orders nodes by sort order, then name.
func SortNodes(nodes []*Node) {
	slices.SortStableFunc(nodes, compareNodes)
}

func compareNodes(a, b *Node) int {
	return cmp.Or(
		cmp.Compare(a.SortOrder, b.SortOrder),
		cmp.Compare(a.Name, b.Name),
	)
}
