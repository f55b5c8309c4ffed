// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StoryTable Contributors

package web

import (
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/storytable/storytable/internal/auth"
	"github.com/storytable/storytable/internal/playground"
)

type userJSON struct {
	ID       string  `json:"id"`
	Username string  `json:"username"`
	Email    *string `json:"email"`
	Role     string  `json:"role"`
}

func toUserJSON(u *auth.SessionUser) userJSON {
	return userJSON{
		ID:       u.ID.String(),
		Username: u.Username,
		Email:    u.Email,
		Role:     string(u.Role),
	}
}

type nodeJSON struct {
	ID        string         `json:"id"`
	OwnerID   string         `json:"ownerId"`
	Type      string         `json:"type"`
	ParentID  *string        `json:"parentId"`
	SortOrder int            `json:"sortOrder"`
	Name      string         `json:"name"`
	Summary   *string        `json:"summary"`
	Tags      []string       `json:"tags"`
	Markdown  *string        `json:"markdown"`
	Metadata  map[string]any `json:"metadata"`
	Published bool           `json:"published"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

func toNodeJSON(n *playground.Node) nodeJSON {
	out := nodeJSON{
		ID:        n.ID.String(),
		OwnerID:   n.OwnerID.String(),
		Type:      string(n.Type),
		SortOrder: n.SortOrder,
		Name:      n.Name,
		Summary:   n.Summary,
		Tags:      n.Tags,
		Markdown:  n.Markdown,
		Metadata:  n.Metadata,
		Published: n.Published,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}
	if n.ParentID != nil {
		id := n.ParentID.String()
		out.ParentID = &id
	}
	if out.Tags == nil {
		out.Tags = []string{}
	}
	if out.Metadata == nil {
		out.Metadata = map[string]any{}
	}
	return out
}

type treeNodeJSON struct {
	nodeJSON
	Children []treeNodeJSON `json:"children"`
}

func toTreeJSON(level []*playground.TreeNode) []treeNodeJSON {
	out := make([]treeNodeJSON, 0, len(level))
	for _, tn := range level {
		out = append(out, treeNodeJSON{
			nodeJSON: toNodeJSON(tn.Node),
			Children: toTreeJSON(tn.Children),
		})
	}
	return out
}

type linksJSON map[string][]string

func toLinksJSON(l playground.Links) linksJSON {
	out := make(linksJSON, len(playground.ToolboxTypes()))
	for _, t := range playground.ToolboxTypes() {
		ids := l[t]
		if ids == nil {
			ids = []string{}
		}
		out[string(t)] = ids
	}
	return out
}

type treeResponse struct {
	Nodes       []nodeJSON           `json:"nodes"`
	Tree        []treeNodeJSON       `json:"tree"`
	LinksByNode map[string]linksJSON `json:"linksByNode"`
}

func toTreeResponse(t *playground.Tree) treeResponse {
	resp := treeResponse{
		Nodes:       make([]nodeJSON, 0, len(t.Nodes)),
		Tree:        toTreeJSON(t.Roots),
		LinksByNode: make(map[string]linksJSON, len(t.LinksByNode)),
	}
	for _, n := range t.Nodes {
		resp.Nodes = append(resp.Nodes, toNodeJSON(n))
	}
	for id, links := range t.LinksByNode {
		resp.LinksByNode[id.String()] = toLinksJSON(links)
	}
	return resp
}

// parseOptionalID parses a nullable id. nil and "" both mean no id.
func parseOptionalID(s *string) (*ulid.ULID, bool) {
	if s == nil || *s == "" {
		return nil, true
	}
	id, err := ulid.ParseStrict(*s)
	if err != nil {
		return nil, false
	}
	return &id, true
}
