// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StoryTable Contributors

package importer

import (
	"context"
	"fmt"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/storytable/storytable/internal/access"
	"github.com/storytable/storytable/internal/playground"
)

// TreeService is the subset of playground.Service used by Import.
type TreeService interface {
	CreateNode(ctx context.Context, scope access.Scope, in playground.CreateNodeInput) (*playground.Node, error)
	UpdateNode(ctx context.Context, scope access.Scope, id ulid.ULID, in playground.UpdateNodeInput) (*playground.Node, error)
	SetLinks(ctx context.Context, scope access.Scope, nodeID ulid.ULID, raw map[string]any) (playground.Links, error)
}

// Result summarizes a completed import.
type Result struct {
	Created int
	Roots   []ulid.ULID
}

// Import creates every node of doc under parentID (nil for top level)
// through svc, so placement rules apply exactly as they do for API calls.
// It stops at the first failure; the error carries the document path of
// the failing node. Import is not atomic: nodes created before the failure
// are kept, and the partial Result is returned with the error.
func Import(ctx context.Context, svc TreeService, scope access.Scope, parentID *ulid.ULID, doc *Document) (*Result, error) {
	res := &Result{}
	for i := range doc.Nodes {
		id, err := importNode(ctx, svc, scope, parentID, &doc.Nodes[i], fmt.Sprintf("nodes[%d]", i), res)
		if err != nil {
			return res, oops.With("created", res.Created).
				Wrapf(err, "import stopped after creating %d of %d nodes", res.Created, doc.Count())
		}
		res.Roots = append(res.Roots, id)
	}
	return res, nil
}

func importNode(ctx context.Context, svc TreeService, scope access.Scope, parentID *ulid.ULID, spec *NodeSpec, path string, res *Result) (ulid.ULID, error) {
	if err := ctx.Err(); err != nil {
		return ulid.ULID{}, oops.With("path", path).Wrap(err)
	}

	node, err := svc.CreateNode(ctx, scope, playground.CreateNodeInput{
		ParentID: parentID,
		Type:     spec.Type,
		Name:     spec.Name,
	})
	if err != nil {
		return ulid.ULID{}, oops.With("path", path).Wrapf(err, "import %s", path)
	}
	res.Created++

	if update, ok := contentUpdate(spec); ok {
		if _, err := svc.UpdateNode(ctx, scope, node.ID, update); err != nil {
			return node.ID, oops.With("path", path).Wrapf(err, "import %s", path)
		}
	}

	if len(spec.Links) > 0 {
		raw := make(map[string]any, len(spec.Links))
		for k, ids := range spec.Links {
			raw[k] = ids
		}
		if _, err := svc.SetLinks(ctx, scope, node.ID, raw); err != nil {
			return node.ID, oops.With("path", path).Wrapf(err, "import %s links", path)
		}
	}

	for i := range spec.Children {
		childPath := fmt.Sprintf("%s.children[%d]", path, i)
		if _, err := importNode(ctx, svc, scope, &node.ID, &spec.Children[i], childPath, res); err != nil {
			return node.ID, err
		}
	}
	return node.ID, nil
}

func contentUpdate(spec *NodeSpec) (playground.UpdateNodeInput, bool) {
	var in playground.UpdateNodeInput
	changed := false
	if spec.Summary != "" {
		in.Summary = &spec.Summary
		changed = true
	}
	if len(spec.Tags) > 0 {
		in.Tags = &spec.Tags
		changed = true
	}
	if spec.Markdown != "" {
		in.Markdown = &spec.Markdown
		changed = true
	}
	if spec.Published {
		in.Published = &spec.Published
		changed = true
	}
	return in, changed
}
