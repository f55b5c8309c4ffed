// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StoryTable Contributors

package playground

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/storytable/storytable/internal/access"
)

var tracer = otel.Tracer("storytable/playground")

// ServiceConfig holds dependencies for Service.
type ServiceConfig struct {
	Nodes      NodeRepository
	Links      LinkRepository
	Transactor Transactor
	Logger     *slog.Logger     // optional, defaults to slog.Default()
	Now        func() time.Time // optional, defaults to time.Now
}

// Service validates and performs content tree operations.
type Service struct {
	nodes  NodeRepository
	links  LinkRepository
	tx     Transactor
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates a new Service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Nodes == nil {
		return nil, oops.Code("PLAYGROUND_INVALID_CONFIG").Errorf("node repository is required")
	}
	if cfg.Links == nil {
		return nil, oops.Code("PLAYGROUND_INVALID_CONFIG").Errorf("link repository is required")
	}
	if cfg.Transactor == nil {
		return nil, oops.Code("PLAYGROUND_INVALID_CONFIG").Errorf("transactor is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		nodes:  cfg.Nodes,
		links:  cfg.Links,
		tx:     cfg.Transactor,
		logger: logger.With("component", "playground"),
		now:    now,
	}, nil
}

// CreateNodeInput carries the fields of a new node.
type CreateNodeInput struct {
	ParentID *ulid.ULID
	Type     string
	Name     string
}

// CreateNode validates placement and persists a new node owned by the
// scope's user. Nothing is written unless every check passes.
func (s *Service) CreateNode(ctx context.Context, scope access.Scope, in CreateNodeInput) (_ *Node, err error) {
	ctx, span := startSpan(ctx, "playground.create_node", scope, attribute.String("node.type", in.Type))
	defer func() { endSpan(span, err) }()

	nodeType, ok := ParseNodeType(in.Type)
	if !ok {
		return nil, invalidInput("type", "unknown node type")
	}
	name, err := NormalizeName(in.Name)
	if err != nil {
		return nil, err
	}

	var parentType *NodeType
	if in.ParentID != nil {
		parent, err := s.getParent(ctx, scope, *in.ParentID)
		if err != nil {
			return nil, err
		}
		parentType = &parent.Type
	}
	if !CanContain(parentType, nodeType) {
		return nil, invalidRelationship(parentType, nodeType)
	}

	sortOrder, err := s.nextSortOrder(ctx, in.ParentID, scope.UserID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	node := &Node{
		ID:        ulid.Make(),
		OwnerID:   scope.UserID,
		Type:      nodeType,
		ParentID:  in.ParentID,
		SortOrder: sortOrder,
		Name:      name,
		Tags:      []string{},
		Markdown:  defaultMarkdown(nodeType),
		Metadata:  map[string]any{},
		Published: false,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.nodes.Create(ctx, node); err != nil {
		return nil, oops.With("operation", "create node").With("type", string(nodeType)).Wrap(err)
	}

	s.logger.InfoContext(ctx, "node created",
		"node_id", node.ID.String(),
		"type", string(node.Type),
		"owner_id", node.OwnerID.String())
	return node, nil
}

// GetNode returns a node visible to scope.
func (s *Service) GetNode(ctx context.Context, scope access.Scope, id ulid.ULID) (*Node, error) {
	node, err := s.nodes.Get(ctx, scope, id)
	if errors.Is(err, ErrNotFound) {
		return nil, nodeNotFound(id)
	}
	if err != nil {
		return nil, oops.With("operation", "get node").With("node_id", id.String()).Wrap(err)
	}
	return node, nil
}

// UpdateNodeInput carries optional field changes. Nil fields are left as
// they are; a blank Summary clears it.
type UpdateNodeInput struct {
	Name      *string
	Summary   *string
	Tags      *[]string
	Markdown  *string
	Metadata  map[string]any
	Published *bool
}

// UpdateNode applies content changes to a node.
func (s *Service) UpdateNode(ctx context.Context, scope access.Scope, id ulid.ULID, in UpdateNodeInput) (*Node, error) {
	node, err := s.GetNode(ctx, scope, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		if node.Name, err = NormalizeName(*in.Name); err != nil {
			return nil, err
		}
	}
	if in.Summary != nil {
		if node.Summary, err = normalizeSummary(*in.Summary); err != nil {
			return nil, err
		}
	}
	if in.Tags != nil {
		if node.Tags, err = normalizeTags(*in.Tags); err != nil {
			return nil, err
		}
	}
	if in.Markdown != nil {
		if err := validateMarkdown(*in.Markdown); err != nil {
			return nil, err
		}
		md := *in.Markdown
		node.Markdown = &md
	}
	if in.Metadata != nil {
		node.Metadata = in.Metadata
	}
	if in.Published != nil {
		node.Published = *in.Published
	}
	node.UpdatedAt = s.now()

	if err := s.nodes.Update(ctx, node); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nodeNotFound(id)
		}
		return nil, oops.With("operation", "update node").With("node_id", id.String()).Wrap(err)
	}
	return node, nil
}

// DeleteNode removes a node together with its descendants and their links.
func (s *Service) DeleteNode(ctx context.Context, scope access.Scope, id ulid.ULID) (err error) {
	ctx, span := startSpan(ctx, "playground.delete_node", scope, attribute.String("node.id", id.String()))
	defer func() { endSpan(span, err) }()

	if _, err := s.GetNode(ctx, scope, id); err != nil {
		return err
	}
	if err := s.nodes.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nodeNotFound(id)
		}
		return oops.With("operation", "delete node").With("node_id", id.String()).Wrap(err)
	}
	s.logger.InfoContext(ctx, "node deleted", "node_id", id.String())
	return nil
}

// MoveNode re-parents a node under newParentID, or to the top level when
// newParentID is nil. The node is placed after its new siblings.
func (s *Service) MoveNode(ctx context.Context, scope access.Scope, id ulid.ULID, newParentID *ulid.ULID) (_ *Node, err error) {
	ctx, span := startSpan(ctx, "playground.move_node", scope, attribute.String("node.id", id.String()))
	defer func() { endSpan(span, err) }()

	node, err := s.GetNode(ctx, scope, id)
	if err != nil {
		return nil, err
	}

	var parentType *NodeType
	if newParentID != nil {
		if *newParentID == id {
			return nil, oops.Code(CodeInvalidRelationship).
				With("node_id", id.String()).
				Errorf("a node cannot be its own parent")
		}
		parent, err := s.getParent(ctx, scope, *newParentID)
		if err != nil {
			return nil, err
		}
		parentType = &parent.Type
	}
	if !CanContain(parentType, node.Type) {
		return nil, invalidRelationship(parentType, node.Type)
	}

	if newParentID != nil {
		lineage, err := s.nodes.Lineage(ctx, *newParentID)
		if err != nil {
			return nil, oops.With("operation", "load parent lineage").Wrap(err)
		}
		if slices.Contains(lineage, id) {
			return nil, oops.Code(CodeInvalidRelationship).
				With("node_id", id.String()).
				With("parent_id", newParentID.String()).
				Errorf("a node cannot be moved under its own descendant")
		}
	}

	sortOrder, err := s.nextSortOrder(ctx, newParentID, node.OwnerID)
	if err != nil {
		return nil, err
	}
	if err := s.nodes.Move(ctx, id, newParentID, sortOrder); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nodeNotFound(id)
		}
		return nil, oops.With("operation", "move node").With("node_id", id.String()).Wrap(err)
	}

	node.ParentID = newParentID
	node.SortOrder = sortOrder
	node.UpdatedAt = s.now()
	return node, nil
}

// ReorderNode sets an explicit sort order on a node.
func (s *Service) ReorderNode(ctx context.Context, scope access.Scope, id ulid.ULID, sortOrder int) (*Node, error) {
	node, err := s.GetNode(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	if err := s.nodes.Reorder(ctx, id, sortOrder); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nodeNotFound(id)
		}
		return nil, oops.With("operation", "reorder node").With("node_id", id.String()).Wrap(err)
	}
	node.SortOrder = sortOrder
	node.UpdatedAt = s.now()
	return node, nil
}

// GetTree assembles every node visible to scope, along with the links of
// every setting node.
func (s *Service) GetTree(ctx context.Context, scope access.Scope) (*Tree, error) {
	nodes, err := s.nodes.List(ctx, scope)
	if err != nil {
		return nil, oops.With("operation", "list nodes").Wrap(err)
	}
	SortNodes(nodes)

	var settingIDs []ulid.ULID
	for _, n := range nodes {
		if n.Type == TypeSetting {
			settingIDs = append(settingIDs, n.ID)
		}
	}

	linksByNode := make(map[ulid.ULID]Links, len(settingIDs))
	if len(settingIDs) > 0 {
		stored, err := s.links.ListByNodes(ctx, settingIDs)
		if err != nil {
			return nil, oops.With("operation", "list links").Wrap(err)
		}
		for _, id := range settingIDs {
			linksByNode[id] = withAllTypes(stored[id])
		}
	}

	return &Tree{
		Nodes:       nodes,
		Roots:       BuildTree(nodes),
		LinksByNode: linksByNode,
	}, nil
}

// GetLinks returns the toolbox links of a setting node. Every toolbox type
// is present in the result.
func (s *Service) GetLinks(ctx context.Context, scope access.Scope, nodeID ulid.ULID) (Links, error) {
	if _, err := s.getSetting(ctx, scope, nodeID); err != nil {
		return nil, err
	}
	links, err := s.links.ListByNode(ctx, nodeID)
	if err != nil {
		return nil, oops.With("operation", "list links").With("node_id", nodeID.String()).Wrap(err)
	}
	return withAllTypes(links), nil
}

// SetLinks normalizes raw and atomically replaces the link set of a setting
// node with it. It returns the links actually stored.
func (s *Service) SetLinks(ctx context.Context, scope access.Scope, nodeID ulid.ULID, raw map[string]any) (_ Links, err error) {
	ctx, span := startSpan(ctx, "playground.set_links", scope, attribute.String("node.id", nodeID.String()))
	defer func() { endSpan(span, err) }()

	if _, err := s.getSetting(ctx, scope, nodeID); err != nil {
		return nil, err
	}

	links := NormalizeLinks(raw)
	span.SetAttributes(attribute.Int("links.count", links.Len()))
	err = s.tx.InTransaction(ctx, func(ctx context.Context) error {
		if err := s.links.DeleteByNode(ctx, nodeID); err != nil {
			return oops.With("operation", "delete links").Wrap(err)
		}
		if links.Len() == 0 {
			return nil
		}
		if err := s.links.Insert(ctx, nodeID, links, scope.UserID); err != nil {
			return oops.With("operation", "insert links").Wrap(err)
		}
		return nil
	})
	if err != nil {
		return nil, oops.With("node_id", nodeID.String()).Wrap(err)
	}

	s.logger.DebugContext(ctx, "links replaced", "node_id", nodeID.String(), "count", links.Len())
	return links, nil
}

func (s *Service) getParent(ctx context.Context, scope access.Scope, id ulid.ULID) (*Node, error) {
	parent, err := s.nodes.Get(ctx, scope, id)
	if errors.Is(err, ErrNotFound) {
		return nil, oops.Code(CodeParentNotFound).
			With("parent_id", id.String()).
			Errorf("parent node not found")
	}
	if err != nil {
		return nil, oops.With("operation", "get parent").With("parent_id", id.String()).Wrap(err)
	}
	return parent, nil
}

func (s *Service) getSetting(ctx context.Context, scope access.Scope, id ulid.ULID) (*Node, error) {
	node, err := s.GetNode(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	if node.Type != TypeSetting {
		return nil, oops.Code(CodeNotASettingNode).
			With("node_id", id.String()).
			With("type", string(node.Type)).
			Errorf("toolbox links are only available on setting nodes")
	}
	return node, nil
}

func (s *Service) nextSortOrder(ctx context.Context, parentID *ulid.ULID, ownerID ulid.ULID) (int, error) {
	maxOrder, ok, err := s.nodes.MaxSiblingOrder(ctx, parentID, ownerID)
	if err != nil {
		return 0, oops.With("operation", "read sibling order").Wrap(err)
	}
	if !ok {
		return 0, nil
	}
	return maxOrder + 1, nil
}

func withAllTypes(links Links) Links {
	out := EmptyLinks()
	for t, ids := range links {
		if _, known := out[t]; known && len(ids) > 0 {
			out[t] = ids
		}
	}
	return out
}

func nodeNotFound(id ulid.ULID) error {
	return oops.Code(CodeNodeNotFound).With("node_id", id.String()).Errorf("node not found")
}

func invalidRelationship(parent *NodeType, child NodeType) error {
	parentName := "(root)"
	if parent != nil {
		parentName = string(*parent)
	}
	return oops.Code(CodeInvalidRelationship).
		With("parent_type", parentName).
		With("child_type", string(child)).
		Errorf("a %s cannot be placed under %s", child, parentName)
}

func startSpan(ctx context.Context, name string, scope access.Scope, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs,
		attribute.String("user.id", scope.UserID.String()),
		attribute.Bool("scope.all", scope.All),
	)
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
