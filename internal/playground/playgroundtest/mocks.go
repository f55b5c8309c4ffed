// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StoryTable Contributors

// Package playgroundtest provides testify mocks for the playground
// repositories and an in-memory store for service-level tests.
package playgroundtest

import (
	"context"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/mock"

	"github.com/storytable/storytable/internal/access"
	"github.com/storytable/storytable/internal/playground"
)

type testingT interface {
	mock.TestingT
	Cleanup(func())
}

// NodeRepository is a mock playground.NodeRepository.
type NodeRepository struct {
	mock.Mock
}

// NewNodeRepository creates a NodeRepository whose expectations are
// asserted when the test ends.
func NewNodeRepository(t testingT) *NodeRepository {
	m := &NodeRepository{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *NodeRepository) Get(ctx context.Context, scope access.Scope, id ulid.ULID) (*playground.Node, error) {
	args := m.Called(ctx, scope, id)
	n, _ := args.Get(0).(*playground.Node)
	return n, args.Error(1)
}

func (m *NodeRepository) Create(ctx context.Context, node *playground.Node) error {
	return m.Called(ctx, node).Error(0)
}

func (m *NodeRepository) MaxSiblingOrder(ctx context.Context, parentID *ulid.ULID, ownerID ulid.ULID) (int, bool, error) {
	args := m.Called(ctx, parentID, ownerID)
	return args.Int(0), args.Bool(1), args.Error(2)
}

func (m *NodeRepository) List(ctx context.Context, scope access.Scope) ([]*playground.Node, error) {
	args := m.Called(ctx, scope)
	nodes, _ := args.Get(0).([]*playground.Node)
	return nodes, args.Error(1)
}

func (m *NodeRepository) Update(ctx context.Context, node *playground.Node) error {
	return m.Called(ctx, node).Error(0)
}

func (m *NodeRepository) Move(ctx context.Context, id ulid.ULID, parentID *ulid.ULID, sortOrder int) error {
	return m.Called(ctx, id, parentID, sortOrder).Error(0)
}

func (m *NodeRepository) Reorder(ctx context.Context, id ulid.ULID, sortOrder int) error {
	return m.Called(ctx, id, sortOrder).Error(0)
}

func (m *NodeRepository) Delete(ctx context.Context, id ulid.ULID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *NodeRepository) Lineage(ctx context.Context, id ulid.ULID) ([]ulid.ULID, error) {
	args := m.Called(ctx, id)
	ids, _ := args.Get(0).([]ulid.ULID)
	return ids, args.Error(1)
}

// LinkRepository is a mock playground.LinkRepository.
type LinkRepository struct {
	mock.Mock
}

// NewLinkRepository creates a LinkRepository whose expectations are
// asserted when the test ends.
func NewLinkRepository(t testingT) *LinkRepository {
	m := &LinkRepository{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *LinkRepository) ListByNode(ctx context.Context, nodeID ulid.ULID) (playground.Links, error) {
	args := m.Called(ctx, nodeID)
	l, _ := args.Get(0).(playground.Links)
	return l, args.Error(1)
}

func (m *LinkRepository) ListByNodes(ctx context.Context, nodeIDs []ulid.ULID) (map[ulid.ULID]playground.Links, error) {
	args := m.Called(ctx, nodeIDs)
	l, _ := args.Get(0).(map[ulid.ULID]playground.Links)
	return l, args.Error(1)
}

func (m *LinkRepository) DeleteByNode(ctx context.Context, nodeID ulid.ULID) error {
	return m.Called(ctx, nodeID).Error(0)
}

func (m *LinkRepository) Insert(ctx context.Context, nodeID ulid.ULID, links playground.Links, createdBy ulid.ULID) error {
	return m.Called(ctx, nodeID, links, createdBy).Error(0)
}

// Transactor runs functions inline without a database. Calls counts how
// many transactions were opened.
type Transactor struct {
	Calls int
}

// InTransaction calls fn with ctx.
func (t *Transactor) InTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	t.Calls++
	return fn(ctx)
}

var (
	_ playground.NodeRepository = (*NodeRepository)(nil)
	_ playground.LinkRepository = (*LinkRepository)(nil)
	_ playground.Transactor     = (*Transactor)(nil)
)
