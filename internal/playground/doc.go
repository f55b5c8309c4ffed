// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StoryTable Contributors

// Package playground implements the world-building content tree.
//
// Nodes form a forest rooted at cosmos nodes. Each node type admits a fixed
// set of child types, siblings are ordered by a sparse sort key, and setting
// nodes carry toolbox links to external content records. Every operation is
// evaluated within an access.Scope: nodes outside the scope behave exactly
// like nodes that do not exist.
package playground
