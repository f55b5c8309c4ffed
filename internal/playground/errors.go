// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StoryTable Contributors

package playground

import "errors"

// ErrNotFound is returned by repositories when a node does not exist or is
// outside the requested scope.
var ErrNotFound = errors.New("not found")

// Error codes returned by Service.
const (
	CodeInvalidInput        = "INVALID_INPUT"
	CodeParentNotFound      = "PARENT_NOT_FOUND"
	CodeNodeNotFound        = "NODE_NOT_FOUND"
	CodeInvalidRelationship = "INVALID_PARENT_CHILD_RELATIONSHIP"
	CodeNotASettingNode     = "NOT_A_SETTING_NODE"
)
