// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StoryTable Contributors

// Package access maps roles to the capabilities a request carries.
//
// Permissions use the form "action:resource[:sub...]" and are matched with
// glob patterns using ':' as the separator, so "write:tree:**" grants every
// write below the tree resource.
package access

import (
	"github.com/gobwas/glob"
	"github.com/oklog/ulid/v2"

	"github.com/storytable/storytable/internal/auth"
)

// Capabilities describe what a role may do.
type Capabilities struct {
	Role auth.RoleCode

	// Admin grants visibility of every owner's content.
	Admin bool

	// WorldBuilding grants use of the Playground.
	WorldBuilding bool

	patterns []string
	globs    []glob.Glob
}

// Scope is the set of owners whose content a request may see or change.
type Scope struct {
	UserID ulid.ULID
	All    bool
}

// Owns reports whether content owned by ownerID is inside the scope.
func (s Scope) Owns(ownerID ulid.ULID) bool {
	return s.All || s.UserID == ownerID
}

// compiled is built once; every pattern in definitions is a constant.
var compiled = compileAll()

func compileAll() map[auth.RoleCode]Capabilities {
	defs := definitions()
	out := make(map[auth.RoleCode]Capabilities, len(defs))
	for role, def := range defs {
		caps := Capabilities{
			Role:          role,
			Admin:         def.admin,
			WorldBuilding: def.worldBuilding,
			patterns:      def.permissions,
			globs:         make([]glob.Glob, 0, len(def.permissions)),
		}
		for _, p := range def.permissions {
			caps.globs = append(caps.globs, glob.MustCompile(p, ':'))
		}
		out[role] = caps
	}
	return out
}

// Resolve returns the capabilities for role. Unknown roles resolve to the
// free role's capabilities.
func Resolve(role auth.RoleCode) Capabilities {
	if caps, ok := compiled[role]; ok {
		return caps
	}
	return compiled[auth.RoleFree]
}

// Allows reports whether permission (e.g. "write:tree:node") is granted.
func (c Capabilities) Allows(permission string) bool {
	for _, g := range c.globs {
		if g.Match(permission) {
			return true
		}
	}
	return false
}

// Permissions returns the raw permission patterns.
func (c Capabilities) Permissions() []string {
	out := make([]string, len(c.patterns))
	copy(out, c.patterns)
	return out
}

// Scope returns the visibility scope for userID under these capabilities.
func (c Capabilities) Scope(userID ulid.ULID) Scope {
	return Scope{UserID: userID, All: c.Admin}
}
