// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StoryTable Contributors

package auth

import "strings"

// RoleCode identifies a role in the fixed role catalog.
type RoleCode string

// Role codes, highest precedence first.
const (
	RoleAdmin           RoleCode = "admin"
	RolePrivileged      RoleCode = "privileged"
	RoleUniverseCreator RoleCode = "universe_creator"
	RoleWorldDeveloper  RoleCode = "world_developer"
	RoleWorldBuilder    RoleCode = "world_builder"
	RoleFree            RoleCode = "free"
)

// rolePrecedence lists every role from highest to lowest precedence.
var rolePrecedence = []RoleCode{
	RoleAdmin,
	RolePrivileged,
	RoleUniverseCreator,
	RoleWorldDeveloper,
	RoleWorldBuilder,
	RoleFree,
}

// Role is catalog reference data for a role code.
type Role struct {
	Code        RoleCode
	Name        string
	Description string
}

// String returns the role code.
func (r RoleCode) String() string {
	return string(r)
}

// Roles returns the role catalog codes in precedence order.
func Roles() []RoleCode {
	out := make([]RoleCode, len(rolePrecedence))
	copy(out, rolePrecedence)
	return out
}

// ParseRoleCode parses a role code, case-insensitively.
func ParseRoleCode(s string) (RoleCode, bool) {
	code := RoleCode(strings.ToLower(strings.TrimSpace(s)))
	for _, r := range rolePrecedence {
		if r == code {
			return r, true
		}
	}
	return "", false
}

// PickPrimaryRole returns the highest-precedence role present in codes.
// Unknown codes are ignored and an empty set yields RoleFree.
func PickPrimaryRole(codes []RoleCode) RoleCode {
	held := make(map[RoleCode]struct{}, len(codes))
	for _, c := range codes {
		held[c] = struct{}{}
	}
	for _, r := range rolePrecedence {
		if _, ok := held[r]; ok {
			return r
		}
	}
	return RoleFree
}
