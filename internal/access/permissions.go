// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StoryTable Contributors

package access

import "github.com/storytable/storytable/internal/auth"

// Permission groups define reusable sets of permissions.
// Roles compose these groups rather than inheriting.

var readLibrary = []string{
	"read:content:**",
	"read:campaign:**",
}

var writeLibrary = []string{
	"write:content:**",
	"write:campaign:**",
}

var worldBuilding = []string{
	"read:tree:**",
	"write:tree:**",
	"read:toolbox:**",
	"write:toolbox:**",
}

var everything = []string{"**"}

// roleDefinition is the static capability template for one role.
type roleDefinition struct {
	admin         bool
	worldBuilding bool
	permissions   []string
}

// definitions returns the capability templates for every catalog role.
func definitions() map[auth.RoleCode]roleDefinition {
	developer := roleDefinition{
		worldBuilding: true,
		permissions:   compose(worldBuilding, readLibrary, writeLibrary),
	}
	return map[auth.RoleCode]roleDefinition{
		auth.RoleAdmin:           {admin: true, worldBuilding: true, permissions: everything},
		auth.RolePrivileged:      developer,
		auth.RoleUniverseCreator: developer,
		auth.RoleWorldDeveloper:  developer,
		auth.RoleWorldBuilder:    {worldBuilding: true, permissions: compose(worldBuilding, readLibrary)},
		auth.RoleFree:            {permissions: readLibrary},
	}
}

// compose merges multiple permission slices into one.
func compose(groups ...[]string) []string {
	total := 0
	for _, g := range groups {
		total += len(g)
	}
	result := make([]string, 0, total)
	for _, g := range groups {
		result = append(result, g...)
	}
	return result
}
