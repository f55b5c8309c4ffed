// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StoryTable Contributors

package playground

import (
	"slices"
	"strings"
)

// ToolboxType is a kind of external content a setting can link to.
type ToolboxType string

// Toolbox types.
const (
	ToolboxRace     ToolboxType = "race"
	ToolboxCreature ToolboxType = "creature"
	ToolboxNPC      ToolboxType = "npc"
	ToolboxCalendar ToolboxType = "calendar"
)

var toolboxTypes = []ToolboxType{ToolboxRace, ToolboxCreature, ToolboxNPC, ToolboxCalendar}

// ToolboxTypes returns every toolbox type.
func ToolboxTypes() []ToolboxType {
	return slices.Clone(toolboxTypes)
}

// Links maps each toolbox type to linked content ids, in stored order.
type Links map[ToolboxType][]string

// EmptyLinks returns a Links value with every toolbox type present.
func EmptyLinks() Links {
	l := make(Links, len(toolboxTypes))
	for _, t := range toolboxTypes {
		l[t] = []string{}
	}
	return l
}

// Len returns the total number of linked ids.
func (l Links) Len() int {
	n := 0
	for _, ids := range l {
		n += len(ids)
	}
	return n
}

// NormalizeLinks converts untrusted input into Links. Unknown keys are
// ignored, entries that are not strings or are blank are dropped, ids are
// trimmed, and duplicates keep their first occurrence. Every toolbox type
// is present in the result.
func NormalizeLinks(raw map[string]any) Links {
	out := EmptyLinks()
	for _, t := range toolboxTypes {
		var items []any
		switch v := raw[string(t)].(type) {
		case []any:
			items = v
		case []string:
			items = make([]any, len(v))
			for i, s := range v {
				items[i] = s
			}
		default:
			continue
		}

		seen := make(map[string]struct{}, len(items))
		for _, item := range items {
			s, ok := item.(string)
			if !ok {
				continue
			}
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			if _, dup := seen[s]; dup {
				continue
			}
			seen[s] = struct{}{}
			out[t] = append(out[t], s)
		}
	}
	return out
}
