// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StoryTable Contributors

// Package importer loads content trees from YAML documents.
//
// A document lists root nodes with nested children:
//
//	nodes:
//	  - type: cosmos
//	    name: Aether
//	    children:
//	      - type: world
//	        name: Ninth Spire
//
// Documents are validated against a JSON Schema reflected from Document
// before any node is created.
package importer

// Document is a tree import file.
type Document struct {
	Nodes []NodeSpec `yaml:"nodes" json:"nodes" jsonschema:"required,minItems=1"`
}

// NodeSpec describes one node and its subtree.
type NodeSpec struct {
	Type      string              `yaml:"type" json:"type" jsonschema:"required,enum=cosmos,enum=world,enum=era,enum=setting,enum=folder,enum=page"`
	Name      string              `yaml:"name" json:"name" jsonschema:"required,minLength=1,maxLength=200"`
	Summary   string              `yaml:"summary,omitempty" json:"summary,omitempty"`
	Tags      []string            `yaml:"tags,omitempty" json:"tags,omitempty"`
	Markdown  string              `yaml:"markdown,omitempty" json:"markdown,omitempty"`
	Published bool                `yaml:"published,omitempty" json:"published,omitempty"`
	Links     map[string][]string `yaml:"links,omitempty" json:"links,omitempty" jsonschema:"description=Toolbox links by type; only valid on setting nodes"`
	Children  []NodeSpec          `yaml:"children,omitempty" json:"children,omitempty"`
}

// Count returns the number of nodes in the document.
func (d *Document) Count() int {
	n := 0
	var walk func([]NodeSpec)
	walk = func(specs []NodeSpec) {
		for i := range specs {
			n++
			walk(specs[i].Children)
		}
	}
	walk(d.Nodes)
	return n
}
