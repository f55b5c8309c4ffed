// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StoryTable Contributors

package importer

import (
	"encoding/json"
	"sync"

	"github.com/invopop/jsonschema"
	"github.com/samber/oops"
	jschema "github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"
)

// SchemaID is the $id of the tree import schema.
const SchemaID = "https://storytable.dev/schemas/tree-import.schema.json"

var (
	schemaOnce     sync.Once
	compiledSchema *jschema.Schema
	errSchema      error
)

// GenerateSchema generates the JSON Schema for Document.
func GenerateSchema() ([]byte, error) {
	r := jsonschema.Reflector{}
	schema := r.Reflect(&Document{})
	schema.ID = jsonschema.ID(SchemaID)
	schema.Title = "StoryTable Tree Import"
	schema.Description = "Schema for content tree import documents"

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, oops.Code("IMPORT_SCHEMA_FAILED").With("operation", "marshal schema").Wrap(err)
	}
	return data, nil
}

// Parse validates YAML data against the import schema and decodes it.
func Parse(data []byte) (*Document, error) {
	if len(data) == 0 {
		return nil, oops.Code("IMPORT_INVALID_DOCUMENT").Errorf("document is empty")
	}

	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, oops.Code("IMPORT_INVALID_DOCUMENT").With("operation", "parse yaml").Wrap(err)
	}

	sch, err := getCompiledSchema()
	if err != nil {
		return nil, err
	}
	if err := sch.Validate(toJSONTypes(raw)); err != nil {
		return nil, oops.Code("IMPORT_INVALID_DOCUMENT").With("operation", "validate schema").Wrap(err)
	}

	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, oops.Code("IMPORT_INVALID_DOCUMENT").With("operation", "decode document").Wrap(err)
	}
	return &doc, nil
}

func getCompiledSchema() (*jschema.Schema, error) {
	schemaOnce.Do(func() {
		schemaBytes, err := GenerateSchema()
		if err != nil {
			errSchema = err
			return
		}
		var schemaData any
		if err := json.Unmarshal(schemaBytes, &schemaData); err != nil {
			errSchema = oops.Code("IMPORT_SCHEMA_FAILED").With("operation", "parse schema").Wrap(err)
			return
		}
		c := jschema.NewCompiler()
		if err := c.AddResource("tree-import.schema.json", schemaData); err != nil {
			errSchema = oops.Code("IMPORT_SCHEMA_FAILED").With("operation", "add schema resource").Wrap(err)
			return
		}
		compiledSchema, errSchema = c.Compile("tree-import.schema.json")
		if errSchema != nil {
			errSchema = oops.Code("IMPORT_SCHEMA_FAILED").With("operation", "compile schema").Wrap(errSchema)
		}
	})
	return compiledSchema, errSchema
}

// toJSONTypes converts YAML-decoded values into the types the validator
// expects.
func toJSONTypes(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = toJSONTypes(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = toJSONTypes(item)
		}
		return out
	case string, int, int64, float64, bool, nil:
		return val
	default:
		if b, err := json.Marshal(val); err == nil {
			var out any
			if err := json.Unmarshal(b, &out); err == nil {
				return out
			}
		}
		return val
	}
}
