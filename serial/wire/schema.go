// Package wire validates the two JSON documents that cross a process
// boundary in this module: the metacall_inspect introspection document
// (dispatch.Inspect's output) and the envelope loaders/rpcloader sends
// over gRPC, against published JSON Schemas.
package wire

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// inspectSchemaDoc describes the metacall_inspect document shape: a map
// from loader tag to a list of {"name", "scope": {"funcs", "classes",
// "objects"}} handle entries.
const inspectSchemaDoc = `{
  "type": "object",
  "additionalProperties": {
    "type": "array",
    "items": {
      "type": "object",
      "required": ["name", "scope"],
      "properties": {
        "name": {"type": "string"},
        "scope": {
          "type": "object",
          "required": ["funcs", "classes", "objects"],
          "properties": {
            "funcs": {"type": "array"},
            "classes": {"type": "array"},
            "objects": {"type": "array", "items": {"type": "string"}}
          }
        }
      }
    }
  }
}`

// envelopeSchemaDoc describes the gRPC wire envelope loaders/rpcloader
// exchanges with a remote node: a discriminated {"kind", "payload"} pair.
const envelopeSchemaDoc = `{
  "type": "object",
  "required": ["kind", "payload"],
  "properties": {
    "kind": {"type": "string", "enum": ["call", "result", "error", "discover"]},
    "payload": {}
  }
}`

// Schema wraps a compiled jsonschema.Schema for repeated validation.
type Schema struct {
	compiled *jsonschema.Schema
}

func compile(id string, doc string) (*Schema, error) {
	var schemaDoc any
	if err := json.Unmarshal([]byte(doc), &schemaDoc); err != nil {
		return nil, fmt.Errorf("wire: unmarshal schema %s: %w", id, err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(id, schemaDoc); err != nil {
		return nil, fmt.Errorf("wire: add schema resource %s: %w", id, err)
	}
	compiled, err := c.Compile(id)
	if err != nil {
		return nil, fmt.Errorf("wire: compile schema %s: %w", id, err)
	}
	return &Schema{compiled: compiled}, nil
}

// InspectSchema compiles the metacall_inspect document schema.
func InspectSchema() (*Schema, error) { return compile("inspect.json", inspectSchemaDoc) }

// EnvelopeSchema compiles the RPC-loader wire envelope schema.
func EnvelopeSchema() (*Schema, error) { return compile("envelope.json", envelopeSchemaDoc) }

// Validate checks data against the compiled schema.
func (s *Schema) Validate(data []byte) error {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("wire: unmarshal document: %w", err)
	}
	if err := s.compiled.Validate(doc); err != nil {
		return fmt.Errorf("wire: schema validation failed: %w", err)
	}
	return nil
}
