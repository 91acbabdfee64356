package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/schemacorrect/schemacorrect/database"
)

// jsonSchema validates the shape of a snapshot file before it is trusted
// as a diff source. Unknown top-level fields are rejected so a plan file
// or unrelated JSON cannot be mistaken for a snapshot.
const jsonSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["tables"],
  "additionalProperties": false,
  "properties": {
    "tables": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name", "columns"],
        "properties": {
          "name": {"type": "string", "minLength": 1},
          "columns": {
            "type": "array",
            "items": {
              "type": "object",
              "required": ["name", "type", "nullable"],
              "properties": {
                "name": {"type": "string", "minLength": 1},
                "type": {"type": "string"},
                "nullable": {"type": "boolean"},
                "default": {"type": "string"},
                "is_primary_key": {"type": "boolean"}
              }
            }
          },
          "indexes": {
            "type": "array",
            "items": {
              "type": "object",
              "required": ["name", "columns", "unique"],
              "properties": {
                "name": {"type": "string", "minLength": 1},
                "columns": {"type": "array", "items": {"type": "string"}},
                "unique": {"type": "boolean"}
              }
            }
          },
          "foreign_keys": {
            "type": "array",
            "items": {
              "type": "object",
              "required": ["name", "columns", "referenced_table", "referenced_columns"],
              "properties": {
                "name": {"type": "string"},
                "columns": {"type": "array", "items": {"type": "string"}},
                "referenced_schema": {"type": "string"},
                "referenced_table": {"type": "string", "minLength": 1},
                "referenced_columns": {"type": "array", "items": {"type": "string"}},
                "on_delete": {"type": "string"},
                "on_update": {"type": "string"}
              }
            }
          }
        }
      }
    }
  }
}`

// Save writes a schema snapshot as indented JSON.
func Save(path string, schema *database.Schema) error {
	data, err := Marshal(schema)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write snapshot %s: %w", path, err)
	}
	return nil
}

// Marshal renders a schema snapshot as indented JSON with a trailing
// newline.
func Marshal(schema *database.Schema) ([]byte, error) {
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	return append(data, '\n'), nil
}

// Load reads and validates a snapshot file.
func Load(path string) (*database.Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot %s: %w", path, err)
	}
	return Parse(data)
}

// Parse validates snapshot JSON against the embedded schema and decodes it.
func Parse(data []byte) (*database.Schema, error) {
	schemaLoader := gojsonschema.NewStringLoader(jsonSchema)
	documentLoader := gojsonschema.NewBytesLoader(data)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return nil, fmt.Errorf("failed to validate snapshot: %w", err)
	}
	if !result.Valid() {
		var msgs []string
		for _, desc := range result.Errors() {
			msgs = append(msgs, desc.String())
		}
		return nil, fmt.Errorf("invalid snapshot: %s", strings.Join(msgs, "; "))
	}

	var schema database.Schema
	if err := json.Unmarshal(data, &schema); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return &schema, nil
}
