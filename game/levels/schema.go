package levels

import (
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const packSchemaURL = "sokoban://schemas/pack.json"

const packSchema = `{
  "type": "object",
  "required": ["name", "levels"],
  "properties": {
    "name": {"type": "string", "minLength": 1},
    "description": {"type": "string"},
    "levels": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["layout"],
        "properties": {
          "name": {"type": "string"},
          "layout": {
            "type": "array",
            "minItems": 3,
            "items": {"type": "string"}
          }
        }
      }
    }
  }
}`

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = jsonschema.CompileString(packSchemaURL, packSchema)
	})
	return schema, schemaErr
}

// validateDocument checks a decoded JSON document against the pack schema
func validateDocument(doc any) error {
	s, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("failed to compile pack schema: %w", err)
	}
	if err := s.Validate(doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPack, err)
	}
	return nil
}
