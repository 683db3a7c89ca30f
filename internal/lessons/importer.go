package lessons

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// lessonImportSchema describes the JSON accepted by Import: an array of
// lessons using the same field names as ContextItem.
var lessonImportSchema = map[string]any{
	"type":     "array",
	"minItems": 1,
	"items": map[string]any{
		"type": "object",
		"properties": map[string]any{
			"unidad":      map[string]any{"type": "integer", "minimum": 0},
			"leccion":     map[string]any{"type": "string", "pattern": `^\s*\d{1,3}(\s*[./-]\s*\d{1,3})?\s*$`},
			"tema":        map[string]any{"type": "string"},
			"titulo":      map[string]any{"type": "string", "minLength": 1},
			"teoria":      map[string]any{"type": "string"},
			"objetivo":    map[string]any{"type": "string"},
			"formulas":    map[string]any{"type": "string"},
			"actividades": map[string]any{"type": "string"},
		},
		"required":             []any{"unidad", "leccion", "titulo"},
		"additionalProperties": false,
	},
}

const lessonImportSchemaURL = "schema://lesson-import.json"

var (
	compileOnce    sync.Once
	compiledSchema *jsonschema.Schema
	compileErr     error
)

func importSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		// Round-trip through JSON so the compiler sees plain decoded values.
		raw, err := json.Marshal(lessonImportSchema)
		if err != nil {
			compileErr = fmt.Errorf("marshal schema: %w", err)
			return
		}
		var doc any
		if err := json.Unmarshal(raw, &doc); err != nil {
			compileErr = fmt.Errorf("parse schema: %w", err)
			return
		}

		c := jsonschema.NewCompiler()
		if err := c.AddResource(lessonImportSchemaURL, doc); err != nil {
			compileErr = fmt.Errorf("add resource: %w", err)
			return
		}
		compiledSchema, compileErr = c.Compile(lessonImportSchemaURL)
	})
	return compiledSchema, compileErr
}

// DecodeImport parses and validates a lesson import document.
func DecodeImport(r io.Reader) ([]ContextItem, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read lessons: %w", err)
	}

	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	schema, err := importSchema()
	if err != nil {
		return nil, fmt.Errorf("compile lesson schema: %w", err)
	}
	if err := schema.Validate(parsed); err != nil {
		return nil, fmt.Errorf("lesson schema validation failed: %w", err)
	}

	var items []ContextItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode lessons: %w", err)
	}
	return items, nil
}

// Upserter is a lesson store that accepts imports.
type Upserter interface {
	Upsert(ctx context.Context, items []ContextItem) (int, error)
}

// Import validates the document read from r and upserts its lessons.
func Import(ctx context.Context, dst Upserter, r io.Reader) (int, error) {
	items, err := DecodeImport(r)
	if err != nil {
		return 0, err
	}
	return dst.Upsert(ctx, items)
}
