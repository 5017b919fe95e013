package analysis

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const shapeSchemaURL = "processed_messages.schema.json"

// BuildShapeSchema returns the JSON-Schema describing a well-formed document.
// Documents that do not match are still decoded; mismatches are diagnostics only.
func BuildShapeSchema() map[string]any {
	stringList := map[string]any{"type": "array", "items": map[string]any{"type": "string"}}

	subReport := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"interview_city": map[string]any{"type": []string{"string", "null"}},
			"interview_date": map[string]any{"type": []string{"string", "null"}},
			"examiner": map[string]any{
				"type": []string{"object", "null"},
				"properties": map[string]any{
					"name":  map[string]any{"type": []string{"string", "null"}},
					"label": map[string]any{"type": []string{"string", "null"}},
				},
			},
			"outcome":          map[string]any{"type": []string{"string", "null"}},
			"duration_minutes": map[string]any{"type": []string{"number", "null"}},
			"questions": map[string]any{
				"type": []string{"object", "null"},
				"properties": map[string]any{
					"raw_list":         stringList,
					"canonical_topics": stringList,
				},
			},
			"documents": map[string]any{
				"type":       []string{"object", "null"},
				"properties": map[string]any{"mentioned": stringList},
			},
			"confidence": map[string]any{"type": []string{"number", "null"}, "minimum": 0.0, "maximum": 1.0},
		},
	}

	message := map[string]any{
		"type":     "object",
		"required": []string{"original_message"},
		"properties": map[string]any{
			"original_message": map[string]any{
				"type":     "object",
				"required": []string{"id"},
				"properties": map[string]any{
					"id":             map[string]any{"type": []string{"string", "integer"}},
					"date_formatted": map[string]any{"type": "string"},
					"message":        map[string]any{"type": "string"},
					"hashtags_found": stringList,
				},
			},
			"openai_analysis": map[string]any{
				"type": []string{"object", "null"},
				"properties": map[string]any{
					"skip":    map[string]any{"type": "boolean"},
					"reports": map[string]any{"type": "array", "items": subReport},
				},
			},
		},
	}

	return map[string]any{
		"type":     "object",
		"required": []string{"processed_messages"},
		"properties": map[string]any{
			"processed_messages": map[string]any{"type": "array", "items": message},
		},
	}
}

// ShapeValidator checks raw documents against BuildShapeSchema.
type ShapeValidator struct {
	schema *jsonschema.Schema
}

// NewShapeValidator compiles the document schema.
func NewShapeValidator() (*ShapeValidator, error) {
	b, err := json.Marshal(BuildShapeSchema())
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(shapeSchemaURL, bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}

	schema, err := compiler.Compile(shapeSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}

	return &ShapeValidator{schema: schema}, nil
}

// Validate returns a descriptive error when data does not match the expected shape.
func (v *ShapeValidator) Validate(data []byte) error {
	var doc any
	if err := json.Unmarshal(bytes.TrimPrefix(data, utf8BOM), &doc); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}

	if err := v.schema.Validate(doc); err != nil {
		return fmt.Errorf("document does not match schema: %w", err)
	}

	return nil
}
