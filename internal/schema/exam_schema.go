// Package schema validates authored exam documents against a published JSON
// Schema before they are accepted for storage.
package schema

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const examSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "https://innova-space-edu.github.io/exam-mira/exam.schema.json",
  "type": "object",
  "required": ["title", "items"],
  "properties": {
    "title": {"type": "string", "minLength": 3},
    "course": {"type": "string"},
    "objective": {"type": "string"},
    "items": {
      "type": "array",
      "minItems": 1,
      "items": {"$ref": "#/$defs/item"}
    }
  },
  "$defs": {
    "item": {
      "type": "object",
      "required": ["id", "type"],
      "properties": {
        "id": {"type": "string", "minLength": 1},
        "type": {"enum": ["numeric", "open_drawing", "multiple_choice"]},
        "prompt": {"type": "string"},
        "tolerance": {"type": "number", "minimum": 0},
        "answer": {
          "oneOf": [
            {"type": "number"},
            {"type": "array", "items": {"type": "number"}}
          ]
        },
        "rubric": {
          "type": "object",
          "properties": {
            "criteria": {"type": "array", "items": {"type": "string"}},
            "weights": {"type": "array", "items": {"type": "number"}}
          }
        },
        "options": {"type": "array", "items": {"type": "string"}},
        "answerIndex": {"type": "integer", "minimum": 0}
      },
      "allOf": [
        {
          "if": {"properties": {"type": {"const": "numeric"}}},
          "then": {"required": ["answer"]}
        },
        {
          "if": {"properties": {"type": {"const": "multiple_choice"}}},
          "then": {"required": ["options", "answerIndex"]}
        }
      ]
    }
  }
}`

// ExamValidator checks exam documents against the exam JSON Schema.
type ExamValidator struct {
	schema *jsonschema.Schema
}

// NewExamValidator compiles the embedded exam schema.
func NewExamValidator() (*ExamValidator, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("exam.schema.json", strings.NewReader(examSchema)); err != nil {
		return nil, fmt.Errorf("register exam schema: %w", err)
	}

	compiled, err := compiler.Compile("exam.schema.json")
	if err != nil {
		return nil, fmt.Errorf("compile exam schema: %w", err)
	}

	return &ExamValidator{schema: compiled}, nil
}

// Validate reports whether the document is a structurally valid exam.
func (v *ExamValidator) Validate(document []byte) error {
	var value interface{}
	if err := json.Unmarshal(document, &value); err != nil {
		return fmt.Errorf("exam document is not valid json: %w", err)
	}

	if err := v.schema.Validate(value); err != nil {
		return fmt.Errorf("exam document rejected: %w", err)
	}

	return nil
}
