// Package validation checks curated evaluation sets before they reach the
// classification engine: structurally with a JSON schema, and semantically
// against the ACMG/AMP criterion catalog.
package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/vci-pathogenicity-calculator/internal/domain"
)

var (
	// ErrMalformedDocument is returned when the payload is not JSON at all.
	ErrMalformedDocument = errors.New("evaluation document is not valid JSON")
	// ErrSchemaViolation is returned when the payload does not have the evaluation-set shape.
	ErrSchemaViolation = errors.New("evaluation document does not match schema")
)

const schemaURL = "schema://evaluation-set.json"

// evaluationSetSchema accepts a bare array of evaluations or an
// {"evaluations": [...], "modification": {...}} envelope.
const evaluationSetSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$defs": {
    "evaluation": {
      "type": "object",
      "required": ["criteria", "criteriaStatus"],
      "properties": {
        "criteria": {"type": "string"},
        "criteriaStatus": {"type": "string"},
        "criteriaModifier": {"type": ["string", "null"]}
      }
    },
    "evaluations": {
      "type": "array",
      "items": {"$ref": "#/$defs/evaluation"}
    },
    "modification": {
      "type": ["object", "null"],
      "properties": {
        "alteredClassification": {"type": "string"},
        "reason": {"type": "string"}
      }
    }
  },
  "oneOf": [
    {"$ref": "#/$defs/evaluations"},
    {
      "type": "object",
      "required": ["evaluations"],
      "properties": {
        "evaluations": {"$ref": "#/$defs/evaluations"},
        "modification": {"$ref": "#/$defs/modification"}
      }
    }
  ]
}`

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

func evaluationSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(strings.NewReader(evaluationSetSchema))
		if err != nil {
			compileErr = fmt.Errorf("parse schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(schemaURL, doc); err != nil {
			compileErr = fmt.Errorf("add resource: %w", err)
			return
		}
		compiled, compileErr = c.Compile(schemaURL)
	})
	return compiled, compileErr
}

// ParseEvaluations validates raw against the evaluation-set schema and
// decodes the evaluations. Field values are not checked here; see Audit.
func ParseEvaluations(raw []byte) ([]domain.Evaluation, error) {
	req, err := ParseRequest(raw)
	if err != nil {
		return nil, err
	}
	return req.Evaluations, nil
}

// ParseRequest validates raw against the evaluation-set schema and decodes
// it together with any modification. A bare array has no modification.
func ParseRequest(raw []byte) (domain.ClassificationRequest, error) {
	var req domain.ClassificationRequest
	parsed, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return req, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}

	schema, err := evaluationSchema()
	if err != nil {
		return req, fmt.Errorf("compile evaluation schema: %w", err)
	}
	if err := schema.Validate(parsed); err != nil {
		return req, fmt.Errorf("%w: %v", ErrSchemaViolation, err)
	}

	if _, isArray := parsed.([]any); isArray {
		if err := json.Unmarshal(raw, &req.Evaluations); err != nil {
			return req, fmt.Errorf("decode evaluations: %w", err)
		}
		return req, nil
	}

	if err := json.Unmarshal(raw, &req); err != nil {
		return req, fmt.Errorf("decode evaluations: %w", err)
	}
	return req, nil
}
