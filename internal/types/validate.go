package types

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// requestSchemaTmpl is the JSON Schema for DocumentRequest payloads.
// Chapter bounds are filled in from Limits.
const requestSchemaTmpl = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["topic", "complexity", "chapters"],
  "properties": {
    "topic": {"type": "string", "minLength": 1, "pattern": "\\S"},
    "complexity": {"type": "string", "enum": ["beginner", "intermediate", "advanced"]},
    "chapters": {"type": "integer", "minimum": %d, "maximum": %d}
  }
}`

// RequestSchema returns the JSON Schema document for the given limits.
func RequestSchema(l Limits) string {
	return fmt.Sprintf(requestSchemaTmpl, l.MinChapters, l.MaxChapters)
}

func compileRequestSchema(l Limits) (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("request.json", strings.NewReader(RequestSchema(l))); err != nil {
		return nil, fmt.Errorf("failed to load request schema: %w", err)
	}
	schema, err := compiler.Compile("request.json")
	if err != nil {
		return nil, fmt.Errorf("failed to compile request schema: %w", err)
	}
	return schema, nil
}

// ValidateRequestJSON validates a raw JSON payload and decodes it into a
// DocumentRequest with a trimmed topic. Returned errors are user-facing.
func ValidateRequestJSON(raw []byte, l Limits) (DocumentRequest, error) {
	var req DocumentRequest

	schema, err := compileRequestSchema(l)
	if err != nil {
		return req, err
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return req, fmt.Errorf("invalid request body: %w", err)
	}

	if err := schema.Validate(doc); err != nil {
		var verr *jsonschema.ValidationError
		if errors.As(err, &verr) {
			return req, describeValidationError(verr, l)
		}
		return req, err
	}

	if err := json.Unmarshal(raw, &req); err != nil {
		return req, fmt.Errorf("invalid request body: %w", err)
	}
	req.Topic = strings.TrimSpace(req.Topic)
	return req, nil
}

// describeValidationError maps the deepest schema failure onto the messages
// the HTTP API has always returned.
func describeValidationError(verr *jsonschema.ValidationError, l Limits) error {
	leaf := verr
	for len(leaf.Causes) > 0 {
		leaf = leaf.Causes[0]
	}

	switch leaf.InstanceLocation {
	case "/complexity":
		return fmt.Errorf("invalid complexity level. Must be one of: %s", complexityList())
	case "/chapters":
		return fmt.Errorf("invalid chapter count. Must be between %d and %d", l.MinChapters, l.MaxChapters)
	case "/topic":
		return errors.New("topic must be a non-empty string")
	case "":
		if strings.Contains(leaf.Message, "missing properties") {
			return errors.New("missing required fields: topic, complexity, and chapters are required")
		}
		return fmt.Errorf("invalid request body: %s", leaf.Message)
	default:
		return fmt.Errorf("invalid field %s: %s", leaf.InstanceLocation, leaf.Message)
	}
}
