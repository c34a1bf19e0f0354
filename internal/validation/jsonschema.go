// Package validation checks inbound API payloads against embedded JSON
// Schemas before they reach the store or the orchestrator.
package validation

import (
	"encoding/json"
	"fmt"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/incintel/incintel/pkg/schema"
)

const incidentCreateSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "https://incintel.dev/schemas/incident-create.json",
  "type": "object",
  "required": ["title"],
  "properties": {
    "title": {
      "type": "string",
      "minLength": 1,
      "maxLength": 200
    },
    "description": {
      "type": "string",
      "maxLength": 4000
    },
    "severity": {
      "type": "string",
      "enum": ["low", "medium", "high", "critical"]
    },
    "status": {
      "type": "string",
      "enum": ["open", "investigating", "resolved", "closed"]
    },
    "location": {
      "type": "string",
      "maxLength": 200
    }
  },
  "additionalProperties": false
}`

const incidentUpdateSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "https://incintel.dev/schemas/incident-update.json",
  "type": "object",
  "minProperties": 1,
  "properties": {
    "title": {
      "type": "string",
      "minLength": 1,
      "maxLength": 200
    },
    "description": {
      "type": "string",
      "maxLength": 4000
    },
    "severity": {
      "type": "string",
      "enum": ["low", "medium", "high", "critical"]
    },
    "status": {
      "type": "string",
      "enum": ["open", "investigating", "resolved", "closed"]
    },
    "location": {
      "type": "string",
      "maxLength": 200
    }
  },
  "additionalProperties": false
}`

const chatRequestSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "https://incintel.dev/schemas/chat-request.json",
  "type": "object",
  "required": ["message"],
  "properties": {
    "message": {
      "type": "string",
      "minLength": 1,
      "maxLength": 2000
    },
    "history": {
      "type": "array",
      "maxItems": 50,
      "items": { "$ref": "#/$defs/chat_message" }
    }
  },
  "additionalProperties": false,
  "$defs": {
    "chat_message": {
      "type": "object",
      "required": ["sender", "message"],
      "properties": {
        "sender": {
          "type": "string",
          "enum": ["user", "ai"]
        },
        "message": {
          "type": "string",
          "maxLength": 4000
        }
      },
      "additionalProperties": false
    }
  }
}`

// PayloadValidator validates API payloads against pre-compiled JSON Schemas
// (Draft 2020-12). Safe for concurrent use.
type PayloadValidator struct {
	incidentCreate *jsonschema.Schema
	incidentUpdate *jsonschema.Schema
	chatRequest    *jsonschema.Schema
}

// NewPayloadValidator compiles the embedded schemas.
func NewPayloadValidator() (*PayloadValidator, error) {
	v := &PayloadValidator{}
	for _, s := range []struct {
		url  string
		raw  string
		dest **jsonschema.Schema
	}{
		{"https://incintel.dev/schemas/incident-create.json", incidentCreateSchemaJSON, &v.incidentCreate},
		{"https://incintel.dev/schemas/incident-update.json", incidentUpdateSchemaJSON, &v.incidentUpdate},
		{"https://incintel.dev/schemas/chat-request.json", chatRequestSchemaJSON, &v.chatRequest},
	} {
		c := jsonschema.NewCompiler()
		c.AssertFormat()

		doc, err := jsonschema.UnmarshalJSON(strings.NewReader(s.raw))
		if err != nil {
			return nil, fmt.Errorf("unmarshal schema %s: %w", s.url, err)
		}
		if err := c.AddResource(s.url, doc); err != nil {
			return nil, fmt.Errorf("add schema resource %s: %w", s.url, err)
		}
		compiled, err := c.Compile(s.url)
		if err != nil {
			return nil, fmt.Errorf("compile schema %s: %w", s.url, err)
		}
		*s.dest = compiled
	}
	return v, nil
}

// ValidateIncidentCreate checks a raw incident creation payload.
func (v *PayloadValidator) ValidateIncidentCreate(raw []byte) error {
	return v.validate(v.incidentCreate, raw)
}

// ValidateIncidentUpdate checks a raw incident update payload.
func (v *PayloadValidator) ValidateIncidentUpdate(raw []byte) error {
	return v.validate(v.incidentUpdate, raw)
}

// ValidateChatRequest checks a raw chat submission payload.
func (v *PayloadValidator) ValidateChatRequest(raw []byte) error {
	return v.validate(v.chatRequest, raw)
}

func (v *PayloadValidator) validate(compiled *jsonschema.Schema, raw []byte) error {
	if len(raw) == 0 {
		return schema.NewError(schema.ErrCodeValidation, "empty request body")
	}
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(string(raw)))
	if err != nil {
		return schema.NewError(schema.ErrCodeValidation, "request body is not valid JSON").WithCause(err)
	}
	if err := compiled.Validate(doc); err != nil {
		return toIntelError(err)
	}
	return nil
}

// toIntelError converts a jsonschema.ValidationError into an IntelError with
// clear, actionable messages.
func toIntelError(err error) *schema.IntelError {
	verr, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return schema.NewError(schema.ErrCodeValidation, err.Error())
	}

	violations := collectViolations(verr)
	if len(violations) == 0 {
		return schema.NewError(schema.ErrCodeValidation, verr.Error())
	}

	if len(violations) == 1 {
		return schema.NewError(schema.ErrCodeValidation, violations[0]).
			WithDetails(map[string]any{"violations": violations})
	}

	msg := fmt.Sprintf("validation failed with %d errors", len(violations))
	return schema.NewError(schema.ErrCodeValidation, msg).
		WithDetails(map[string]any{"violations": violations})
}

// collectViolations walks a ValidationError tree and collects leaf error
// messages with their instance locations.
func collectViolations(verr *jsonschema.ValidationError) []string {
	if len(verr.Causes) == 0 {
		loc := "/"
		if len(verr.InstanceLocation) > 0 {
			loc = "/" + strings.Join(verr.InstanceLocation, "/")
		}
		return []string{fmt.Sprintf("%s: %s", loc, verr.Error())}
	}

	var violations []string
	for _, cause := range verr.Causes {
		violations = append(violations, collectViolations(cause)...)
	}
	return violations
}

// DecodeStrict unmarshals raw JSON into dest, rejecting unknown fields.
func DecodeStrict(raw []byte, dest any) error {
	dec := json.NewDecoder(strings.NewReader(string(raw)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dest); err != nil {
		return schema.NewError(schema.ErrCodeValidation, "malformed request body").WithCause(err)
	}
	return nil
}
