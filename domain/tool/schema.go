package tool

import (
	"encoding/json"
	"errors"
)

// Schema wraps the JSON Schema declaring a tool's accepted arguments.
type Schema struct {
	raw json.RawMessage
}

// NewSchema creates a schema from raw JSON.
func NewSchema(raw json.RawMessage) Schema {
	return Schema{raw: raw}
}

// EmptySchema returns a schema that accepts any input.
func EmptySchema() Schema {
	return Schema{raw: json.RawMessage(`{"type": "object", "properties": {}, "required": []}`)}
}

// ObjectSchema returns a schema for an object with the given properties.
func ObjectSchema(properties map[string]json.RawMessage, required []string) Schema {
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	} else {
		schema["required"] = []string{}
	}
	raw, _ := json.Marshal(schema)
	return Schema{raw: raw}
}

// StringProp returns a string property declaration.
func StringProp(description string) json.RawMessage {
	return prop(map[string]any{"type": "string", "description": description})
}

// IntProp returns an integer property declaration with a default value.
func IntProp(description string, def int) json.RawMessage {
	return prop(map[string]any{"type": "integer", "description": description, "default": def})
}

// BoolProp returns a boolean property declaration with a default value.
func BoolProp(description string, def bool) json.RawMessage {
	return prop(map[string]any{"type": "boolean", "description": description, "default": def})
}

// EnumProp returns a string property restricted to the given values.
func EnumProp(description string, values []string, def string) json.RawMessage {
	p := map[string]any{"type": "string", "description": description, "enum": values}
	if def != "" {
		p["default"] = def
	}
	return prop(p)
}

// StringArrayProp returns a string-array property declaration.
func StringArrayProp(description string) json.RawMessage {
	return prop(map[string]any{
		"type":        "array",
		"description": description,
		"items":       map[string]any{"type": "string"},
	})
}

func prop(p map[string]any) json.RawMessage {
	raw, _ := json.Marshal(p)
	return raw
}

// Raw returns the underlying JSON schema.
func (s Schema) Raw() json.RawMessage {
	return s.raw
}

// IsEmpty returns true if the schema is empty or nil.
func (s Schema) IsEmpty() bool {
	return len(s.raw) == 0 || string(s.raw) == "{}" || string(s.raw) == "null"
}

// Validate checks that data is valid JSON for this schema.
func (s Schema) Validate(data json.RawMessage) error {
	if len(data) == 0 {
		return nil
	}
	if !json.Valid(data) {
		return errors.New("invalid JSON")
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (s Schema) MarshalJSON() ([]byte, error) {
	if s.raw == nil {
		return []byte("{}"), nil
	}
	return s.raw, nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Schema) UnmarshalJSON(data []byte) error {
	s.raw = data
	return nil
}
