// Package tools provides the side-tool system for the agent loop.
//
// Information Hiding:
// - Tool storage and lookup implementation hidden
// - Handler result serialization internalized
// - JSON-schema parameter shapes owned by each tool constructor
package tools

import (
	"context"
	"encoding/json"
	"fmt"
)

// Schema describes a tool to the model: its name, what it does, and a
// JSON-schema object for its parameters.
type Schema struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// String returns a short representation of the schema.
func (s Schema) String() string {
	return fmt.Sprintf("%s: %s", s.Name, s.Description)
}

// Handler executes a tool call. Arguments arrive as the raw JSON the model
// produced; the result is serialized with Serialize before being sent back.
type Handler func(ctx context.Context, args json.RawMessage) (any, error)

// Tool pairs a schema with its handler.
type Tool struct {
	Schema  Schema
	Handler Handler
}

// Serialize renders a handler result as the string payload returned to the
// model. Strings pass through unchanged; everything else is JSON-encoded.
func Serialize(v any) (string, error) {
	if v == nil {
		return "", nil
	}
	if s, ok := v.(string); ok {
		return s, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("serialize tool result: %w", err)
	}
	return string(raw), nil
}
