// Package llm provides the model channel abstraction for the agent loop.
//
// The channel hides the vendor SDK behind a single request/response call so
// the loop itself stays wire-format agnostic. Rate limiting is surfaced as a
// distinguishable error kind carrying a suggested retry delay.
package llm

import (
	"context"

	"github.com/screenpilot/screenpilot/model"
)

// Request describes one model invocation.
type Request struct {
	Model string

	// Input is the ordered payload for this turn: computer call outputs,
	// function call outputs, and/or a fresh user message.
	Input []model.InputItem

	// PreviousResponseID chains this request to the prior response's
	// conversational context. Empty on the first turn of a task.
	PreviousResponseID string

	Tools []ToolSpec

	// ReasoningSummary requests a reasoning summary ("concise", "detailed").
	// Empty disables summaries.
	ReasoningSummary string

	// Truncation controls context truncation; "auto" lets the server drop
	// middle turns when the context window overflows.
	Truncation string
}

// ToolSpec declares one tool offered to the model: either the computer-use
// tool or a caller-registered function tool. Exactly one field is set.
type ToolSpec struct {
	Computer *ComputerToolSpec
	Function *FunctionToolSpec
}

// ComputerToolSpec advertises the computer-use tool with the logical canvas
// dimensions the model should reason in.
type ComputerToolSpec struct {
	DisplayWidth  int
	DisplayHeight int
	Environment   model.Environment
}

// FunctionToolSpec advertises a named side tool with a JSON-schema parameter
// description.
type FunctionToolSpec struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// Channel is the interface for model providers.
type Channel interface {
	// CreateResponse sends one request and returns the complete response.
	// Rate limiting is reported as *RateLimitError; all other failures
	// propagate as-is.
	CreateResponse(ctx context.Context, req Request) (*model.Response, error)
}
