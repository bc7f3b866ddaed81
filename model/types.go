// Package model provides the vendor-neutral data model shared across packages.
//
// Types mirror the shape of the Responses API computer-use protocol without
// depending on any vendor SDK, so the agent loop, storage, and tests can all
// work against a single representation.
package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Environment identifies the kind of screen the model is controlling.
type Environment string

const (
	EnvironmentWindows Environment = "windows"
	EnvironmentMac     Environment = "mac"
	EnvironmentLinux   Environment = "linux"
	EnvironmentBrowser Environment = "browser"
)

// Response statuses reported by the model channel.
const (
	StatusCompleted  = "completed"
	StatusInProgress = "in_progress"
	StatusFailed     = "failed"
	StatusIncomplete = "incomplete"
)

// Response is the result of one model invocation. It is owned exclusively by
// the agent holding it and replaced wholesale on each turn, never mutated.
type Response struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Output []Item `json:"output"`
}

// Item types appearing in a Response's output.
const (
	ItemTypeMessage      = "message"
	ItemTypeReasoning    = "reasoning"
	ItemTypeComputerCall = "computer_call"
	ItemTypeFunctionCall = "function_call"
)

// Item is one output item of a model response. It is a tagged union over
// message, reasoning, computer_call, and function_call; only the fields for
// the given Type are populated.
type Item struct {
	Type string `json:"type"`

	// Message fields.
	Role    string    `json:"role,omitempty"`
	Content []Content `json:"content,omitempty"`

	// Reasoning fields.
	Summary []SummaryText `json:"summary,omitempty"`

	// Shared by computer_call and function_call.
	CallID string `json:"call_id,omitempty"`

	// Computer call fields.
	Action              *Action       `json:"action,omitempty"`
	PendingSafetyChecks []SafetyCheck `json:"pending_safety_checks,omitempty"`

	// Function call fields.
	Name      string          `json:"name,omitempty"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// Message roles appearing on message items.
const (
	RoleAssistant = "assistant"
	RoleUser      = "user"
)

// Content is one segment of a message item.
type Content struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// ContentTypeOutputText marks assistant-visible text segments.
const ContentTypeOutputText = "output_text"

// SummaryText is one segment of a reasoning item's summary.
type SummaryText struct {
	Text string `json:"text"`
}

// SafetyCheck is a model-flagged condition on a pending computer call that
// must be acknowledged before execution.
type SafetyCheck struct {
	ID      string `json:"id"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// ActionType identifies a primitive UI action requested by the model.
type ActionType string

const (
	ActionClick       ActionType = "click"
	ActionDoubleClick ActionType = "double_click"
	ActionDrag        ActionType = "drag"
	ActionKeypress    ActionType = "keypress"
	ActionMove        ActionType = "move"
	ActionScreenshot  ActionType = "screenshot"
	ActionScroll      ActionType = "scroll"
	ActionTypeText    ActionType = "type"
	ActionWait        ActionType = "wait"
)

// Mouse buttons accepted by click actions.
const (
	ButtonLeft   = "left"
	ButtonRight  = "right"
	ButtonMiddle = "middle"
	ButtonWheel  = "wheel"
)

// Point is a coordinate pair in the logical canvas.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Action describes one primitive UI action. Like Item, it is a tagged union:
// only the fields relevant to Type carry meaning.
type Action struct {
	Type ActionType `json:"type"`

	X      int    `json:"x,omitempty"`
	Y      int    `json:"y,omitempty"`
	Button string `json:"button,omitempty"`

	ScrollX int `json:"scroll_x,omitempty"`
	ScrollY int `json:"scroll_y,omitempty"`

	Text string   `json:"text,omitempty"`
	Keys []string `json:"keys,omitempty"`

	Path []Point `json:"path,omitempty"`

	Ms int `json:"ms,omitempty"`
}

// String renders a compact human-readable form, e.g. "click(312, 208, left)".
func (a Action) String() string {
	switch a.Type {
	case ActionClick:
		return fmt.Sprintf("click(%d, %d, %s)", a.X, a.Y, a.Button)
	case ActionDoubleClick:
		return fmt.Sprintf("double_click(%d, %d)", a.X, a.Y)
	case ActionMove:
		return fmt.Sprintf("move(%d, %d)", a.X, a.Y)
	case ActionScroll:
		return fmt.Sprintf("scroll(%d, %d, dx=%d, dy=%d)", a.X, a.Y, a.ScrollX, a.ScrollY)
	case ActionTypeText:
		return fmt.Sprintf("type(%q)", a.Text)
	case ActionKeypress:
		return fmt.Sprintf("keypress(%s)", strings.Join(a.Keys, "+"))
	case ActionDrag:
		points := make([]string, len(a.Path))
		for i, p := range a.Path {
			points[i] = fmt.Sprintf("(%d, %d)", p.X, p.Y)
		}
		return "drag[" + strings.Join(points, " -> ") + "]"
	case ActionWait:
		return fmt.Sprintf("wait(%dms)", a.Ms)
	default:
		return string(a.Type)
	}
}

// InputItem is an entry of the next request payload: a computer call output,
// a function call output, or a fresh user message.
type InputItem interface {
	inputItem()
}

// ComputerCallOutput reports the observable result of an executed computer
// call: the post-action screenshot plus the safety checks being acknowledged.
type ComputerCallOutput struct {
	CallID                   string        `json:"call_id"`
	Screenshot               string        `json:"screenshot"` // data URI, base64 PNG
	AcknowledgedSafetyChecks []SafetyCheck `json:"acknowledged_safety_checks,omitempty"`
}

// FunctionCallOutput reports the JSON-serialized result of a side tool call.
type FunctionCallOutput struct {
	CallID string `json:"call_id"`
	Output string `json:"output"`
}

// UserMessage is a new user turn appended to the request payload.
type UserMessage struct {
	Content string `json:"content"`
}

func (ComputerCallOutput) inputItem() {}
func (FunctionCallOutput) inputItem() {}
func (UserMessage) inputItem()        {}
