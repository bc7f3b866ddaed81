package agent

import "fmt"

// UnknownToolError reports a function call naming a tool that was never
// registered. This is a protocol violation and aborts the turn.
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("unknown tool %q", e.Name)
}

// UnsupportedItemError reports a response output item of a type the loop
// does not understand. Protocol drift must not be silently ignored.
type UnsupportedItemError struct {
	ItemType string
}

func (e *UnsupportedItemError) Error() string {
	return fmt.Sprintf("unsupported response output item type %q", e.ItemType)
}

// UnsupportedActionError reports a computer call action the executor has no
// dispatch entry for.
type UnsupportedActionError struct {
	ActionType string
}

func (e *UnsupportedActionError) Error() string {
	return fmt.Sprintf("unsupported action type %q", e.ActionType)
}

// ProtocolViolationError reports a response whose item sequence breaks the
// loop contract, such as an assistant message following an unresolved
// computer call.
type ProtocolViolationError struct {
	Reason string
}

func (e *ProtocolViolationError) Error() string {
	return fmt.Sprintf("protocol violation: %s", e.Reason)
}

// MaxRetriesError reports that the bounded rate-limit retry budget for one
// turn was exhausted without a successful submission.
type MaxRetriesError struct {
	Attempts int
	LastErr  error
}

func (e *MaxRetriesError) Error() string {
	return fmt.Sprintf("max retries exceeded after %d attempts: %v", e.Attempts, e.LastErr)
}

func (e *MaxRetriesError) Unwrap() error {
	return e.LastErr
}
