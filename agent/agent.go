// Package agent implements the computer-use action-response loop.
//
// Information Hiding:
// - Current-response state and its locking hidden behind accessors
// - Rate-limit retry policy internalized
// - Output-item draining and payload assembly hidden from callers
package agent

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/screenpilot/screenpilot/computer"
	"github.com/screenpilot/screenpilot/internal/datauri"
	"github.com/screenpilot/screenpilot/llm"
	"github.com/screenpilot/screenpilot/model"
	"github.com/screenpilot/screenpilot/tools"
)

// DefaultMaxAttempts bounds the rate-limit retry loop for one turn.
const DefaultMaxAttempts = 10

// Agent drives one task against one screen. It owns the latest model
// response and resubmits executed call outputs until the model produces a
// plain message with no pending calls.
//
// A single Agent must not have two ContinueTask calls in flight at once;
// the internal mutex serializes turns and accessor reads.
type Agent struct {
	channel   llm.Channel
	modelName string
	driver    computer.Computer
	executor  *Executor
	registry  *tools.Registry
	logger    *zap.Logger

	maxAttempts int
	sleep       func(ctx context.Context, d time.Duration) error

	mu       sync.Mutex
	response *model.Response
}

// New creates an agent over the given channel, model, and screen driver.
func New(channel llm.Channel, modelName string, driver computer.Computer) *Agent {
	return &Agent{
		channel:     channel,
		modelName:   modelName,
		driver:      driver,
		executor:    NewExecutor(driver),
		registry:    tools.NewRegistry(),
		logger:      zap.NewNop(),
		maxAttempts: DefaultMaxAttempts,
		sleep:       sleepContext,
	}
}

// WithLogger sets the logger used for retry and turn observability.
func (a *Agent) WithLogger(logger *zap.Logger) *Agent {
	a.logger = logger
	return a
}

// WithRegistry replaces the side-tool registry.
func (a *Agent) WithRegistry(registry *tools.Registry) *Agent {
	a.registry = registry
	return a
}

// WithMaxAttempts overrides the per-turn rate-limit retry budget.
func (a *Agent) WithMaxAttempts(n int) *Agent {
	if n > 0 {
		a.maxAttempts = n
	}
	return a
}

// RegisterTool adds a side tool the model can call alongside the computer
// tool.
func (a *Agent) RegisterTool(tool tools.Tool) {
	a.registry.Register(tool)
}

// StartTask resets the agent to its initial state, dropping any held
// response and continuation token.
func (a *Agent) StartTask() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.response = nil
}

// ContinueTask executes one turn: it drains the prior response's pending
// calls in order, appends the optional user message, and submits the batch
// to the model chained on the prior response id.
//
// Rate limiting is retried with the server-suggested delay up to the
// configured attempt budget; all other failures abort the turn immediately.
func (a *Agent) ContinueTask(ctx context.Context, userMessage string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	previousResponseID := ""
	var inputs []model.InputItem

	if prev := a.response; prev != nil {
		previousResponseID = prev.ID
		drained, err := a.drain(ctx, prev)
		if err != nil {
			return err
		}
		inputs = drained
	}

	if userMessage != "" {
		inputs = append(inputs, model.UserMessage{Content: userMessage})
	}

	toolSpecs, err := a.toolSpecs(ctx)
	if err != nil {
		return err
	}

	// The held response is cleared before submission so a failed turn is
	// not retried against stale pending calls.
	a.response = nil

	req := llm.Request{
		Model:              a.modelName,
		Input:              inputs,
		PreviousResponseID: previousResponseID,
		Tools:              toolSpecs,
		ReasoningSummary:   "concise",
		Truncation:         "auto",
	}

	var lastErr error
	for attempt := 1; attempt <= a.maxAttempts; attempt++ {
		resp, err := a.channel.CreateResponse(ctx, req)
		if err == nil {
			if resp.Status != model.StatusCompleted {
				return &ProtocolViolationError{
					Reason: "response status is " + resp.Status,
				}
			}
			a.response = resp
			return nil
		}

		rle, ok := llm.AsRateLimit(err)
		if !ok {
			return err
		}
		lastErr = err
		a.logger.Info("rate limited, backing off",
			zap.Duration("wait", rle.RetryAfter),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", a.maxAttempts))
		if err := a.sleep(ctx, rle.RetryAfter); err != nil {
			return err
		}
	}

	a.logger.Error("max retries exceeded", zap.Int("attempts", a.maxAttempts))
	return &MaxRetriesError{Attempts: a.maxAttempts, LastErr: lastErr}
}

// drain resolves every pending call in the prior response, in order, into
// the next request's input items.
func (a *Agent) drain(ctx context.Context, prev *model.Response) ([]model.InputItem, error) {
	var inputs []model.InputItem
	sawCall := false

	for _, item := range prev.Output {
		switch item.Type {
		case model.ItemTypeComputerCall:
			sawCall = true
			screenshot, err := a.executor.Execute(ctx, item.Action)
			if err != nil {
				return nil, err
			}
			acknowledged := make([]model.SafetyCheck, len(item.PendingSafetyChecks))
			copy(acknowledged, item.PendingSafetyChecks)
			inputs = append(inputs, model.ComputerCallOutput{
				CallID:                   item.CallID,
				Screenshot:               datauri.PNG(screenshot),
				AcknowledgedSafetyChecks: acknowledged,
			})

		case model.ItemTypeFunctionCall:
			sawCall = true
			tool, ok := a.registry.Resolve(item.Name)
			if !ok {
				return nil, &UnknownToolError{Name: item.Name}
			}
			result, err := tool.Handler(ctx, item.Arguments)
			if err != nil {
				return nil, err
			}
			serialized, err := tools.Serialize(result)
			if err != nil {
				return nil, err
			}
			inputs = append(inputs, model.FunctionCallOutput{
				CallID: item.CallID,
				Output: serialized,
			})

		case model.ItemTypeReasoning:
			// Informational only.

		case model.ItemTypeMessage:
			if sawCall {
				return nil, &ProtocolViolationError{
					Reason: "assistant message follows an unresolved call in the same response",
				}
			}

		default:
			return nil, &UnsupportedItemError{ItemType: item.Type}
		}
	}

	return inputs, nil
}

// toolSpecs advertises the computer tool plus all registered side tools, in
// registration order.
func (a *Agent) toolSpecs(ctx context.Context) ([]llm.ToolSpec, error) {
	width, height, err := a.driver.Dimensions(ctx)
	if err != nil {
		return nil, err
	}

	specs := []llm.ToolSpec{{
		Computer: &llm.ComputerToolSpec{
			DisplayWidth:  width,
			DisplayHeight: height,
			Environment:   a.driver.Environment(),
		},
	}}
	for _, schema := range a.registry.Schemas() {
		specs = append(specs, llm.ToolSpec{
			Function: &llm.FunctionToolSpec{
				Name:        schema.Name,
				Description: schema.Description,
				Parameters:  schema.Parameters,
			},
		})
	}
	return specs, nil
}

// Response returns the current model response, nil before the first turn.
func (a *Agent) Response() *model.Response {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.response
}

// RequiresUserInput reports whether the loop is waiting on the human: no
// response yet, an empty response, or a response ending in a plain
// assistant message.
func (a *Agent) RequiresUserInput() bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.response == nil || len(a.response.Output) == 0 {
		return true
	}
	last := a.response.Output[len(a.response.Output)-1]
	return last.Type == model.ItemTypeMessage && last.Role == model.RoleAssistant
}

// RequiresConsent reports whether the current response contains computer
// calls the caller may want to gate on human approval.
func (a *Agent) RequiresConsent() bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.response == nil {
		return false
	}
	for _, item := range a.response.Output {
		if item.Type == model.ItemTypeComputerCall {
			return true
		}
	}
	return false
}

// HasPendingCalls reports whether the current response still carries
// unresolved computer or function calls.
func (a *Agent) HasPendingCalls() bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.response == nil {
		return false
	}
	for _, item := range a.response.Output {
		if item.Type == model.ItemTypeComputerCall || item.Type == model.ItemTypeFunctionCall {
			return true
		}
	}
	return false
}

// PendingSafetyChecks flattens the safety checks across all computer calls
// in the current response.
func (a *Agent) PendingSafetyChecks() []model.SafetyCheck {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.response == nil {
		return nil
	}
	var checks []model.SafetyCheck
	for _, item := range a.response.Output {
		if item.Type == model.ItemTypeComputerCall {
			checks = append(checks, item.PendingSafetyChecks...)
		}
	}
	return checks
}

// ReasoningSummary concatenates all reasoning summary text in the current
// response, in order.
func (a *Agent) ReasoningSummary() string {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.response == nil {
		return ""
	}
	var sb strings.Builder
	for _, item := range a.response.Output {
		if item.Type != model.ItemTypeReasoning {
			continue
		}
		for _, summary := range item.Summary {
			sb.WriteString(summary.Text)
		}
	}
	return sb.String()
}

// Messages returns the assistant message text segments in the current
// response, in order.
func (a *Agent) Messages() []string {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.response == nil {
		return nil
	}
	var messages []string
	for _, item := range a.response.Output {
		if item.Type != model.ItemTypeMessage {
			continue
		}
		for _, content := range item.Content {
			if content.Type == model.ContentTypeOutputText {
				messages = append(messages, content.Text)
			}
		}
	}
	return messages
}

// Actions returns the computer call actions in the current response, in
// order.
func (a *Agent) Actions() []model.Action {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.response == nil {
		return nil
	}
	var actions []model.Action
	for _, item := range a.response.Output {
		if item.Type == model.ItemTypeComputerCall && item.Action != nil {
			actions = append(actions, *item.Action)
		}
	}
	return actions
}

// sleepContext sleeps for d unless the context is cancelled first.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
