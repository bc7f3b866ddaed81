package agent

import (
	"context"
	"fmt"

	"github.com/screenpilot/screenpilot/computer"
	"github.com/screenpilot/screenpilot/model"
)

// Executor maps model-issued computer call actions onto driver primitives.
// The dispatch table is built once so unsupported actions are rejected by a
// single lookup rather than a reflection probe.
type Executor struct {
	driver   computer.Computer
	dispatch map[model.ActionType]func(ctx context.Context, a *model.Action) error
}

// NewExecutor builds an executor over the given driver.
func NewExecutor(driver computer.Computer) *Executor {
	e := &Executor{driver: driver}
	e.dispatch = map[model.ActionType]func(ctx context.Context, a *model.Action) error{
		model.ActionClick: func(ctx context.Context, a *model.Action) error {
			return driver.Click(ctx, a.X, a.Y, a.Button)
		},
		model.ActionDoubleClick: func(ctx context.Context, a *model.Action) error {
			return driver.DoubleClick(ctx, a.X, a.Y)
		},
		model.ActionMove: func(ctx context.Context, a *model.Action) error {
			return driver.Move(ctx, a.X, a.Y)
		},
		model.ActionScroll: func(ctx context.Context, a *model.Action) error {
			return driver.Scroll(ctx, a.X, a.Y, a.ScrollX, a.ScrollY)
		},
		model.ActionTypeText: func(ctx context.Context, a *model.Action) error {
			return driver.Type(ctx, a.Text)
		},
		model.ActionKeypress: func(ctx context.Context, a *model.Action) error {
			return driver.Keypress(ctx, a.Keys)
		},
		model.ActionDrag: func(ctx context.Context, a *model.Action) error {
			return driver.Drag(ctx, a.Path)
		},
		model.ActionWait: func(ctx context.Context, a *model.Action) error {
			ms := a.Ms
			if ms <= 0 {
				ms = 1000
			}
			return driver.Wait(ctx, ms)
		},
		// The screenshot action performs no driver operation; every action
		// is followed by a capture below, which satisfies it.
		model.ActionScreenshot: func(ctx context.Context, a *model.Action) error {
			return nil
		},
	}
	return e
}

// Execute runs one action and returns the post-action screenshot. The
// screenshot is captured after every action, screenshot requests included,
// so the model always observes the resulting state.
func (e *Executor) Execute(ctx context.Context, action *model.Action) (string, error) {
	if action == nil {
		return "", &UnsupportedActionError{ActionType: ""}
	}
	handler, ok := e.dispatch[action.Type]
	if !ok {
		return "", &UnsupportedActionError{ActionType: string(action.Type)}
	}
	if err := handler(ctx, action); err != nil {
		return "", fmt.Errorf("execute %s: %w", action.Type, err)
	}

	screenshot, err := e.driver.Screenshot(ctx)
	if err != nil {
		return "", fmt.Errorf("post-action screenshot: %w", err)
	}
	return screenshot, nil
}
