// Package computer provides the screen driver abstraction for the agent loop.
//
// Information Hiding:
// - Browser/OS automation details hidden behind the Computer interface
// - Coordinate translation and screenshot letterboxing hidden in Scaler
// - Driver-specific key/button mapping internalized per driver
package computer

import (
	"context"

	"github.com/screenpilot/screenpilot/model"
)

// Computer executes primitive screen actions and produces screenshots.
// All methods report failure via an explicit error, never a silent no-op.
type Computer interface {
	// Environment returns the kind of screen being driven.
	Environment() model.Environment

	// Dimensions returns the screen size in pixels.
	Dimensions(ctx context.Context) (width, height int, err error)

	// Screenshot captures the screen and returns base64-encoded PNG bytes.
	Screenshot(ctx context.Context) (string, error)

	Click(ctx context.Context, x, y int, button string) error
	DoubleClick(ctx context.Context, x, y int) error
	Move(ctx context.Context, x, y int) error
	Scroll(ctx context.Context, x, y, scrollX, scrollY int) error
	Type(ctx context.Context, text string) error
	Keypress(ctx context.Context, keys []string) error
	Drag(ctx context.Context, path []model.Point) error
	Wait(ctx context.Context, ms int) error
}

// Navigator is an optional interface for drivers that can load URLs
// directly. The navigation side tools use it when available.
type Navigator interface {
	Navigate(ctx context.Context, url string) error
	CurrentURL(ctx context.Context) (string, error)
}
