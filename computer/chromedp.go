package computer

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"

	"github.com/screenpilot/screenpilot/model"
)

// ChromeOptions configures a Chrome-driven browser screen.
type ChromeOptions struct {
	Headless    bool
	StartURL    string
	Width       int
	Height      int
	UserDataDir string
}

// ChromeComputer drives a Chromium browser over the DevTools protocol.
// Actions are dispatched as raw input events so they land regardless of
// what page content is focused.
type ChromeComputer struct {
	ctx         context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc

	width  int
	height int
}

// NewChromeComputer launches a browser tab sized to the requested viewport
// and navigates to the start URL when one is given. Close must be called to
// shut the browser down.
func NewChromeComputer(ctx context.Context, opts ChromeOptions) (*ChromeComputer, error) {
	if opts.Width <= 0 {
		opts.Width = 1280
	}
	if opts.Height <= 0 {
		opts.Height = 800
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.WindowSize(opts.Width, opts.Height),
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
	)
	if opts.UserDataDir != "" {
		allocOpts = append(allocOpts, chromedp.UserDataDir(opts.UserDataDir))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)

	c := &ChromeComputer{
		ctx:         tabCtx,
		cancelTab:   cancelTab,
		cancelAlloc: cancelAlloc,
		width:       opts.Width,
		height:      opts.Height,
	}

	actions := []chromedp.Action{chromedp.EmulateViewport(int64(opts.Width), int64(opts.Height))}
	if opts.StartURL != "" {
		actions = append(actions, chromedp.Navigate(opts.StartURL))
	}
	if err := chromedp.Run(tabCtx, actions...); err != nil {
		cancelTab()
		cancelAlloc()
		return nil, fmt.Errorf("launch chrome: %w", err)
	}
	return c, nil
}

// Close shuts down the tab and the browser process.
func (c *ChromeComputer) Close() error {
	c.cancelTab()
	c.cancelAlloc()
	return nil
}

// Environment reports that this driver controls a browser surface.
func (c *ChromeComputer) Environment() model.Environment {
	return model.EnvironmentBrowser
}

// Dimensions returns the emulated viewport size.
func (c *ChromeComputer) Dimensions(ctx context.Context) (int, int, error) {
	return c.width, c.height, nil
}

// Screenshot captures the viewport as base64-encoded PNG bytes.
func (c *ChromeComputer) Screenshot(ctx context.Context) (string, error) {
	var buf []byte
	err := c.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		buf, err = page.CaptureScreenshot().WithFormat(page.CaptureScreenshotFormatPng).Do(ctx)
		return err
	}))
	if err != nil {
		return "", fmt.Errorf("capture screenshot: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf), nil
}

// Click dispatches a press/release pair at the given point.
func (c *ChromeComputer) Click(ctx context.Context, x, y int, button string) error {
	return c.clickCount(ctx, x, y, button, 1)
}

// DoubleClick dispatches a left click with click count 2.
func (c *ChromeComputer) DoubleClick(ctx context.Context, x, y int) error {
	return c.clickCount(ctx, x, y, "left", 2)
}

func (c *ChromeComputer) clickCount(ctx context.Context, x, y int, button string, count int64) error {
	btn := mouseButton(button)
	fx, fy := float64(x), float64(y)
	return c.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		if err := input.DispatchMouseEvent(input.MousePressed, fx, fy).
			WithButton(btn).WithClickCount(count).Do(ctx); err != nil {
			return err
		}
		return input.DispatchMouseEvent(input.MouseReleased, fx, fy).
			WithButton(btn).WithClickCount(count).Do(ctx)
	}))
}

// Move dispatches a mouse move to the given point.
func (c *ChromeComputer) Move(ctx context.Context, x, y int) error {
	return c.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		return input.DispatchMouseEvent(input.MouseMoved, float64(x), float64(y)).Do(ctx)
	}))
}

// Scroll dispatches a wheel event at the reference point.
func (c *ChromeComputer) Scroll(ctx context.Context, x, y, scrollX, scrollY int) error {
	return c.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		return input.DispatchMouseEvent(input.MouseWheel, float64(x), float64(y)).
			WithDeltaX(float64(scrollX)).
			WithDeltaY(float64(scrollY)).
			Do(ctx)
	}))
}

// Type inserts text into the focused element without synthesizing per-key
// events, which keeps non-ASCII input intact.
func (c *ChromeComputer) Type(ctx context.Context, text string) error {
	return c.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		return input.InsertText(text).Do(ctx)
	}))
}

// Keypress presses a key or a modifier combination. All keys but the last
// are treated as modifiers held for the final keystroke.
func (c *ChromeComputer) Keypress(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}

	var mods input.Modifier
	for _, key := range keys[:len(keys)-1] {
		mod, ok := keyModifier(key)
		if !ok {
			return fmt.Errorf("key %q is not a modifier", key)
		}
		mods |= mod
	}
	final := chromeKey(keys[len(keys)-1])

	return c.run(ctx, chromedp.KeyEvent(final, chromedp.KeyModifiers(mods)))
}

// Drag presses at the first path point, moves through the rest, and releases
// at the final point.
func (c *ChromeComputer) Drag(ctx context.Context, path []model.Point) error {
	if len(path) < 2 {
		return fmt.Errorf("drag path needs at least 2 points, got %d", len(path))
	}
	return c.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		start := path[0]
		if err := input.DispatchMouseEvent(input.MousePressed, float64(start.X), float64(start.Y)).
			WithButton(input.Left).WithClickCount(1).Do(ctx); err != nil {
			return err
		}
		for _, p := range path[1:] {
			if err := input.DispatchMouseEvent(input.MouseMoved, float64(p.X), float64(p.Y)).
				WithButton(input.Left).Do(ctx); err != nil {
				return err
			}
		}
		end := path[len(path)-1]
		return input.DispatchMouseEvent(input.MouseReleased, float64(end.X), float64(end.Y)).
			WithButton(input.Left).WithClickCount(1).Do(ctx)
	}))
}

// Wait sleeps for the given duration, honoring context cancellation.
func (c *ChromeComputer) Wait(ctx context.Context, ms int) error {
	timer := time.NewTimer(time.Duration(ms) * time.Millisecond)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Navigate loads the given URL in the tab.
func (c *ChromeComputer) Navigate(ctx context.Context, url string) error {
	if err := c.run(ctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	return nil
}

// CurrentURL returns the tab's current location.
func (c *ChromeComputer) CurrentURL(ctx context.Context) (string, error) {
	var url string
	if err := c.run(ctx, chromedp.Location(&url)); err != nil {
		return "", fmt.Errorf("read location: %w", err)
	}
	return url, nil
}

// run executes actions on the tab context while respecting cancellation of
// the caller's context.
func (c *ChromeComputer) run(ctx context.Context, actions ...chromedp.Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	done := make(chan error, 1)
	go func() {
		done <- chromedp.Run(c.ctx, actions...)
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return err
	}
}

func mouseButton(button string) input.MouseButton {
	switch strings.ToLower(button) {
	case "right":
		return input.Right
	case "middle", "wheel":
		return input.Middle
	default:
		return input.Left
	}
}

func keyModifier(key string) (input.Modifier, bool) {
	switch strings.ToUpper(key) {
	case "CTRL", "CONTROL":
		return input.ModifierCtrl, true
	case "ALT", "OPTION":
		return input.ModifierAlt, true
	case "SHIFT":
		return input.ModifierShift, true
	case "CMD", "META", "WIN", "SUPER":
		return input.ModifierCommand, true
	}
	return 0, false
}

// chromeKeys maps action key names to DevTools key runes.
var chromeKeys = map[string]string{
	"ENTER":     kb.Enter,
	"RETURN":    kb.Enter,
	"ESC":       kb.Escape,
	"ESCAPE":    kb.Escape,
	"BACKSPACE": kb.Backspace,
	"DEL":       kb.Delete,
	"DELETE":    kb.Delete,
	"TAB":       kb.Tab,
	"SPACE":     " ",
	"SPACEBAR":  " ",
	"UP":        kb.ArrowUp,
	"DOWN":      kb.ArrowDown,
	"LEFT":      kb.ArrowLeft,
	"RIGHT":     kb.ArrowRight,
	"PAGEUP":    kb.PageUp,
	"PAGEDOWN":  kb.PageDown,
	"HOME":      kb.Home,
	"END":       kb.End,
}

func chromeKey(key string) string {
	if mapped, ok := chromeKeys[strings.ToUpper(key)]; ok {
		return mapped
	}
	return key
}

// Verify ChromeComputer implements both interfaces.
var (
	_ Computer  = (*ChromeComputer)(nil)
	_ Navigator = (*ChromeComputer)(nil)
)
