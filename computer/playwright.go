package computer

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/screenpilot/screenpilot/model"
)

// PlaywrightOptions configures a Playwright-driven browser screen.
type PlaywrightOptions struct {
	Headless    bool
	StartURL    string
	Width       int
	Height      int
	UserDataDir string
}

// PlaywrightComputer drives a Chromium browser through Playwright. It uses a
// persistent context so cookies and logins survive restarts.
type PlaywrightComputer struct {
	pw      *playwright.Playwright
	browser playwright.BrowserContext
	page    playwright.Page

	width  int
	height int
}

// NewPlaywrightComputer starts Playwright, launches a persistent Chromium
// context with a fixed viewport, and navigates to the start URL when one is
// given. Close must be called to shut everything down.
func NewPlaywrightComputer(opts PlaywrightOptions) (*PlaywrightComputer, error) {
	if opts.Width <= 0 {
		opts.Width = 1280
	}
	if opts.Height <= 0 {
		opts.Height = 800
	}
	if opts.UserDataDir == "" {
		cwd, _ := os.Getwd()
		opts.UserDataDir = filepath.Join(cwd, ".playwright_data")
	}

	if err := playwright.Install(); err != nil {
		return nil, fmt.Errorf("install playwright: %w", err)
	}
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("start playwright: %w", err)
	}

	browser, err := pw.Chromium.LaunchPersistentContext(opts.UserDataDir,
		playwright.BrowserTypeLaunchPersistentContextOptions{
			Headless: playwright.Bool(opts.Headless),
			Viewport: &playwright.Size{Width: opts.Width, Height: opts.Height},
			Args: []string{
				"--disable-blink-features=AutomationControlled",
			},
		})
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	var page playwright.Page
	if pages := browser.Pages(); len(pages) > 0 {
		page = pages[0]
	} else {
		page, err = browser.NewPage()
		if err != nil {
			_ = browser.Close()
			_ = pw.Stop()
			return nil, fmt.Errorf("open page: %w", err)
		}
	}
	page.SetDefaultTimeout(30000)

	c := &PlaywrightComputer{
		pw:      pw,
		browser: browser,
		page:    page,
		width:   opts.Width,
		height:  opts.Height,
	}

	if opts.StartURL != "" {
		if _, err := page.Goto(opts.StartURL, playwright.PageGotoOptions{
			WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		}); err != nil {
			_ = c.Close()
			return nil, fmt.Errorf("navigate to start url: %w", err)
		}
	}
	return c, nil
}

// Close shuts down the browser context and the Playwright driver.
func (c *PlaywrightComputer) Close() error {
	var firstErr error
	if c.browser != nil {
		if err := c.browser.Close(); err != nil {
			firstErr = err
		}
	}
	if c.pw != nil {
		if err := c.pw.Stop(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Environment reports that this driver controls a browser surface.
func (c *PlaywrightComputer) Environment() model.Environment {
	return model.EnvironmentBrowser
}

// Dimensions returns the fixed viewport size.
func (c *PlaywrightComputer) Dimensions(ctx context.Context) (int, int, error) {
	return c.width, c.height, nil
}

// Screenshot captures the viewport as base64-encoded PNG bytes.
func (c *PlaywrightComputer) Screenshot(ctx context.Context) (string, error) {
	buf, err := c.page.Screenshot(playwright.PageScreenshotOptions{
		Type: playwright.ScreenshotTypePng,
	})
	if err != nil {
		return "", fmt.Errorf("capture screenshot: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf), nil
}

// Click clicks at the given point with the given button.
func (c *PlaywrightComputer) Click(ctx context.Context, x, y int, button string) error {
	return c.page.Mouse().Click(float64(x), float64(y), playwright.MouseClickOptions{
		Button: playwrightButton(button),
	})
}

// DoubleClick double-clicks at the given point with the left button.
func (c *PlaywrightComputer) DoubleClick(ctx context.Context, x, y int) error {
	return c.page.Mouse().Dblclick(float64(x), float64(y))
}

// Move moves the pointer to the given point.
func (c *PlaywrightComputer) Move(ctx context.Context, x, y int) error {
	return c.page.Mouse().Move(float64(x), float64(y))
}

// Scroll moves the pointer to the reference point, then turns the wheel.
func (c *PlaywrightComputer) Scroll(ctx context.Context, x, y, scrollX, scrollY int) error {
	if err := c.page.Mouse().Move(float64(x), float64(y)); err != nil {
		return err
	}
	return c.page.Mouse().Wheel(float64(scrollX), float64(scrollY))
}

// Type types text into the focused element.
func (c *PlaywrightComputer) Type(ctx context.Context, text string) error {
	return c.page.Keyboard().Type(text)
}

// Keypress presses a key or a modifier combination. All keys but the last
// are held as modifiers while the final key is pressed.
func (c *PlaywrightComputer) Keypress(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}

	normalized := make([]string, len(keys))
	for i, key := range keys {
		normalized[i] = playwrightKey(key)
	}

	if len(normalized) == 1 {
		return c.page.Keyboard().Press(normalized[0])
	}

	modifiers := normalized[:len(normalized)-1]
	for _, mod := range modifiers {
		if err := c.page.Keyboard().Down(mod); err != nil {
			return err
		}
	}
	pressErr := c.page.Keyboard().Press(normalized[len(normalized)-1])
	for i := len(modifiers) - 1; i >= 0; i-- {
		if err := c.page.Keyboard().Up(modifiers[i]); err != nil && pressErr == nil {
			pressErr = err
		}
	}
	return pressErr
}

// Drag presses at the first path point, moves through the rest, and releases
// at the final point.
func (c *PlaywrightComputer) Drag(ctx context.Context, path []model.Point) error {
	if len(path) < 2 {
		return fmt.Errorf("drag path needs at least 2 points, got %d", len(path))
	}
	start := path[0]
	if err := c.page.Mouse().Move(float64(start.X), float64(start.Y)); err != nil {
		return err
	}
	if err := c.page.Mouse().Down(); err != nil {
		return err
	}
	for _, p := range path[1:] {
		if err := c.page.Mouse().Move(float64(p.X), float64(p.Y)); err != nil {
			_ = c.page.Mouse().Up()
			return err
		}
	}
	return c.page.Mouse().Up()
}

// Wait sleeps for the given duration, honoring context cancellation.
func (c *PlaywrightComputer) Wait(ctx context.Context, ms int) error {
	timer := time.NewTimer(time.Duration(ms) * time.Millisecond)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Navigate loads the given URL in the page.
func (c *PlaywrightComputer) Navigate(ctx context.Context, url string) error {
	if _, err := c.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	}); err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	return nil
}

// CurrentURL returns the page's current location.
func (c *PlaywrightComputer) CurrentURL(ctx context.Context) (string, error) {
	return c.page.URL(), nil
}

func playwrightButton(button string) *playwright.MouseButton {
	switch strings.ToLower(button) {
	case "right":
		return playwright.MouseButtonRight
	case "middle", "wheel":
		return playwright.MouseButtonMiddle
	default:
		return playwright.MouseButtonLeft
	}
}

// playwrightKeys maps action key names onto Playwright key names.
var playwrightKeys = map[string]string{
	"ENTER":     "Enter",
	"RETURN":    "Enter",
	"ESC":       "Escape",
	"ESCAPE":    "Escape",
	"DEL":       "Delete",
	"DELETE":    "Delete",
	"BACKSPACE": "Backspace",
	"SPACE":     " ",
	"SPACEBAR":  " ",
	"UP":        "ArrowUp",
	"DOWN":      "ArrowDown",
	"LEFT":      "ArrowLeft",
	"RIGHT":     "ArrowRight",
	"TAB":       "Tab",
	"CTRL":      "Control",
	"CONTROL":   "Control",
	"CMD":       "Meta",
	"META":      "Meta",
	"ALT":       "Alt",
	"OPTION":    "Alt",
	"SHIFT":     "Shift",
	"PAGEUP":    "PageUp",
	"PAGEDOWN":  "PageDown",
	"HOME":      "Home",
	"END":       "End",
}

func playwrightKey(key string) string {
	if mapped, ok := playwrightKeys[strings.ToUpper(key)]; ok {
		return mapped
	}
	if len(key) == 1 {
		return key
	}
	lower := strings.ToLower(key)
	return strings.ToUpper(lower[:1]) + lower[1:]
}

// Verify PlaywrightComputer implements both interfaces.
var (
	_ Computer  = (*PlaywrightComputer)(nil)
	_ Navigator = (*PlaywrightComputer)(nil)
)
