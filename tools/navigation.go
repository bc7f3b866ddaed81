package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/screenpilot/screenpilot/computer"
)

// NewNavigateTool returns a tool that loads a URL directly instead of
// clicking through the browser chrome.
func NewNavigateTool(nav computer.Navigator) Tool {
	return Tool{
		Schema: Schema{
			Name:        "navigate",
			Description: "Navigate the browser directly to a URL. Faster and more reliable than typing into the address bar.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"url": map[string]any{
						"type":        "string",
						"description": "Absolute URL to load, e.g. https://example.com",
					},
				},
				"required": []string{"url"},
			},
		},
		Handler: func(ctx context.Context, args json.RawMessage) (any, error) {
			var params struct {
				URL string `json:"url"`
			}
			if err := json.Unmarshal(args, &params); err != nil {
				return nil, fmt.Errorf("parse navigate arguments: %w", err)
			}
			parsed, err := url.Parse(params.URL)
			if err != nil || parsed.Scheme == "" || parsed.Host == "" {
				return nil, fmt.Errorf("invalid url %q", params.URL)
			}
			if err := nav.Navigate(ctx, params.URL); err != nil {
				return nil, err
			}
			return fmt.Sprintf("navigated to %s", params.URL), nil
		},
	}
}

// NewCurrentURLTool returns a tool that reports the browser's current URL,
// letting the model confirm where it landed without a screenshot.
func NewCurrentURLTool(nav computer.Navigator) Tool {
	return Tool{
		Schema: Schema{
			Name:        "current_url",
			Description: "Return the URL of the page currently shown in the browser.",
			Parameters: map[string]any{
				"type":       "object",
				"properties": map[string]any{},
			},
		},
		Handler: func(ctx context.Context, args json.RawMessage) (any, error) {
			return nav.CurrentURL(ctx)
		},
	}
}
