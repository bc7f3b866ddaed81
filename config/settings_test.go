package config

import "testing"

func TestNewRequiresAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	if _, err := New(); err == nil {
		t.Error("expected error when OPENAI_API_KEY is unset")
	}
}

func TestNewDefaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")

	settings, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if settings.OpenAI.Model != "computer-use-preview" {
		t.Errorf("model = %q, want computer-use-preview", settings.OpenAI.Model)
	}
	if settings.Screen.Driver != DriverChrome {
		t.Errorf("driver = %q, want %q", settings.Screen.Driver, DriverChrome)
	}
	if settings.Screen.Width != 1280 || settings.Screen.Height != 800 {
		t.Errorf("canvas = %dx%d, want 1280x800", settings.Screen.Width, settings.Screen.Height)
	}
	if settings.Agent.MaxRetries != 10 {
		t.Errorf("max retries = %d, want 10", settings.Agent.MaxRetries)
	}
	if settings.Agent.Autoplay {
		t.Error("autoplay should default to false")
	}
}

func TestNewOverrides(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("SCREEN_DRIVER", "playwright")
	t.Setenv("SCREEN_HEADLESS", "true")
	t.Setenv("SCREEN_WIDTH", "1920")
	t.Setenv("AGENT_AUTOPLAY", "1")

	settings, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if settings.Screen.Driver != DriverPlaywright {
		t.Errorf("driver = %q, want playwright", settings.Screen.Driver)
	}
	if !settings.Screen.Headless {
		t.Error("headless should be true")
	}
	if settings.Screen.Width != 1920 {
		t.Errorf("width = %d, want 1920", settings.Screen.Width)
	}
	if !settings.Agent.Autoplay {
		t.Error("autoplay should be true")
	}
}

func TestNewRejectsBadValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "bad driver", key: "SCREEN_DRIVER", value: "selenium"},
		{name: "bad width", key: "SCREEN_WIDTH", value: "wide"},
		{name: "bad headless", key: "SCREEN_HEADLESS", value: "kinda"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("OPENAI_API_KEY", "sk-test")
			t.Setenv(tt.key, tt.value)

			if _, err := New(); err == nil {
				t.Errorf("expected error for %s=%q", tt.key, tt.value)
			}
		})
	}
}
