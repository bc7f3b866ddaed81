// Package config provides application settings loaded from environment variables.
//
// Settings are created via New() which handles:
// - Environment variable parsing with validation
// - Default value application
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Supported screen driver kinds.
const (
	DriverChrome     = "chrome"
	DriverPlaywright = "playwright"
)

// Settings holds all application configuration.
type Settings struct {
	OpenAI  OpenAIConfig
	Screen  ScreenConfig
	Agent   AgentConfig
	Storage StorageConfig
}

// OpenAIConfig holds the model channel configuration.
type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// ScreenConfig holds driver and canvas configuration.
type ScreenConfig struct {
	Driver   string
	StartURL string
	Headless bool
	Width    int
	Height   int
}

// AgentConfig holds loop execution configuration.
type AgentConfig struct {
	MaxRetries int
	Autoplay   bool
}

// StorageConfig holds session trace persistence configuration.
type StorageConfig struct {
	DatabasePath string
}

// New loads settings from environment variables, applying defaults for
// everything but the API key.
func New() (Settings, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return Settings{}, fmt.Errorf("OPENAI_API_KEY environment variable not set")
	}

	model := os.Getenv("OPENAI_MODEL")
	if model == "" {
		model = "computer-use-preview"
	}

	driver, err := getEnvDriver("SCREEN_DRIVER", DriverChrome)
	if err != nil {
		return Settings{}, err
	}

	startURL := os.Getenv("SCREEN_START_URL")
	if startURL == "" {
		startURL = "https://www.bing.com/"
	}

	headless, err := getEnvBool("SCREEN_HEADLESS", false)
	if err != nil {
		return Settings{}, err
	}
	width, err := getEnvInt("SCREEN_WIDTH", 1280)
	if err != nil {
		return Settings{}, err
	}
	height, err := getEnvInt("SCREEN_HEIGHT", 800)
	if err != nil {
		return Settings{}, err
	}

	maxRetries, err := getEnvInt("AGENT_MAX_RETRIES", 10)
	if err != nil {
		return Settings{}, err
	}
	autoplay, err := getEnvBool("AGENT_AUTOPLAY", false)
	if err != nil {
		return Settings{}, err
	}

	return Settings{
		OpenAI: OpenAIConfig{
			APIKey:  apiKey,
			Model:   model,
			BaseURL: os.Getenv("OPENAI_BASE_URL"),
		},
		Screen: ScreenConfig{
			Driver:   driver,
			StartURL: startURL,
			Headless: headless,
			Width:    width,
			Height:   height,
		},
		Agent: AgentConfig{
			MaxRetries: maxRetries,
			Autoplay:   autoplay,
		},
		Storage: StorageFromEnv(),
	}, nil
}

// StorageFromEnv loads only the storage configuration. Commands that just
// read the session store should not require an API key.
func StorageFromEnv() StorageConfig {
	dbPath := os.Getenv("SESSION_DB_PATH")
	if dbPath == "" {
		dbPath = "screenpilot.db"
	}
	return StorageConfig{DatabasePath: dbPath}
}

// MustNew loads settings and panics on failure. Use only when configuration
// errors should be fatal.
func MustNew() Settings {
	settings, err := New()
	if err != nil {
		panic(fmt.Sprintf("config: %v", err))
	}
	return settings
}

// Environment variable helpers with proper error handling

func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return i, nil
}

func getEnvBool(key string, defaultVal bool) (bool, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return b, nil
}

func getEnvDriver(key, defaultVal string) (string, error) {
	val := strings.ToLower(os.Getenv(key))
	if val == "" {
		return defaultVal, nil
	}
	switch val {
	case DriverChrome, DriverPlaywright:
		return val, nil
	}
	return "", fmt.Errorf("invalid value for %s: %q (want %s or %s)",
		key, val, DriverChrome, DriverPlaywright)
}
