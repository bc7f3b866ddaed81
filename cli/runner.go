// Package cli runs interactive computer-use sessions from the terminal.
//
// Information Hiding:
// - Driver/channel/agent wiring hidden
// - Consent and safety-check prompting hidden
// - Turn persistence hidden
package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/screenpilot/screenpilot/agent"
	"github.com/screenpilot/screenpilot/computer"
	"github.com/screenpilot/screenpilot/config"
	"github.com/screenpilot/screenpilot/llm"
	"github.com/screenpilot/screenpilot/storage"
	"github.com/screenpilot/screenpilot/tools"
)

// Options holds CLI execution options.
type Options struct {
	Task     string
	Autoplay bool
	Verbose  bool
}

// Run drives one interactive task session until the user quits. It wires a
// screen driver behind the coordinate scaler, builds the agent, persists
// each turn, and gates computer actions on consent unless autoplay is set.
func Run(ctx context.Context, settings config.Settings, opts Options) error {
	logger, err := newLogger(opts.Verbose)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	driver, closeDriver, err := buildDriver(ctx, settings.Screen)
	if err != nil {
		return err
	}
	defer closeDriver()

	scaler := computer.NewScalerWithDimensions(driver, settings.Screen.Width, settings.Screen.Height)
	channel := buildChannel(settings.OpenAI)

	a := agent.New(channel, settings.OpenAI.Model, scaler).
		WithLogger(logger).
		WithMaxAttempts(settings.Agent.MaxRetries)

	if nav, ok := driver.(computer.Navigator); ok {
		a.RegisterTool(tools.NewNavigateTool(nav))
		a.RegisterTool(tools.NewCurrentURLTool(nav))
	}

	store, err := storage.OpenSqlite(settings.Storage.DatabasePath)
	if err != nil {
		return fmt.Errorf("open session store: %w", err)
	}
	defer store.Close()

	autoplay := opts.Autoplay || settings.Agent.Autoplay
	return runLoop(ctx, a, store, logger, os.Stdin, os.Stdout, opts.Task, autoplay)
}

// runLoop is the interactive turn loop, split out so tests can script stdin
// and stdout.
func runLoop(ctx context.Context, a *agent.Agent, store *storage.SqliteStore,
	logger *zap.Logger, in io.Reader, out io.Writer, task string, autoplay bool) error {

	reader := bufio.NewReader(in)
	sessionID := uuid.NewString()

	if task == "" {
		fmt.Fprint(out, "Please enter the initial task: ")
		task = readLine(reader)
		if task == "" {
			return nil
		}
	}
	if err := store.CreateSession(ctx, sessionID, task); err != nil {
		logger.Warn("session not persisted", zap.Error(err))
	}
	fmt.Fprintf(out, "User: %s\n", task)

	a.StartTask()
	userMessage := task

	for turn := 0; ; turn++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := a.ContinueTask(ctx, userMessage); err != nil {
			return fmt.Errorf("turn failed: %w", err)
		}
		userMessage = ""

		printTurn(out, a)
		saveTurn(ctx, store, logger, a, sessionID, turn)

		if a.RequiresUserInput() {
			fmt.Fprint(out, "\nUser (empty to quit): ")
			userMessage = readLine(reader)
			if userMessage == "" {
				return nil
			}
			continue
		}

		if !autoplay {
			if checks := a.PendingSafetyChecks(); len(checks) > 0 {
				fmt.Fprintln(out, "\nSafety checks:")
				for _, check := range checks {
					fmt.Fprintf(out, "  [%s] %s\n", check.Code, check.Message)
				}
				fmt.Fprint(out, "Press Enter to acknowledge and continue, or type q to stop: ")
				if isQuit(readLine(reader)) {
					return nil
				}
			} else if a.RequiresConsent() {
				fmt.Fprint(out, "Press Enter to run the computer tool, or type q to stop: ")
				if isQuit(readLine(reader)) {
					return nil
				}
			}
		}
	}
}

// printTurn renders reasoning, actions, and messages the way a human
// observer expects to follow the task.
func printTurn(out io.Writer, a *agent.Agent) {
	if summary := a.ReasoningSummary(); summary != "" {
		fmt.Fprintf(out, "\nAction: %s\n", summary)
	}
	for _, action := range a.Actions() {
		fmt.Fprintf(out, "  %s\n", action)
	}
	for _, message := range a.Messages() {
		fmt.Fprintf(out, "\nAgent: %s\n", message)
	}
}

func saveTurn(ctx context.Context, store *storage.SqliteStore, logger *zap.Logger,
	a *agent.Agent, sessionID string, turn int) {

	resp := a.Response()
	if resp == nil {
		return
	}

	actions := a.Actions()
	rendered := make([]string, len(actions))
	for i, action := range actions {
		rendered[i] = action.String()
	}
	messagesJSON, _ := json.Marshal(a.Messages())
	actionsJSON, _ := json.Marshal(rendered)

	rec := storage.TurnRecord{
		SessionID:  sessionID,
		TurnIndex:  turn,
		ResponseID: resp.ID,
		Reasoning:  a.ReasoningSummary(),
		Messages:   string(messagesJSON),
		Actions:    string(actionsJSON),
	}
	if err := store.SaveTurn(ctx, rec); err != nil {
		logger.Warn("turn not persisted", zap.Error(err))
	}
}

// buildDriver constructs the configured screen driver. The returned close
// function is safe to call once.
func buildDriver(ctx context.Context, screen config.ScreenConfig) (computer.Computer, func(), error) {
	switch screen.Driver {
	case config.DriverPlaywright:
		driver, err := computer.NewPlaywrightComputer(computer.PlaywrightOptions{
			Headless: screen.Headless,
			StartURL: screen.StartURL,
			Width:    screen.Width,
			Height:   screen.Height,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("start playwright driver: %w", err)
		}
		return driver, func() { _ = driver.Close() }, nil

	case config.DriverChrome:
		driver, err := computer.NewChromeComputer(ctx, computer.ChromeOptions{
			Headless: screen.Headless,
			StartURL: screen.StartURL,
			Width:    screen.Width,
			Height:   screen.Height,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("start chrome driver: %w", err)
		}
		return driver, func() { _ = driver.Close() }, nil
	}
	return nil, nil, fmt.Errorf("unknown screen driver %q", screen.Driver)
}

func buildChannel(cfg config.OpenAIConfig) llm.Channel {
	if cfg.BaseURL != "" {
		return llm.NewOpenAIChannelWithBaseURL(cfg.APIKey, cfg.BaseURL)
	}
	return llm.NewOpenAIChannel(cfg.APIKey)
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	return cfg.Build()
}

func readLine(reader *bufio.Reader) string {
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}

func isQuit(line string) bool {
	switch strings.ToLower(line) {
	case "q", "quit", "exit":
		return true
	}
	return false
}
