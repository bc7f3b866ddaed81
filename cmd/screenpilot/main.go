// Package main provides the screenpilot CLI entry point.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/screenpilot/screenpilot/cli"
	"github.com/screenpilot/screenpilot/config"
	"github.com/screenpilot/screenpilot/tools"
)

var (
	// Global flags
	autoplay bool
	verbose  bool
)

func main() {
	// Load .env file if present (ignore "file not found" errors)
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Warning: failed to load .env file: %v\n", err)
		}
	}

	rootCmd := &cobra.Command{
		Use:   "screenpilot",
		Short: "Computer-use agent that drives a browser from natural language",
		Long: `screenpilot runs a computer-use agent loop: the model decides on-screen
actions, a browser driver executes them, and screenshots feed back to the
model until the task completes.

Configuration comes from environment variables (or a .env file):
OPENAI_API_KEY, OPENAI_MODEL, SCREEN_DRIVER (chrome|playwright),
SCREEN_START_URL, SCREEN_HEADLESS, SCREEN_WIDTH, SCREEN_HEIGHT.`,
	}

	rootCmd.PersistentFlags().BoolVar(&autoplay, "autoplay", false, "Run computer actions without confirmation prompts")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show verbose output")

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(sessionsCmd())
	rootCmd.AddCommand(toolsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run [task]",
		Short: "Run a task interactively",
		Long: `Run a task against the configured browser driver. With no task argument,
prompts for one. The loop pauses for consent before computer actions unless
--autoplay is set, and always surfaces model safety checks.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := config.New()
			if err != nil {
				return err
			}
			task := ""
			if len(args) > 0 {
				task = args[0]
			}
			opts := cli.Options{
				Task:     task,
				Autoplay: autoplay,
				Verbose:  verbose,
			}
			return cli.Run(context.Background(), settings, opts)
		},
	}
}

func toolsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "List the built-in side tools offered to the model",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			builtins := []tools.Tool{
				tools.NewNavigateTool(nil),
				tools.NewCurrentURLTool(nil),
			}
			for _, tool := range builtins {
				fmt.Printf("%s\n    %s\n", tool.Schema.Name, tool.Schema.Description)
			}
		},
	}
}

func sessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions [session-id]",
		Short: "List stored sessions or show one session's trace",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.StorageFromEnv()
			ctx := context.Background()
			if len(args) == 1 {
				return cli.ShowSession(ctx, cfg, args[0], os.Stdout)
			}
			return cli.ListSessions(ctx, cfg, os.Stdout)
		},
	}
	return cmd
}
