package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/screenpilot/screenpilot/config"
	"github.com/screenpilot/screenpilot/storage"
)

// ListSessions prints the stored task sessions, most recent first.
func ListSessions(ctx context.Context, cfg config.StorageConfig, out io.Writer) error {
	store, err := storage.OpenSqlite(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("open session store: %w", err)
	}
	defer store.Close()

	sessions, err := store.Sessions(ctx)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Fprintln(out, "No sessions recorded.")
		return nil
	}

	for _, s := range sessions {
		task := s.Task
		if task == "" {
			task = "(no task recorded)"
		}
		fmt.Fprintf(out, "%s  %s  %d turns  %s\n", s.SessionID, s.CreatedAt, s.Turns, task)
	}
	return nil
}

// ShowSession prints the stored trace of one session, turn by turn.
func ShowSession(ctx context.Context, cfg config.StorageConfig, sessionID string, out io.Writer) error {
	store, err := storage.OpenSqlite(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("open session store: %w", err)
	}
	defer store.Close()

	turns, err := store.LoadTurns(ctx, sessionID)
	if err != nil {
		return err
	}
	if len(turns) == 0 {
		fmt.Fprintf(out, "No turns recorded for session %s.\n", sessionID)
		return nil
	}

	for _, turn := range turns {
		fmt.Fprintf(out, "--- turn %d (%s) ---\n", turn.TurnIndex, turn.ResponseID)
		if turn.Reasoning != "" {
			fmt.Fprintf(out, "Action: %s\n", turn.Reasoning)
		}
		for _, action := range decodeStrings(turn.Actions) {
			fmt.Fprintf(out, "  %s\n", action)
		}
		for _, message := range decodeStrings(turn.Messages) {
			fmt.Fprintf(out, "Agent: %s\n", message)
		}
	}
	return nil
}

func decodeStrings(raw string) []string {
	var values []string
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil
	}
	return values
}
