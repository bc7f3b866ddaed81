// Package storage provides SQLite persistence for task session traces.
//
// Information Hiding:
// - SQLite connection management hidden behind the store type
// - Schema and migration details encapsulated
// - Thread-safe via sql.DB's built-in connection pooling
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// TurnRecord is one persisted turn of a task: the model's reasoning,
// messages, and actions as observed after ContinueTask.
type TurnRecord struct {
	SessionID  string
	TurnIndex  int
	ResponseID string
	Reasoning  string
	Messages   string // JSON array of message strings
	Actions    string // JSON array of rendered actions
}

// SessionInfo summarizes one stored session.
type SessionInfo struct {
	SessionID string
	Task      string
	CreatedAt string
	Turns     int
}

// SqliteStore persists session traces in a SQLite database.
type SqliteStore struct {
	db *sql.DB
}

// OpenSqlite opens or creates a SQLite database at the given path, creating
// parent directories as needed.
func OpenSqlite(path string) (*SqliteStore, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	store := &SqliteStore{db: db}
	if err := store.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return store, nil
}

// NewSqliteInMemory creates an in-memory store, useful for testing.
func NewSqliteInMemory() (*SqliteStore, error) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("create in-memory sqlite: %w", err)
	}

	store := &SqliteStore{db: db}
	if err := store.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *SqliteStore) Close() error {
	return s.db.Close()
}

func (s *SqliteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS sessions (
			session_id TEXT PRIMARY KEY,
			task TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL DEFAULT (datetime('now')),
			updated_at TEXT NOT NULL DEFAULT (datetime('now'))
		);

		CREATE TABLE IF NOT EXISTS turns (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			turn_index INTEGER NOT NULL,
			response_id TEXT NOT NULL,
			reasoning TEXT NOT NULL DEFAULT '',
			messages TEXT NOT NULL DEFAULT '[]',
			actions TEXT NOT NULL DEFAULT '[]',
			FOREIGN KEY (session_id) REFERENCES sessions(session_id) ON DELETE CASCADE,
			UNIQUE(session_id, turn_index)
		);

		CREATE INDEX IF NOT EXISTS idx_turns_session
		ON turns(session_id, turn_index);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// CreateSession registers a session with its task description. Re-creating
// an existing session is a no-op.
func (s *SqliteStore) CreateSession(ctx context.Context, sessionID, task string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO sessions (session_id, task) VALUES (?, ?)",
		sessionID, task)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// SaveTurn appends one turn to a session trace. Saving the same turn index
// twice replaces the earlier record.
func (s *SqliteStore) SaveTurn(ctx context.Context, rec TurnRecord) error {
	if err := s.CreateSession(ctx, rec.SessionID, ""); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO turns
		(session_id, turn_index, response_id, reasoning, messages, actions)
		VALUES (?, ?, ?, ?, ?, ?)`,
		rec.SessionID, rec.TurnIndex, rec.ResponseID, rec.Reasoning, rec.Messages, rec.Actions)
	if err != nil {
		return fmt.Errorf("save turn: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		"UPDATE sessions SET updated_at = datetime('now') WHERE session_id = ?",
		rec.SessionID)
	if err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	return nil
}

// LoadTurns returns a session's turns in order. An unknown session yields an
// empty slice.
func (s *SqliteStore) LoadTurns(ctx context.Context, sessionID string) ([]TurnRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id, turn_index, response_id, reasoning, messages, actions
		FROM turns WHERE session_id = ? ORDER BY turn_index ASC`,
		sessionID)
	if err != nil {
		return nil, fmt.Errorf("query turns: %w", err)
	}
	defer rows.Close()

	turns := []TurnRecord{}
	for rows.Next() {
		var rec TurnRecord
		if err := rows.Scan(&rec.SessionID, &rec.TurnIndex, &rec.ResponseID,
			&rec.Reasoning, &rec.Messages, &rec.Actions); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		turns = append(turns, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate turns: %w", err)
	}
	return turns, nil
}

// Sessions lists stored sessions, most recently updated first.
func (s *SqliteStore) Sessions(ctx context.Context) ([]SessionInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.session_id, s.task, s.created_at, COUNT(t.id)
		FROM sessions s LEFT JOIN turns t ON t.session_id = s.session_id
		GROUP BY s.session_id
		ORDER BY s.updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []SessionInfo{}
	for rows.Next() {
		var info SessionInfo
		if err := rows.Scan(&info.SessionID, &info.Task, &info.CreatedAt, &info.Turns); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

// DeleteSession removes a session and its turns.
func (s *SqliteStore) DeleteSession(ctx context.Context, sessionID string) error {
	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM turns WHERE session_id = ?", sessionID); err != nil {
		return fmt.Errorf("delete turns: %w", err)
	}
	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM sessions WHERE session_id = ?", sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
