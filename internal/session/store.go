// Package session persists conversational routing state. The orchestration
// core never stores sticky kinds itself; this store is the caller-side
// persistence it expects.
package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"dbcopilot/internal/copilot"
)

const schema = `
CREATE TABLE IF NOT EXISTS sticky_kinds (
	workspace_id    TEXT NOT NULL,
	conversation_id TEXT NOT NULL,
	kind            TEXT NOT NULL,
	updated_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (workspace_id, conversation_id)
);
`

// Store is a SQLite-backed sticky-kind store keyed by workspace and
// conversation.
type Store struct {
	db *sql.DB
}

// Open opens the database at path, creating the file and schema if missing.
// Use ":memory:" for tests.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open session db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping session db: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply session schema: %w", err)
	}
	return &Store{db: db}, nil
}

// StickyKind returns the persisted kind for a conversation, if any.
func (s *Store) StickyKind(ctx context.Context, workspaceID, conversationID string) (copilot.Kind, bool, error) {
	var kind string
	err := s.db.QueryRowContext(ctx,
		`SELECT kind FROM sticky_kinds WHERE workspace_id = ? AND conversation_id = ?`,
		workspaceID, conversationID).Scan(&kind)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read sticky kind: %w", err)
	}
	return copilot.Kind(kind), true, nil
}

// SetStickyKind persists the kind for a conversation, replacing any previous
// choice.
func (s *Store) SetStickyKind(ctx context.Context, workspaceID, conversationID string, kind copilot.Kind) error {
	if kind == "" || kind == copilot.KindTriage {
		return fmt.Errorf("cannot persist kind %q as sticky", kind)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sticky_kinds (workspace_id, conversation_id, kind, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (workspace_id, conversation_id)
		DO UPDATE SET kind = excluded.kind, updated_at = CURRENT_TIMESTAMP`,
		workspaceID, conversationID, kind.String())
	if err != nil {
		return fmt.Errorf("write sticky kind: %w", err)
	}
	return nil
}

// ClearStickyKind removes the persisted kind, returning the conversation to
// triage routing.
func (s *Store) ClearStickyKind(ctx context.Context, workspaceID, conversationID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM sticky_kinds WHERE workspace_id = ? AND conversation_id = ?`,
		workspaceID, conversationID)
	if err != nil {
		return fmt.Errorf("clear sticky kind: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
