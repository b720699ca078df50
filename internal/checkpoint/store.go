// Package checkpoint persists the last completed turn per thread.
package checkpoint

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS checkpoints (
	thread_id  TEXT PRIMARY KEY,
	route      TEXT NOT NULL DEFAULT '',
	answer     TEXT NOT NULL DEFAULT '',
	updated_at TEXT NOT NULL
);
`

// Turn is the persisted outcome of a conversation turn.
type Turn struct {
	ThreadID  string
	Route     string
	Answer    string
	UpdatedAt string
}

// Store writes one row per thread, overwriting on each turn.
type Store struct {
	db *sql.DB
}

func NewStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open checkpoint db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate checkpoint db: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Save upserts the latest turn for a thread.
func (s *Store) Save(ctx context.Context, threadID, route, answer string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO checkpoints (thread_id, route, answer, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(thread_id) DO UPDATE SET route=excluded.route, answer=excluded.answer, updated_at=excluded.updated_at`,
		threadID, route, answer, time.Now().UTC().Format(time.RFC3339))
	return err
}

// Load returns the last turn for a thread, or nil when none exists.
func (s *Store) Load(ctx context.Context, threadID string) (*Turn, error) {
	var t Turn
	err := s.db.QueryRowContext(ctx,
		`SELECT thread_id, route, answer, updated_at FROM checkpoints WHERE thread_id = ?`,
		threadID).Scan(&t.ThreadID, &t.Route, &t.Answer, &t.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}
