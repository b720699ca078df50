// Package support records questions the knowledge base could not answer,
// for later curation.
package support

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/edudesk-ai/support-engine/pkg/logger"
)

const schema = `
CREATE TABLE IF NOT EXISTS unanswered_questions (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id    TEXT NOT NULL DEFAULT '',
	text       TEXT NOT NULL,
	created_at TEXT NOT NULL
);
`

// Log is an append-only record of unanswered questions.
type Log struct {
	db  *sql.DB
	log *logger.Logger
}

func NewLog(path string, log *logger.Logger) (*Log, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open support db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate support db: %w", err)
	}
	return &Log{db: db, log: log}, nil
}

func (l *Log) Close() error { return l.db.Close() }

// Record appends an unanswered question. Failures are logged and
// swallowed; bookkeeping never breaks the answer path.
func (l *Log) Record(ctx context.Context, userID, text string) {
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO unanswered_questions (user_id, text, created_at) VALUES (?, ?, ?)`,
		userID, text, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		l.log.Warn("record unanswered question failed",
			zap.String("user_id", userID),
			zap.Error(err))
	}
}

// Count returns the number of recorded questions. Used by tests and ops
// tooling.
func (l *Log) Count(ctx context.Context) (int, error) {
	var n int
	err := l.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM unanswered_questions`).Scan(&n)
	return n, err
}
