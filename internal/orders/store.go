package orders

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/edudesk-ai/support-engine/internal/model"
	"github.com/edudesk-ai/support-engine/pkg/logger"
)

const ordersSchema = `
CREATE TABLE IF NOT EXISTS orders (
	order_id   TEXT PRIMARY KEY,
	status     TEXT NOT NULL DEFAULT '',
	amount     REAL,
	updated_at TEXT,
	start_time TEXT
);
`

const (
	lookupAttempts = 3
	lookupBackoff  = 100 * time.Millisecond
)

// Store reads order rows from a per-tenant SQLite database.
type Store struct {
	db  *sql.DB
	log *logger.Logger
}

// NewStore opens (creating if needed) the orders database at path.
func NewStore(path string, log *logger.Logger) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open orders db: %w", err)
	}
	if _, err := db.Exec(ordersSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate orders db: %w", err)
	}
	return &Store{db: db, log: log}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

// Insert adds or replaces an order row. Used by tests and data loading.
func (s *Store) Insert(ctx context.Context, rec model.OrderRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO orders (order_id, status, amount, updated_at, start_time) VALUES (?, ?, ?, ?, ?)`,
		rec.OrderID, rec.Status, rec.Amount, rec.UpdatedAt, rec.StartTime)
	return err
}

// Lookup runs a single %s-placeholder query and returns the first row, or
// nil when no row matches. Transient errors are retried with exponential
// backoff.
func (s *Store) Lookup(ctx context.Context, sqlText string, params []string) (*model.OrderRecord, error) {
	query := strings.ReplaceAll(sqlText, "%s", "?")
	args := make([]any, len(params))
	for i, p := range params {
		args[i] = p
	}

	var lastErr error
	backoff := lookupBackoff
	for attempt := 1; attempt <= lookupAttempts; attempt++ {
		rec, err := s.queryOne(ctx, query, args)
		if err == nil {
			return rec, nil
		}
		lastErr = err
		s.log.Warn("order lookup failed",
			zap.Int("attempt", attempt),
			zap.Error(err))
		if attempt < lookupAttempts {
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			backoff *= 2
		}
	}
	return nil, fmt.Errorf("order lookup: %w", lastErr)
}

func (s *Store) queryOne(ctx context.Context, query string, args []any) (*model.OrderRecord, error) {
	row := s.db.QueryRowContext(ctx, query, args...)

	var rec model.OrderRecord
	var amount sql.NullFloat64
	var updatedAt, startTime sql.NullString
	err := row.Scan(&rec.OrderID, &rec.Status, &amount, &updatedAt, &startTime)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if amount.Valid {
		v := amount.Float64
		rec.Amount = &v
	}
	rec.UpdatedAt = updatedAt.String
	rec.StartTime = startTime.String
	return &rec, nil
}
