// Package session keeps short rolling conversation histories per thread.
package session

import (
	"context"
	"time"

	"github.com/edudesk-ai/support-engine/internal/model"
)

// Store holds the recent messages of a thread. Histories are capped at a
// fixed length and expire after a period of inactivity.
type Store interface {
	// Messages returns the retained messages for a thread, oldest first.
	Messages(ctx context.Context, threadID string) ([]model.SessionMessage, error)
	// Append adds a message, trimming the history to the retention cap.
	Append(ctx context.Context, threadID, role, content string) error
	// Reset discards the thread's history.
	Reset(ctx context.Context, threadID string) error
}

// Options configure history retention.
type Options struct {
	MaxLen int
	TTL    time.Duration
}

func (o Options) withDefaults() Options {
	if o.MaxLen <= 0 {
		o.MaxLen = 5
	}
	if o.TTL <= 0 {
		o.TTL = 30 * time.Minute
	}
	return o
}
