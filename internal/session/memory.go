package session

import (
	"context"
	"sync"
	"time"

	"github.com/edudesk-ai/support-engine/internal/model"
)

type memoryEntry struct {
	msgs    []model.SessionMessage
	touched time.Time
}

// MemoryStore is the in-process fallback used when NATS is unavailable.
// It applies the same retention cap and idle TTL as KVStore.
type MemoryStore struct {
	mu      sync.Mutex
	threads map[string]*memoryEntry
	opts    Options
	now     func() time.Time
}

func NewMemoryStore(opts Options) *MemoryStore {
	return &MemoryStore{
		threads: make(map[string]*memoryEntry),
		opts:    opts.withDefaults(),
		now:     time.Now,
	}
}

func (s *MemoryStore) Messages(_ context.Context, threadID string) ([]model.SessionMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.live(threadID)
	if e == nil {
		return nil, nil
	}
	out := make([]model.SessionMessage, len(e.msgs))
	copy(out, e.msgs)
	return out, nil
}

func (s *MemoryStore) Append(_ context.Context, threadID, role, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.live(threadID)
	if e == nil {
		e = &memoryEntry{}
		s.threads[threadID] = e
	}
	e.msgs = append(e.msgs, model.SessionMessage{Role: role, Content: content})
	if len(e.msgs) > s.opts.MaxLen {
		e.msgs = e.msgs[len(e.msgs)-s.opts.MaxLen:]
	}
	e.touched = s.now()
	return nil
}

func (s *MemoryStore) Reset(_ context.Context, threadID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.threads, threadID)
	return nil
}

// live returns the entry for a thread, dropping it first if expired.
// Callers must hold mu.
func (s *MemoryStore) live(threadID string) *memoryEntry {
	e, ok := s.threads[threadID]
	if !ok {
		return nil
	}
	if s.now().Sub(e.touched) > s.opts.TTL {
		delete(s.threads, threadID)
		return nil
	}
	return e
}
