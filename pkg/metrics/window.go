package metrics

import (
	"sort"
	"sync"
)

const windowSize = 1000

// WindowSnapshot is a point-in-time view of one rolling latency window.
type WindowSnapshot struct {
	Count int     `json:"count"`
	MinMs float64 `json:"min_ms"`
	MaxMs float64 `json:"max_ms"`
	AvgMs float64 `json:"avg_ms"`
	P95Ms float64 `json:"p95_ms"`
}

// window is a bounded circular buffer of recent observations. Older values
// fall out as new ones arrive; all stats are computed over what remains.
// All access goes through its own lock.
type window struct {
	mu     sync.Mutex
	buf    []float64
	next   int
	filled bool
}

func (w *window) observe(v float64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.buf) == 0 {
		w.buf = make([]float64, windowSize)
	}
	w.buf[w.next] = v
	w.next++
	if w.next == len(w.buf) {
		w.next = 0
		w.filled = true
	}
}

func (w *window) snapshot() WindowSnapshot {
	w.mu.Lock()
	size := w.next
	if w.filled {
		size = len(w.buf)
	}
	recent := make([]float64, size)
	copy(recent, w.buf[:size])
	w.mu.Unlock()

	snap := WindowSnapshot{Count: len(recent)}
	if len(recent) == 0 {
		return snap
	}
	sort.Float64s(recent)
	snap.MinMs = recent[0]
	snap.MaxMs = recent[len(recent)-1]
	var sum float64
	for _, v := range recent {
		sum += v
	}
	snap.AvgMs = sum / float64(len(recent))
	idx := int(float64(len(recent))*0.95) - 1
	if idx < 0 {
		idx = 0
	}
	snap.P95Ms = recent[idx]
	return snap
}

// Windows aggregates rolling latency windows per route category. Categories
// are created on first observation and live for the process lifetime.
type Windows struct {
	mu   sync.Mutex
	byID map[string]*window
}

// NewWindows creates an empty window aggregator.
func NewWindows() *Windows {
	return &Windows{byID: make(map[string]*window)}
}

// Observe records a latency observation in milliseconds for a category.
func (ws *Windows) Observe(category string, ms float64) {
	ws.mu.Lock()
	w := ws.byID[category]
	if w == nil {
		w = &window{}
		ws.byID[category] = w
	}
	ws.mu.Unlock()
	w.observe(ms)
}

// Snapshot returns the snapshot for one category. Unknown categories
// return a zero snapshot.
func (ws *Windows) Snapshot(category string) WindowSnapshot {
	ws.mu.Lock()
	w := ws.byID[category]
	ws.mu.Unlock()
	if w == nil {
		return WindowSnapshot{}
	}
	return w.snapshot()
}

// SnapshotAll returns snapshots for every known category.
func (ws *Windows) SnapshotAll() map[string]WindowSnapshot {
	ws.mu.Lock()
	keys := make([]string, 0, len(ws.byID))
	for k := range ws.byID {
		keys = append(keys, k)
	}
	ws.mu.Unlock()

	out := make(map[string]WindowSnapshot, len(keys))
	for _, k := range keys {
		out[k] = ws.Snapshot(k)
	}
	return out
}
