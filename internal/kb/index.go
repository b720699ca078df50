// Package kb provides the tenant-scoped knowledge index used by the
// knowledge-answer branch of the resolution state machine.
package kb

import (
	"context"
)

// Document is one retrieved knowledge snippet with its provenance.
type Document struct {
	ID       string
	Content  string
	Metadata map[string]any
}

// AddItem is one document to insert into the index.
type AddItem struct {
	ID       string
	Text     string
	Metadata map[string]any
}

// Index is the vector-similarity backend boundary. Implementations must
// treat an unavailable backend as "zero documents", never as a turn error.
type Index interface {
	// Search returns the top-k documents similar to the query.
	Search(ctx context.Context, query string, k int) ([]Document, error)

	// Add inserts items, skipping ids that already exist. Returns the
	// added and skipped id lists.
	Add(ctx context.Context, items []AddItem) (added []string, skipped []string, err error)

	// Delete removes documents by id and returns how many were affected.
	Delete(ctx context.Context, ids []string) (int, error)

	// Ready reports whether the backend is reachable.
	Ready(ctx context.Context) bool
}
