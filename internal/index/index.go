// Package index provides the per-session nearest-neighbor store used by
// retrieval. The backing implementation is swappable; the pipeline only
// depends on this interface.
package index

import (
	"scholarbrief/internal/model"
)

// Item pairs a chunk with its embedding vector for indexing
type Item struct {
	Chunk  model.Chunk
	Vector []float32
}

// Index is a session-scoped similarity store. Query returns hits ordered by
// descending similarity with relevance reported on a 0-100 scale. Filters
// are exact-match constraints on chunk metadata.
type Index interface {
	Add(sessionID string, items []Item) error
	Query(sessionID string, vector []float32, k int, filters map[string]string) ([]model.RetrievedHit, error)
	Count(sessionID string) int
	DeleteSession(sessionID string) error
}
