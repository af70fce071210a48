package index

import (
	"errors"
	"math"
	"sort"
	"sync"

	"scholarbrief/internal/embed"
	"scholarbrief/internal/model"
)

// MemoryIndex is a brute-force cosine similarity store. Research sessions
// hold at most a few thousand chunks, so exact scan beats the bookkeeping
// cost of an approximate structure.
type MemoryIndex struct {
	mu       sync.RWMutex
	sessions map[string][]Item
}

// NewMemoryIndex creates an empty in-memory index
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		sessions: make(map[string][]Item),
	}
}

// Add indexes items under the given session
func (m *MemoryIndex) Add(sessionID string, items []Item) error {
	if sessionID == "" {
		return errors.New("session id is required")
	}

	for _, item := range items {
		if len(item.Vector) == 0 {
			return errors.New("item vector is empty")
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sessionID] = append(m.sessions[sessionID], items...)
	return nil
}

// Query returns up to k hits ordered by descending similarity. An unknown
// session yields an empty result, not an error.
func (m *MemoryIndex) Query(sessionID string, vector []float32, k int, filters map[string]string) ([]model.RetrievedHit, error) {
	if k <= 0 {
		return nil, nil
	}

	m.mu.RLock()
	items := m.sessions[sessionID]
	m.mu.RUnlock()

	if len(items) == 0 {
		return nil, nil
	}

	type scored struct {
		item  Item
		score float64
	}

	candidates := make([]scored, 0, len(items))
	for _, item := range items {
		if !matchesFilters(item.Chunk, filters) {
			continue
		}
		sim := embed.Cosine(vector, item.Vector)
		// Report on a 0-100 scale, clipping negative similarity to 0.
		score := math.Round(math.Max(0, math.Min(100, sim*100))*100) / 100
		candidates = append(candidates, scored{item: item, score: score})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	if k > len(candidates) {
		k = len(candidates)
	}

	hits := make([]model.RetrievedHit, 0, k)
	for _, c := range candidates[:k] {
		hits = append(hits, model.RetrievedHit{
			ID:             c.item.Chunk.ID,
			DocumentID:     c.item.Chunk.DocumentID,
			SourceTitle:    c.item.Chunk.Metadata.SourceTitle,
			Content:        c.item.Chunk.Content,
			RelevanceScore: c.score,
			Metadata:       c.item.Chunk.Metadata,
		})
	}

	return hits, nil
}

// Count returns the number of indexed items for a session
func (m *MemoryIndex) Count(sessionID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions[sessionID])
}

// DeleteSession drops all items for a session
func (m *MemoryIndex) DeleteSession(sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
	return nil
}

func matchesFilters(chunk model.Chunk, filters map[string]string) bool {
	for key, want := range filters {
		var got string
		switch key {
		case "document_id":
			got = chunk.DocumentID
		case "file_type":
			got = chunk.Metadata.FileType
		case "section_title":
			got = chunk.Metadata.SectionTitle
		case "source_title":
			got = chunk.Metadata.SourceTitle
		default:
			return false
		}
		if got != want {
			return false
		}
	}
	return true
}
