// Package store persists research sessions behind a small key-value
// abstraction so the backing implementation (file, embedded DB, remote
// cache) is swappable without touching pipeline logic.
package store

import (
	"time"

	"scholarbrief/internal/model"
)

// Session is the persistence envelope for one research session. Writes are
// last-writer-wins; there is no transactional isolation.
type Session struct {
	ID        string               `json:"id"`
	Query     string               `json:"query,omitempty"`
	Sources   []model.Source       `json:"sources"`
	Chunks    []model.Chunk        `json:"chunks"`
	Claims    []model.Claim        `json:"claims"`
	Brief     *model.ResearchBrief `json:"brief,omitempty"`
	CreatedAt time.Time            `json:"created_at"`
}

// Store is keyed persistence for sessions. Get returns (nil, nil) for an
// unknown session so callers can treat absence as an empty result.
type Store interface {
	Get(sessionID string) (*Session, error)
	Put(session *Session) error
	Delete(sessionID string) error
	List() ([]string, error)
}

// NewSession creates an empty session envelope
func NewSession(id string) *Session {
	return &Session{
		ID:        id,
		CreatedAt: time.Now().UTC(),
	}
}

// SourceByID returns the session source with the given id, if present
func (s *Session) SourceByID(id string) (*model.Source, bool) {
	for i := range s.Sources {
		if s.Sources[i].ID == id {
			return &s.Sources[i], true
		}
	}
	return nil, false
}

// SetClaims replaces the session's claims and recomputes each source's
// extracted-claim count from claim references.
func (s *Session) SetClaims(claims []model.Claim) {
	s.Claims = claims

	counts := make(map[string]int)
	for _, claim := range claims {
		for _, sid := range claim.SourceIDs {
			counts[sid]++
		}
	}

	for i := range s.Sources {
		s.Sources[i].ClaimsExtracted = counts[s.Sources[i].ID]
	}
}
