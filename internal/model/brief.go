package model

import "time"

// ConfidenceLevel is the overall confidence band for a research brief
type ConfidenceLevel string

const (
	ConfidenceHigh   ConfidenceLevel = "high"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceLow    ConfidenceLevel = "low"
)

// ConsensusItem is a point of agreement across sources
type ConsensusItem struct {
	ID              string   `json:"id"`
	Statement       string   `json:"statement"`
	Confidence      int      `json:"confidence"` // 0-100
	Sources         int      `json:"sources"`
	SourceIDs       []string `json:"source_ids,omitempty"`
	EvidenceSummary string   `json:"evidence_summary,omitempty"`
}

// DisagreementItem is a point of conflict between sources, with both
// perspectives stated
type DisagreementItem struct {
	ID           string   `json:"id"`
	Claim        string   `json:"claim"`
	Perspective1 string   `json:"perspective1"`
	Perspective2 string   `json:"perspective2"`
	Sources      int      `json:"sources"`
	SourceIDs    []string `json:"source_ids,omitempty"`
}

// OpenQuestion is an unanswered research question identified from gaps in
// the evidence
type OpenQuestion struct {
	ID              string   `json:"id"`
	Question        string   `json:"question"`
	Context         string   `json:"context"`
	RelatedClaimIDs []string `json:"related_claim_ids,omitempty"`
}

// ResearchBrief is the final structured output of the pipeline. It is
// created exactly once per synthesis run and read-only afterward, except
// for export transformations.
type ResearchBrief struct {
	Query           string             `json:"query"`
	SessionID       string             `json:"session_id"`
	Sources         []Source           `json:"sources"`
	Consensus       []ConsensusItem    `json:"consensus"`
	Disagreements   []DisagreementItem `json:"disagreements"`
	OpenQuestions   []OpenQuestion     `json:"open_questions"`
	ConfidenceLevel ConfidenceLevel    `json:"confidence_level"`
	ConfidenceScore int                `json:"confidence_score"` // 0-100
	Limitations     []string           `json:"limitations"`
	GeneratedAt     time.Time          `json:"generated_at"`
}
