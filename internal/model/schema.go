package model

// SourceStatus tracks a source document through the processing pipeline
type SourceStatus string

const (
	StatusPending    SourceStatus = "pending"
	StatusProcessing SourceStatus = "processing"
	StatusProcessed  SourceStatus = "processed"
	StatusError      SourceStatus = "error"
)

// ClaimType categorizes a claim by cross-source agreement
type ClaimType string

const (
	ClaimConsensus    ClaimType = "consensus"    // Multiple sources agree, no contradictions
	ClaimDisagreement ClaimType = "disagreement" // Sources present conflicting views
	ClaimUncertain    ClaimType = "uncertain"    // Limited evidence, ambiguous, or single source
)

// ChunkMetadata carries the source attribution indexed alongside a chunk
type ChunkMetadata struct {
	SourceTitle  string   `json:"source_title,omitempty"`
	Authors      []string `json:"authors,omitempty"`
	Date         string   `json:"date,omitempty"`
	SectionTitle string   `json:"section_title,omitempty"`
	FileType     string   `json:"file_type,omitempty"`
}

// Chunk is a bounded slice of a document's extracted text, the unit of
// indexing and retrieval. Immutable once indexed.
type Chunk struct {
	ID         string        `json:"id"`
	DocumentID string        `json:"document_id"`
	Content    string        `json:"content"`
	ChunkIndex int           `json:"chunk_index"`
	Metadata   ChunkMetadata `json:"metadata"`
}

// RetrievedHit is a chunk returned by vector search, scored 0-100.
// Ephemeral: produced per query, never persisted.
type RetrievedHit struct {
	ID             string        `json:"id"`
	DocumentID     string        `json:"document_id"`
	SourceTitle    string        `json:"source_title"`
	Content        string        `json:"content"`
	RelevanceScore float64       `json:"relevance_score"`
	Metadata       ChunkMetadata `json:"metadata"`
}

// Claim is an atomic, attributable factual statement extracted from one or
// more chunks. Classification mutates Type, Confidence and the source counts;
// deduplication merges SourceIDs.
type Claim struct {
	ID                   string            `json:"id"`
	Statement            string            `json:"statement"`
	Type                 ClaimType         `json:"type"`
	Confidence           int               `json:"confidence"` // 0-100
	SupportingSources    int               `json:"supporting_sources"`
	ContradictingSources int               `json:"contradicting_sources"`
	SourceIDs            []string          `json:"source_ids"`
	Evidence             []string          `json:"evidence,omitempty"`
	Metadata             map[string]string `json:"metadata,omitempty"`
}

// HasSource reports whether the claim references the given source id.
func (c *Claim) HasSource(id string) bool {
	for _, sid := range c.SourceIDs {
		if sid == id {
			return true
		}
	}
	return false
}

// AddSource appends a source id if not already present.
func (c *Claim) AddSource(id string) {
	if !c.HasSource(id) {
		c.SourceIDs = append(c.SourceIDs, id)
	}
}

// ClampConfidence forces Confidence into [0,100].
func (c *Claim) ClampConfidence() {
	if c.Confidence < 0 {
		c.Confidence = 0
	}
	if c.Confidence > 100 {
		c.Confidence = 100
	}
}

// Source is a research source with processing status and metrics
type Source struct {
	ID              string       `json:"id"`
	Title           string       `json:"title"`
	Authors         []string     `json:"authors"`
	Date            string       `json:"date,omitempty"`
	Type            string       `json:"type"` // pdf, docx, url, txt, md
	Status          SourceStatus `json:"status"`
	ClaimsExtracted int          `json:"claims_extracted"`
	RelevanceScore  float64      `json:"relevance_score"`
	ThumbnailColor  string       `json:"thumbnail_color"`
}

// CountByType tallies claims per classification outcome.
func CountByType(claims []Claim) (consensus, disagreement, uncertain int) {
	for _, c := range claims {
		switch c.Type {
		case ClaimConsensus:
			consensus++
		case ClaimDisagreement:
			disagreement++
		default:
			uncertain++
		}
	}
	return
}
