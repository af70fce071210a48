package claims

import (
	"encoding/json"
	"strings"
)

// extractedClaim is the wire shape of one claim in the extraction response
type extractedClaim struct {
	Statement  string   `json:"statement"`
	SourceIDs  []string `json:"source_ids"`
	Evidence   []string `json:"evidence"`
	Confidence int      `json:"confidence"`
	Scope      string   `json:"scope"`
}

// extractionResponse is the full extraction response
type extractionResponse struct {
	Claims          []extractedClaim `json:"claims"`
	ExtractionNotes string           `json:"extraction_notes"`
}

// classification is the wire shape of one classification result
type classification struct {
	ClaimID              string `json:"claim_id"`
	Type                 string `json:"type"`
	SupportingSources    int    `json:"supporting_sources"`
	ContradictingSources int    `json:"contradicting_sources"`
	Confidence           int    `json:"confidence"`
	Reasoning            string `json:"reasoning"`
}

// classificationResponse is the full classification response
type classificationResponse struct {
	Classifications []classification `json:"classifications"`
}

// parseExtraction parses the extraction payload with a two-tier strategy:
// strict unmarshal of the expected envelope first, then a lenient per-item
// salvage pass that silently drops malformed entries. A top-level array
// (a shape some models emit despite the schema) is also accepted.
func parseExtraction(payload string) ([]extractedClaim, error) {
	payload = strings.TrimSpace(payload)

	var envelope extractionResponse
	if err := json.Unmarshal([]byte(payload), &envelope); err == nil && envelope.Claims != nil {
		return salvageClaims(envelope.Claims), nil
	}

	var bare []json.RawMessage
	if err := json.Unmarshal([]byte(payload), &bare); err == nil {
		items := make([]extractedClaim, 0, len(bare))
		for _, raw := range bare {
			var item extractedClaim
			if json.Unmarshal(raw, &item) == nil {
				items = append(items, item)
			}
		}
		return salvageClaims(items), nil
	}

	// Re-run the envelope parse to surface the original error.
	err := json.Unmarshal([]byte(payload), &envelope)
	return nil, err
}

// salvageClaims keeps well-formed items and defaults missing scalars,
// dropping anything without a usable statement.
func salvageClaims(items []extractedClaim) []extractedClaim {
	kept := make([]extractedClaim, 0, len(items))
	for _, item := range items {
		item.Statement = strings.TrimSpace(item.Statement)
		if item.Statement == "" {
			continue
		}
		if item.Confidence < 0 || item.Confidence > 100 {
			item.Confidence = 50
		}
		if item.Scope == "" {
			item.Scope = "general"
		}
		kept = append(kept, item)
	}
	return kept
}

// parseClassifications parses the classification payload, accepting either
// the expected envelope or a bare array, and dropping items without a
// claim id.
func parseClassifications(payload string) ([]classification, error) {
	payload = strings.TrimSpace(payload)

	var envelope classificationResponse
	if err := json.Unmarshal([]byte(payload), &envelope); err == nil && envelope.Classifications != nil {
		return salvageClassifications(envelope.Classifications), nil
	}

	var bare []json.RawMessage
	if err := json.Unmarshal([]byte(payload), &bare); err == nil {
		items := make([]classification, 0, len(bare))
		for _, raw := range bare {
			var item classification
			if json.Unmarshal(raw, &item) == nil {
				items = append(items, item)
			}
		}
		return salvageClassifications(items), nil
	}

	err := json.Unmarshal([]byte(payload), &envelope)
	return nil, err
}

func salvageClassifications(items []classification) []classification {
	kept := make([]classification, 0, len(items))
	for _, item := range items {
		if item.ClaimID == "" {
			continue
		}
		if item.Confidence < 0 {
			item.Confidence = 0
		}
		if item.Confidence > 100 {
			item.Confidence = 100
		}
		if item.SupportingSources < 0 {
			item.SupportingSources = 0
		}
		if item.ContradictingSources < 0 {
			item.ContradictingSources = 0
		}
		kept = append(kept, item)
	}
	return kept
}
