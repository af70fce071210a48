package synth

import (
	"encoding/json"
	"strings"
	"unicode/utf8"
)

// List caps and limitation truncation applied during validation and
// partial recovery.
const (
	maxConsensusItems    = 5
	maxDisagreementItems = 3
	maxOpenQuestions     = 4
	maxLimitations       = 5
	maxLimitationChars   = 200
)

type consensusItem struct {
	Statement       string   `json:"statement"`
	Confidence      int      `json:"confidence"`
	SourceCount     int      `json:"source_count"`
	EvidenceSummary string   `json:"evidence_summary"`
	RelatedClaimIDs []string `json:"related_claim_ids"`
}

type disagreementItem struct {
	Claim        string `json:"claim"`
	Perspective1 string `json:"perspective1"`
	Perspective2 string `json:"perspective2"`
	SourceCount  int    `json:"source_count"`
	TensionLevel string `json:"tension_level"`
}

type openQuestionItem struct {
	Question   string `json:"question"`
	Context    string `json:"context"`
	Importance string `json:"importance"`
}

type synthesisResponse struct {
	Consensus         []consensusItem    `json:"consensus"`
	Disagreements     []disagreementItem `json:"disagreements"`
	OpenQuestions     []openQuestionItem `json:"open_questions"`
	Limitations       []string           `json:"limitations"`
	OverallConfidence string             `json:"overall_confidence"`

	// Pointer so a missing field is distinguishable from an explicit 0.
	ConfidenceScore *int `json:"confidence_score"`
}

// parseSynthesis parses the synthesis payload. Unparseable JSON is an
// error (the caller runs the rule-based fallback); parseable JSON always
// yields a usable response via per-item salvage, with malformed items
// dropped and missing scalars defaulted.
func parseSynthesis(payload string) (*synthesisResponse, error) {
	var resp synthesisResponse
	if err := json.Unmarshal([]byte(strings.TrimSpace(payload)), &resp); err != nil {
		return nil, err
	}
	return salvage(&resp), nil
}

func salvage(resp *synthesisResponse) *synthesisResponse {
	consensus := make([]consensusItem, 0, len(resp.Consensus))
	for _, item := range resp.Consensus {
		if strings.TrimSpace(item.Statement) == "" {
			continue
		}
		if item.Confidence < 0 || item.Confidence > 100 {
			item.Confidence = 65
		}
		consensus = append(consensus, item)
		if len(consensus) == maxConsensusItems {
			break
		}
	}

	disagreements := make([]disagreementItem, 0, len(resp.Disagreements))
	for _, item := range resp.Disagreements {
		if strings.TrimSpace(item.Claim) == "" {
			continue
		}
		disagreements = append(disagreements, item)
		if len(disagreements) == maxDisagreementItems {
			break
		}
	}

	questions := make([]openQuestionItem, 0, len(resp.OpenQuestions))
	for _, item := range resp.OpenQuestions {
		if strings.TrimSpace(item.Question) == "" {
			continue
		}
		questions = append(questions, item)
		if len(questions) == maxOpenQuestions {
			break
		}
	}

	limitations := resp.Limitations
	if len(limitations) > maxLimitations {
		limitations = limitations[:maxLimitations]
	}
	for i, lim := range limitations {
		limitations[i] = truncateRunes(lim, maxLimitationChars)
	}

	confidence := resp.OverallConfidence
	switch confidence {
	case "high", "medium", "low":
	default:
		confidence = "medium"
	}

	score := resp.ConfidenceScore
	if score == nil || *score < 0 || *score > 100 {
		defaulted := 65
		score = &defaulted
	}

	return &synthesisResponse{
		Consensus:         consensus,
		Disagreements:     disagreements,
		OpenQuestions:     questions,
		Limitations:       limitations,
		OverallConfidence: confidence,
		ConfidenceScore:   score,
	}
}

// truncateRunes cuts s to at most n runes, never splitting a multibyte
// character.
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
