package synth

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"scholarbrief/internal/llm"
	"scholarbrief/internal/model"
)

// trackingClient records whether Complete was called
type trackingClient struct {
	payload string
	err     error
	called  bool
}

func (c *trackingClient) Name() string { return "tracking" }
func (c *trackingClient) Complete(context.Context, llm.Request) (string, error) {
	c.called = true
	return c.payload, c.err
}
func (c *trackingClient) IsAvailable(context.Context) bool { return true }

func TestSynthesize_EmptyClaimsProducesEmptyBrief(t *testing.T) {
	client := &trackingClient{}
	s := NewSynthesizer(client, false)

	brief := s.Synthesize(context.Background(), "sess1", "some query", nil, []model.Source{{ID: "s1"}})

	if client.called {
		t.Error("Expected no LLM call for an empty claim set")
	}
	if brief.ConfidenceLevel != model.ConfidenceLow {
		t.Errorf("Expected LOW confidence, got %s", brief.ConfidenceLevel)
	}
	if brief.ConfidenceScore != 20 {
		t.Errorf("Expected confidence score 20, got %d", brief.ConfidenceScore)
	}
	if len(brief.OpenQuestions) != 1 {
		t.Errorf("Expected exactly one open question, got %d", len(brief.OpenQuestions))
	}
	if len(brief.Consensus) != 0 || len(brief.Disagreements) != 0 {
		t.Error("Expected empty consensus and disagreements")
	}
	if len(brief.Limitations) != 3 {
		t.Errorf("Expected three limitations, got %d", len(brief.Limitations))
	}
	if brief.SessionID != "sess1" || brief.Query != "some query" {
		t.Errorf("Expected session and query carried through, got %s / %s", brief.SessionID, brief.Query)
	}
}

func testClaims() []model.Claim {
	return []model.Claim{
		{ID: "c1", Statement: "Exercise reduces depressive symptoms.", Type: model.ClaimConsensus,
			Confidence: 85, SupportingSources: 3, SourceIDs: []string{"s1", "s2", "s3"},
			Evidence: []string{"Meta-analysis of 30 trials."}},
		{ID: "c2", Statement: "Intensity requirements are disputed.", Type: model.ClaimDisagreement,
			Confidence: 55, SupportingSources: 1, ContradictingSources: 1, SourceIDs: []string{"s1", "s2"}},
		{ID: "c3", Statement: "Long-term adherence effects are unclear.", Type: model.ClaimUncertain,
			Confidence: 40, SourceIDs: []string{"s3"}},
	}
}

func testSources() []model.Source {
	return []model.Source{
		{ID: "s1", Title: "Trial A"},
		{ID: "s2", Title: "Trial B"},
		{ID: "s3", Title: "Review C"},
	}
}

func TestSynthesize_FallbackOnLLMError(t *testing.T) {
	client := &trackingClient{err: fmt.Errorf("provider down")}
	s := NewSynthesizer(client, false)

	brief := s.Synthesize(context.Background(), "sess1", "q", testClaims(), testSources())

	if !client.called {
		t.Error("Expected the LLM to be attempted")
	}
	if len(brief.Consensus) != 1 {
		t.Fatalf("Expected 1 consensus item from fallback, got %d", len(brief.Consensus))
	}
	if brief.Consensus[0].Statement != "Exercise reduces depressive symptoms." {
		t.Errorf("Unexpected consensus statement: %q", brief.Consensus[0].Statement)
	}
	if len(brief.Disagreements) != 1 {
		t.Errorf("Expected 1 disagreement item, got %d", len(brief.Disagreements))
	}
	if len(brief.OpenQuestions) != 1 {
		t.Errorf("Expected 1 open question, got %d", len(brief.OpenQuestions))
	}
	if len(brief.Limitations) == 0 {
		t.Error("Expected limitations in fallback brief")
	}
}

func TestSynthesize_NilClientUsesFallback(t *testing.T) {
	s := NewSynthesizer(nil, false)

	brief := s.Synthesize(context.Background(), "sess1", "q", testClaims(), testSources())

	if len(brief.Consensus) != 1 || len(brief.Disagreements) != 1 || len(brief.OpenQuestions) != 1 {
		t.Errorf("Expected fallback brief contents, got %d/%d/%d",
			len(brief.Consensus), len(brief.Disagreements), len(brief.OpenQuestions))
	}
}

func TestSynthesize_LLMPath(t *testing.T) {
	payload := `{
		"consensus": [{"statement": "Exercise helps.", "confidence": 82, "source_count": 3, "evidence_summary": "Multiple trials agree.", "related_claim_ids": ["c1"]}],
		"disagreements": [{"claim": "Required intensity.", "perspective1": "High intensity needed.", "perspective2": "Any activity suffices.", "source_count": 2}],
		"open_questions": [{"question": "What about adherence?", "context": "Little long-term data."}],
		"limitations": ["Small sample sizes."],
		"overall_confidence": "high",
		"confidence_score": 81
	}`
	s := NewSynthesizer(&trackingClient{payload: payload}, false)

	brief := s.Synthesize(context.Background(), "sess1", "q", testClaims(), testSources())

	if brief.ConfidenceLevel != model.ConfidenceHigh || brief.ConfidenceScore != 81 {
		t.Errorf("Expected high/81, got %s/%d", brief.ConfidenceLevel, brief.ConfidenceScore)
	}
	if len(brief.Consensus) != 1 || brief.Consensus[0].Statement != "Exercise helps." {
		t.Errorf("Unexpected consensus: %v", brief.Consensus)
	}
	if brief.Consensus[0].ID == "" {
		t.Error("Expected generated consensus item id")
	}
	if len(brief.Disagreements) != 1 || brief.Disagreements[0].Perspective2 != "Any activity suffices." {
		t.Errorf("Unexpected disagreements: %v", brief.Disagreements)
	}
	if len(brief.Limitations) != 1 {
		t.Errorf("Expected limitations carried through, got %v", brief.Limitations)
	}
}

func TestFallbackConfidence_Bands(t *testing.T) {
	tests := []struct {
		name         string
		consensus    int
		disagreement int
		total        int
		sources      int
		wantLevel    model.ConfidenceLevel
		wantScore    int
	}{
		{"mostly consensus", 7, 1, 10, 5, model.ConfidenceHigh, 80},
		{"heavy disagreement", 2, 5, 10, 5, model.ConfidenceLow, 45},
		{"mixed", 4, 3, 10, 5, model.ConfidenceMedium, 65},
		{"few sources demotes high", 7, 1, 10, 2, model.ConfidenceMedium, 60},
		{"few sources caps medium", 4, 3, 10, 2, model.ConfidenceMedium, 60},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			level, score := fallbackConfidence(tt.consensus, tt.disagreement, tt.total, tt.sources)
			if level != tt.wantLevel || score != tt.wantScore {
				t.Errorf("Expected %s/%d, got %s/%d", tt.wantLevel, tt.wantScore, level, score)
			}
		})
	}
}

func TestParseSynthesis_SalvageAndCaps(t *testing.T) {
	payload := `{
		"consensus": [
			{"statement": "", "confidence": 70},
			{"statement": "A", "confidence": 150},
			{"statement": "B", "confidence": 60},
			{"statement": "C", "confidence": 60},
			{"statement": "D", "confidence": 60},
			{"statement": "E", "confidence": 60},
			{"statement": "F", "confidence": 60}
		],
		"overall_confidence": "very sure"
	}`

	resp, err := parseSynthesis(payload)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(resp.Consensus) != 5 {
		t.Errorf("Expected consensus capped at 5, got %d", len(resp.Consensus))
	}
	if resp.Consensus[0].Statement != "A" {
		t.Errorf("Expected empty statement dropped, first is %q", resp.Consensus[0].Statement)
	}
	if resp.Consensus[0].Confidence != 65 {
		t.Errorf("Expected out-of-range confidence defaulted to 65, got %d", resp.Consensus[0].Confidence)
	}
	if resp.OverallConfidence != "medium" {
		t.Errorf("Expected unknown confidence level defaulted to medium, got %q", resp.OverallConfidence)
	}
	if resp.ConfidenceScore == nil || *resp.ConfidenceScore != 65 {
		t.Errorf("Expected missing score defaulted to 65, got %v", resp.ConfidenceScore)
	}
}

func TestParseSynthesis_ExplicitZeroScoreKept(t *testing.T) {
	resp, err := parseSynthesis(`{"overall_confidence": "low", "confidence_score": 0}`)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if resp.ConfidenceScore == nil || *resp.ConfidenceScore != 0 {
		t.Errorf("Expected explicit 0 kept, got %v", resp.ConfidenceScore)
	}

	resp, err = parseSynthesis(`{"overall_confidence": "low", "confidence_score": 150}`)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if resp.ConfidenceScore == nil || *resp.ConfidenceScore != 65 {
		t.Errorf("Expected out-of-range score defaulted to 65, got %v", resp.ConfidenceScore)
	}
}

func TestParseSynthesis_LimitationTruncationKeepsValidUTF8(t *testing.T) {
	long := strings.Repeat("é", 250)
	resp, err := parseSynthesis(fmt.Sprintf(`{"limitations": [%q], "confidence_score": 70}`, long))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	lim := resp.Limitations[0]
	if !utf8.ValidString(lim) {
		t.Error("Expected truncated limitation to be valid UTF-8")
	}
	if got := utf8.RuneCountInString(lim); got != 200 {
		t.Errorf("Expected 200 runes, got %d", got)
	}
}

func TestFallbackBrief_QuestionTruncatesOnRuneBoundary(t *testing.T) {
	s := NewSynthesizer(nil, false)
	claims := []model.Claim{
		{ID: "c1", Statement: strings.Repeat("ü", 150), Type: model.ClaimUncertain, Confidence: 40},
	}

	brief := s.Synthesize(context.Background(), "sess1", "q", claims, nil)

	if len(brief.OpenQuestions) != 1 {
		t.Fatalf("Expected 1 open question, got %d", len(brief.OpenQuestions))
	}
	question := brief.OpenQuestions[0].Question
	if !utf8.ValidString(question) {
		t.Error("Expected question to be valid UTF-8")
	}
	if !strings.Contains(question, strings.Repeat("ü", 100)) || strings.Contains(question, strings.Repeat("ü", 101)) {
		t.Errorf("Expected statement cut to 100 runes, got %q", question)
	}
}

func TestParseSynthesis_UnparseableIsError(t *testing.T) {
	if _, err := parseSynthesis("Sorry, I cannot produce a brief."); err == nil {
		t.Error("Expected an error for non-JSON output")
	}
}
