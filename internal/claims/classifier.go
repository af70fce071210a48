package claims

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"scholarbrief/internal/llm"
	"scholarbrief/internal/model"
)

// Classifier assigns each claim an agreement type and adjusted confidence.
// The primary path is one batched LLM call; any claim the model skips, and
// the whole batch on LLM or parse failure, falls back to the rule below.
type Classifier struct {
	client  llm.Client
	verbose bool
}

// NewClassifier creates a classifier over the given completion client
func NewClassifier(client llm.Client, verbose bool) *Classifier {
	return &Classifier{client: client, verbose: verbose}
}

// claimContext is the per-claim shape sent to the classification prompt
type claimContext struct {
	ID                string   `json:"id"`
	Statement         string   `json:"statement"`
	SourceIDs         []string `json:"source_ids"`
	InitialConfidence int      `json:"initial_confidence"`
	EvidenceCount     int      `json:"evidence_count"`
}

// Classify updates Type, Confidence, SupportingSources and
// ContradictingSources in place and returns the same claims. SourceIDs are
// never mutated here.
func (c *Classifier) Classify(ctx context.Context, claims []model.Claim, sources []model.Source) []model.Claim {
	if len(claims) == 0 {
		return claims
	}

	results, err := c.classifyLLM(ctx, claims, sources)
	if err != nil {
		c.logf("claim classification failed, using rule-based fallback: %v", err)
		for i := range claims {
			claims[i].Type = FallbackClassification(&claims[i])
		}
		return claims
	}

	byID := make(map[string]classification, len(results))
	for _, r := range results {
		byID[r.ClaimID] = r
	}

	for i := range claims {
		claim := &claims[i]
		r, ok := byID[claim.ID]
		if !ok {
			claim.Type = FallbackClassification(claim)
			continue
		}

		claim.Type = parseClaimType(r.Type, claim)
		claim.SupportingSources = r.SupportingSources
		claim.ContradictingSources = r.ContradictingSources
		claim.Confidence = r.Confidence
		claim.ClampConfidence()

		if r.Reasoning != "" {
			if claim.Metadata == nil {
				claim.Metadata = make(map[string]string)
			}
			claim.Metadata["classification_reasoning"] = r.Reasoning
		}
	}

	return claims
}

func (c *Classifier) classifyLLM(ctx context.Context, claims []model.Claim, sources []model.Source) ([]classification, error) {
	if c.client == nil {
		return nil, fmt.Errorf("no completion client configured")
	}

	contexts := make([]claimContext, len(claims))
	for i, claim := range claims {
		contexts[i] = claimContext{
			ID:                claim.ID,
			Statement:         claim.Statement,
			SourceIDs:         claim.SourceIDs,
			InitialConfidence: claim.Confidence,
			EvidenceCount:     len(claim.Evidence),
		}
	}

	claimsJSON, err := json.MarshalIndent(contexts, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal claims: %w", err)
	}

	prompt := fmt.Sprintf(classificationPromptTemplate, claimsJSON, formatSourceList(sources))

	response, err := c.client.Complete(ctx, llm.Request{
		System:      classificationSystem,
		User:        prompt,
		Temperature: 0.1,
		MaxTokens:   2000,
		JSON:        true,
	})
	if err != nil {
		return nil, err
	}

	return parseClassifications(response)
}

// FallbackClassification is the deterministic classification rule applied
// when the LLM path is unavailable for a claim:
//
//	consensus    3+ sources with confidence >= 70, or 2+ with >= 60
//	disagreement any contradicting sources recorded
//	uncertain    everything else
func FallbackClassification(claim *model.Claim) model.ClaimType {
	sourceCount := len(claim.SourceIDs)

	switch {
	case sourceCount >= 3 && claim.Confidence >= 70:
		return model.ClaimConsensus
	case sourceCount >= 2 && claim.Confidence >= 60:
		return model.ClaimConsensus
	case claim.ContradictingSources > 0:
		return model.ClaimDisagreement
	default:
		return model.ClaimUncertain
	}
}

func parseClaimType(raw string, claim *model.Claim) model.ClaimType {
	switch model.ClaimType(raw) {
	case model.ClaimConsensus, model.ClaimDisagreement, model.ClaimUncertain:
		return model.ClaimType(raw)
	default:
		return FallbackClassification(claim)
	}
}

func (c *Classifier) logf(format string, args ...interface{}) {
	if c.verbose {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}
}
