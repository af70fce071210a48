// Package synth aggregates classified claims into the final research
// brief. The LLM path produces the richest output; a deterministic
// fallback guarantees a brief is always returned.
package synth

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"scholarbrief/internal/llm"
	"scholarbrief/internal/model"
)

// Synthesizer builds research briefs from classified claims
type Synthesizer struct {
	client  llm.Client
	verbose bool
}

// NewSynthesizer creates a synthesizer over the given completion client
func NewSynthesizer(client llm.Client, verbose bool) *Synthesizer {
	return &Synthesizer{client: client, verbose: verbose}
}

// Synthesize produces a complete research brief. With no claims at all the
// canned empty brief is returned without calling the LLM; on LLM failure
// the deterministic fallback runs. A brief is always produced.
func (s *Synthesizer) Synthesize(ctx context.Context, sessionID, query string, claims []model.Claim, sources []model.Source) model.ResearchBrief {
	if len(claims) == 0 {
		return s.emptyBrief(sessionID, query, sources)
	}

	if s.client == nil {
		return s.fallbackBrief(sessionID, query, claims, sources)
	}

	resp, err := s.synthesizeLLM(ctx, query, claims, sources)
	if err != nil {
		s.logf("LLM synthesis failed, using rule-based fallback: %v", err)
		return s.fallbackBrief(sessionID, query, claims, sources)
	}

	return s.buildBrief(sessionID, query, sources, resp)
}

func (s *Synthesizer) synthesizeLLM(ctx context.Context, query string, claims []model.Claim, sources []model.Source) (*synthesisResponse, error) {
	consensus, disagreement, uncertain := groupByType(claims)

	prompt := fmt.Sprintf(synthesisPromptTemplate,
		query,
		len(sources), formatSources(sources),
		len(claims),
		len(consensus), formatClaimGroup(consensus),
		len(disagreement), formatClaimGroup(disagreement),
		len(uncertain), formatClaimGroup(uncertain),
	)

	response, err := s.client.Complete(ctx, llm.Request{
		System:      synthesisSystem,
		User:        prompt,
		Temperature: 0.3,
		JSON:        true,
	})
	if err != nil {
		return nil, err
	}

	return parseSynthesis(response)
}

// buildBrief assembles the final brief from a validated synthesis response
func (s *Synthesizer) buildBrief(sessionID, query string, sources []model.Source, resp *synthesisResponse) model.ResearchBrief {
	consensus := make([]model.ConsensusItem, 0, len(resp.Consensus))
	for _, item := range resp.Consensus {
		consensus = append(consensus, model.ConsensusItem{
			ID:              uuid.NewString(),
			Statement:       item.Statement,
			Confidence:      item.Confidence,
			Sources:         item.SourceCount,
			SourceIDs:       item.RelatedClaimIDs,
			EvidenceSummary: item.EvidenceSummary,
		})
	}

	disagreements := make([]model.DisagreementItem, 0, len(resp.Disagreements))
	for _, item := range resp.Disagreements {
		disagreements = append(disagreements, model.DisagreementItem{
			ID:           uuid.NewString(),
			Claim:        item.Claim,
			Perspective1: item.Perspective1,
			Perspective2: item.Perspective2,
			Sources:      item.SourceCount,
		})
	}

	questions := make([]model.OpenQuestion, 0, len(resp.OpenQuestions))
	for _, item := range resp.OpenQuestions {
		questions = append(questions, model.OpenQuestion{
			ID:       uuid.NewString(),
			Question: item.Question,
			Context:  item.Context,
		})
	}

	level := model.ConfidenceLevel(resp.OverallConfidence)
	switch level {
	case model.ConfidenceHigh, model.ConfidenceMedium, model.ConfidenceLow:
	default:
		level = model.ConfidenceMedium
	}

	score := 65
	if resp.ConfidenceScore != nil {
		score = *resp.ConfidenceScore
	}

	return model.ResearchBrief{
		Query:           query,
		SessionID:       sessionID,
		Sources:         sources,
		Consensus:       consensus,
		Disagreements:   disagreements,
		OpenQuestions:   questions,
		ConfidenceLevel: level,
		ConfidenceScore: score,
		Limitations:     resp.Limitations,
		GeneratedAt:     time.Now().UTC(),
	}
}

func groupByType(claims []model.Claim) (consensus, disagreement, uncertain []model.Claim) {
	for _, claim := range claims {
		switch claim.Type {
		case model.ClaimConsensus:
			consensus = append(consensus, claim)
		case model.ClaimDisagreement:
			disagreement = append(disagreement, claim)
		default:
			uncertain = append(uncertain, claim)
		}
	}
	return
}

func (s *Synthesizer) logf(format string, args ...interface{}) {
	if s.verbose {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}
}
