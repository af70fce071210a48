package synth

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"scholarbrief/internal/model"
)

// fallbackBrief builds a brief directly from classified claims when the
// LLM is unavailable or returned garbage. Deterministic for a given
// claim set.
func (s *Synthesizer) fallbackBrief(sessionID, query string, claims []model.Claim, sources []model.Source) model.ResearchBrief {
	consensus, disagreement, uncertain := groupByType(claims)

	byConfidence := func(cs []model.Claim) []model.Claim {
		sorted := make([]model.Claim, len(cs))
		copy(sorted, cs)
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].Confidence > sorted[j].Confidence
		})
		return sorted
	}
	consensus = byConfidence(consensus)
	disagreement = byConfidence(disagreement)

	consensusItems := make([]model.ConsensusItem, 0, maxConsensusItems)
	for _, claim := range consensus {
		if len(consensusItems) == maxConsensusItems {
			break
		}
		summary := ""
		if len(claim.Evidence) > 0 {
			summary = claim.Evidence[0]
		}
		consensusItems = append(consensusItems, model.ConsensusItem{
			ID:              uuid.NewString(),
			Statement:       claim.Statement,
			Confidence:      claim.Confidence,
			Sources:         claim.SupportingSources,
			SourceIDs:       claim.SourceIDs,
			EvidenceSummary: summary,
		})
	}

	disagreementItems := make([]model.DisagreementItem, 0, maxDisagreementItems)
	for _, claim := range disagreement {
		if len(disagreementItems) == maxDisagreementItems {
			break
		}
		disagreementItems = append(disagreementItems, model.DisagreementItem{
			ID:           uuid.NewString(),
			Claim:        claim.Statement,
			Perspective1: "Supported by some sources in the analysis",
			Perspective2: "Contradicted or questioned by other sources",
			Sources:      claim.SupportingSources + claim.ContradictingSources,
			SourceIDs:    claim.SourceIDs,
		})
	}

	questions := make([]model.OpenQuestion, 0, maxOpenQuestions)
	for _, claim := range uncertain {
		if len(questions) == maxOpenQuestions {
			break
		}
		statement := truncateRunes(claim.Statement, 100)
		questions = append(questions, model.OpenQuestion{
			ID:              uuid.NewString(),
			Question:        fmt.Sprintf("What is the evidence regarding: %s?", statement),
			Context:         "This topic has limited or ambiguous evidence in the analyzed sources.",
			RelatedClaimIDs: []string{claim.ID},
		})
	}

	level, score := fallbackConfidence(len(consensus), len(disagreement), len(claims), len(sources))

	limitations := []string{
		fmt.Sprintf("Analysis based on %d sources; additional sources may provide different perspectives", len(sources)),
		fmt.Sprintf("Extracted %d claims through automated processing; manual review recommended", len(claims)),
		"Confidence levels are approximations based on source agreement patterns",
		"Some nuanced arguments may not be fully captured in atomic claims",
	}
	if len(sources) < 5 {
		limitations = append(limitations, "Limited source coverage may affect comprehensiveness")
	}

	return model.ResearchBrief{
		Query:           query,
		SessionID:       sessionID,
		Sources:         sources,
		Consensus:       consensusItems,
		Disagreements:   disagreementItems,
		OpenQuestions:   questions,
		ConfidenceLevel: level,
		ConfidenceScore: score,
		Limitations:     limitations,
		GeneratedAt:     time.Now().UTC(),
	}
}

// fallbackConfidence derives the overall band from the claim type mix.
// Fewer than three sources caps the score at 60 and demotes high to
// medium.
func fallbackConfidence(consensusCount, disagreementCount, totalClaims, sourceCount int) (model.ConfidenceLevel, int) {
	if totalClaims == 0 {
		return model.ConfidenceLow, 20
	}

	consensusRatio := float64(consensusCount) / float64(totalClaims)
	disagreementRatio := float64(disagreementCount) / float64(totalClaims)

	level := model.ConfidenceMedium
	score := 65
	switch {
	case consensusRatio > 0.6 && disagreementRatio < 0.2:
		level = model.ConfidenceHigh
		score = 80
	case disagreementRatio > 0.4:
		level = model.ConfidenceLow
		score = 45
	}

	if sourceCount < 3 {
		if score > 60 {
			score = 60
		}
		if level == model.ConfidenceHigh {
			level = model.ConfidenceMedium
		}
	}

	return level, score
}

// emptyBrief is returned when no claims survived extraction. The LLM is
// never consulted for an empty claim set.
func (s *Synthesizer) emptyBrief(sessionID, query string, sources []model.Source) model.ResearchBrief {
	return model.ResearchBrief{
		Query:     query,
		SessionID: sessionID,
		Sources:   sources,
		Consensus: []model.ConsensusItem{},
		Disagreements: []model.DisagreementItem{},
		OpenQuestions: []model.OpenQuestion{
			{
				ID:       uuid.NewString(),
				Question: "What evidence exists in the provided sources?",
				Context:  "No claims could be extracted from the documents. This may indicate the sources don't directly address the research question.",
			},
		},
		ConfidenceLevel: model.ConfidenceLow,
		ConfidenceScore: 20,
		Limitations: []string{
			"No claims could be extracted from the provided sources",
			"The research question may not be addressed by these documents",
			"Try uploading more relevant sources or refining the query",
		},
		GeneratedAt: time.Now().UTC(),
	}
}
