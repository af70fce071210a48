package synth

import (
	"fmt"
	"strings"

	"scholarbrief/internal/model"
)

const synthesisSystem = `You are a research synthesis engine creating structured research briefs.

You are NOT a chatbot. Your output must be:
1. Strictly structured JSON
2. Analytical, not conversational
3. Based only on the provided claims and sources
4. Clear about confidence levels and limitations

Your goal is to help researchers understand:
- What sources agree on (consensus)
- Where sources conflict (disagreements)
- What remains unknown (open questions)
- How confident they should be in these findings`

const synthesisPromptTemplate = `Research Query: %s

## Sources Analyzed (%d total)
%s

## Extracted Claims (%d total)
### Consensus Claims (%d):
%s

### Disagreement Claims (%d):
%s

### Uncertain Claims (%d):
%s

## Task
Synthesize these findings into a structured research brief.

Requirements:
1. CONSENSUS: Identify 3-5 key points where sources agree
   - Only include claims with confidence >= 70%% and 2+ supporting sources
   - Provide evidence summary for each

2. DISAGREEMENTS: Identify 2-3 areas where sources conflict
   - Clearly state both perspectives
   - Note the tension level (low/moderate/high)

3. OPEN QUESTIONS: Identify 2-4 important unanswered questions
   - Based on gaps in the evidence
   - Note importance (low/medium/high)

4. LIMITATIONS: List 3-5 limitations of this analysis

5. CONFIDENCE: Assess overall confidence
   - "high" if strong consensus, many sources, low disagreement
   - "medium" if mixed agreement or moderate source count
   - "low" if significant disagreement or limited sources
   - Provide numeric score 0-100

Output strict JSON:
{
  "consensus": [
    {
      "statement": "Clear consensus statement",
      "confidence": 85,
      "source_count": 3,
      "evidence_summary": "Summary of supporting evidence",
      "related_claim_ids": []
    }
  ],
  "disagreements": [
    {
      "claim": "The contested topic",
      "perspective1": "View supported by some sources",
      "perspective2": "Opposing view from other sources",
      "source_count": 4,
      "tension_level": "moderate"
    }
  ],
  "open_questions": [
    {
      "question": "What remains unknown?",
      "context": "Why this matters and what we know so far",
      "importance": "high"
    }
  ],
  "limitations": [
    "Limitation 1",
    "Limitation 2"
  ],
  "overall_confidence": "medium",
  "confidence_score": 72
}

Generate the research brief now:`

// formatSources renders sources with attribution detail for the prompt
func formatSources(sources []model.Source) string {
	if len(sources) == 0 {
		return "No source metadata available"
	}

	var b strings.Builder
	for i, source := range sources {
		authors := "Unknown"
		if len(source.Authors) > 0 {
			shown := source.Authors
			suffix := ""
			if len(shown) > 3 {
				shown = shown[:3]
				suffix = " et al."
			}
			authors = strings.Join(shown, ", ") + suffix
		}

		date := source.Date
		if date == "" {
			date = "n.d."
		}

		fmt.Fprintf(&b, "%d. [%s] %s\n   Authors: %s | Date: %s\n   Claims extracted: %d\n",
			i+1, shortID(source.ID), source.Title, authors, date, source.ClaimsExtracted)
	}
	return b.String()
}

// formatClaimGroup renders one classification group for the prompt
func formatClaimGroup(claims []model.Claim) string {
	if len(claims) == 0 {
		return "None"
	}

	var b strings.Builder
	for _, claim := range claims {
		fmt.Fprintf(&b, "- [%s] %s\n  Confidence: %d%% | Sources: %d supporting, %d contradicting\n",
			shortID(claim.ID), claim.Statement, claim.Confidence,
			claim.SupportingSources, claim.ContradictingSources)
	}
	return b.String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
