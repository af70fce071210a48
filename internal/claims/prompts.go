package claims

import (
	"fmt"
	"strings"

	"scholarbrief/internal/model"
)

const extractionSystem = `You are a precise research analyst extracting factual claims from academic sources.

Your task is to identify distinct, verifiable claims that directly address the research question.

Rules:
1. Each claim must be atomic (single idea, not compound)
2. Each claim must be specific and falsifiable
3. Avoid vague or opinion-based statements
4. Include only claims that appear in the provided text
5. Do not hallucinate or infer claims not present
6. Attribute each claim to its source document(s)

Output valid JSON matching the exact schema provided.`

const extractionPromptTemplate = `Research Query: %s

Document Chunks to Analyze:
%s

Extract all distinct factual claims that are relevant to the research query.

For each claim:
- statement: A clear, atomic claim (10-500 chars)
- source_ids: List of document IDs where this claim appears
- evidence: Direct quotes or close paraphrases supporting the claim
- confidence: How clearly is this stated? (0-100)
- scope: "general" (broad claim), "specific" (narrow/conditional), or "qualified" (with caveats)

Output JSON:
{
  "claims": [
    {
      "statement": "Clear factual claim",
      "source_ids": ["doc_id_1"],
      "evidence": ["Supporting quote from text"],
      "confidence": 85,
      "scope": "general"
    }
  ],
  "extraction_notes": "Any observations about the extraction"
}

Extract claims now:`

const classificationSystem = `You are a research analyst determining agreement levels across sources.

Classify each claim based on how sources relate to it:
- "consensus": Multiple sources agree, no contradictions
- "disagreement": Sources present conflicting views
- "uncertain": Limited evidence, ambiguous, or single source

Be precise and provide reasoning for each classification.`

const classificationPromptTemplate = `Claims to Classify:
%s

Source Information:
%s

For each claim, determine:
1. type: consensus, disagreement, or uncertain
2. supporting_sources: How many sources support this claim
3. contradicting_sources: How many sources contradict this claim
4. confidence: Adjusted confidence (0-100) based on source agreement
5. reasoning: Brief explanation of classification

Output JSON:
{
  "classifications": [
    {
      "claim_id": "claim-uuid",
      "type": "consensus",
      "supporting_sources": 3,
      "contradicting_sources": 0,
      "confidence": 90,
      "reasoning": "Three independent sources confirm this finding"
    }
  ]
}

Classify now:`

// formatChunksForExtraction groups chunks by document with clear source
// attribution so the model can fill source_ids correctly.
func formatChunksForExtraction(chunks []model.Chunk) string {
	var order []string
	byDoc := make(map[string][]model.Chunk)
	for _, chunk := range chunks {
		if _, seen := byDoc[chunk.DocumentID]; !seen {
			order = append(order, chunk.DocumentID)
		}
		byDoc[chunk.DocumentID] = append(byDoc[chunk.DocumentID], chunk)
	}

	var b strings.Builder
	for _, docID := range order {
		docChunks := byDoc[docID]
		title := docChunks[0].Metadata.SourceTitle
		if title == "" {
			title = "Unknown"
		}

		fmt.Fprintf(&b, "\n=== SOURCE: %s (ID: %s) ===\n", title, docID)
		for _, chunk := range docChunks {
			if section := chunk.Metadata.SectionTitle; section != "" {
				fmt.Fprintf(&b, "\n[Section: %s]\n", section)
			}
			b.WriteString(chunk.Content)
			b.WriteString("\n")
		}
		b.WriteString(strings.Repeat("=", 50) + "\n")
	}

	return b.String()
}

// formatSourceList renders sources one per line for the classification
// prompt.
func formatSourceList(sources []model.Source) string {
	if len(sources) == 0 {
		return "No source metadata available"
	}

	lines := make([]string, 0, len(sources))
	for _, s := range sources {
		authors := "Unknown"
		if len(s.Authors) > 0 {
			authors = strings.Join(s.Authors, ", ")
		}
		lines = append(lines, fmt.Sprintf("- %s: %s by %s", s.ID, s.Title, authors))
	}
	return strings.Join(lines, "\n")
}
