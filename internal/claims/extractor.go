// Package claims implements claim extraction, deduplication, clustering and
// classification. Every stage degrades to a deterministic fallback when the
// LLM fails, so the pipeline always produces a claim set.
package claims

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"scholarbrief/internal/llm"
	"scholarbrief/internal/model"
)

// Extractor pulls atomic claims out of retrieved chunks via the LLM
type Extractor struct {
	client  llm.Client
	verbose bool
}

// NewExtractor creates a claim extractor over the given completion client
func NewExtractor(client llm.Client, verbose bool) *Extractor {
	return &Extractor{client: client, verbose: verbose}
}

// Extract returns claims found in the chunks, attributed to known sources.
// Claims start as uncertain; classification happens in a later stage. LLM
// or parse failures yield an empty claim set rather than an error: the
// degraded path is the empty-brief synthesis.
func (e *Extractor) Extract(ctx context.Context, query string, chunks []model.Chunk, sources []model.Source) []model.Claim {
	if len(chunks) == 0 || e.client == nil {
		return nil
	}

	prompt := fmt.Sprintf(extractionPromptTemplate, query, formatChunksForExtraction(chunks))

	response, err := e.client.Complete(ctx, llm.Request{
		System:      extractionSystem,
		User:        prompt,
		Temperature: 0.2,
		JSON:        true,
	})
	if err != nil {
		e.logf("claim extraction failed: %v", err)
		return nil
	}

	extracted, err := parseExtraction(response)
	if err != nil {
		e.logf("claim extraction returned unparseable JSON: %v", err)
		return nil
	}

	validSourceIDs := make(map[string]bool, len(sources))
	sourceTitles := make(map[string]string, len(sources))
	for _, s := range sources {
		validSourceIDs[s.ID] = true
		sourceTitles[s.ID] = s.Title
	}

	claims := make([]model.Claim, 0, len(extracted))
	for i, item := range extracted {
		// Every source_ids entry must reference a known source; unknown
		// references are dropped here rather than propagated.
		var sourceIDs []string
		for _, sid := range item.SourceIDs {
			if validSourceIDs[sid] {
				sourceIDs = append(sourceIDs, sid)
			}
		}

		// No usable attribution: infer from the leading context chunks.
		if len(sourceIDs) == 0 {
			sourceIDs = inferSourceIDs(chunks)
		}

		var titles []string
		for _, sid := range sourceIDs {
			if title := sourceTitles[sid]; title != "" {
				titles = append(titles, title)
			}
		}

		claim := model.Claim{
			ID:                uuid.NewString(),
			Statement:         item.Statement,
			Type:              model.ClaimUncertain,
			Confidence:        item.Confidence,
			SupportingSources: len(sourceIDs),
			SourceIDs:         sourceIDs,
			Evidence:          item.Evidence,
			Metadata: map[string]string{
				"extraction_order": strconv.Itoa(i),
				"scope":            item.Scope,
				"source_titles":    strings.Join(titles, "; "),
			},
		}
		claim.ClampConfidence()
		claims = append(claims, claim)
	}

	return claims
}

// inferSourceIDs derives attribution from the first few context chunks when
// the model supplied none.
func inferSourceIDs(chunks []model.Chunk) []string {
	limit := 3
	if len(chunks) < limit {
		limit = len(chunks)
	}

	seen := make(map[string]bool)
	var ids []string
	for _, chunk := range chunks[:limit] {
		if !seen[chunk.DocumentID] {
			seen[chunk.DocumentID] = true
			ids = append(ids, chunk.DocumentID)
		}
	}
	return ids
}

func (e *Extractor) logf(format string, args ...interface{}) {
	if e.verbose {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}
}
