package retrieve

import (
	"context"
	"fmt"
	"sort"

	"scholarbrief/internal/embed"
	"scholarbrief/internal/index"
	"scholarbrief/internal/model"
)

// Retriever runs the full retrieval stage: embed the query, oversample the
// vector index, rerank and diversify.
type Retriever struct {
	index    index.Index
	embedder embed.Gateway
	reranker *Reranker
	expander *QueryExpander
}

// NewRetriever creates a retriever over the given index and embedder
func NewRetriever(idx index.Index, gw embed.Gateway) *Retriever {
	return &Retriever{
		index:    idx,
		embedder: gw,
		reranker: NewReranker(),
		expander: NewQueryExpander(),
	}
}

// Retrieve returns the top-k most relevant chunks for the query, reranked
// and diversified. An unknown session yields an empty result.
func (r *Retriever) Retrieve(ctx context.Context, sessionID, query string, topK, maxPerSource int, filters map[string]string) ([]model.RetrievedHit, error) {
	if topK <= 0 {
		topK = 10
	}

	vector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	hits, err := r.index.Query(sessionID, vector, OversampleK(topK), filters)
	if err != nil {
		return nil, fmt.Errorf("vector query: %w", err)
	}
	if len(hits) == 0 {
		return nil, nil
	}

	return r.reranker.RerankAndDiversify(hits, query, topK, maxPerSource), nil
}

// RetrieveExpanded fans the query variants out to the index, merges hits by
// id keeping the maximum relevance score on collision, and returns the
// merged results sorted descending and truncated to topK.
func (r *Retriever) RetrieveExpanded(ctx context.Context, sessionID, query string, topK int, filters map[string]string) ([]model.RetrievedHit, error) {
	if topK <= 0 {
		topK = 10
	}

	merged := make(map[string]model.RetrievedHit)
	for _, variant := range r.expander.Expand(query) {
		vector, err := r.embedder.Embed(ctx, variant)
		if err != nil {
			return nil, fmt.Errorf("embed query variant: %w", err)
		}

		hits, err := r.index.Query(sessionID, vector, topK, filters)
		if err != nil {
			return nil, fmt.Errorf("vector query: %w", err)
		}

		for _, hit := range hits {
			if existing, ok := merged[hit.ID]; !ok || hit.RelevanceScore > existing.RelevanceScore {
				merged[hit.ID] = hit
			}
		}
	}

	results := make([]model.RetrievedHit, 0, len(merged))
	for _, hit := range merged {
		results = append(results, hit)
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].RelevanceScore > results[j].RelevanceScore
	})

	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}
