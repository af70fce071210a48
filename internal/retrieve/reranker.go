// Package retrieve implements the retrieval stage: vector search with
// oversampling, composite re-ranking, per-source diversity enforcement and
// query expansion.
package retrieve

import (
	"math"
	"sort"
	"strings"

	"scholarbrief/internal/model"
)

// DefaultMaxPerSource caps how many chunks one document may contribute
const DefaultMaxPerSource = 4

// Reranker re-scores vector-search hits using auxiliary signals beyond raw
// similarity: content-length heuristic, query keyword overlap and section
// title match.
type Reranker struct{}

// NewReranker creates a new reranker
func NewReranker() *Reranker {
	return &Reranker{}
}

// Rerank applies the composite score to every hit and returns hits ordered
// by descending score. Scores stay within [0, 100].
func (r *Reranker) Rerank(hits []model.RetrievedHit, query string) []model.RetrievedHit {
	queryTerms := distinctTerms(query)

	scored := make([]model.RetrievedHit, len(hits))
	copy(scored, hits)

	for i := range scored {
		scored[i].RelevanceScore = compositeScore(scored[i], queryTerms)
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].RelevanceScore > scored[j].RelevanceScore
	})

	return scored
}

// RerankAndDiversify reranks hits, then enforces source diversity: a greedy
// pass admits at most maxPerSource hits per document, and if fewer than
// topK survive, the highest-scoring skipped hits backfill the remainder.
// The result is ordered by descending score with length <= topK.
func (r *Reranker) RerankAndDiversify(hits []model.RetrievedHit, query string, topK, maxPerSource int) []model.RetrievedHit {
	if maxPerSource <= 0 {
		maxPerSource = DefaultMaxPerSource
	}

	ranked := r.Rerank(hits, query)
	return diversify(ranked, topK, maxPerSource)
}

// OversampleK returns how many candidates to request from the vector index
// before reranking, giving the diversity pass enough material.
func OversampleK(topK int) int {
	k := topK * 2
	if k > 50 {
		k = 50
	}
	return k
}

// distinctTerms lowercases and splits the query, dropping repeated words
// so each term contributes to the keyword boost at most once.
func distinctTerms(query string) []string {
	seen := make(map[string]bool)
	var terms []string
	for _, term := range strings.Fields(strings.ToLower(query)) {
		if seen[term] {
			continue
		}
		seen[term] = true
		terms = append(terms, term)
	}
	return terms
}

// compositeScore multiplies the raw similarity by the boost factors and
// clamps to [0, 100], rounded to two decimals.
func compositeScore(hit model.RetrievedHit, queryTerms []string) float64 {
	base := hit.RelevanceScore

	length := len(hit.Content)
	lengthBoost := 1.0
	switch {
	case length >= 200 && length <= 1000:
		lengthBoost = 1.05
	case length < 100:
		lengthBoost = 0.9
	}

	contentLower := strings.ToLower(hit.Content)
	keywordMatches := 0
	for _, term := range queryTerms {
		if strings.Contains(contentLower, term) {
			keywordMatches++
		}
	}
	keywordBoost := 1 + 0.02*float64(keywordMatches)

	sectionBoost := 1.0
	if section := strings.ToLower(hit.Metadata.SectionTitle); section != "" {
		for _, term := range queryTerms {
			if strings.Contains(section, term) {
				sectionBoost = 1.1
				break
			}
		}
	}

	final := math.Min(base*lengthBoost*keywordBoost*sectionBoost, 100)
	return math.Round(final*100) / 100
}

// diversify runs the greedy per-source admission pass over hits already
// sorted by descending score, then backfills from the skipped hits. The
// combined result is re-sorted so ordering stays non-increasing in score.
func diversify(ranked []model.RetrievedHit, topK, maxPerSource int) []model.RetrievedHit {
	if topK <= 0 || len(ranked) == 0 {
		return nil
	}

	selected := make([]model.RetrievedHit, 0, topK)
	skipped := make([]model.RetrievedHit, 0)
	perSource := make(map[string]int)

	for _, hit := range ranked {
		if len(selected) >= topK {
			break
		}
		if perSource[hit.DocumentID] < maxPerSource {
			selected = append(selected, hit)
			perSource[hit.DocumentID]++
		} else {
			skipped = append(skipped, hit)
		}
	}

	// Backfill with the best skipped hits regardless of source.
	for _, hit := range skipped {
		if len(selected) >= topK {
			break
		}
		selected = append(selected, hit)
	}

	sort.SliceStable(selected, func(i, j int) bool {
		return selected[i].RelevanceScore > selected[j].RelevanceScore
	})

	return selected
}
