package claims

import (
	"context"
	"fmt"

	"scholarbrief/internal/embed"
	"scholarbrief/internal/model"
)

// DefaultDedupThreshold is the cosine similarity above which two claim
// statements count as duplicates
const DefaultDedupThreshold = 0.9

// DefaultClusterThreshold is the minimum similarity for joining an
// existing cluster
const DefaultClusterThreshold = 0.75

// Deduplicator collapses near-duplicate claims and groups related ones
// using embedding similarity
type Deduplicator struct {
	embedder embed.Gateway
}

// NewDeduplicator creates a deduplicator over the given embedding gateway
func NewDeduplicator(gw embed.Gateway) *Deduplicator {
	return &Deduplicator{embedder: gw}
}

// Deduplicate removes near-duplicate claims. For each duplicate pair the
// claim with higher confidence survives (tie-break: more source ids, then
// earlier position), and the loser's source ids merge into the survivor.
// Survivors keep their original relative order. Statements are embedded in
// one batched call.
func (d *Deduplicator) Deduplicate(ctx context.Context, claims []model.Claim, threshold float64) ([]model.Claim, error) {
	if len(claims) <= 1 {
		return claims, nil
	}
	if threshold <= 0 {
		threshold = DefaultDedupThreshold
	}

	vectors, err := d.embedStatements(ctx, claims)
	if err != nil {
		return nil, err
	}

	eliminated := make([]bool, len(claims))
	for i := 0; i < len(claims); i++ {
		if eliminated[i] {
			continue
		}
		for j := i + 1; j < len(claims); j++ {
			if eliminated[j] {
				continue
			}

			if embed.Cosine(vectors[i], vectors[j]) < threshold {
				continue
			}

			winner, loser := i, j
			if claims[j].Confidence > claims[i].Confidence ||
				(claims[j].Confidence == claims[i].Confidence && len(claims[j].SourceIDs) > len(claims[i].SourceIDs)) {
				winner, loser = j, i
			}

			for _, sid := range claims[loser].SourceIDs {
				claims[winner].AddSource(sid)
			}
			eliminated[loser] = true

			if loser == i {
				break
			}
		}
	}

	survivors := make([]model.Claim, 0, len(claims))
	for i, claim := range claims {
		if !eliminated[i] {
			survivors = append(survivors, claim)
		}
	}
	return survivors, nil
}

// Cluster groups related claims with single-pass greedy clustering: each
// claim joins the cluster whose representative (always the first member,
// never a recomputed centroid) is most similar above the threshold, or
// starts a new cluster. This is an O(n*k) approximation by design; exact
// clustering buys nothing at research-session claim counts.
func (d *Deduplicator) Cluster(ctx context.Context, claims []model.Claim, threshold float64) (map[string][]model.Claim, error) {
	if len(claims) == 0 {
		return map[string][]model.Claim{}, nil
	}
	if len(claims) == 1 {
		return map[string][]model.Claim{"cluster_0": claims}, nil
	}
	if threshold <= 0 {
		threshold = DefaultClusterThreshold
	}

	vectors, err := d.embedStatements(ctx, claims)
	if err != nil {
		return nil, err
	}

	type cluster struct {
		id             string
		representative []float32
		members        []model.Claim
	}

	var clusters []*cluster
	for i, claim := range claims {
		var best *cluster
		bestSim := 0.0

		for _, c := range clusters {
			sim := embed.Cosine(vectors[i], c.representative)
			if sim >= threshold && sim > bestSim {
				bestSim = sim
				best = c
			}
		}

		if best != nil {
			best.members = append(best.members, claim)
			continue
		}

		clusters = append(clusters, &cluster{
			id:             fmt.Sprintf("cluster_%d", len(clusters)),
			representative: vectors[i],
			members:        []model.Claim{claim},
		})
	}

	result := make(map[string][]model.Claim, len(clusters))
	for _, c := range clusters {
		result[c.id] = c.members
	}
	return result, nil
}

func (d *Deduplicator) embedStatements(ctx context.Context, claims []model.Claim) ([][]float32, error) {
	statements := make([]string, len(claims))
	for i, claim := range claims {
		statements[i] = claim.Statement
	}

	vectors, err := d.embedder.EmbedBatch(ctx, statements)
	if err != nil {
		return nil, fmt.Errorf("embed claim statements: %w", err)
	}
	return vectors, nil
}
