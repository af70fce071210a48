package claims

import (
	"context"
	"testing"

	"scholarbrief/internal/model"
)

// stubGateway returns canned vectors per statement
type stubGateway struct {
	vectors map[string][]float32
}

func (g *stubGateway) Dimension() int { return 3 }

func (g *stubGateway) Embed(_ context.Context, text string) ([]float32, error) {
	if v, ok := g.vectors[text]; ok {
		return v, nil
	}
	return []float32{0, 0, 0}, nil
}

func (g *stubGateway) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i], _ = g.Embed(ctx, text)
	}
	return out, nil
}

func TestDeduplicate_MergesAboveThreshold(t *testing.T) {
	// cosine(a, b) ~= 0.95, above the 0.9 threshold
	gw := &stubGateway{vectors: map[string][]float32{
		"exercise helps mood":          {1, 0, 0},
		"physical exercise helps mood": {0.95, 0.3122499, 0},
	}}
	d := NewDeduplicator(gw)

	claims := []model.Claim{
		{ID: "c1", Statement: "exercise helps mood", Confidence: 60, SourceIDs: []string{"s1"}},
		{ID: "c2", Statement: "physical exercise helps mood", Confidence: 80, SourceIDs: []string{"s2"}},
	}

	result, err := d.Deduplicate(context.Background(), claims, 0.9)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(result) != 1 {
		t.Fatalf("Expected 1 surviving claim, got %d", len(result))
	}
	if result[0].Confidence != 80 {
		t.Errorf("Expected higher-confidence claim to survive, got confidence %d", result[0].Confidence)
	}
	if len(result[0].SourceIDs) != 2 {
		t.Errorf("Expected merged source ids, got %v", result[0].SourceIDs)
	}
	if !result[0].HasSource("s1") || !result[0].HasSource("s2") {
		t.Errorf("Expected both s1 and s2 in merged sources, got %v", result[0].SourceIDs)
	}
}

func TestDeduplicate_Idempotent(t *testing.T) {
	gw := &stubGateway{vectors: map[string][]float32{
		"a": {1, 0, 0},
		"b": {0.95, 0.3122499, 0},
		"c": {0, 1, 0},
	}}
	d := NewDeduplicator(gw)

	claims := []model.Claim{
		{ID: "c1", Statement: "a", Confidence: 60, SourceIDs: []string{"s1"}},
		{ID: "c2", Statement: "b", Confidence: 80, SourceIDs: []string{"s2"}},
		{ID: "c3", Statement: "c", Confidence: 70, SourceIDs: []string{"s3"}},
	}

	once, err := d.Deduplicate(context.Background(), claims, 0.9)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	twice, err := d.Deduplicate(context.Background(), once, 0.9)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(once) != len(twice) {
		t.Fatalf("Expected idempotent result, got %d then %d claims", len(once), len(twice))
	}
	for i := range once {
		if once[i].ID != twice[i].ID {
			t.Errorf("Claim order changed at %d: %s vs %s", i, once[i].ID, twice[i].ID)
		}
	}
}

func TestDeduplicate_KeepsDistinctClaims(t *testing.T) {
	gw := &stubGateway{vectors: map[string][]float32{
		"a": {1, 0, 0},
		"b": {0, 1, 0},
	}}
	d := NewDeduplicator(gw)

	claims := []model.Claim{
		{ID: "c1", Statement: "a", Confidence: 60, SourceIDs: []string{"s1"}},
		{ID: "c2", Statement: "b", Confidence: 80, SourceIDs: []string{"s2"}},
	}

	result, err := d.Deduplicate(context.Background(), claims, 0.9)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("Expected both claims to survive, got %d", len(result))
	}
	if result[0].ID != "c1" || result[1].ID != "c2" {
		t.Errorf("Expected original order preserved, got %s, %s", result[0].ID, result[1].ID)
	}
}

func TestDeduplicate_TieBreakOnSourceCount(t *testing.T) {
	gw := &stubGateway{vectors: map[string][]float32{
		"a": {1, 0, 0},
		"b": {0.95, 0.3122499, 0},
	}}
	d := NewDeduplicator(gw)

	claims := []model.Claim{
		{ID: "c1", Statement: "a", Confidence: 70, SourceIDs: []string{"s1"}},
		{ID: "c2", Statement: "b", Confidence: 70, SourceIDs: []string{"s2", "s3"}},
	}

	result, err := d.Deduplicate(context.Background(), claims, 0.9)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(result) != 1 {
		t.Fatalf("Expected 1 surviving claim, got %d", len(result))
	}
	if result[0].ID != "c2" {
		t.Errorf("Expected claim with more sources to survive, got %s", result[0].ID)
	}
}

func TestCluster_GroupsSimilarClaims(t *testing.T) {
	gw := &stubGateway{vectors: map[string][]float32{
		"a": {1, 0, 0},
		"b": {0.9, 0.4358899, 0}, // cos ~0.9 with a, above 0.75
		"c": {0, 1, 0},           // orthogonal to a
	}}
	d := NewDeduplicator(gw)

	claims := []model.Claim{
		{ID: "c1", Statement: "a"},
		{ID: "c2", Statement: "b"},
		{ID: "c3", Statement: "c"},
	}

	clusters, err := d.Cluster(context.Background(), claims, 0.75)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(clusters) != 2 {
		t.Fatalf("Expected 2 clusters, got %d", len(clusters))
	}

	first, ok := clusters["cluster_0"]
	if !ok {
		t.Fatal("Expected cluster_0 to exist")
	}
	if len(first) != 2 {
		t.Errorf("Expected cluster_0 to hold the two similar claims, got %d", len(first))
	}
	if first[0].ID != "c1" {
		t.Errorf("Expected the first member to lead its cluster, got %s", first[0].ID)
	}

	second, ok := clusters["cluster_1"]
	if !ok {
		t.Fatal("Expected cluster_1 to exist")
	}
	if len(second) != 1 || second[0].ID != "c3" {
		t.Errorf("Expected cluster_1 to hold only c3, got %v", second)
	}
}
