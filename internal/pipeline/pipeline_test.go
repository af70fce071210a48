package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"scholarbrief/internal/index"
	"scholarbrief/internal/model"
	"scholarbrief/internal/store"
)

// hashGateway produces deterministic vectors from text content so the
// same chunk always lands at the same point in vector space.
type hashGateway struct{}

func (hashGateway) Embed(_ context.Context, text string) ([]float32, error) {
	var sums [4]float32
	for i, r := range text {
		sums[i%4] += float32(r % 31)
	}
	norm := float32(len(text) + 1)
	return []float32{sums[0]/norm + 1, sums[1] / norm, sums[2] / norm, sums[3] / norm}, nil
}

func (g hashGateway) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := g.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		vectors[i] = v
	}
	return vectors, nil
}

func (hashGateway) Dimension() int { return 4 }

func testPipeline(t *testing.T) (*Pipeline, store.Store) {
	t.Helper()
	st, err := store.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	cfg := model.DefaultConfig()
	return NewPipeline(cfg, st, index.NewMemoryIndex(), hashGateway{}, nil), st
}

func writeInput(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	return path
}

func TestIngest_RecordsSourcesAndChunks(t *testing.T) {
	p, st := testPipeline(t)
	input := writeInput(t, "exercise.md", "# Exercise and Mood\n\nExercise improves mood in most trials.")

	result, err := p.Ingest(context.Background(), "sess1", []string{input}, "effects of exercise")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(result.Sources) != 1 {
		t.Fatalf("Expected 1 source, got %d", len(result.Sources))
	}
	if result.Sources[0].Title != "Exercise and Mood" {
		t.Errorf("Expected title from heading, got %q", result.Sources[0].Title)
	}
	if result.TotalChunks == 0 {
		t.Error("Expected chunks to be indexed")
	}
	if len(result.Errors) != 0 {
		t.Errorf("Expected no errors, got %v", result.Errors)
	}

	session, err := st.Get("sess1")
	if err != nil || session == nil {
		t.Fatalf("Expected persisted session, got %v, %v", session, err)
	}
	if session.Query != "effects of exercise" {
		t.Errorf("Expected query recorded, got %q", session.Query)
	}
	if len(session.Chunks) != result.TotalChunks {
		t.Errorf("Expected %d chunks persisted, got %d", result.TotalChunks, len(session.Chunks))
	}
}

func TestIngest_CollectsPerInputErrors(t *testing.T) {
	p, _ := testPipeline(t)
	good := writeInput(t, "note.txt", "Exercise improves sleep quality.")

	result, err := p.Ingest(context.Background(), "sess1", []string{good, "/nonexistent/file.txt"}, "")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(result.Sources) != 1 {
		t.Errorf("Expected 1 source from the good input, got %d", len(result.Sources))
	}
	if len(result.Errors) != 1 {
		t.Errorf("Expected 1 error for the bad input, got %v", result.Errors)
	}
}

func TestRetrieve_UnknownSessionIsEmpty(t *testing.T) {
	p, _ := testPipeline(t)

	hits, err := p.Retrieve(context.Background(), "missing", "query", 5, nil)
	if err != nil {
		t.Fatalf("Expected no error for unknown session, got %v", err)
	}
	if hits != nil {
		t.Errorf("Expected nil hits, got %v", hits)
	}
}

func TestRetrieve_ReturnsRankedHits(t *testing.T) {
	p, _ := testPipeline(t)
	input := writeInput(t, "study.txt",
		"Regular exercise reduces depressive symptoms across age groups. "+
			"Sleep hygiene also plays a role in mood regulation.")

	if _, err := p.Ingest(context.Background(), "sess1", []string{input}, ""); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	hits, err := p.Retrieve(context.Background(), "sess1", "exercise and depression", 5, nil)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(hits) == 0 {
		t.Fatal("Expected at least one hit")
	}
	for i := 1; i < len(hits); i++ {
		if hits[i].RelevanceScore > hits[i-1].RelevanceScore {
			t.Errorf("Expected non-increasing scores, got %f after %f",
				hits[i].RelevanceScore, hits[i-1].RelevanceScore)
		}
	}
}

func TestRetrieve_RebuildsIndexFromPersistedChunks(t *testing.T) {
	st, err := store.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	cfg := model.DefaultConfig()

	first := NewPipeline(cfg, st, index.NewMemoryIndex(), hashGateway{}, nil)
	input := writeInput(t, "study.txt", "Regular exercise reduces depressive symptoms.")
	if _, err := first.Ingest(context.Background(), "sess1", []string{input}, ""); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	// A fresh pipeline has an empty in-process index but shares the store.
	second := NewPipeline(cfg, st, index.NewMemoryIndex(), hashGateway{}, nil)
	hits, err := second.Retrieve(context.Background(), "sess1", "exercise and depression", 5, nil)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(hits) == 0 {
		t.Error("Expected hits after index rebuild from persisted chunks")
	}
}

func TestSynthesize_UnknownSessionIsError(t *testing.T) {
	p, _ := testPipeline(t)
	if _, err := p.Synthesize(context.Background(), "missing", "query"); err == nil {
		t.Error("Expected error for unknown session")
	}
}

func TestSynthesize_PersistsBrief(t *testing.T) {
	p, st := testPipeline(t)

	session := store.NewSession("sess1")
	session.Query = "effects of exercise"
	session.Sources = []model.Source{{ID: "s1", Title: "Trial A"}}
	session.SetClaims([]model.Claim{
		{ID: "c1", Statement: "Exercise reduces depressive symptoms.",
			Type: model.ClaimConsensus, Confidence: 85,
			SupportingSources: 2, SourceIDs: []string{"s1"}},
	})
	if err := st.Put(session); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	brief, err := p.Synthesize(context.Background(), "sess1", "")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if brief.Query != "effects of exercise" {
		t.Errorf("Expected session query used, got %q", brief.Query)
	}
	if len(brief.Consensus) != 1 {
		t.Errorf("Expected 1 consensus item, got %d", len(brief.Consensus))
	}

	reloaded, _ := st.Get("sess1")
	if reloaded.Brief == nil {
		t.Fatal("Expected brief persisted in session")
	}
	if reloaded.Brief.Query != "effects of exercise" {
		t.Errorf("Expected persisted brief query, got %q", reloaded.Brief.Query)
	}
}

func TestUpdateSourceRelevance(t *testing.T) {
	session := store.NewSession("sess1")
	session.Sources = []model.Source{{ID: "d1"}, {ID: "d2"}}

	hits := []model.RetrievedHit{
		{ID: "c1", DocumentID: "d1", RelevanceScore: 72.5},
		{ID: "c2", DocumentID: "d1", RelevanceScore: 60.0},
		{ID: "c3", DocumentID: "unknown", RelevanceScore: 90.0},
	}

	if !updateSourceRelevance(session, hits) {
		t.Error("Expected a score change to be reported")
	}
	src, _ := session.SourceByID("d1")
	if src.RelevanceScore != 72.5 {
		t.Errorf("Expected best hit score 72.5, got %f", src.RelevanceScore)
	}
	if session.Sources[1].RelevanceScore != 0 {
		t.Errorf("Expected d2 untouched, got %f", session.Sources[1].RelevanceScore)
	}

	// Same hits again: nothing changes.
	if updateSourceRelevance(session, hits) {
		t.Error("Expected no change on a repeat update")
	}
}

func TestExtractAndClassify_NoChunksYieldsNoClaims(t *testing.T) {
	p, st := testPipeline(t)
	st.Put(store.NewSession("sess1"))

	cs, err := p.ExtractAndClassify(context.Background(), "sess1", "query")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if cs != nil {
		t.Errorf("Expected no claims, got %v", cs)
	}
}
