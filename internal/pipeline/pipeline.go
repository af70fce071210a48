// Package pipeline orchestrates the research stages: ingestion,
// retrieval, claim extraction and synthesis. All dependencies are
// injected once at construction; stages degrade rather than fail when
// the LLM is unavailable.
package pipeline

import (
	"context"
	"fmt"
	"os"

	"scholarbrief/internal/claims"
	"scholarbrief/internal/embed"
	"scholarbrief/internal/index"
	"scholarbrief/internal/ingest"
	"scholarbrief/internal/llm"
	"scholarbrief/internal/model"
	"scholarbrief/internal/retrieve"
	"scholarbrief/internal/store"
	"scholarbrief/internal/synth"
)

// Pipeline wires the research stages over shared storage and gateways
type Pipeline struct {
	cfg   *model.Config
	store store.Store
	index index.Index

	embedder    embed.Gateway
	retriever   *retrieve.Retriever
	extractor   *claims.Extractor
	deduper     *claims.Deduplicator
	classifier  *claims.Classifier
	synthesizer *synth.Synthesizer

	textConv *ingest.TextConverter
	urlConv  *ingest.URLConverter
	chunker  *ingest.Chunker

	verbose bool
}

// NewPipeline constructs the pipeline from its injected dependencies.
// A nil llm client disables LLM stages; extraction returns no claims and
// synthesis falls back to rule-based output.
func NewPipeline(cfg *model.Config, st store.Store, idx index.Index, embedder embed.Gateway, client llm.Client) *Pipeline {
	verbose := cfg.Output.Verbose
	return &Pipeline{
		cfg:         cfg,
		store:       st,
		index:       idx,
		embedder:    embedder,
		retriever:   retrieve.NewRetriever(idx, embedder),
		extractor:   claims.NewExtractor(client, verbose),
		deduper:     claims.NewDeduplicator(embedder),
		classifier:  claims.NewClassifier(client, verbose),
		synthesizer: synth.NewSynthesizer(client, verbose),
		textConv:    ingest.NewTextConverter(),
		urlConv:     ingest.NewURLConverter(cfg.HTTP.Timeout, cfg.HTTP.UserAgent, cfg.HTTP.MaxBodyBytes),
		chunker:     ingest.NewChunker(cfg.Ingest.ChunkSize, cfg.Ingest.ChunkOverlap),
		verbose:     verbose,
	}
}

// IngestResult summarizes one ingestion run
type IngestResult struct {
	SessionID   string         `json:"session_id"`
	Sources     []model.Source `json:"sources"`
	TotalChunks int            `json:"total_chunks"`
	Errors      []string       `json:"errors,omitempty"`
}

// Ingest converts the inputs (file paths or URLs), chunks and indexes
// their content, and records the sources in the session. Inputs that
// fail are reported in the result without aborting the rest.
func (p *Pipeline) Ingest(ctx context.Context, sessionID string, inputs []string, query string) (*IngestResult, error) {
	session, err := p.store.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if session == nil {
		session = store.NewSession(sessionID)
	}
	if query != "" {
		session.Query = query
	}

	result := &IngestResult{SessionID: sessionID}

	for _, input := range inputs {
		doc, err := p.convert(ctx, input)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", input, err))
			continue
		}

		chunks := p.chunker.Chunk(doc)
		if len(chunks) == 0 {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: no content to index", input))
			continue
		}

		if err := p.indexChunks(ctx, sessionID, chunks); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", input, err))
			continue
		}

		src := ingest.NewSource(doc, len(session.Sources))
		session.Sources = append(session.Sources, src)
		session.Chunks = append(session.Chunks, chunks...)
		result.Sources = append(result.Sources, src)
		result.TotalChunks += len(chunks)

		p.logf("indexed %s: %d chunks", doc.Title, len(chunks))
	}

	if err := p.store.Put(session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	return result, nil
}

func (p *Pipeline) convert(ctx context.Context, input string) (*ingest.Document, error) {
	if ingest.IsURL(input) {
		return p.urlConv.Convert(ctx, input)
	}
	return p.textConv.Convert(ctx, input)
}

func (p *Pipeline) indexChunks(ctx context.Context, sessionID string, chunks []model.Chunk) error {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}

	vectors, err := p.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed chunks: %w", err)
	}

	items := make([]index.Item, len(chunks))
	for i := range chunks {
		items[i] = index.Item{Chunk: chunks[i], Vector: vectors[i]}
	}

	return p.index.Add(sessionID, items)
}

// Retrieve returns the top-k relevant chunks for the query and records
// each source's best relevance score in the session. An unknown session
// yields an empty result.
func (p *Pipeline) Retrieve(ctx context.Context, sessionID, query string, topK int, filters map[string]string) ([]model.RetrievedHit, error) {
	session, err := p.store.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if session == nil {
		return nil, nil
	}

	if err := p.ensureIndexed(ctx, session); err != nil {
		return nil, err
	}

	var hits []model.RetrievedHit
	if p.cfg.Retrieval.ExpandQueries {
		hits, err = p.retriever.RetrieveExpanded(ctx, sessionID, query, topK, filters)
	} else {
		hits, err = p.retriever.Retrieve(ctx, sessionID, query, topK, p.cfg.Retrieval.MaxPerSource, filters)
	}
	if err != nil {
		return nil, err
	}

	if updateSourceRelevance(session, hits) {
		if err := p.store.Put(session); err != nil {
			return nil, fmt.Errorf("save session: %w", err)
		}
	}

	return hits, nil
}

// ensureIndexed rebuilds the in-process vector index from persisted
// session chunks. The index is process-local, so a session ingested by an
// earlier invocation needs its vectors restored; the embedding cache
// makes this a cache replay rather than fresh API calls.
func (p *Pipeline) ensureIndexed(ctx context.Context, session *store.Session) error {
	if len(session.Chunks) == 0 || p.index.Count(session.ID) > 0 {
		return nil
	}
	p.logf("rebuilding index for session %s (%d chunks)", session.ID, len(session.Chunks))
	return p.indexChunks(ctx, session.ID, session.Chunks)
}

// updateSourceRelevance records each source's best hit score. Reports
// whether any score changed.
func updateSourceRelevance(session *store.Session, hits []model.RetrievedHit) bool {
	best := make(map[string]float64)
	for _, hit := range hits {
		if hit.RelevanceScore > best[hit.DocumentID] {
			best[hit.DocumentID] = hit.RelevanceScore
		}
	}

	changed := false
	for docID, score := range best {
		if src, ok := session.SourceByID(docID); ok && score != src.RelevanceScore {
			src.RelevanceScore = score
			changed = true
		}
	}
	return changed
}

// ExtractAndClassify runs claim extraction over the session's chunks,
// deduplicates, classifies, optionally clusters, and persists the
// resulting claims. An unknown session or empty corpus yields no claims.
func (p *Pipeline) ExtractAndClassify(ctx context.Context, sessionID, query string) ([]model.Claim, error) {
	session, err := p.store.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if session == nil || len(session.Chunks) == 0 {
		return nil, nil
	}

	extracted := p.extractor.Extract(ctx, query, session.Chunks, session.Sources)
	if len(extracted) == 0 {
		p.logf("no claims extracted for session %s", sessionID)
		return nil, nil
	}
	p.logf("extracted %d claims", len(extracted))

	deduped, err := p.deduper.Deduplicate(ctx, extracted, p.cfg.Claims.DedupThreshold)
	if err != nil {
		p.logf("deduplication skipped: %v", err)
		deduped = extracted
	}

	classified := p.classifier.Classify(ctx, deduped, session.Sources)

	if len(classified) > p.cfg.Claims.ClusterMinClaims {
		clusters, err := p.deduper.Cluster(ctx, classified, p.cfg.Claims.ClusterThreshold)
		if err != nil {
			p.logf("clustering skipped: %v", err)
		} else {
			applyClusterIDs(classified, clusters)
		}
	}

	session.SetClaims(classified)
	if err := p.store.Put(session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	return classified, nil
}

// applyClusterIDs records cluster membership in claim metadata
func applyClusterIDs(cs []model.Claim, clusters map[string][]model.Claim) {
	membership := make(map[string]string)
	for clusterID, members := range clusters {
		for _, claim := range members {
			membership[claim.ID] = clusterID
		}
	}

	for i := range cs {
		if clusterID, ok := membership[cs[i].ID]; ok {
			if cs[i].Metadata == nil {
				cs[i].Metadata = make(map[string]string)
			}
			cs[i].Metadata["cluster_id"] = clusterID
		}
	}
}

// Synthesize builds the research brief from the session's claims and
// persists it. A session with no claims produces the empty brief.
func (p *Pipeline) Synthesize(ctx context.Context, sessionID, query string) (*model.ResearchBrief, error) {
	session, err := p.store.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if session == nil {
		return nil, fmt.Errorf("session %s not found", sessionID)
	}
	if query == "" {
		query = session.Query
	}

	brief := p.synthesizer.Synthesize(ctx, sessionID, query, session.Claims, session.Sources)

	session.Brief = &brief
	if err := p.store.Put(session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	return &brief, nil
}

func (p *Pipeline) logf(format string, args ...interface{}) {
	if p.verbose {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}
}
