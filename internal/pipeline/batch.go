package pipeline

import (
	"context"
	"fmt"
	"sort"

	"scholarbrief/internal/index"
	"scholarbrief/internal/ingest"
	"scholarbrief/internal/model"
	"scholarbrief/internal/store"
	"scholarbrief/internal/worker"
)

// ingestJob converts, chunks and embeds one input inside the worker pool.
// Index and session writes happen after collection, on the caller's
// goroutine.
type ingestJob struct {
	p        *Pipeline
	ctx      context.Context
	input    string
	position int
}

type ingestJobResult struct {
	input    string
	position int
	doc      *ingest.Document
	chunks   []model.Chunk
	items    []index.Item
	err      error
}

func (r *ingestJobResult) GetError() error { return r.err }

func (j *ingestJob) Execute(poolCtx context.Context) worker.Result {
	res := &ingestJobResult{input: j.input, position: j.position}

	// The caller's context carries the batch deadline; the pool context
	// only signals shutdown.
	ctx := j.ctx
	if ctx == nil {
		ctx = poolCtx
	}

	doc, err := j.p.convert(ctx, j.input)
	if err != nil {
		res.err = err
		return res
	}
	res.doc = doc

	chunks := j.p.chunker.Chunk(doc)
	if len(chunks) == 0 {
		res.err = fmt.Errorf("no content to index")
		return res
	}
	res.chunks = chunks

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}
	vectors, err := j.p.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		res.err = fmt.Errorf("embed chunks: %w", err)
		return res
	}

	res.items = make([]index.Item, len(chunks))
	for i := range chunks {
		res.items[i] = index.Item{Chunk: chunks[i], Vector: vectors[i]}
	}

	return res
}

// IngestConcurrent processes many inputs through a worker pool, then
// indexes and persists the successful ones in submission order. Failed
// inputs are reported in the result without aborting the batch.
func (p *Pipeline) IngestConcurrent(ctx context.Context, sessionID string, inputs []string, query string, workers int) (*IngestResult, error) {
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

	pool := worker.NewPool(workers)
	pool.Start()
	for i, input := range inputs {
		pool.Submit(&ingestJob{p: p, ctx: ctx, input: input, position: i})
	}

	collected := make([]*ingestJobResult, 0, len(inputs))
	for _, r := range pool.Wait() {
		collected = append(collected, r.(*ingestJobResult))
	}
	sort.Slice(collected, func(i, j int) bool {
		return collected[i].position < collected[j].position
	})

	result := &IngestResult{SessionID: sessionID}

	for _, res := range collected {
		if res.err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", res.input, res.err))
			continue
		}

		if err := p.index.Add(sessionID, res.items); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", res.input, err))
			continue
		}

		src := ingest.NewSource(res.doc, len(session.Sources))
		session.Sources = append(session.Sources, src)
		session.Chunks = append(session.Chunks, res.chunks...)
		result.Sources = append(result.Sources, src)
		result.TotalChunks += len(res.chunks)

		p.logf("indexed %s: %d chunks", res.doc.Title, len(res.chunks))
	}

	if err := p.store.Put(session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	return result, nil
}
