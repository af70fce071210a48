package embed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"scholarbrief/internal/model"
	"scholarbrief/internal/worker"
)

// maxInputChars bounds each input; embedding models truncate around 8k
// characters anyway, so we cut client-side for predictable cache keys.
const maxInputChars = 8000

// OpenAIGateway implements Gateway over the OpenAI embeddings API
type OpenAIGateway struct {
	client    *openai.Client
	model     openai.EmbeddingModel
	dimension int
	timeout   time.Duration
	limiter   *worker.Limiter
}

// NewOpenAIGateway creates a new embedding gateway
func NewOpenAIGateway(cfg model.EmbeddingConfig, limiter *worker.Limiter) (*OpenAIGateway, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("embedding API key is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	dimension := cfg.Dimension
	if dimension == 0 {
		dimension = 1536 // text-embedding-3-small
	}

	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &OpenAIGateway{
		client:    openai.NewClientWithConfig(clientConfig),
		model:     openai.EmbeddingModel(cfg.Model),
		dimension: dimension,
		timeout:   timeout,
		limiter:   limiter,
	}, nil
}

// Dimension returns the vector length produced by this model
func (g *OpenAIGateway) Dimension() int {
	return g.dimension
}

// Embed returns the embedding for a single text
func (g *OpenAIGateway) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return ZeroVector(g.dimension), nil
	}

	vectors, err := g.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch embeds all texts in one API call. Empty inputs are replaced by
// a placeholder for the request and mapped back to zero vectors in the
// result, so output order always matches input order.
func (g *OpenAIGateway) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	inputs := make([]string, len(texts))
	empty := make(map[int]bool)
	for i, text := range texts {
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			empty[i] = true
			inputs[i] = "placeholder"
			continue
		}
		if len(trimmed) > maxInputChars {
			trimmed = trimmed[:maxInputChars]
		}
		inputs[i] = trimmed
	}

	if g.limiter != nil {
		if err := g.limiter.Wait(ctx, "embeddings"); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := g.client.CreateEmbeddings(ctxWithTimeout, openai.EmbeddingRequest{
		Input: inputs,
		Model: g.model,
	})
	if err != nil {
		return nil, fmt.Errorf("embeddings API error: %w", err)
	}

	if len(resp.Data) != len(inputs) {
		return nil, fmt.Errorf("embeddings API returned %d vectors for %d inputs", len(resp.Data), len(inputs))
	}

	vectors := make([][]float32, len(inputs))
	for i, item := range resp.Data {
		if empty[i] {
			vectors[i] = ZeroVector(g.dimension)
			continue
		}
		vectors[i] = item.Embedding
		if g.dimension == 0 {
			g.dimension = len(item.Embedding)
		}
	}

	return vectors, nil
}
