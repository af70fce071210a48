package embed

import (
	"context"
	"encoding/json"

	"scholarbrief/internal/cache"
)

// CachedGateway decorates a Gateway with vector caching. Claim statements
// get re-embedded across dedup, cluster and repeated pipeline runs, so
// cache hits here save most of the embedding spend.
type CachedGateway struct {
	inner Gateway
	cache cache.Cache
	model string
}

// NewCachedGateway wraps gw with the given cache. The model name is part of
// the cache key so switching models never serves stale vectors.
func NewCachedGateway(gw Gateway, c cache.Cache, modelName string) *CachedGateway {
	return &CachedGateway{
		inner: gw,
		cache: c,
		model: modelName,
	}
}

// Dimension returns the underlying gateway's dimension
func (g *CachedGateway) Dimension() int {
	return g.inner.Dimension()
}

// Embed returns a cached vector when available
func (g *CachedGateway) Embed(ctx context.Context, text string) ([]float32, error) {
	key := cache.Key("embed:"+g.model, text)

	if data, found := g.cache.Get(key); found {
		var vector []float32
		if err := json.Unmarshal(data, &vector); err == nil {
			return vector, nil
		}
		// Corrupt entry; drop it and re-embed.
		_ = g.cache.Delete(key)
	}

	vector, err := g.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(vector); err == nil {
		_ = g.cache.Set(key, data, 0)
	}

	return vector, nil
}

// EmbedBatch serves cached vectors and batches only the misses into a
// single inner call, preserving input order.
func (g *CachedGateway) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	vectors := make([][]float32, len(texts))
	var missTexts []string
	var missIndices []int

	for i, text := range texts {
		key := cache.Key("embed:"+g.model, text)
		if data, found := g.cache.Get(key); found {
			var vector []float32
			if err := json.Unmarshal(data, &vector); err == nil {
				vectors[i] = vector
				continue
			}
			_ = g.cache.Delete(key)
		}
		missTexts = append(missTexts, text)
		missIndices = append(missIndices, i)
	}

	if len(missTexts) == 0 {
		return vectors, nil
	}

	fresh, err := g.inner.EmbedBatch(ctx, missTexts)
	if err != nil {
		return nil, err
	}

	for j, vector := range fresh {
		i := missIndices[j]
		vectors[i] = vector
		if data, err := json.Marshal(vector); err == nil {
			_ = g.cache.Set(cache.Key("embed:"+g.model, texts[i]), data, 0)
		}
	}

	return vectors, nil
}
