// Package embed wraps the embedding model behind a small gateway interface
// and provides the vector math used by retrieval, deduplication and
// clustering.
package embed

import (
	"context"
	"math"
)

// Gateway converts text into fixed-dimension vectors.
//
// Implementations must return a zero vector for empty or whitespace-only
// input rather than erroring, and EmbedBatch must issue a single batched
// call to the underlying model.
type Gateway interface {
	// Embed returns the embedding vector for a single text
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch returns embeddings for all texts in input order
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the vector length produced by this model
	Dimension() int
}

// Cosine computes cosine similarity between two vectors. It is symmetric,
// bounded to [-1, 1], and returns 0.0 when either vector has zero norm so
// callers never divide by zero.
func Cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0.0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// ZeroVector returns an all-zero vector of the given dimension
func ZeroVector(dim int) []float32 {
	return make([]float32, dim)
}
