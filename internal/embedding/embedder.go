// Package embedding provides text embedding via ONNX plus a deterministic
// fallback, with LRU caching.
package embedding

import "context"

// Embedder produces fixed-width vector embeddings for text. Implementations
// return unit-normalized vectors so inner product equals cosine similarity.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Close() error
}
