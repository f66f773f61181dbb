package embedding

import (
	"context"
	"hash/fnv"
	"math"

	"github.com/redlinehq/redline/pkg/utils"
)

// MockEmbedder is a deterministic embedder for tests and offline runs. The
// same text always yields the same unit vector, and texts sharing words land
// near each other, which is enough for threshold-based matching tests.
type MockEmbedder struct {
	dimensions int
}

// NewMockEmbedder returns an embedder producing deterministic embeddings of
// the given width.
func NewMockEmbedder(dimensions int) *MockEmbedder {
	if dimensions <= 0 {
		dimensions = 384
	}
	return &MockEmbedder{dimensions: dimensions}
}

// Embed returns a normalized vector derived from word hashes: each word adds a
// sinusoid seeded by its hash, so shared vocabulary raises cosine similarity.
func (e *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	emb := make([]float32, e.dimensions)
	words := SplitWords(text)
	if len(words) == 0 {
		words = []string{""}
	}
	for _, w := range words {
		h := fnv.New32a()
		h.Write([]byte(w))
		seed := float64(h.Sum32() % 10007)
		for i := 0; i < e.dimensions; i++ {
			emb[i] += float32(math.Sin(seed * float64(i+1) * 0.001))
		}
	}
	utils.NormalizeL2(emb)
	return emb, nil
}

// EmbedBatch calls Embed for each text.
func (e *MockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		emb, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		embeddings[i] = emb
	}
	return embeddings, nil
}

// Dimensions returns the embedding dimension.
func (e *MockEmbedder) Dimensions() int {
	return e.dimensions
}

// Close is a no-op for MockEmbedder.
func (e *MockEmbedder) Close() error {
	return nil
}
