// Package retriever answers natural-language queries against the ingested
// passage corpus with hybrid (semantic + keyword) retrieval.
package retriever

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/redlinehq/redline/internal/embedding"
	"github.com/redlinehq/redline/internal/keyword"
	"github.com/redlinehq/redline/internal/models"
	"github.com/redlinehq/redline/internal/storage"
	"github.com/redlinehq/redline/internal/vector"
	"github.com/redlinehq/redline/pkg/utils"
)

// Options configures retrieval behavior.
type Options struct {
	TopK           int
	SemanticWeight float64
	KeywordWeight  float64
	SnippetLength  int
}

// Retriever embeds a query, searches the current vector and keyword snapshots,
// fuses the scores, and resolves passage metadata from storage.
type Retriever struct {
	embedder    embedding.Embedder
	vectorStore *vector.Store
	kwStore     *keyword.Store
	storage     storage.Storage
	opts        Options
	logger      *zap.Logger
}

func New(embedder embedding.Embedder, vectorStore *vector.Store, kwStore *keyword.Store, store storage.Storage, opts Options, logger *zap.Logger) *Retriever {
	return &Retriever{
		embedder:    embedder,
		vectorStore: vectorStore,
		kwStore:     kwStore,
		storage:     store,
		opts:        opts,
		logger:      logger,
	}
}

// Retrieve returns up to k passages ranked by fused score. k <= 0 falls back
// to the configured TopK: callers here ask "give me results" with an optional
// override, unlike the index layer where k <= 0 means an empty result set.
// Returns vector.ErrIndexNotReady before first ingest.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) ([]models.RetrievalResult, error) {
	if k <= 0 {
		k = r.opts.TopK
	}
	idx, err := r.vectorStore.Current()
	if err != nil {
		return nil, err
	}

	queryVec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	// Over-fetch from each leg so the fused top-k is stable even when the
	// legs disagree about ordering.
	fetchK := k * 2
	semantic, err := idx.Search(queryVec, fetchK)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	var keywordHits []keyword.Result
	if kw, kwErr := r.kwStore.Current(); kwErr == nil {
		keywordHits, err = kw.Search(ctx, query, fetchK)
		if err != nil {
			// Keyword search is an enhancement over the semantic leg, so a
			// failure degrades to semantic-only rather than failing the query.
			r.logger.Warn("keyword search failed, using semantic scores only", zap.Error(err))
			keywordHits = nil
		}
	}

	fused := fuse(
		normalizeKeywordScores(keywordHits),
		semanticScoreMap(semantic),
		r.opts.KeywordWeight,
		r.opts.SemanticWeight,
	)
	if len(fused) > k {
		fused = fused[:k]
	}

	results := make([]models.RetrievalResult, 0, len(fused))
	for _, f := range fused {
		passage, err := r.storage.GetPassage(ctx, f.PassageID)
		if errors.Is(err, storage.ErrNotFound) {
			// Index and storage generations are swapped together, but a hit
			// from a stale snapshot read mid-swap is dropped rather than fatal.
			r.logger.Warn("passage missing from storage", zap.String("id", f.PassageID))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("resolve passage %s: %w", f.PassageID, err)
		}
		results = append(results, models.RetrievalResult{
			PassageID: passage.ID,
			Score:     f.Score,
			Title:     passage.Title,
			SourceURL: passage.SourceURL,
			Snippet:   utils.Truncate(passage.Text, r.opts.SnippetLength),
		})
	}
	return results, nil
}

// RetrieveTexts returns the full passage texts for the top-k hits. The
// analyzer uses these as evidence context.
func (r *Retriever) RetrieveTexts(ctx context.Context, query string, k int) ([]models.Passage, error) {
	hits, err := r.Retrieve(ctx, query, k)
	if err != nil {
		return nil, err
	}
	passages := make([]models.Passage, 0, len(hits))
	for _, h := range hits {
		p, err := r.storage.GetPassage(ctx, h.PassageID)
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		passages = append(passages, *p)
	}
	return passages, nil
}
