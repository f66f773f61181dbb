package reference

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/redlinehq/redline/internal/embedding"
	"github.com/redlinehq/redline/internal/keyword"
	"github.com/redlinehq/redline/internal/models"
	"github.com/redlinehq/redline/internal/storage"
	"github.com/redlinehq/redline/internal/vector"
)

// Stats summarizes one ingestion run.
type Stats struct {
	Sources  int
	Passages int
	Elapsed  time.Duration
}

// Ingester builds the retrieval corpus: it loads reference documents, chunks
// them into passages, embeds each passage, and installs fresh vector and
// keyword index snapshots. Queries served concurrently keep seeing the
// previous snapshot until the swap.
type Ingester struct {
	loader      *Loader
	chunker     *Chunker
	embedder    embedding.Embedder
	storage     storage.Storage
	vectorStore *vector.Store
	kwStore     *keyword.Store

	vectorIndexPath  string
	keywordIndexPath string
	logger           *zap.Logger
}

// NewIngester wires the ingestion dependencies. vectorIndexPath and
// keywordIndexPath may be empty to skip on-disk persistence of the indexes.
func NewIngester(
	loader *Loader,
	chunker *Chunker,
	embedder embedding.Embedder,
	store storage.Storage,
	vectorStore *vector.Store,
	kwStore *keyword.Store,
	vectorIndexPath, keywordIndexPath string,
	logger *zap.Logger,
) *Ingester {
	return &Ingester{
		loader:           loader,
		chunker:          chunker,
		embedder:         embedder,
		storage:          store,
		vectorStore:      vectorStore,
		kwStore:          kwStore,
		vectorIndexPath:  vectorIndexPath,
		keywordIndexPath: keywordIndexPath,
		logger:           logger,
	}
}

// Ingest rebuilds the corpus from dir. The vector snapshot swaps only after
// the whole run succeeds, so a failed run leaves the previous vector index
// active. The keyword index cannot be staged the same way: Bleve holds an
// exclusive lock on its directory, so the active index is uninstalled before
// the rebuild, and a failure mid-rebuild leaves keyword search unavailable
// (retrieval degrades to semantic-only) until the next successful ingest.
func (ing *Ingester) Ingest(ctx context.Context, dir, manifestPath string) (*Stats, error) {
	start := time.Now()

	manifest, err := LoadManifest(manifestPath)
	if err != nil {
		return nil, err
	}
	sources, err := ing.loader.Load(dir, manifest)
	if err != nil {
		return nil, fmt.Errorf("load references: %w", err)
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("no extractable reference documents in %s", dir)
	}

	var passages []models.Passage
	for _, src := range sources {
		passages = append(passages, ing.chunker.Chunk(src.Text, src.Title, src.SourceURL)...)
	}
	ing.logger.Info("chunked references",
		zap.Int("sources", len(sources)),
		zap.Int("passages", len(passages)))

	texts := make([]string, len(passages))
	for i, p := range passages {
		texts[i] = p.Text
	}
	vectors, err := ing.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed passages: %w", err)
	}

	ids := make([]string, len(passages))
	for i, p := range passages {
		ids[i] = p.ID
	}
	idx, err := vector.Build(ing.embedder.Dimensions(), ids, vectors)
	if err != nil {
		return nil, fmt.Errorf("build vector index: %w", err)
	}
	if ing.vectorIndexPath != "" {
		if err := idx.Save(ing.vectorIndexPath); err != nil {
			return nil, fmt.Errorf("save vector index: %w", err)
		}
	}

	kw, err := ing.buildKeywordIndex(ctx, passages)
	if err != nil {
		return nil, err
	}

	if err := ing.storage.ReplacePassages(ctx, passages); err != nil {
		kw.Close()
		return nil, fmt.Errorf("persist passages: %w", err)
	}

	ing.vectorStore.Swap(idx)
	if old := ing.kwStore.Swap(kw); old != nil {
		if err := old.Close(); err != nil {
			ing.logger.Warn("failed to close previous keyword index", zap.Error(err))
		}
	}

	stats := &Stats{Sources: len(sources), Passages: len(passages), Elapsed: time.Since(start)}
	ing.logger.Info("ingest complete",
		zap.Int("sources", stats.Sources),
		zap.Int("passages", stats.Passages),
		zap.Duration("elapsed", stats.Elapsed))
	return stats, nil
}

// Restore loads previously persisted snapshots from disk without re-reading
// the reference documents. Used at startup so the server can answer queries
// immediately after a restart.
func (ing *Ingester) Restore(ctx context.Context) error {
	if ing.vectorIndexPath == "" {
		return fmt.Errorf("no vector index path configured")
	}
	idx, err := vector.Load(ing.vectorIndexPath, ing.embedder.Dimensions())
	if err != nil {
		return fmt.Errorf("load vector index: %w", err)
	}
	count, err := ing.storage.CountPassages(ctx)
	if err != nil {
		return err
	}
	if int(count) != idx.Size() {
		return fmt.Errorf("vector index holds %d passages but storage holds %d; re-ingest required", idx.Size(), count)
	}

	kw, err := keyword.NewBleveIndex(ing.keywordIndexPath, false)
	if err != nil {
		return fmt.Errorf("open keyword index: %w", err)
	}

	ing.vectorStore.Swap(idx)
	if old := ing.kwStore.Swap(kw); old != nil {
		old.Close()
	}
	ing.logger.Info("restored index snapshots", zap.Int("passages", idx.Size()))
	return nil
}

// buildKeywordIndex closes the active keyword index before rebuilding because
// Bleve holds an exclusive lock on its directory.
func (ing *Ingester) buildKeywordIndex(ctx context.Context, passages []models.Passage) (keyword.Index, error) {
	var kw keyword.Index
	var err error
	if ing.keywordIndexPath == "" {
		kw, err = keyword.NewMemOnlyIndex()
	} else {
		if old := ing.kwStore.Swap(nil); old != nil {
			if closeErr := old.Close(); closeErr != nil {
				ing.logger.Warn("failed to close previous keyword index", zap.Error(closeErr))
			}
		}
		kw, err = keyword.NewBleveIndex(ing.keywordIndexPath, true)
	}
	if err != nil {
		return nil, fmt.Errorf("create keyword index: %w", err)
	}
	if err := kw.IndexPassages(ctx, passages); err != nil {
		kw.Close()
		return nil, fmt.Errorf("index passages: %w", err)
	}
	return kw, nil
}
