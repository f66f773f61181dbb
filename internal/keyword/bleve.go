// Package keyword provides the Bleve implementation of Index.
package keyword

import (
	"context"
	"fmt"
	"os"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"

	"github.com/redlinehq/redline/internal/models"
)

// passageDoc is the shape stored in Bleve for each passage.
type passageDoc struct {
	Content string `json:"content"`
	Title   string `json:"title"`
}

// BleveIndex implements Index using Bleve.
type BleveIndex struct {
	index bleve.Index
}

// NewBleveIndex creates or opens a Bleve index at path. When rebuild is true
// any existing index directory is removed first, so a full re-ingest starts
// from an empty index and stale passages from removed sources do not linger.
func NewBleveIndex(path string, rebuild bool) (*BleveIndex, error) {
	if rebuild {
		if err := os.RemoveAll(path); err != nil {
			return nil, fmt.Errorf("failed to remove stale Bleve index: %w", err)
		}
	}

	im := bleve.NewIndexMapping()
	docMapping := bleve.NewDocumentMapping()
	textFieldMapping := bleve.NewTextFieldMapping()
	// Standard analyzer (lowercase + tokenize, no stemming) so legal terms like
	// "jurisdiction" match exactly; the English analyzer stems them away.
	textFieldMapping.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt("content", textFieldMapping)
	docMapping.AddFieldMappingsAt("title", textFieldMapping)
	im.DefaultMapping = docMapping

	if _, err := os.Stat(path); err == nil {
		index, openErr := bleve.Open(path)
		if openErr != nil {
			return nil, fmt.Errorf("failed to open Bleve index: %w", openErr)
		}
		return &BleveIndex{index: index}, nil
	}

	index, err := bleve.New(path, im)
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}
	return &BleveIndex{index: index}, nil
}

// NewMemOnlyIndex creates an in-memory Bleve index. Used in tests.
func NewMemOnlyIndex() (*BleveIndex, error) {
	im := bleve.NewIndexMapping()
	docMapping := bleve.NewDocumentMapping()
	textFieldMapping := bleve.NewTextFieldMapping()
	textFieldMapping.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt("content", textFieldMapping)
	docMapping.AddFieldMappingsAt("title", textFieldMapping)
	im.DefaultMapping = docMapping

	index, err := bleve.NewMemOnly(im)
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}
	return &BleveIndex{index: index}, nil
}

// IndexPassages indexes passages in a single batch.
func (b *BleveIndex) IndexPassages(ctx context.Context, passages []models.Passage) error {
	batch := b.index.NewBatch()
	for _, p := range passages {
		if err := ctx.Err(); err != nil {
			return err
		}
		doc := passageDoc{Content: p.Text, Title: p.Title}
		if err := batch.Index(p.ID, doc); err != nil {
			return fmt.Errorf("failed to batch passage %s: %w", p.ID, err)
		}
	}
	if err := b.index.Batch(batch); err != nil {
		return fmt.Errorf("Bleve batch index failed: %w", err)
	}
	return nil
}

// Search runs a match query over title and content and returns up to limit hits.
func (b *BleveIndex) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	if limit <= 0 {
		return nil, nil
	}
	q := bleve.NewMatchQuery(query)
	req := bleve.NewSearchRequest(q)
	req.Size = limit
	results, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("Bleve search failed: %w", err)
	}
	out := make([]Result, len(results.Hits))
	for i, hit := range results.Hits {
		out[i] = Result{PassageID: hit.ID, Score: hit.Score}
	}
	return out, nil
}

// DocCount returns the total number of passages in the index.
func (b *BleveIndex) DocCount() (uint64, error) {
	return b.index.DocCount()
}

// Close closes the Bleve index.
func (b *BleveIndex) Close() error {
	return b.index.Close()
}
