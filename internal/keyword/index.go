// Package keyword provides keyword (BM25) indexing and search over reference passages.
package keyword

import (
	"context"

	"github.com/redlinehq/redline/internal/models"
)

// Index defines keyword search operations over the passage corpus.
type Index interface {
	// IndexPassages indexes a batch of passages, replacing any previous
	// entries with the same IDs.
	IndexPassages(ctx context.Context, passages []models.Passage) error
	Search(ctx context.Context, query string, limit int) ([]Result, error)
	DocCount() (uint64, error)
	Close() error
}

// Result is a single keyword search hit.
type Result struct {
	PassageID string
	Score     float64
}
