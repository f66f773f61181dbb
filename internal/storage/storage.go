// Package storage defines persistence for passages and reports.
package storage

import (
	"context"
	"errors"

	"github.com/redlinehq/redline/internal/models"
)

// ErrNotFound marks lookups for passages or reports that do not exist.
var ErrNotFound = errors.New("not found")

// Storage persists passage metadata (keyed by passage ID, parallel to the
// vector index) and finished task reports.
type Storage interface {
	// Passage operations. ReplacePassages swaps in a new index generation.
	ReplacePassages(ctx context.Context, passages []models.Passage) error
	GetPassage(ctx context.Context, id string) (*models.Passage, error)
	ListPassages(ctx context.Context) ([]models.Passage, error)
	CountPassages(ctx context.Context) (int64, error)

	// Report operations.
	SaveReport(ctx context.Context, report *models.Report) error
	GetReport(ctx context.Context, taskID string) (*models.Report, error)
	CountReports(ctx context.Context) (int64, error)

	Close() error
}
