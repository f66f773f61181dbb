// Package checklist verifies that the documents required for a process were
// all uploaded.
package checklist

import (
	"context"

	"go.uber.org/zap"

	"github.com/redlinehq/redline/internal/config"
	"github.com/redlinehq/redline/internal/embedding"
	"github.com/redlinehq/redline/internal/models"
	"github.com/redlinehq/redline/internal/vector"
)

// Verifier decides presence by semantic similarity between required document
// names and the uploaded document types, falling back to exact matching when
// embedding fails.
type Verifier struct {
	embedder  embedding.Embedder
	processes map[string][]config.ChecklistEntry
	threshold float64
	logger    *zap.Logger
}

func NewVerifier(embedder embedding.Embedder, cfg config.ChecklistConfig, logger *zap.Logger) *Verifier {
	processes := cfg.Processes
	if len(processes) == 0 {
		processes = config.DefaultChecklists()
	}
	return &Verifier{
		embedder:  embedder,
		processes: processes,
		threshold: cfg.PresenceThreshold,
		logger:    logger,
	}
}

// Verify checks uploadedTypes against the required list for process. An
// unknown process yields an empty requirement list, never an error.
func (v *Verifier) Verify(ctx context.Context, proc string, uploadedTypes []string) models.ChecklistResult {
	required := v.processes[proc]
	names := make([]string, 0, len(required))
	for _, entry := range required {
		if entry.Name != "" {
			names = append(names, entry.Name)
		}
	}

	present := v.matchSemantic(ctx, names, uploadedTypes)
	if present == nil {
		present = matchExact(names, uploadedTypes)
	}

	var missing []string
	items := make([]models.ChecklistItem, 0, len(required))
	for _, entry := range required {
		items = append(items, models.ChecklistItem{
			Name:      entry.Name,
			Rationale: entry.Rationale,
			SourceURL: entry.SourceURL,
			Present:   present[entry.Name],
		})
		if entry.Name != "" && !present[entry.Name] {
			missing = append(missing, entry.Name)
		}
	}

	return models.ChecklistResult{
		Process:           proc,
		DocumentsUploaded: len(uploadedTypes),
		RequiredDocuments: len(names),
		MissingDocuments:  missing,
		Items:             items,
	}
}

// matchSemantic returns nil when embedding fails so the caller can fall back.
func (v *Verifier) matchSemantic(ctx context.Context, names, uploadedTypes []string) map[string]bool {
	if len(names) == 0 || len(uploadedTypes) == 0 {
		return map[string]bool{}
	}
	nameVecs, err := v.embedder.EmbedBatch(ctx, names)
	if err != nil {
		v.logger.Warn("embedding failed, using exact checklist matching", zap.Error(err))
		return nil
	}
	typeVecs, err := v.embedder.EmbedBatch(ctx, uploadedTypes)
	if err != nil {
		v.logger.Warn("embedding failed, using exact checklist matching", zap.Error(err))
		return nil
	}
	present := make(map[string]bool, len(names))
	for i, name := range names {
		for _, tv := range typeVecs {
			if vector.CosineSimilarity(nameVecs[i], tv) >= v.threshold {
				present[name] = true
				break
			}
		}
	}
	return present
}

func matchExact(names, uploadedTypes []string) map[string]bool {
	uploaded := make(map[string]bool, len(uploadedTypes))
	for _, t := range uploadedTypes {
		uploaded[t] = true
	}
	present := make(map[string]bool, len(names))
	for _, n := range names {
		present[n] = uploaded[n]
	}
	return present
}
