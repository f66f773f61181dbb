// Package pipeline orchestrates a review task from uploaded files to a
// persisted report.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/redlinehq/redline/internal/analyzer"
	"github.com/redlinehq/redline/internal/annotate"
	"github.com/redlinehq/redline/internal/checklist"
	"github.com/redlinehq/redline/internal/intake"
	"github.com/redlinehq/redline/internal/models"
	"github.com/redlinehq/redline/internal/process"
	"github.com/redlinehq/redline/internal/storage"
	"github.com/redlinehq/redline/internal/vector"
)

// ReadyChecker reports whether the retrieval indexes can serve a task.
// vector.Store satisfies it.
type ReadyChecker interface {
	Ready() bool
}

// Request describes one review task.
type Request struct {
	// TaskID is assigned when empty.
	TaskID string
	// Paths are the uploaded document files.
	Paths []string
	// ProcessOverride skips process detection when set.
	ProcessOverride string
}

// Pipeline runs the review stages: intake, process detection, checklist
// verification, compliance analysis, annotation, report assembly. A failure
// in one document never halts its siblings.
type Pipeline struct {
	intake      *intake.Intake
	analyzer    *analyzer.Analyzer
	mapper      *annotate.Mapper
	renderer    *annotate.Renderer
	verifier    *checklist.Verifier
	storage     storage.Storage
	ready       ReadyChecker
	concurrency int
	logger      *zap.Logger
}

func New(
	in *intake.Intake,
	an *analyzer.Analyzer,
	mapper *annotate.Mapper,
	renderer *annotate.Renderer,
	verifier *checklist.Verifier,
	store storage.Storage,
	ready ReadyChecker,
	concurrency int,
	logger *zap.Logger,
) *Pipeline {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Pipeline{
		intake:      in,
		analyzer:    an,
		mapper:      mapper,
		renderer:    renderer,
		verifier:    verifier,
		storage:     store,
		ready:       ready,
		concurrency: concurrency,
		logger:      logger,
	}
}

// Run executes the task and persists its report. A cancelled context aborts
// the task without writing a report or annotation output. When the reference
// indexes are not installed, Run fails immediately with
// vector.ErrIndexNotReady before any document is touched; the caller can
// retry after an ingest, which distinguishes it from per-document failures
// recorded inside the report.
func (p *Pipeline) Run(ctx context.Context, req Request) (*models.Report, error) {
	if p.ready != nil && !p.ready.Ready() {
		return nil, vector.ErrIndexNotReady
	}
	taskID := req.TaskID
	if taskID == "" {
		taskID = uuid.NewString()
	}
	log := p.logger.With(zap.String("task_id", taskID))

	docs := p.intake.Run(req.Paths)
	if len(docs) == 0 {
		report := &models.Report{
			TaskID:    taskID,
			Process:   process.Unknown,
			Note:      "no documents recognized",
			Documents: []models.DocumentResult{},
			CreatedAt: time.Now().UTC(),
		}
		if err := p.storage.SaveReport(ctx, report); err != nil {
			return nil, fmt.Errorf("save report: %w", err)
		}
		log.Warn("no documents recognized", zap.Int("uploads", len(req.Paths)))
		return report, nil
	}

	types := make([]string, len(docs))
	texts := make([]string, len(docs))
	for i, d := range docs {
		types[i] = d.Type
		texts[i] = d.Text
	}
	proc := process.Detect(req.ProcessOverride, types, texts)
	checklistResult := p.verifier.Verify(ctx, proc, types)
	log.Info("process detected",
		zap.String("process", proc),
		zap.Int("documents", len(docs)),
		zap.Strings("missing", checklistResult.MissingDocuments))

	results := p.analyzeAll(ctx, docs)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	generated := make(map[string]string)
	for _, r := range results {
		if r.AnnotatedPath != "" {
			generated[r.Filename] = r.AnnotatedPath
		}
	}
	report := &models.Report{
		TaskID:         taskID,
		Process:        proc,
		Checklist:      checklistResult,
		Documents:      results,
		GeneratedFiles: generated,
		CreatedAt:      time.Now().UTC(),
	}
	if err := p.storage.SaveReport(ctx, report); err != nil {
		return nil, fmt.Errorf("save report: %w", err)
	}
	log.Info("task complete", zap.Int("issues", len(report.Issues())))
	return report, nil
}

// analyzeAll reviews and annotates documents across a bounded worker pool.
// Results come back in intake order regardless of completion order.
func (p *Pipeline) analyzeAll(ctx context.Context, docs []intake.Document) []models.DocumentResult {
	results := make([]models.DocumentResult, len(docs))
	sem := make(chan struct{}, p.concurrency)
	var wg sync.WaitGroup
	for i, doc := range docs {
		wg.Add(1)
		go func(i int, doc intake.Document) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[i] = p.reviewDocument(ctx, doc)
		}(i, doc)
	}
	wg.Wait()
	return results
}

// reviewDocument runs analysis and annotation for one document. Any failure
// marks the document incomplete and keeps whatever was produced before it.
func (p *Pipeline) reviewDocument(ctx context.Context, doc intake.Document) models.DocumentResult {
	result := models.DocumentResult{
		DocumentID: doc.ID,
		Filename:   doc.Filename,
		DocType:    doc.Type,
		Status:     models.StatusComplete,
		Issues:     []models.IssueRecord{},
	}

	issues, err := p.analyzer.Analyze(ctx, doc.ID, doc.Filename, doc.Text)
	if err != nil {
		p.logger.Warn("analysis failed",
			zap.String("document", doc.Filename),
			zap.Error(err))
		result.Status = models.StatusIncomplete
		result.StatusReason = fmt.Sprintf("analysis failed: %v", err)
	} else {
		result.Issues = issues
	}

	result.Groups = p.mapper.Map(ctx, result.Issues, doc.Paragraphs)
	if ctx.Err() != nil {
		return result
	}
	outPath, err := p.renderer.Render(doc.Filename, doc.Paragraphs, result.Groups)
	if err != nil {
		p.logger.Warn("annotation failed",
			zap.String("document", doc.Filename),
			zap.Error(err))
		if result.Status == models.StatusComplete {
			result.Status = models.StatusIncomplete
			result.StatusReason = fmt.Sprintf("annotation failed: %v", err)
		}
		return result
	}
	result.AnnotatedPath = outPath
	return result
}
