package analyzer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/redlinehq/redline/internal/embedding"
	"github.com/redlinehq/redline/internal/models"
	"github.com/redlinehq/redline/internal/vector"
)

// Retriever supplies reference evidence for a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]models.RetrievalResult, error)
}

// Options configures analysis behavior.
type Options struct {
	// TopK passages retrieved as evidence per analysis unit.
	TopK int
	// GenerationTimeout bounds each Generate call.
	GenerationTimeout time.Duration
	// SegmentClauses analyzes clause segments separately instead of the
	// whole document at once.
	SegmentClauses bool
	// MaxEvidence caps citations attached to one issue.
	MaxEvidence int
}

// Analyzer reviews a document against the reference corpus. When no generator
// is configured, or the generator proposes nothing, rule-based checks take
// over so a review always produces something actionable.
type Analyzer struct {
	retriever Retriever
	embedder  embedding.Embedder
	generator Generator
	opts      Options
	logger    *zap.Logger
}

// New creates an analyzer. generator may be nil to run heuristics only.
func New(r Retriever, embedder embedding.Embedder, generator Generator, opts Options, logger *zap.Logger) *Analyzer {
	if opts.MaxEvidence <= 0 {
		opts.MaxEvidence = opts.TopK
	}
	return &Analyzer{retriever: r, embedder: embedder, generator: generator, opts: opts, logger: logger}
}

// Analyze reviews one document and returns its issues. A generation failure
// is returned wrapped in ErrGenerationFailed; retrieval failures are returned
// as-is. Both are document-local.
func (a *Analyzer) Analyze(ctx context.Context, docID, docName, text string) ([]models.IssueRecord, error) {
	units := []string{text}
	if a.opts.SegmentClauses {
		units = splitClauses(text)
	}

	var issues []models.IssueRecord
	if a.generator != nil {
		for _, unit := range units {
			evidence, err := a.retriever.Retrieve(ctx, unit, a.opts.TopK)
			if err != nil {
				return nil, fmt.Errorf("retrieve evidence: %w", err)
			}
			candidates, err := a.generate(ctx, unit, evidence)
			if err != nil {
				return nil, err
			}
			coerced, err := a.coerce(ctx, docID, docName, candidates, evidence)
			if err != nil {
				return nil, err
			}
			issues = append(issues, coerced...)
		}
	}

	if len(issues) == 0 {
		heuristic, err := a.heuristicIssues(ctx, docID, docName, text)
		if err != nil {
			return nil, err
		}
		issues = heuristic
	}
	return issues, nil
}

func (a *Analyzer) generate(ctx context.Context, unit string, evidence []models.RetrievalResult) ([]Candidate, error) {
	genCtx := ctx
	if a.opts.GenerationTimeout > 0 {
		var cancel context.CancelFunc
		genCtx, cancel = context.WithTimeout(ctx, a.opts.GenerationTimeout)
		defer cancel()
	}
	candidates, err := a.generator.Generate(genCtx, buildPrompt(unit, evidence))
	if err != nil {
		if genCtx.Err() != nil && ctx.Err() == nil {
			return nil, fmt.Errorf("%w: generation timed out", ErrGenerationFailed)
		}
		return nil, err
	}
	return candidates, nil
}

// coerce validates candidates and materializes issue records. Self-reported
// groundedness is discarded and recomputed from the evidence actually supplied.
func (a *Analyzer) coerce(ctx context.Context, docID, docName string, candidates []Candidate, evidence []models.RetrievalResult) ([]models.IssueRecord, error) {
	citations := evidenceCitations(evidence, a.opts.MaxEvidence)
	out := make([]models.IssueRecord, 0, len(candidates))
	for _, c := range candidates {
		if strings.TrimSpace(c.Issue) == "" {
			a.logger.Warn("dropping candidate with empty issue text", zap.String("document", docName))
			continue
		}
		severity, known := models.ParseSeverity(c.Severity)
		if !known {
			a.logger.Warn("unknown severity coerced to Medium",
				zap.String("document", docName),
				zap.String("severity", c.Severity))
		}
		grounded, err := a.groundedness(ctx, c.Issue, citations)
		if err != nil {
			return nil, err
		}
		out = append(out, models.IssueRecord{
			DocumentID:     docID,
			Document:       docName,
			SectionHint:    c.Section,
			Issue:          c.Issue,
			Severity:       severity,
			Category:       c.Category,
			Evidence:       citations,
			Suggestion:     c.Suggestion,
			SuggestionLong: c.SuggestionLong,
			Groundedness:   grounded,
		})
	}
	return out, nil
}

// groundedness is the max cosine similarity between the issue text and the
// cited snippets, clamped to [0,1].
func (a *Analyzer) groundedness(ctx context.Context, issue string, citations []models.Citation) (float64, error) {
	if len(citations) == 0 {
		return 0, nil
	}
	texts := make([]string, 0, len(citations)+1)
	texts = append(texts, issue)
	for _, c := range citations {
		texts = append(texts, c.Snippet)
	}
	vecs, err := a.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embed for groundedness: %w", err)
	}
	var best float64
	for _, v := range vecs[1:] {
		if sim := vector.CosineSimilarity(vecs[0], v); sim > best {
			best = sim
		}
	}
	return best, nil
}

func evidenceCitations(evidence []models.RetrievalResult, max int) []models.Citation {
	if max > 0 && len(evidence) > max {
		evidence = evidence[:max]
	}
	citations := make([]models.Citation, len(evidence))
	for i, e := range evidence {
		citations[i] = models.Citation{
			PassageID: e.PassageID,
			Snippet:   e.Snippet,
			Title:     e.Title,
			SourceURL: e.SourceURL,
			Score:     e.Score,
		}
	}
	return citations
}

// buildPrompt assembles the review prompt: the unit text followed by a
// reference context block, one line of provenance per passage.
func buildPrompt(unit string, evidence []models.RetrievalResult) string {
	var b strings.Builder
	b.WriteString("Review the following clause text for compliance problems. ")
	b.WriteString("Respond with a JSON list of findings; each finding has the fields ")
	b.WriteString(`"section", "issue", "severity" (Low|Medium|High), "category", "suggestion", "suggestion_long".` + "\n\n")
	b.WriteString("Clause text:\n")
	b.WriteString(unit)
	b.WriteString("\n\nReference context:\n")
	for _, e := range evidence {
		fmt.Fprintf(&b, "[%s] %s (Source: %s)\n", e.PassageID, e.Snippet, e.SourceURL)
	}
	return b.String()
}

// splitClauses segments a document into clause-sized units on blank lines,
// merging fragments shorter than minClauseLen into their neighbor so the
// retriever gets meaningful queries.
const minClauseLen = 120

func splitClauses(text string) []string {
	blocks := strings.Split(text, "\n\n")
	var units []string
	var current strings.Builder
	for _, block := range blocks {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(block)
		if current.Len() >= minClauseLen {
			units = append(units, current.String())
			current.Reset()
		}
	}
	if current.Len() > 0 {
		if len(units) > 0 {
			units[len(units)-1] = units[len(units)-1] + "\n\n" + current.String()
		} else {
			units = append(units, current.String())
		}
	}
	if len(units) == 0 {
		units = []string{text}
	}
	return units
}
