package analyzer

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/redlinehq/redline/internal/embedding"
	"github.com/redlinehq/redline/internal/models"
)

type fakeRetriever struct {
	results []models.RetrievalResult
	err     error
}

func (f *fakeRetriever) Retrieve(ctx context.Context, query string, k int) ([]models.RetrievalResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	if k > 0 && len(f.results) > k {
		return f.results[:k], nil
	}
	return f.results, nil
}

type fakeCompleter struct {
	response string
	err      error
	delay    time.Duration
}

func (f *fakeCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.response, f.err
}

func testEvidence() []models.RetrievalResult {
	return []models.RetrievalResult{
		{PassageID: "p1", Score: 0.9, Title: "Companies Regulations", SourceURL: "https://example.org/companies", Snippet: "The jurisdiction clause must name the ADGM Courts."},
		{PassageID: "p2", Score: 0.5, Title: "Companies Regulations", SourceURL: "https://example.org/companies", Snippet: "Every company shall keep a register of members."},
	}
}

func testOptions() Options {
	return Options{TopK: 2, GenerationTimeout: time.Second, MaxEvidence: 2}
}

func TestAnalyze_coercesCandidates(t *testing.T) {
	completer := &fakeCompleter{response: `Here are the findings:
[
  {"section": "Clause 14", "issue": "Jurisdiction clause names the DIFC Courts instead of the ADGM Courts.", "severity": "Critical", "category": "Jurisdiction", "suggestion": "Name the ADGM Courts.", "groundedness": 0.99},
  {"section": "Clause 2", "issue": "", "severity": "High"}
]`}
	a := New(&fakeRetriever{results: testEvidence()}, embedding.NewMockEmbedder(64), NewJSONGenerator(completer), testOptions(), zap.NewNop())

	issues, err := a.Analyze(context.Background(), "doc-1", "articles.docx", "The parties submit to the DIFC Courts. Signed by the Director.")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(issues) != 1 {
		t.Fatalf("expected the empty-issue candidate to be dropped, got %d issues", len(issues))
	}
	got := issues[0]
	if got.Severity != models.SeverityMedium {
		t.Errorf("unknown severity must coerce to Medium, got %s", got.Severity)
	}
	if got.DocumentID != "doc-1" || got.Document != "articles.docx" {
		t.Errorf("document identity not set: %+v", got)
	}
	if got.SectionHint != "Clause 14" {
		t.Errorf("section hint: %q", got.SectionHint)
	}
	if len(got.Evidence) != 2 {
		t.Fatalf("expected evidence in retrieval order, got %d citations", len(got.Evidence))
	}
	if got.Evidence[0].PassageID != "p1" || got.Evidence[1].PassageID != "p2" {
		t.Errorf("evidence order: %+v", got.Evidence)
	}
	if got.Groundedness == 0.99 {
		t.Error("self-reported groundedness must be discarded")
	}
	if got.Groundedness < 0 || got.Groundedness > 1 {
		t.Errorf("groundedness out of range: %f", got.Groundedness)
	}
}

func TestAnalyze_groundednessFavorsSimilarEvidence(t *testing.T) {
	// Issue text shares vocabulary with the first snippet, so recomputed
	// groundedness should be clearly positive.
	completer := &fakeCompleter{response: `[{"issue": "The jurisdiction clause must name the ADGM Courts.", "severity": "High"}]`}
	a := New(&fakeRetriever{results: testEvidence()}, embedding.NewMockEmbedder(64), NewJSONGenerator(completer), testOptions(), zap.NewNop())
	issues, err := a.Analyze(context.Background(), "doc-1", "articles.docx", "text")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if issues[0].Groundedness < 0.5 {
		t.Errorf("expected high groundedness for near-identical evidence, got %f", issues[0].Groundedness)
	}
}

func TestAnalyze_generationTimeout(t *testing.T) {
	completer := &fakeCompleter{response: "[]", delay: 200 * time.Millisecond}
	opts := testOptions()
	opts.GenerationTimeout = 10 * time.Millisecond
	a := New(&fakeRetriever{results: testEvidence()}, embedding.NewMockEmbedder(64), NewJSONGenerator(completer), opts, zap.NewNop())
	_, err := a.Analyze(context.Background(), "doc-1", "articles.docx", "text")
	if !errors.Is(err, ErrGenerationFailed) {
		t.Errorf("expected ErrGenerationFailed, got %v", err)
	}
}

func TestAnalyze_malformedCompletion(t *testing.T) {
	completer := &fakeCompleter{response: "I could not find any issues, sorry!"}
	a := New(&fakeRetriever{results: testEvidence()}, embedding.NewMockEmbedder(64), NewJSONGenerator(completer), testOptions(), zap.NewNop())
	_, err := a.Analyze(context.Background(), "doc-1", "articles.docx", "text")
	if !errors.Is(err, ErrGenerationFailed) {
		t.Errorf("expected ErrGenerationFailed, got %v", err)
	}
}

func TestAnalyze_heuristicFallbackWithoutGenerator(t *testing.T) {
	a := New(&fakeRetriever{results: testEvidence()}, embedding.NewMockEmbedder(64), nil, testOptions(), zap.NewNop())
	text := "This agreement is governed by the laws of the U.A.E. and the parties submit to the Dubai Courts."
	issues, err := a.Analyze(context.Background(), "doc-1", "agreement.docx", text)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	bySeverity := make(map[models.Severity]int)
	for _, is := range issues {
		bySeverity[is.Severity]++
	}
	// Non-ADGM courts, no signatory block, and no ADGM reference all apply.
	if bySeverity[models.SeverityHigh] != 1 || bySeverity[models.SeverityMedium] != 1 || bySeverity[models.SeverityLow] != 1 {
		t.Errorf("unexpected heuristic findings: %+v", issues)
	}
	// Evidence must not repeat across findings.
	seen := make(map[string]int)
	for _, is := range issues {
		for _, c := range is.Evidence {
			seen[c.PassageID]++
		}
	}
	for id, n := range seen {
		if n > 1 {
			t.Errorf("passage %s cited %d times across findings", id, n)
		}
	}
}

func TestAnalyze_heuristicsSkipCompliantDocument(t *testing.T) {
	a := New(&fakeRetriever{results: testEvidence()}, embedding.NewMockEmbedder(64), nil, testOptions(), zap.NewNop())
	text := "This resolution is made under the ADGM Companies Regulations. Signed by the authorised signatory."
	issues, err := a.Analyze(context.Background(), "doc-1", "resolution.docx", text)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(issues) != 0 {
		t.Errorf("expected no heuristic findings, got %+v", issues)
	}
}

func TestParseCandidates_fencedJSON(t *testing.T) {
	raw := "```json\n[{\"issue\": \"x\", \"severity\": \"Low\"}]\n```"
	candidates, err := ParseCandidates(raw)
	if err != nil {
		t.Fatalf("ParseCandidates: %v", err)
	}
	if len(candidates) != 1 || candidates[0].Issue != "x" {
		t.Errorf("got %+v", candidates)
	}
}

func TestSplitClauses(t *testing.T) {
	text := strings.Repeat("The company shall maintain records as required by regulation. ", 3) +
		"\n\nShort.\n\n" +
		strings.Repeat("The directors shall act within their powers under the articles. ", 3)
	units := splitClauses(text)
	if len(units) < 2 {
		t.Fatalf("expected multiple units, got %d", len(units))
	}
	joined := strings.Join(units, " ")
	if !strings.Contains(joined, "Short.") {
		t.Error("short fragment lost during segmentation")
	}
}
