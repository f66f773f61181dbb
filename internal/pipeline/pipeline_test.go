package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/redlinehq/redline/internal/analyzer"
	"github.com/redlinehq/redline/internal/annotate"
	"github.com/redlinehq/redline/internal/checklist"
	"github.com/redlinehq/redline/internal/config"
	"github.com/redlinehq/redline/internal/embedding"
	"github.com/redlinehq/redline/internal/extract"
	"github.com/redlinehq/redline/internal/intake"
	"github.com/redlinehq/redline/internal/models"
	"github.com/redlinehq/redline/internal/storage"
	"github.com/redlinehq/redline/internal/vector"
)

// indexReady reports a fixed readiness state.
type indexReady bool

func (r indexReady) Ready() bool { return bool(r) }

type stubRetriever struct{}

func (stubRetriever) Retrieve(ctx context.Context, query string, k int) ([]models.RetrievalResult, error) {
	return []models.RetrievalResult{
		{PassageID: "p1", Score: 0.8, Title: "Companies Regulations", SourceURL: "https://example.org/companies", Snippet: "The jurisdiction clause must name the ADGM Courts."},
	}, nil
}

// brittleCompleter fails whenever the prompt contains its trigger.
type brittleCompleter struct {
	trigger string
}

func (c *brittleCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	if c.trigger != "" && strings.Contains(prompt, c.trigger) {
		return "", errors.New("model overloaded")
	}
	return `[{"section": "Clause 1", "issue": "Jurisdiction clause does not name the ADGM Courts.", "severity": "High", "suggestion": "Name the ADGM Courts."}]`, nil
}

func newTestPipeline(t *testing.T, completer analyzer.Completer) (*Pipeline, storage.Storage) {
	t.Helper()
	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "redline.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStorage: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	embedder := embedding.NewMockEmbedder(64)
	logger := zap.NewNop()
	var gen analyzer.Generator
	if completer != nil {
		gen = analyzer.NewJSONGenerator(completer)
	}
	an := analyzer.New(stubRetriever{}, embedder, gen,
		analyzer.Options{TopK: 2, GenerationTimeout: time.Second, MaxEvidence: 2}, logger)
	mapper := annotate.NewMapper(annotate.NewMatcher(embedder, annotate.Options{SimilarityThreshold: 0.2, HintPrefixLength: 30}))
	renderer := annotate.NewRenderer(t.TempDir())
	verifier := checklist.NewVerifier(embedder, config.ChecklistConfig{
		PresenceThreshold: 0.45,
		Processes:         config.DefaultChecklists(),
	}, logger)

	return New(intake.New(extract.NewExtractor(), logger), an, mapper, renderer, verifier, store, indexReady(true), 2, logger), store
}

func writeDoc(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRun_fullTask(t *testing.T) {
	p, store := newTestPipeline(t, &brittleCompleter{})
	dir := t.TempDir()
	articles := writeDoc(t, dir, "articles.txt",
		"ARTICLES OF ASSOCIATION of Example Ltd\nThe parties submit to the Dubai Courts.\nSigned by the Director.")
	resolution := writeDoc(t, dir, "resolution.txt",
		"BOARD RESOLUTION of Example Ltd made under the ADGM Companies Regulations.\nSigned by the Chairman.")

	report, err := p.Run(context.Background(), Request{Paths: []string{articles, resolution}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.TaskID == "" {
		t.Error("task ID not assigned")
	}
	if report.Process != "Company Incorporation" {
		t.Errorf("process: %s", report.Process)
	}
	if len(report.Documents) != 2 {
		t.Fatalf("documents: %d", len(report.Documents))
	}
	for _, d := range report.Documents {
		if d.Status != models.StatusComplete {
			t.Errorf("%s: %s (%s)", d.Filename, d.Status, d.StatusReason)
		}
		if d.AnnotatedPath == "" {
			t.Errorf("%s: no annotated copy", d.Filename)
		}
		if _, err := os.Stat(d.AnnotatedPath); err != nil {
			t.Errorf("annotated copy missing: %v", err)
		}
		if len(d.Issues) == 0 {
			t.Errorf("%s: expected issues from the generator", d.Filename)
		}
	}
	if report.Checklist.RequiredDocuments == 0 {
		t.Error("checklist not verified")
	}

	persisted, err := store.GetReport(context.Background(), report.TaskID)
	if err != nil {
		t.Fatalf("GetReport: %v", err)
	}
	if persisted == nil || len(persisted.Documents) != 2 {
		t.Errorf("report not persisted: %+v", persisted)
	}
}

func TestRun_partialFailureIsolated(t *testing.T) {
	p, _ := newTestPipeline(t, &brittleCompleter{trigger: "XYZZYFAIL"})
	dir := t.TempDir()
	good := writeDoc(t, dir, "good.txt",
		"ARTICLES OF ASSOCIATION\nGoverned by ADGM regulations.\nSigned by the Director.")
	bad := writeDoc(t, dir, "bad.txt",
		"BOARD RESOLUTION\nXYZZYFAIL clause that breaks the review backend.\nSigned.")

	report, err := p.Run(context.Background(), Request{Paths: []string{good, bad}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	byName := make(map[string]models.DocumentResult)
	for _, d := range report.Documents {
		byName[d.Filename] = d
	}
	if byName["good.txt"].Status != models.StatusComplete {
		t.Errorf("good.txt: %+v", byName["good.txt"])
	}
	badResult := byName["bad.txt"]
	if badResult.Status != models.StatusIncomplete {
		t.Errorf("bad.txt should be incomplete: %+v", badResult)
	}
	if badResult.StatusReason == "" {
		t.Error("incomplete document needs a reason")
	}
	if len(badResult.Issues) != 0 {
		t.Errorf("failed analysis must yield an empty issue set, got %d", len(badResult.Issues))
	}
	if badResult.AnnotatedPath == "" {
		t.Error("annotated copy should still be produced for an incomplete document")
	}
}

func TestRun_indexNotReady(t *testing.T) {
	p, store := newTestPipeline(t, nil)
	p.ready = indexReady(false)
	doc := writeDoc(t, t.TempDir(), "articles.txt", "ARTICLES OF ASSOCIATION\nSome clause text.")

	_, err := p.Run(context.Background(), Request{Paths: []string{doc}})
	if !errors.Is(err, vector.ErrIndexNotReady) {
		t.Fatalf("Run err = %v, want vector.ErrIndexNotReady", err)
	}
	count, err := store.CountReports(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Errorf("task without an index persisted %d reports", count)
	}
}

func TestRun_noDocumentsRecognized(t *testing.T) {
	p, store := newTestPipeline(t, nil)
	report, err := p.Run(context.Background(), Request{Paths: []string{filepath.Join(t.TempDir(), "missing.docx")}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Note != "no documents recognized" {
		t.Errorf("note: %q", report.Note)
	}
	if len(report.Documents) != 0 {
		t.Errorf("documents: %d", len(report.Documents))
	}
	persisted, err := store.GetReport(context.Background(), report.TaskID)
	if err != nil || persisted == nil {
		t.Errorf("empty task must still persist its report: %v", err)
	}
}

func TestRun_cancelledTaskWritesNothing(t *testing.T) {
	p, store := newTestPipeline(t, &brittleCompleter{})
	dir := t.TempDir()
	doc := writeDoc(t, dir, "articles.txt", "ARTICLES OF ASSOCIATION\nSome clause text.")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.Run(ctx, Request{Paths: []string{doc}}); err == nil {
		t.Fatal("expected error for cancelled context")
	}
	count, err := store.CountReports(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Errorf("cancelled task persisted %d reports", count)
	}
}

func TestRun_heuristicsWithoutGenerator(t *testing.T) {
	p, _ := newTestPipeline(t, nil)
	dir := t.TempDir()
	doc := writeDoc(t, dir, "agreement.txt",
		"SHAREHOLDER RESOLUTION\nThe parties submit to the Dubai Courts.")

	report, err := p.Run(context.Background(), Request{Paths: []string{doc}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(report.Documents) != 1 {
		t.Fatalf("documents: %d", len(report.Documents))
	}
	if len(report.Documents[0].Issues) == 0 {
		t.Error("expected heuristic findings without a generator")
	}
}
