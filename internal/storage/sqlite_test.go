package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/redlinehq/redline/internal/models"
)

func newTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	s, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestReplacePassages_roundTrip(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	passages := []models.Passage{
		{ID: "p1", Text: "courts have jurisdiction", Title: "Regs", SourceURL: "https://example.org/regs", TokenCount: 3, ChunkIndex: 0},
		{ID: "p2", Text: "register of members", Title: "Regs", SourceURL: "https://example.org/regs", TokenCount: 3, ChunkIndex: 1},
	}
	if err := s.ReplacePassages(ctx, passages); err != nil {
		t.Fatal(err)
	}
	got, err := s.GetPassage(ctx, "p1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Text != "courts have jurisdiction" || got.SourceURL != "https://example.org/regs" {
		t.Errorf("got %+v", got)
	}
	n, err := s.CountPassages(ctx)
	if err != nil || n != 2 {
		t.Errorf("count: %d, %v", n, err)
	}
}

func TestReplacePassages_replacesGeneration(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	_ = s.ReplacePassages(ctx, []models.Passage{{ID: "old", Text: "old gen", TokenCount: 2}})
	if err := s.ReplacePassages(ctx, []models.Passage{{ID: "new", Text: "new gen", TokenCount: 2}}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetPassage(ctx, "old"); err == nil {
		t.Error("old generation passage should be gone")
	}
	list, err := s.ListPassages(ctx)
	if err != nil || len(list) != 1 || list[0].ID != "new" {
		t.Errorf("list: %v, %v", list, err)
	}
}

func TestSaveGetReport(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	report := &models.Report{
		TaskID:  "task-1",
		Process: "Company Incorporation",
		Documents: []models.DocumentResult{
			{DocumentID: "d1", Filename: "aoa.docx", Status: models.StatusComplete,
				Issues: []models.IssueRecord{{Issue: "Jurisdiction references non-ADGM courts.", Severity: models.SeverityHigh}}},
		},
	}
	if err := s.SaveReport(ctx, report); err != nil {
		t.Fatal(err)
	}
	got, err := s.GetReport(ctx, "task-1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Process != "Company Incorporation" || len(got.Documents) != 1 {
		t.Errorf("got %+v", got)
	}
	if got.Documents[0].Issues[0].Severity != models.SeverityHigh {
		t.Errorf("severity: %s", got.Documents[0].Issues[0].Severity)
	}
	if _, err := s.GetReport(ctx, "missing"); err == nil {
		t.Error("missing report should error")
	}
}
