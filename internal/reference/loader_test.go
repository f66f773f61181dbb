package reference

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/redlinehq/redline/internal/extract"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadManifest_missingFileIsEmpty(t *testing.T) {
	m, err := LoadManifest(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	if len(m) != 0 {
		t.Errorf("expected empty manifest, got %d entries", len(m))
	}
}

func TestLoadManifest_parsesEntries(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "sources.yaml", `
- file: companies.txt
  title: Companies Regulations 2020
  url: https://example.org/companies-regulations
- file: employment.txt
  title: Employment Regulations
`)
	m, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	entry, ok := m["companies.txt"]
	if !ok {
		t.Fatal("missing companies.txt entry")
	}
	if entry.URL != "https://example.org/companies-regulations" {
		t.Errorf("url: %q", entry.URL)
	}
	if m["employment.txt"].Title != "Employment Regulations" {
		t.Errorf("title: %q", m["employment.txt"].Title)
	}
}

func TestLoader_manifestProvenanceAndFallback(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "companies.txt", "The registered office must be in the Abu Dhabi Global Market.")
	unlisted := writeFile(t, dir, "guidance.md", "Guidance on incorporation applications.")
	writeFile(t, dir, "ignored.bin", "binary payload")

	manifest := map[string]ManifestEntry{
		"companies.txt": {File: "companies.txt", Title: "Companies Regulations 2020", URL: "https://example.org/companies"},
	}
	loader := NewLoader(extract.NewExtractor(), []string{"txt", "md"})
	sources, err := loader.Load(dir, manifest)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(sources) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(sources))
	}

	byTitle := make(map[string]Source)
	for _, s := range sources {
		byTitle[s.Title] = s
	}
	listed, ok := byTitle["Companies Regulations 2020"]
	if !ok {
		t.Fatal("manifest title not applied")
	}
	if listed.SourceURL != "https://example.org/companies" {
		t.Errorf("source url: %q", listed.SourceURL)
	}
	fallback, ok := byTitle["guidance.md"]
	if !ok {
		t.Fatal("expected file-derived title for unlisted source")
	}
	if fallback.SourceURL != "file://"+unlisted {
		t.Errorf("fallback url: %q", fallback.SourceURL)
	}
}

func TestLoader_missingDir(t *testing.T) {
	loader := NewLoader(extract.NewExtractor(), nil)
	if _, err := loader.Load(filepath.Join(t.TempDir(), "absent"), nil); err == nil {
		t.Error("expected error for missing directory")
	}
}
