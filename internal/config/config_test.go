package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: "127.0.0.1"
  port: 9000
storage:
  database_path: "test.db"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Storage.DatabasePath == "" {
		t.Error("database_path should be set")
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
}

func TestLoad_expandPathDotSlashRelativeToConfigDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: "localhost"
  port: 8080
storage:
  database_path: "./data/db/redline.db"
references:
  dir: "./references"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	wantDB := filepath.Join(dir, "data", "db", "redline.db")
	if cfg.Storage.DatabasePath != wantDB {
		t.Errorf("database_path = %s, want %s", cfg.Storage.DatabasePath, wantDB)
	}
	wantRefs := filepath.Join(dir, "references")
	if cfg.References.Dir != wantRefs {
		t.Errorf("references dir = %s, want %s", cfg.References.Dir, wantRefs)
	}
}

func TestLoad_rejectsInvalidChunking(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
chunking:
  max_tokens: 100
  overlap_tokens: 100
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("overlap_tokens == max_tokens should be rejected")
	}
}

func TestValidate_chunking(t *testing.T) {
	tests := []struct {
		name    string
		max     int
		overlap int
		wantErr bool
	}{
		{"valid", 400, 80, false},
		{"zero_overlap", 400, 0, false},
		{"negative_max", -1, 0, true},
		{"overlap_equals_max", 100, 100, true},
		{"overlap_exceeds_max", 100, 150, true},
		{"negative_overlap", 100, -1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			ApplyDefaults(cfg)
			cfg.Chunking.MaxTokens = tt.max
			cfg.Chunking.OverlapTokens = tt.overlap
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.Server.Host != "localhost" {
		t.Errorf("default host: got %s", cfg.Server.Host)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("default port: got %d", cfg.Server.Port)
	}
	if cfg.Chunking.MaxTokens != 400 || cfg.Chunking.OverlapTokens != 80 {
		t.Errorf("default chunking: got %+v", cfg.Chunking)
	}
	if cfg.Retrieval.TopK != 4 {
		t.Errorf("default top_k: got %d", cfg.Retrieval.TopK)
	}
	if cfg.Analysis.Concurrency != 4 {
		t.Errorf("default concurrency: got %d", cfg.Analysis.Concurrency)
	}
	if cfg.Annotation.SimilarityThreshold != 0.2 {
		t.Errorf("default similarity_threshold: got %f", cfg.Annotation.SimilarityThreshold)
	}
	if cfg.References.Extensions == nil {
		t.Error("reference extensions should be set by default")
	}
	if len(cfg.Checklist.Processes) == 0 {
		t.Error("default checklists should be populated")
	}
	if len(cfg.Checklist.Processes["Company Incorporation"]) != 5 {
		t.Errorf("incorporation checklist: got %v", cfg.Checklist.Processes["Company Incorporation"])
	}
}

func TestApplyDefaults_keepsExplicitChecklists(t *testing.T) {
	cfg := &Config{Checklist: ChecklistConfig{
		Processes: map[string][]ChecklistEntry{"Branch Registration": {{Name: "Parent Company Resolution"}}},
	}}
	ApplyDefaults(cfg)
	if len(cfg.Checklist.Processes) != 1 {
		t.Errorf("explicit checklists should not be replaced: got %v", cfg.Checklist.Processes)
	}
}
