// Package config provides configuration loading and structs for the Redline service.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug      bool             `yaml:"debug"`
	Server     ServerConfig     `yaml:"server"`
	Storage    StorageConfig    `yaml:"storage"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Chunking   ChunkingConfig   `yaml:"chunking"`
	Retrieval  RetrievalConfig  `yaml:"retrieval"`
	Analysis   AnalysisConfig   `yaml:"analysis"`
	Annotation AnnotationConfig `yaml:"annotation"`
	Checklist  ChecklistConfig  `yaml:"checklist"`
	References ReferencesConfig `yaml:"references"`
	Output     OutputConfig     `yaml:"output"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig holds paths for the database and index files.
type StorageConfig struct {
	DatabasePath     string `yaml:"database_path"`
	VectorIndexPath  string `yaml:"vector_index_path"`
	KeywordIndexPath string `yaml:"keyword_index_path"`
}

// EmbeddingConfig holds ONNX embedder settings.
type EmbeddingConfig struct {
	ModelPath  string `yaml:"model_path"`
	Dimensions int    `yaml:"dimensions"`
	MaxTokens  int    `yaml:"max_tokens"`
	CacheSize  int    `yaml:"cache_size"`
}

// ChunkingConfig bounds reference passages. OverlapTokens must be smaller than
// MaxTokens so window starts keep advancing.
type ChunkingConfig struct {
	MaxTokens     int `yaml:"max_tokens"`
	OverlapTokens int `yaml:"overlap_tokens"`
}

// RetrievalConfig holds top-k and hybrid fusion settings.
type RetrievalConfig struct {
	TopK           int     `yaml:"top_k"`
	SemanticWeight float64 `yaml:"semantic_weight"`
	KeywordWeight  float64 `yaml:"keyword_weight"`
	SnippetLength  int     `yaml:"snippet_length"`
}

// AnalysisConfig holds compliance-analysis settings.
type AnalysisConfig struct {
	// Concurrency bounds how many documents are analyzed in parallel.
	Concurrency int `yaml:"concurrency"`
	// GenerationTimeoutSeconds is the per-call timeout for the generation function.
	GenerationTimeoutSeconds int `yaml:"generation_timeout_seconds"`
	// SegmentClauses analyzes clause segments separately instead of whole documents.
	SegmentClauses bool `yaml:"segment_clauses"`
	MaxEvidence    int  `yaml:"max_evidence"`
}

// AnnotationConfig holds issue-to-paragraph matching settings.
type AnnotationConfig struct {
	// SimilarityThreshold is the minimum cosine similarity for a semantic anchor.
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
	// HintPrefixLength bounds how much of a hint is used for substring matching.
	HintPrefixLength int `yaml:"hint_prefix_length"`
}

// ChecklistEntry is one required document in a process checklist.
type ChecklistEntry struct {
	Name      string `yaml:"name"`
	Rationale string `yaml:"rationale,omitempty"`
	SourceURL string `yaml:"source_url,omitempty"`
}

// ChecklistConfig maps a process name to its required documents.
type ChecklistConfig struct {
	// PresenceThreshold is the minimum similarity between a required name and an
	// uploaded document type to count the requirement as satisfied.
	PresenceThreshold float64                     `yaml:"presence_threshold"`
	Processes         map[string][]ChecklistEntry `yaml:"processes"`
}

// ReferencesConfig locates regulatory reference material.
type ReferencesConfig struct {
	Dir string `yaml:"dir"`
	// SourcesManifest maps reference filenames to their origin URLs.
	SourcesManifest string   `yaml:"sources_manifest"`
	Extensions      []string `yaml:"extensions"`
	// Watch re-ingests references when files under Dir change (server mode).
	Watch bool `yaml:"watch"`
}

// OutputConfig holds the directory for annotated copies and report files.
type OutputConfig struct {
	Dir string `yaml:"dir"`
}

// Load reads and parses the config file at path, applies defaults, expands paths,
// and validates. Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Storage.VectorIndexPath = expandPath(cfg.Storage.VectorIndexPath, configDir)
	cfg.Storage.KeywordIndexPath = expandPath(cfg.Storage.KeywordIndexPath, configDir)
	cfg.Embedding.ModelPath = expandPath(cfg.Embedding.ModelPath, configDir)
	cfg.References.Dir = expandPath(cfg.References.Dir, configDir)
	if cfg.References.SourcesManifest != "" {
		cfg.References.SourcesManifest = expandPath(cfg.References.SourcesManifest, configDir)
	}
	cfg.Output.Dir = expandPath(cfg.Output.Dir, configDir)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects invalid parameters before any work starts. An error here is a
// configuration error: fatal for the task, never retried.
func (c *Config) Validate() error {
	if c.Chunking.MaxTokens <= 0 {
		return fmt.Errorf("chunking.max_tokens must be positive, got %d", c.Chunking.MaxTokens)
	}
	if c.Chunking.OverlapTokens < 0 || c.Chunking.OverlapTokens >= c.Chunking.MaxTokens {
		return fmt.Errorf("chunking.overlap_tokens must be in [0, max_tokens), got %d with max_tokens %d",
			c.Chunking.OverlapTokens, c.Chunking.MaxTokens)
	}
	if c.Embedding.Dimensions <= 0 {
		return fmt.Errorf("embedding.dimensions must be positive, got %d", c.Embedding.Dimensions)
	}
	if c.Analysis.Concurrency <= 0 {
		return fmt.Errorf("analysis.concurrency must be positive, got %d", c.Analysis.Concurrency)
	}
	if c.Retrieval.SemanticWeight < 0 || c.Retrieval.KeywordWeight < 0 ||
		c.Retrieval.SemanticWeight+c.Retrieval.KeywordWeight == 0 {
		return fmt.Errorf("retrieval weights must be non-negative and not both zero")
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
