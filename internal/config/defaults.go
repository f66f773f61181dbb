package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/redline/data/db/redline.db"
	}
	if cfg.Storage.VectorIndexPath == "" {
		cfg.Storage.VectorIndexPath = "/usr/local/var/redline/data/indices/passages.vec"
	}
	if cfg.Storage.KeywordIndexPath == "" {
		cfg.Storage.KeywordIndexPath = "/usr/local/var/redline/data/indices/bleve"
	}
	if cfg.Embedding.ModelPath == "" {
		cfg.Embedding.ModelPath = "/usr/local/var/redline/data/models/all-MiniLM-L6-v2.onnx"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 384
	}
	if cfg.Embedding.MaxTokens == 0 {
		cfg.Embedding.MaxTokens = 256
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.Chunking.MaxTokens == 0 {
		cfg.Chunking.MaxTokens = 400
	}
	if cfg.Chunking.OverlapTokens == 0 {
		cfg.Chunking.OverlapTokens = 80
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = 4
	}
	if cfg.Retrieval.SemanticWeight == 0 && cfg.Retrieval.KeywordWeight == 0 {
		cfg.Retrieval.SemanticWeight = 0.7
		cfg.Retrieval.KeywordWeight = 0.3
	}
	if cfg.Retrieval.SnippetLength == 0 {
		cfg.Retrieval.SnippetLength = 400
	}
	if cfg.Analysis.Concurrency == 0 {
		cfg.Analysis.Concurrency = 4
	}
	if cfg.Analysis.GenerationTimeoutSeconds == 0 {
		cfg.Analysis.GenerationTimeoutSeconds = 60
	}
	if cfg.Analysis.MaxEvidence == 0 {
		cfg.Analysis.MaxEvidence = 6
	}
	if cfg.Annotation.SimilarityThreshold == 0 {
		cfg.Annotation.SimilarityThreshold = 0.2
	}
	if cfg.Annotation.HintPrefixLength == 0 {
		cfg.Annotation.HintPrefixLength = 30
	}
	if cfg.Checklist.PresenceThreshold == 0 {
		cfg.Checklist.PresenceThreshold = 0.45
	}
	if cfg.Checklist.Processes == nil {
		cfg.Checklist.Processes = DefaultChecklists()
	}
	if cfg.References.Dir == "" {
		cfg.References.Dir = "/usr/local/var/redline/references"
	}
	if cfg.References.Extensions == nil {
		cfg.References.Extensions = []string{".txt", ".md", ".pdf", ".docx", ".rtf", ".odt", ".xlsx"}
	}
	if cfg.Output.Dir == "" {
		cfg.Output.Dir = "/usr/local/var/redline/data/outputs"
	}
}

// DefaultChecklists returns the built-in required-document lists used when the
// config file does not define any process checklists.
func DefaultChecklists() map[string][]ChecklistEntry {
	return map[string][]ChecklistEntry{
		"Company Incorporation": {
			{Name: "Articles of Association"},
			{Name: "Memorandum of Association"},
			{Name: "Board Resolution"},
			{Name: "UBO Declaration Form"},
			{Name: "Register of Members and Directors"},
		},
		"Licensing": {
			{Name: "Incorporation Application Form"},
			{Name: "Board Resolution"},
			{Name: "Compliance Policy"},
		},
	}
}
