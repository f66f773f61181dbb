// Package models defines core data structures for passages, issues, annotations, and reports.
package models

// Passage is a bounded chunk of reference text with provenance. Passages are
// immutable once indexed; the ID is deterministic for a given source and window.
type Passage struct {
	ID         string `json:"id" db:"id"`
	Text       string `json:"text" db:"text"`
	Title      string `json:"title" db:"title"`
	SourceURL  string `json:"source_url" db:"source_url"`
	TokenCount int    `json:"token_count" db:"token_count"`
	// ChunkIndex is the window position within the source document.
	ChunkIndex int `json:"chunk_index" db:"chunk_index"`
}

// RetrievalResult is a single retrieval hit with provenance, ranked by score
// descending with ties broken by ascending passage ID.
type RetrievalResult struct {
	PassageID string  `json:"passage_id"`
	Score     float64 `json:"score"`
	Title     string  `json:"title"`
	SourceURL string  `json:"source_url"`
	Snippet   string  `json:"snippet"`
}
