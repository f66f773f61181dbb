// Package reference loads regulatory reference material, chunks it into
// passages with provenance, and builds the retrieval indices.
package reference

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/redlinehq/redline/internal/models"
)

// Chunker splits text into overlapping token-bounded passages. Overlap keeps a
// regulatory clause that spans a window boundary fully inside at least one passage.
type Chunker struct {
	maxTokens     int
	overlapTokens int
}

// NewChunker creates a chunker. maxTokens must be positive and overlapTokens
// must be smaller than maxTokens; anything else is a configuration error.
func NewChunker(maxTokens, overlapTokens int) (*Chunker, error) {
	if maxTokens <= 0 {
		return nil, fmt.Errorf("max_tokens must be positive, got %d", maxTokens)
	}
	if overlapTokens < 0 || overlapTokens >= maxTokens {
		return nil, fmt.Errorf("overlap_tokens must be in [0, max_tokens), got %d", overlapTokens)
	}
	return &Chunker{maxTokens: maxTokens, overlapTokens: overlapTokens}, nil
}

// Chunk splits text into passages tagged with the given provenance. Window
// starts advance by maxTokens-overlapTokens; the final partial window is kept
// if non-empty. Passage IDs are deterministic per (sourceURL, window index).
func (c *Chunker) Chunk(text, title, sourceURL string) []models.Passage {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	step := c.maxTokens - c.overlapTokens
	passages := make([]models.Passage, 0, (len(words)+step-1)/step)
	index := 0
	for start := 0; start < len(words); start += step {
		end := start + c.maxTokens
		if end > len(words) {
			end = len(words)
		}
		window := words[start:end]
		passages = append(passages, models.Passage{
			ID:         PassageID(sourceURL, index),
			Text:       strings.Join(window, " "),
			Title:      title,
			SourceURL:  sourceURL,
			TokenCount: len(window),
			ChunkIndex: index,
		})
		index++
		if end >= len(words) {
			break
		}
	}
	return passages
}

// PassageID returns a stable passage ID for the given source and window index.
// Same inputs always yield the same ID, so re-ingesting unchanged references
// produces an identical index generation.
func PassageID(sourceURL string, windowIndex int) string {
	hash := sha256.Sum256([]byte(sourceURL + "#chunk-" + strconv.Itoa(windowIndex)))
	return hex.EncodeToString(hash[:16])
}
