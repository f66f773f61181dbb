// Package annotate anchors compliance issues to document paragraphs and
// renders an annotated review copy.
package annotate

import (
	"context"
	"strings"

	"github.com/redlinehq/redline/internal/embedding"
	"github.com/redlinehq/redline/internal/models"
	"github.com/redlinehq/redline/internal/vector"
)

// Options controls anchor matching.
type Options struct {
	// SimilarityThreshold is the minimum cosine similarity for a semantic
	// anchor; below it an issue stays unanchored.
	SimilarityThreshold float64
	// HintPrefixLength caps how much of a hint is used for substring matching.
	HintPrefixLength int
}

// Matcher finds the paragraph an issue talks about. Strategies run in
// priority order and the first hit wins: substring match on hint text, then
// semantic similarity, then unanchored.
type Matcher struct {
	embedder embedding.Embedder
	opts     Options
}

func NewMatcher(embedder embedding.Embedder, opts Options) *Matcher {
	if opts.HintPrefixLength <= 0 {
		opts.HintPrefixLength = 30
	}
	return &Matcher{embedder: embedder, opts: opts}
}

// Match returns the paragraph index for issue, or models.UnanchoredIndex.
func (m *Matcher) Match(ctx context.Context, issue models.IssueRecord, paragraphs []models.Paragraph) int {
	if len(paragraphs) == 0 {
		return models.UnanchoredIndex
	}
	if idx, ok := m.matchHints(issue, paragraphs); ok {
		return idx
	}
	if idx, ok := m.matchSemantic(ctx, issue, paragraphs); ok {
		return idx
	}
	return models.UnanchoredIndex
}

// matchHints checks a prefix of each hint candidate as a case-insensitive
// substring of the paragraph text. Candidates are tried in order of
// specificity: the leading evidence snippet, the issue text, the section hint.
func (m *Matcher) matchHints(issue models.IssueRecord, paragraphs []models.Paragraph) (int, bool) {
	var candidates []string
	if len(issue.Evidence) > 0 && issue.Evidence[0].Snippet != "" {
		candidates = append(candidates, issue.Evidence[0].Snippet)
	}
	if issue.Issue != "" {
		candidates = append(candidates, issue.Issue)
	}
	if issue.SectionHint != "" {
		candidates = append(candidates, issue.SectionHint)
	}
	for _, p := range paragraphs {
		text := strings.ToLower(p.Text)
		for _, c := range candidates {
			prefix := strings.ToLower(c)
			// Cap in runes, not bytes, so the cut never splits a multi-byte
			// character into an unmatchable prefix.
			if r := []rune(prefix); len(r) > m.opts.HintPrefixLength {
				prefix = string(r[:m.opts.HintPrefixLength])
			}
			if prefix != "" && strings.Contains(text, prefix) {
				return p.Index, true
			}
		}
	}
	return 0, false
}

// matchSemantic picks the highest-cosine paragraph for the issue text,
// requiring the configured minimum similarity. Embedding errors fall through
// to unanchored rather than failing the annotation.
func (m *Matcher) matchSemantic(ctx context.Context, issue models.IssueRecord, paragraphs []models.Paragraph) (int, bool) {
	if issue.Issue == "" {
		return 0, false
	}
	texts := make([]string, 0, len(paragraphs)+1)
	texts = append(texts, issue.Issue)
	for _, p := range paragraphs {
		texts = append(texts, p.Text)
	}
	vecs, err := m.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, false
	}
	best := -1
	bestScore := -1.0
	for i, p := range paragraphs {
		score := vector.CosineSimilarity(vecs[0], vecs[i+1])
		if score > bestScore {
			bestScore = score
			best = p.Index
		}
	}
	if best >= 0 && bestScore >= m.opts.SimilarityThreshold {
		return best, true
	}
	return 0, false
}
