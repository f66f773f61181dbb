package annotate

import (
	"context"
	"sort"

	"github.com/redlinehq/redline/internal/models"
)

// Mapper partitions a document's issues into annotation groups keyed by
// paragraph index.
type Mapper struct {
	matcher *Matcher
}

func NewMapper(matcher *Matcher) *Mapper {
	return &Mapper{matcher: matcher}
}

// Map anchors every issue to at most one paragraph. Groups come back sorted
// by ascending paragraph index with the unanchored group, when present, last.
// Issues inside a group keep their production order, so the partition is
// deterministic for identical inputs.
func (m *Mapper) Map(ctx context.Context, issues []models.IssueRecord, paragraphs []models.Paragraph) []models.AnnotationGroup {
	byParagraph := make(map[int][]models.IssueRecord)
	for _, issue := range issues {
		idx := m.matcher.Match(ctx, issue, paragraphs)
		byParagraph[idx] = append(byParagraph[idx], issue)
	}

	indexes := make([]int, 0, len(byParagraph))
	for idx := range byParagraph {
		if idx != models.UnanchoredIndex {
			indexes = append(indexes, idx)
		}
	}
	sort.Ints(indexes)

	groups := make([]models.AnnotationGroup, 0, len(byParagraph))
	for _, idx := range indexes {
		groups = append(groups, models.AnnotationGroup{ParagraphIndex: idx, Issues: byParagraph[idx]})
	}
	if unanchored, ok := byParagraph[models.UnanchoredIndex]; ok {
		groups = append(groups, models.AnnotationGroup{ParagraphIndex: models.UnanchoredIndex, Issues: unanchored})
	}
	return groups
}
