package models

// Paragraph is one paragraph of a reviewed document in natural reading order.
// Index is the anchor key issues attach to.
type Paragraph struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// UnanchoredIndex is the reserved ParagraphIndex for issues that matched no paragraph.
const UnanchoredIndex = -1

// AnnotationGroup holds all issues anchored to one paragraph, in production order.
// The group with ParagraphIndex == UnanchoredIndex collects unanchored issues.
type AnnotationGroup struct {
	ParagraphIndex int           `json:"paragraph_index"`
	Issues         []IssueRecord `json:"issues"`
}

// Anchored reports whether the group is attached to a real paragraph.
func (g *AnnotationGroup) Anchored() bool {
	return g.ParagraphIndex != UnanchoredIndex
}
