package models

// Severity classifies how serious a compliance issue is.
type Severity string

const (
	SeverityLow    Severity = "Low"
	SeverityMedium Severity = "Medium"
	SeverityHigh   Severity = "High"
)

// ParseSeverity returns the severity for s and whether s was one of the three
// known values. Unknown values map to SeverityMedium so a malformed generation
// response degrades rather than fails.
func ParseSeverity(s string) (Severity, bool) {
	switch Severity(s) {
	case SeverityLow, SeverityMedium, SeverityHigh:
		return Severity(s), true
	}
	return SeverityMedium, false
}

// Citation ties an issue back to a retrieved passage.
type Citation struct {
	PassageID string  `json:"passage_id"`
	Snippet   string  `json:"snippet"`
	Title     string  `json:"title,omitempty"`
	SourceURL string  `json:"source_url,omitempty"`
	Score     float64 `json:"score,omitempty"`
}

// IssueRecord is one compliance finding for a document. Records are immutable
// after the analyzer produces them.
type IssueRecord struct {
	DocumentID  string     `json:"document_id"`
	Document    string     `json:"document"`
	SectionHint string     `json:"section,omitempty"`
	Issue       string     `json:"issue"`
	Severity    Severity   `json:"severity"`
	Category    string     `json:"category,omitempty"`
	Evidence    []Citation `json:"evidence,omitempty"`
	Suggestion  string     `json:"suggestion,omitempty"`
	// SuggestionLong is an expanded compliant-wording variant when available.
	SuggestionLong string `json:"suggestion_long,omitempty"`
	// Groundedness in [0,1] is computed from issue-to-evidence similarity,
	// never taken from the generation function's self-report.
	Groundedness float64 `json:"groundedness"`
}
