package analyzer

import (
	"context"
	"strings"

	"github.com/redlinehq/redline/internal/models"
)

// heuristicRule is one rule-based compliance check.
type heuristicRule struct {
	applies  func(lower string) bool
	issue    string
	severity models.Severity
	category string
	// query retrieves supporting references for the finding.
	query      string
	suggestion string
}

var heuristicRules = []heuristicRule{
	{
		applies: func(lower string) bool {
			for _, marker := range []string{"uae federal court", "u.a.e. federal court", "federal courts of the uae", "dubai courts", "difc courts"} {
				if strings.Contains(lower, marker) {
					return true
				}
			}
			return false
		},
		issue:      "Jurisdiction clause refers to courts other than the ADGM Courts.",
		severity:   models.SeverityHigh,
		category:   "Jurisdiction",
		query:      "governing law and jurisdiction ADGM courts",
		suggestion: "Amend the governing law clause to submit to the exclusive jurisdiction of the ADGM Courts.",
	},
	{
		applies: func(lower string) bool {
			for _, marker := range []string{"signature", "signed by", "signatory", "signatories"} {
				if strings.Contains(lower, marker) {
					return false
				}
			}
			return true
		},
		issue:      "No signatory block or execution section was found.",
		severity:   models.SeverityMedium,
		category:   "Execution",
		query:      "execution of documents signature requirements",
		suggestion: "Add an execution section with the name, capacity, and signature of each signatory.",
	},
	{
		applies: func(lower string) bool {
			return !strings.Contains(lower, "adgm") && !strings.Contains(lower, "abu dhabi global market")
		},
		issue:      "The document does not reference ADGM or the Abu Dhabi Global Market.",
		severity:   models.SeverityLow,
		category:   "Jurisdiction",
		query:      "Abu Dhabi Global Market regulations applicability",
		suggestion: "State that the document is made under the applicable ADGM regulations.",
	},
}

// heuristicIssues runs rule-based checks against the document text. Each
// finding cites fresh retrieval evidence; passages already cited by an earlier
// finding are not repeated.
func (a *Analyzer) heuristicIssues(ctx context.Context, docID, docName, text string) ([]models.IssueRecord, error) {
	lower := strings.ToLower(text)
	usedRefs := make(map[string]bool)
	var issues []models.IssueRecord
	for _, rule := range heuristicRules {
		if !rule.applies(lower) {
			continue
		}
		evidence, err := a.retriever.Retrieve(ctx, rule.query, a.opts.TopK)
		if err != nil {
			return nil, err
		}
		fresh := evidence[:0:0]
		for _, e := range evidence {
			if !usedRefs[e.PassageID] {
				fresh = append(fresh, e)
				usedRefs[e.PassageID] = true
			}
		}
		citations := evidenceCitations(fresh, a.opts.MaxEvidence)
		grounded, err := a.groundedness(ctx, rule.issue, citations)
		if err != nil {
			return nil, err
		}
		issues = append(issues, models.IssueRecord{
			DocumentID:   docID,
			Document:     docName,
			Issue:        rule.issue,
			Severity:     rule.severity,
			Category:     rule.category,
			Evidence:     citations,
			Suggestion:   rule.suggestion,
			Groundedness: grounded,
		})
	}
	return issues, nil
}
