// Package cli provides CLI output utilities for Redline.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/redlinehq/redline/internal/models"
	"github.com/redlinehq/redline/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat maps a flag value to an OutputFormat, defaulting to text.
func ParseOutputFormat(s string) OutputFormat {
	if OutputFormat(s) == OutputJSON {
		return OutputJSON
	}
	return OutputText
}

// WriteReport writes a review report to w in the given format.
// Use OutputJSON for parseable output consumable by other apps.
func WriteReport(w io.Writer, report *models.Report, format OutputFormat) error {
	if format == OutputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	writeReportText(w, report)
	return nil
}

func writeReportText(w io.Writer, report *models.Report) {
	fmt.Fprintf(w, "\nTask %s\n", report.TaskID)
	fmt.Fprintf(w, "Process: %s\n", report.Process)
	if report.Note != "" {
		fmt.Fprintf(w, "Note: %s\n", report.Note)
	}

	cl := report.Checklist
	fmt.Fprintf(w, "Checklist: %d/%d required documents present\n",
		cl.RequiredDocuments-len(cl.MissingDocuments), cl.RequiredDocuments)
	for _, missing := range cl.MissingDocuments {
		fmt.Fprintf(w, "  missing: %s\n", missing)
	}

	for _, doc := range report.Documents {
		fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
		fmt.Fprintf(w, "%s (%s) [%s]\n", doc.Filename, doc.DocType, doc.Status)
		if doc.StatusReason != "" {
			fmt.Fprintf(w, "  reason: %s\n", doc.StatusReason)
		}
		for i, issue := range doc.Issues {
			fmt.Fprintf(w, "  %d. [%s] %s\n", i+1, issue.Severity, issue.Issue)
			if issue.Suggestion != "" {
				fmt.Fprintf(w, "     Suggestion: %s\n", issue.Suggestion)
			}
			for _, cite := range issue.Evidence {
				fmt.Fprintf(w, "     Citation %s: %s\n", cite.PassageID, utils.Truncate(cite.Snippet, 120))
			}
		}
		if doc.AnnotatedPath != "" {
			fmt.Fprintf(w, "  annotated copy: %s\n", doc.AnnotatedPath)
		}
	}
	fmt.Fprintln(w)
}

// WriteQueryResults writes retrieval results to w in the given format.
func WriteQueryResults(w io.Writer, query string, results []models.RetrievalResult, format OutputFormat) error {
	if format == OutputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]interface{}{"query": query, "results": results})
	}
	fmt.Fprintf(w, "\nFound %d passages for %q\n\n", len(results), query)
	for i, res := range results {
		fmt.Fprintf(w, "%d. [%.4f] %s", i+1, res.Score, res.PassageID)
		if res.Title != "" {
			fmt.Fprintf(w, " (%s)", res.Title)
		}
		fmt.Fprintln(w)
		if res.Snippet != "" {
			fmt.Fprintf(w, "   %s\n", res.Snippet)
		}
		if res.SourceURL != "" {
			fmt.Fprintf(w, "   source: %s\n", res.SourceURL)
		}
	}
	fmt.Fprintln(w)
	return nil
}
