package annotate

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/redlinehq/redline/internal/models"
)

// lawArticle extracts a compact "law, Art. N" citation from a snippet, e.g.
// "ADGM Companies Regulations 2020 ... Art. 6".
var lawArticle = regexp.MustCompile(`(?i)(ADGM[^\n\r,]*?Regulations\s*\d{4}).{0,40}?(Article|Art\.)\s*(\d+[A-Za-z]?)`)

// Renderer writes the annotated review copy of a document.
type Renderer struct {
	outputDir string
}

func NewRenderer(outputDir string) *Renderer {
	return &Renderer{outputDir: outputDir}
}

// Render writes `<name>_reviewed.md` for the document: the paragraphs with an
// inline note under each annotated one, an "Unanchored Comments" section, and
// a consolidated issues section with full citations. Returns the output path.
func (r *Renderer) Render(filename string, paragraphs []models.Paragraph, groups []models.AnnotationGroup) (string, error) {
	if err := os.MkdirAll(r.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	notes := make(map[int]string)
	var unanchored []models.IssueRecord
	var all []models.IssueRecord
	for _, g := range groups {
		all = append(all, g.Issues...)
		if !g.Anchored() {
			unanchored = append(unanchored, g.Issues...)
			continue
		}
		notes[g.ParagraphIndex] = inlineNote(g.Issues)
	}

	var b strings.Builder
	for _, p := range paragraphs {
		b.WriteString(p.Text)
		b.WriteString("\n")
		if note, ok := notes[p.Index]; ok {
			fmt.Fprintf(&b, "> **[Comment: %s]**\n", note)
		}
		b.WriteString("\n")
	}

	if len(unanchored) > 0 {
		b.WriteString("## Unanchored Comments\n\n")
		for _, issue := range unanchored {
			fmt.Fprintf(&b, "- %s\n", issueLine(issue))
		}
		b.WriteString("\n")
	}

	b.WriteString("# Issues Found (Automated Review)\n\n")
	if len(all) == 0 {
		b.WriteString("No issues were detected.\n")
	}
	for i, issue := range all {
		fmt.Fprintf(&b, "%d. **[%s]** %s", i+1, issue.Severity, issue.Issue)
		if len(issue.Evidence) > 0 {
			if cite := ShortCitation(issue.Evidence[0]); cite != "" {
				fmt.Fprintf(&b, " (Per %s)", cite)
			}
		}
		b.WriteString("\n")
		if issue.Suggestion != "" {
			fmt.Fprintf(&b, "   Suggestion: %s\n", issue.Suggestion)
		}
		for _, ev := range issue.Evidence {
			src := ""
			if ev.SourceURL != "" {
				src = fmt.Sprintf(" (source: %s)", ev.SourceURL)
			}
			fmt.Fprintf(&b, "   Citation %s: %s%s\n", ev.PassageID, ev.Snippet, src)
		}
	}

	name := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	outPath := filepath.Join(r.outputDir, name+"_reviewed.md")
	if err := os.WriteFile(outPath, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("write annotated copy: %w", err)
	}
	return outPath, nil
}

// inlineNote builds one concise note covering all issues on a paragraph.
func inlineNote(issues []models.IssueRecord) string {
	parts := make([]string, 0, len(issues))
	for i, issue := range issues {
		parts = append(parts, fmt.Sprintf("%d. %s", i+1, issueLine(issue)))
	}
	return strings.Join(parts, "; ")
}

func issueLine(issue models.IssueRecord) string {
	var b strings.Builder
	if issue.Severity != "" {
		fmt.Fprintf(&b, "[%s] ", issue.Severity)
	}
	b.WriteString(issue.Issue)
	if len(issue.Evidence) > 0 {
		if cite := ShortCitation(issue.Evidence[0]); cite != "" {
			fmt.Fprintf(&b, " (Per %s)", cite)
		}
	}
	if issue.Suggestion != "" {
		fmt.Fprintf(&b, " Suggestion: %s", issue.Suggestion)
	}
	return b.String()
}

// ShortCitation derives a compact citation from a snippet, preferring a
// law-and-article reference and falling back to the passage ID.
func ShortCitation(ev models.Citation) string {
	if m := lawArticle.FindStringSubmatch(ev.Snippet); m != nil {
		return fmt.Sprintf("%s, Art. %s", strings.TrimSpace(m[1]), m[3])
	}
	return ev.PassageID
}
