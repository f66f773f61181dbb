package models

import "time"

// DocumentStatus marks whether a document made it through every pipeline stage.
type DocumentStatus string

const (
	StatusComplete   DocumentStatus = "complete"
	StatusIncomplete DocumentStatus = "incomplete"
)

// ChecklistItem is one required document for the detected process.
type ChecklistItem struct {
	Name      string `json:"name"`
	Rationale string `json:"rationale,omitempty"`
	SourceURL string `json:"source_url,omitempty"`
	Present   bool   `json:"present"`
}

// ChecklistResult summarizes required-versus-uploaded documents for a process.
type ChecklistResult struct {
	Process           string          `json:"process"`
	DocumentsUploaded int             `json:"documents_uploaded"`
	RequiredDocuments int             `json:"required_documents"`
	MissingDocuments  []string        `json:"missing_documents"`
	Items             []ChecklistItem `json:"items,omitempty"`
}

// DocumentResult is the per-document section of a report. Status distinguishes
// complete from incomplete; StatusReason explains an incomplete entry.
type DocumentResult struct {
	DocumentID    string            `json:"document_id"`
	Filename      string            `json:"filename"`
	DocType       string            `json:"doc_type"`
	Status        DocumentStatus    `json:"status"`
	StatusReason  string            `json:"status_reason,omitempty"`
	Issues        []IssueRecord     `json:"issues"`
	Groups        []AnnotationGroup `json:"annotation_groups"`
	AnnotatedPath string            `json:"annotated_path,omitempty"`
}

// Report is the sole hand-off object between the pipeline and everything
// downstream: rendering, UI, export.
type Report struct {
	TaskID    string           `json:"task_id"`
	Process   string           `json:"process"`
	Checklist ChecklistResult  `json:"checklist"`
	Documents []DocumentResult `json:"documents"`
	// GeneratedFiles maps a logical name (e.g. "report_json") to an output path.
	GeneratedFiles map[string]string `json:"generated_files,omitempty"`
	// Note carries a task-level remark, e.g. when no uploads were recognized.
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Issues returns every issue across all documents in report order.
func (r *Report) Issues() []IssueRecord {
	var out []IssueRecord
	for _, d := range r.Documents {
		out = append(out, d.Issues...)
	}
	return out
}
