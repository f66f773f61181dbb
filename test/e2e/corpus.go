// Package e2e provides end-to-end tests over a reference corpus and full
// review tasks.
package e2e

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ReferenceDoc is one reference document in the E2E corpus.
type ReferenceDoc struct {
	File    string
	Title   string
	URL     string
	Content string
}

// QueryCase defines a query and the reference title(s) that must appear in
// retrieval results. At least one of ExpectedTitles must be present.
type QueryCase struct {
	Query          string
	ExpectedTitles []string
	Description    string
}

// Corpus holds reference documents and query test cases for E2E tests.
type Corpus struct {
	References   []ReferenceDoc
	TestCases    []QueryCase
	TotalDocs    int
	TotalQueries int
}

// BuildCorpus returns a corpus of regulatory reference documents with varied
// content and query test cases. Each document carries a unique signature
// phrase so queries can assert the correct reference is returned.
func BuildCorpus() *Corpus {
	refs := buildReferences()
	cases := buildQueryCases()
	return &Corpus{
		References:   refs,
		TestCases:    cases,
		TotalDocs:    len(refs),
		TotalQueries: len(cases),
	}
}

func buildReferences() []ReferenceDoc {
	topics := []struct {
		title   string
		content string
	}{
		{"Companies Regulations 2020 Jurisdiction", "The ADGM Courts have exclusive jurisdiction over disputes arising under these regulations. Any governing law clause must submit to the jurisdiction of the ADGM Courts rather than other forums."},
		{"Companies Regulations 2020 Incorporation", "An application for incorporation must include the proposed articles of association and a memorandum of association signed by each subscriber."},
		{"Companies Regulations 2020 Execution", "A document is validly executed by a company when signed by two authorised signatories or by a director in the presence of a witness. The execution section must state the capacity of each signatory."},
		{"Companies Regulations 2020 Registered Office", "Every company must maintain a registered office address within the Abu Dhabi Global Market. A change of registered address must be notified to the Registrar within the prescribed period."},
		{"Companies Regulations 2020 Registers", "Every company must keep a register of members and a register of directors at its registered office and make them available for inspection."},
		{"Beneficial Ownership Regulations", "A company must identify each ultimate beneficial owner and file a UBO declaration with the Registrar. The beneficial ownership register must be kept up to date."},
		{"Commercial Licensing Regulations", "No person may carry on a controlled activity in the Abu Dhabi Global Market without a commercial licence issued under these regulations."},
		{"Commercial Licensing Conditions", "A licence application must be accompanied by an incorporation application form, a board resolution approving the application, and a compliance policy."},
		{"Employment Regulations Overview", "An employer must provide each employee with a written contract of employment stating remuneration, working hours, and notice periods."},
		{"Data Protection Regulations", "A controller must process personal data lawfully and maintain records of processing activities. Cross-border transfers require an adequate level of protection."},
		{"Board Resolutions Guidance", "A board resolution must record the directors present, the quorum, and the resolutions passed. Written resolutions require the signature of every director."},
		{"Shareholder Resolutions Guidance", "A special resolution of shareholders requires a majority of not less than seventy five percent of the votes cast."},
		{"Registrar Filing Requirements", "Statutory filings must be made through the Registrar's online portal within the prescribed filing period. Late filings attract administrative penalties."},
		{"Insolvency Regulations Overview", "A company is unable to pay its debts when it fails to satisfy a statutory demand. Directors must consider creditor interests in the zone of insolvency."},
		{"Foundations Regulations Overview", "A foundation is established by charter and managed by its council. The charter must state the foundation's objects and initial capital."},
	}

	refs := make([]ReferenceDoc, 0, len(topics))
	for i, topic := range topics {
		slug := strings.ReplaceAll(strings.ToLower(topic.title), " ", "_")
		refs = append(refs, ReferenceDoc{
			File:    fmt.Sprintf("%02d_%s.txt", i+1, slug),
			Title:   topic.title,
			URL:     "https://adgm.example.test/regulations/" + slug,
			Content: topic.content,
		})
	}
	return refs
}

func buildQueryCases() []QueryCase {
	return []QueryCase{
		{
			Query:          "exclusive jurisdiction of the ADGM Courts governing law clause",
			ExpectedTitles: []string{"Companies Regulations 2020 Jurisdiction"},
			Description:    "jurisdiction query finds the jurisdiction provision",
		},
		{
			Query:          "execution of documents authorised signatories",
			ExpectedTitles: []string{"Companies Regulations 2020 Execution"},
			Description:    "execution query finds the execution provision",
		},
		{
			Query:          "ultimate beneficial owner UBO declaration register",
			ExpectedTitles: []string{"Beneficial Ownership Regulations"},
			Description:    "UBO query finds the beneficial ownership regulations",
		},
		{
			Query:          "commercial licence controlled activity",
			ExpectedTitles: []string{"Commercial Licensing Regulations", "Commercial Licensing Conditions"},
			Description:    "licensing query finds a licensing provision",
		},
		{
			Query:          "register of members and directors inspection",
			ExpectedTitles: []string{"Companies Regulations 2020 Registers"},
			Description:    "registers query finds the registers provision",
		},
		{
			Query:          "special resolution seventy five percent majority",
			ExpectedTitles: []string{"Shareholder Resolutions Guidance"},
			Description:    "resolution query finds the shareholder guidance",
		},
	}
}

// WriteFiles writes the corpus to dir as text files plus a sources manifest.
// It returns the manifest path.
func (c *Corpus) WriteFiles(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	var manifest strings.Builder
	for _, ref := range c.References {
		if err := os.WriteFile(filepath.Join(dir, ref.File), []byte(ref.Content), 0o644); err != nil {
			return "", err
		}
		fmt.Fprintf(&manifest, "- file: %s\n  title: %s\n  url: %s\n", ref.File, ref.Title, ref.URL)
	}
	manifestPath := filepath.Join(dir, "sources.yaml")
	if err := os.WriteFile(manifestPath, []byte(manifest.String()), 0o644); err != nil {
		return "", err
	}
	return manifestPath, nil
}
