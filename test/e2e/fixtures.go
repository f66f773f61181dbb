package e2e

import (
	"os"
	"path/filepath"
)

// ReviewFixture is one uploaded document for a review task.
type ReviewFixture struct {
	File    string
	Content string
	// WantIssues marks fixtures that the rule-based checks must flag.
	WantIssues bool
}

// BuildReviewFixtures returns uploaded documents for a Company Incorporation
// review: one non-compliant articles document and one compliant board
// resolution.
func BuildReviewFixtures() []ReviewFixture {
	return []ReviewFixture{
		{
			File: "articles_of_association.txt",
			Content: "Articles of Association of Example Holdings Ltd\n" +
				"\n" +
				"1. The share capital of the company is one hundred thousand US dollars.\n" +
				"2. The directors may exercise all the powers of the company.\n" +
				"3. Any dispute arising under these articles shall be resolved before the UAE Federal Courts.\n",
			WantIssues: true,
		},
		{
			File: "board_resolution.txt",
			Content: "Board Resolution of Example Holdings Ltd\n" +
				"\n" +
				"The directors resolve to incorporate the company in the Abu Dhabi Global Market\n" +
				"and to submit all disputes to the exclusive jurisdiction of the ADGM Courts.\n" +
				"\n" +
				"Signed by the Chairman on behalf of the board.\n",
			WantIssues: false,
		},
	}
}

// WriteFixtures writes review fixtures to dir and returns their paths in
// fixture order.
func WriteFixtures(dir string, fixtures []ReviewFixture) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(fixtures))
	for _, f := range fixtures {
		path := filepath.Join(dir, f.File)
		if err := os.WriteFile(path, []byte(f.Content), 0o644); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}
