// Package intake reads uploaded documents, extracts their text once, and
// classifies each by document type.
package intake

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/redlinehq/redline/internal/extract"
	"github.com/redlinehq/redline/internal/models"
)

// Document is one uploaded file after intake. Text is extracted exactly once
// and reused by every later pipeline stage.
type Document struct {
	ID         string
	Filename   string
	Path       string
	Type       string
	Text       string
	Paragraphs []models.Paragraph
}

// TypeUnknown is assigned when no keyword rule matches.
const TypeUnknown = "Unknown"

// docTypeOrder keeps classification deterministic; the first matching label
// in this order wins.
var docTypeOrder = []string{
	"Articles of Association",
	"Memorandum of Association",
	"Board Resolution",
	"Shareholder Resolution",
	"Incorporation Application Form",
	"UBO Declaration Form",
	"Register of Members and Directors",
	"Change of Registered Address Notice",
}

var docTypeKeywords = map[string][]string{
	"Articles of Association":             {"articles of association", "aoa"},
	"Memorandum of Association":           {"memorandum of association", "moa", "mou"},
	"Board Resolution":                    {"board resolution"},
	"Shareholder Resolution":              {"shareholder resolution"},
	"Incorporation Application Form":      {"incorporation application"},
	"UBO Declaration Form":                {"ubo", "ultimate beneficial owner"},
	"Register of Members and Directors":   {"register of members", "register of directors"},
	"Change of Registered Address Notice": {"change of registered address", "registered address"},
}

// Intake extracts and classifies uploaded documents.
type Intake struct {
	extractor *extract.Extractor
	logger    *zap.Logger
}

func New(extractor *extract.Extractor, logger *zap.Logger) *Intake {
	return &Intake{extractor: extractor, logger: logger}
}

// Run processes the given file paths. Missing or unreadable files are skipped
// with a warning; they never fail the batch. The returned slice preserves the
// input order of the files that survived.
func (in *Intake) Run(paths []string) []Document {
	docs := make([]Document, 0, len(paths))
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			in.logger.Warn("skipping missing upload", zap.String("path", path))
			continue
		}
		text, err := in.extractor.Extract(path)
		if err != nil || strings.TrimSpace(text) == "" {
			in.logger.Warn("skipping unextractable upload", zap.String("path", path), zap.Error(err))
			continue
		}
		docs = append(docs, Document{
			ID:         documentID(path),
			Filename:   filepath.Base(path),
			Path:       path,
			Type:       Classify(text),
			Text:       text,
			Paragraphs: SplitParagraphs(text),
		})
	}
	return docs
}

// Classify assigns a document type from the keyword table, or TypeUnknown.
func Classify(text string) string {
	lower := strings.ToLower(text)
	for _, label := range docTypeOrder {
		for _, token := range docTypeKeywords[label] {
			if strings.Contains(lower, token) {
				return label
			}
		}
	}
	return TypeUnknown
}

// SplitParagraphs splits extracted text into ordered non-empty paragraphs.
// Indexes refer to positions in the returned slice, which the annotation
// mapper uses as anchor targets.
func SplitParagraphs(text string) []models.Paragraph {
	lines := strings.Split(text, "\n")
	paragraphs := make([]models.Paragraph, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		paragraphs = append(paragraphs, models.Paragraph{Index: len(paragraphs), Text: line})
	}
	return paragraphs
}

func documentID(path string) string {
	sum := sha256.Sum256([]byte(path))
	return hex.EncodeToString(sum[:8])
}
