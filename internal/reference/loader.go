package reference

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/redlinehq/redline/internal/extract"
)

// Source is one reference document with extracted text and provenance.
type Source struct {
	Path      string
	Title     string
	SourceURL string
	Text      string
}

// ManifestEntry maps a reference filename to its origin.
type ManifestEntry struct {
	File  string `yaml:"file"`
	Title string `yaml:"title"`
	URL   string `yaml:"url"`
}

// LoadManifest reads a sources manifest. A missing path is not an error; the
// loader falls back to file-derived provenance.
func LoadManifest(path string) (map[string]ManifestEntry, error) {
	out := make(map[string]ManifestEntry)
	if path == "" {
		return out, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return out, nil
		}
		return nil, fmt.Errorf("read sources manifest: %w", err)
	}
	var entries []ManifestEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse sources manifest: %w", err)
	}
	for _, e := range entries {
		out[e.File] = e
	}
	return out, nil
}

// Loader walks a references directory and extracts text with provenance.
type Loader struct {
	extractor  *extract.Extractor
	extensions []string
}

// NewLoader creates a loader restricted to the given extensions (empty = all
// extractable formats).
func NewLoader(extractor *extract.Extractor, extensions []string) *Loader {
	return &Loader{extractor: extractor, extensions: extensions}
}

// Load walks dir recursively, extracts text from each matching file, and
// resolves provenance via the manifest. Files whose text cannot be extracted
// are skipped rather than failing the whole load.
func (l *Loader) Load(dir string, manifest map[string]ManifestEntry) ([]Source, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("stat references dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", dir)
	}
	var sources []Source
	err = filepath.WalkDir(dir, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if len(l.extensions) > 0 && !extensionAllowed(ext, l.extensions) {
			return nil
		}
		text, extractErr := l.extractor.Extract(path)
		if extractErr != nil || strings.TrimSpace(text) == "" {
			return nil
		}
		base := filepath.Base(path)
		title := base
		sourceURL := "file://" + path
		if entry, ok := manifest[base]; ok {
			if entry.Title != "" {
				title = entry.Title
			}
			if entry.URL != "" {
				sourceURL = entry.URL
			}
		}
		sources = append(sources, Source{Path: path, Title: title, SourceURL: sourceURL, Text: text})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sources, nil
}

func extensionAllowed(ext string, allowed []string) bool {
	norm := strings.ToLower(strings.TrimPrefix(ext, "."))
	for _, a := range allowed {
		if strings.ToLower(strings.TrimPrefix(a, ".")) == norm {
			return true
		}
	}
	return false
}
