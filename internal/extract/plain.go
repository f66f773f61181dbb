package extract

import (
	"strings"
	"unicode/utf8"
)

// extractPlain passes content through as text. Invalid UTF-8 sequences are
// replaced with the replacement character so downstream chunking and
// annotation never see broken runes.
func extractPlain(content []byte) (string, error) {
	text := string(content)
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, "�")
	}
	return text, nil
}
