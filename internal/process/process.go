// Package process infers which ADGM legal process a document batch belongs to.
package process

import "strings"

const (
	CompanyIncorporation = "Company Incorporation"
	Licensing            = "Licensing"
	Unknown              = "Unknown"
)

var incorporationTokens = []string{
	"articles of association",
	"memorandum of association",
	"application for incorporation",
	"incorporation application",
	"subscriber",
	"share capital",
}

var licensingTokens = []string{
	"licence",
	"license",
	"commercial licence",
	"business license",
	"operating licence",
}

// Detect infers the process from classified document types first, then from
// the raw texts. An explicit override wins over both.
func Detect(override string, docTypes []string, texts []string) string {
	if override != "" {
		return override
	}
	if p := fromDocTypes(docTypes); p != Unknown {
		return p
	}
	return fromTexts(texts)
}

func fromDocTypes(docTypes []string) string {
	for _, dt := range docTypes {
		lower := strings.ToLower(dt)
		if strings.Contains(lower, "articles of association") || strings.Contains(lower, "memorandum of association") {
			return CompanyIncorporation
		}
		if strings.Contains(lower, "licence") || strings.Contains(lower, "license") {
			return Licensing
		}
	}
	return Unknown
}

func fromTexts(texts []string) string {
	haystack := strings.ToLower(strings.Join(texts, "\n"))
	if haystack == "" {
		return Unknown
	}
	for _, tok := range incorporationTokens {
		if strings.Contains(haystack, tok) {
			return CompanyIncorporation
		}
	}
	for _, tok := range licensingTokens {
		if strings.Contains(haystack, tok) {
			return Licensing
		}
	}
	return Unknown
}
