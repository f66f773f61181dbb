// Package analyzer reviews document text against retrieved reference passages
// and produces compliance issue records.
package analyzer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrGenerationFailed marks analyzer failures caused by the generation
// boundary (bad output, timeout, transport error). Callers treat it as a
// per-document failure, not a task failure.
var ErrGenerationFailed = errors.New("issue generation failed")

// Candidate is one raw finding proposed by a generation backend, before
// validation and coercion. Groundedness is accepted on the wire but ignored;
// the analyzer recomputes it from the evidence.
type Candidate struct {
	Document       string  `json:"document"`
	Section        string  `json:"section"`
	Issue          string  `json:"issue"`
	Severity       string  `json:"severity"`
	Category       string  `json:"category"`
	Suggestion     string  `json:"suggestion"`
	SuggestionLong string  `json:"suggestion_long"`
	Evidence       string  `json:"evidence"`
	Groundedness   float64 `json:"groundedness"`
}

// Generator proposes issue candidates for a review prompt. Implementations
// wrap an LLM or any other review backend.
type Generator interface {
	Generate(ctx context.Context, prompt string) ([]Candidate, error)
}

// Completer produces raw text for a prompt. It is the minimal surface an LLM
// client has to implement.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// JSONGenerator adapts a raw text Completer into a Generator by holding it to
// a strict-JSON contract: the completion must be a JSON list of candidates,
// optionally wrapped in a markdown code fence.
type JSONGenerator struct {
	completer Completer
}

func NewJSONGenerator(completer Completer) *JSONGenerator {
	return &JSONGenerator{completer: completer}
}

func (g *JSONGenerator) Generate(ctx context.Context, prompt string) ([]Candidate, error) {
	raw, err := g.completer.Complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	candidates, err := ParseCandidates(raw)
	if err != nil {
		return nil, err
	}
	return candidates, nil
}

// ParseCandidates parses a completion into candidates. Code fences and
// surrounding prose before/after the JSON list are stripped.
func ParseCandidates(raw string) ([]Candidate, error) {
	s := strings.TrimSpace(raw)
	if fenced := extractFence(s); fenced != "" {
		s = fenced
	}
	start := strings.Index(s, "[")
	end := strings.LastIndex(s, "]")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("%w: no JSON list in completion", ErrGenerationFailed)
	}
	var candidates []Candidate
	if err := json.Unmarshal([]byte(s[start:end+1]), &candidates); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	return candidates, nil
}

func extractFence(s string) string {
	start := strings.Index(s, "```")
	if start < 0 {
		return ""
	}
	rest := s[start+3:]
	if nl := strings.Index(rest, "\n"); nl >= 0 {
		rest = rest[nl+1:]
	}
	end := strings.Index(rest, "```")
	if end < 0 {
		return ""
	}
	return strings.TrimSpace(rest[:end])
}
