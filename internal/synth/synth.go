// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package synth filters page content, derives follow-up sub-queries, and
// summarizes research sessions. Two implementations exist: a deterministic
// heuristic that needs no network, and a Claude API backend.
package synth

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/pdiddy/research-agent/pkg/types"
)

// Synthesizer turns raw page text into report content. Implementations
// follow the Strategy pattern so the agent can run offline with the
// heuristic or call an AI API when a key is configured.
type Synthesizer interface {
	// FilterContent cleans raw extracted text into an excerpt.
	FilterContent(ctx context.Context, text string) (string, error)

	// SubQueries derives follow-up research questions from the findings.
	SubQueries(ctx context.Context, query string, findings []types.Finding) ([]string, error)

	// Summarize produces the body of the session summary for the reports.
	Summarize(ctx context.Context, reports []types.Report) (string, error)
}

// questionPhrases mark a sentence as a research question candidate.
var questionPhrases = []string{
	"what is", "how to", "why does", "explain",
	"difference between", "compare", "define",
}

// questionWords are the interrogatives a sub-query may already start with.
var questionWords = []string{"what", "how", "why", "when", "where", "who"}

// Heuristic is the default Synthesizer. It filters by truncation and
// derives sub-queries with sentence-level text analysis, producing the
// same output for the same input every time.
type Heuristic struct {
	// MaxExcerptLen is the excerpt truncation length in bytes (default 1000).
	MaxExcerptLen int

	// MaxSubQueries caps the number of derived sub-queries (default 5).
	MaxSubQueries int
}

// FilterContent collapses whitespace and truncates to MaxExcerptLen on a
// rune boundary. The cut may land mid-sentence.
func (h *Heuristic) FilterContent(_ context.Context, text string) (string, error) {
	max := h.MaxExcerptLen
	if max <= 0 {
		max = 1000
	}

	cleaned := strings.Join(strings.Fields(text), " ")
	if len(cleaned) <= max {
		return cleaned, nil
	}

	cut := max
	for cut > 0 && !utf8.RuneStart(cleaned[cut]) {
		cut--
	}
	return cleaned[:cut], nil
}

// SubQueries splits the combined excerpts into sentences and keeps those
// that read like research questions or overlap the query vocabulary.
// Statements are rewritten into questions. Order is first-seen and
// duplicates are dropped, so output is deterministic.
func (h *Heuristic) SubQueries(_ context.Context, query string, findings []types.Finding) ([]string, error) {
	max := h.MaxSubQueries
	if max <= 0 {
		max = 5
	}

	var excerpts []string
	for _, f := range findings {
		excerpts = append(excerpts, f.Excerpt)
	}
	combined := strings.Join(excerpts, " ")
	combined = strings.Join(strings.Fields(combined), " ")
	combined = strings.NewReplacer(`"`, "", "'", "").Replace(combined)

	queryWords := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(query)) {
		queryWords[w] = true
	}

	seen := make(map[string]bool)
	var selected []string
	for _, sentence := range splitSentences(combined) {
		sentence = strings.TrimSpace(sentence)
		words := strings.Fields(sentence)
		if len(words) < 4 || len(words) > 20 {
			continue
		}

		lower := strings.ToLower(sentence)
		if !containsQuestionPhrase(lower) && !sharesWord(lower, queryWords) {
			continue
		}
		if seen[lower] {
			continue
		}
		seen[lower] = true

		selected = append(selected, sentence)
		if len(selected) == max {
			break
		}
	}

	queries := make([]string, 0, len(selected))
	for _, sentence := range selected {
		if startsWithQuestionWord(sentence) {
			queries = append(queries, sentence)
		} else {
			queries = append(queries, "What is meant by: "+sentence)
		}
	}
	return queries, nil
}

// Summarize renders a per-query heading with one truncated bullet per
// finding.
func (h *Heuristic) Summarize(_ context.Context, reports []types.Report) (string, error) {
	var sections []string
	for _, r := range reports {
		var bullets []string
		for _, f := range r.Findings {
			text := f.Excerpt
			if len(text) > 200 {
				cut := 200
				for cut > 0 && !utf8.RuneStart(text[cut]) {
					cut--
				}
				text = text[:cut]
			}
			bullets = append(bullets, fmt.Sprintf("- %s...", text))
		}
		sections = append(sections, fmt.Sprintf("## %s\n%s", r.Query, strings.Join(bullets, "\n")))
	}
	return strings.Join(sections, "\n\n"), nil
}

// splitSentences breaks text on sentence-ending punctuation and newlines.
func splitSentences(text string) []string {
	parts := []string{text}
	for _, delim := range []string{". ", "? ", "! ", "\n"} {
		var next []string
		for _, p := range parts {
			next = append(next, strings.Split(p, delim)...)
		}
		parts = next
	}
	return parts
}

func containsQuestionPhrase(lower string) bool {
	for _, phrase := range questionPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

func sharesWord(lower string, queryWords map[string]bool) bool {
	for _, w := range strings.Fields(lower) {
		if queryWords[w] {
			return true
		}
	}
	return false
}

func startsWithQuestionWord(sentence string) bool {
	lower := strings.ToLower(sentence)
	for _, w := range questionWords {
		if strings.HasPrefix(lower, w) {
			return true
		}
	}
	return false
}

// New selects the Synthesizer for the given config: Claude when an API
// key is present, the heuristic otherwise.
func New(cfg types.SynthesisConfig) Synthesizer {
	if cfg.APIKey != "" {
		return &Claude{
			APIKey:        cfg.APIKey,
			Model:         cfg.Model,
			MaxSubQueries: cfg.MaxSubQueries,
			MaxExcerptLen: cfg.MaxExcerptLen,
		}
	}
	return &Heuristic{
		MaxExcerptLen: cfg.MaxExcerptLen,
		MaxSubQueries: cfg.MaxSubQueries,
	}
}
