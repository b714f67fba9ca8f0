// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the research-agent pipeline.
package types

import "time"

// Finding is a single excerpt attributed to one source URL within a report.
type Finding struct {
	// SourceURL is the page the excerpt was extracted from.
	SourceURL string `json:"source_url" yaml:"source_url"`

	// Excerpt is the filtered page text. It is whitespace-normalized and
	// may be truncated mid-sentence.
	Excerpt string `json:"excerpt" yaml:"excerpt"`
}

// Report holds the research results for one query. A report is built once
// at generation time and never mutated afterwards.
type Report struct {
	// Query is the research question the report answers. Never empty.
	Query string `json:"query" yaml:"query"`

	// GeneratedAt is the time the report was rendered.
	GeneratedAt time.Time `json:"generated_at" yaml:"generated_at"`

	// Findings lists one entry per source page, in retrieval order.
	Findings []Finding `json:"findings" yaml:"findings"`

	// SubQueries lists the follow-up questions derived from the findings,
	// in derivation order.
	SubQueries []string `json:"sub_queries" yaml:"sub_queries"`
}

// HasFindings reports whether any source produced a usable excerpt.
func (r Report) HasFindings() bool {
	return len(r.Findings) > 0
}

// SourceURLs returns the finding source URLs in retrieval order.
func (r Report) SourceURLs() []string {
	urls := make([]string, 0, len(r.Findings))
	for _, f := range r.Findings {
		urls = append(urls, f.SourceURL)
	}
	return urls
}
