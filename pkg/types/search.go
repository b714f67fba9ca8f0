// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// WebResult represents a candidate URL returned by a search backend.
type WebResult struct {
	// URL is the absolute address of the result page.
	URL string `json:"url" yaml:"url"`

	// Title is the result title as returned by the backend, if any.
	Title string `json:"title,omitempty" yaml:"title,omitempty"`

	// Snippet is the short result description, if the backend provides one.
	Snippet string `json:"snippet,omitempty" yaml:"snippet,omitempty"`

	// Source identifies which backend found this result (e.g. "duckduckgo", "rss").
	Source string `json:"source" yaml:"source"`

	// Rank is the 1-based position of the result within its backend's output.
	Rank int `json:"rank" yaml:"rank"`
}
