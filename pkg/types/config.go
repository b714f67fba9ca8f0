// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// SearchConfig holds settings for the URL discovery stage.
type SearchConfig struct {
	HTTPConfig `yaml:",inline"`

	// MaxResults is the maximum number of URLs to return (default 5).
	MaxResults int `json:"max_results" yaml:"max_results"`

	// EnableDuckDuckGo controls whether the DuckDuckGo HTML backend is used.
	EnableDuckDuckGo bool `json:"enable_duckduckgo" yaml:"enable_duckduckgo"`

	// Feeds lists RSS feed URLs for the RSS backend. Empty disables it.
	Feeds []string `json:"feeds,omitempty" yaml:"feeds,omitempty"`

	// Region is the DuckDuckGo region code (default "us-en").
	Region string `json:"region" yaml:"region"`
}

// FetchConfig holds settings for the page retrieval stage.
type FetchConfig struct {
	HTTPConfig `yaml:",inline"`

	// DownloadDelay is the politeness delay between consecutive page
	// downloads (default 1s).
	DownloadDelay time.Duration `json:"download_delay" yaml:"download_delay"`

	// MaxPages is the number of top-ranked URLs fetched per query (default 3).
	MaxPages int `json:"max_pages" yaml:"max_pages"`

	// MaxConcurrent bounds concurrent page downloads (default 3).
	MaxConcurrent int `json:"max_concurrent" yaml:"max_concurrent"`

	// Proxies lists proxy URLs to rotate through. Empty disables rotation.
	Proxies []string `json:"proxies,omitempty" yaml:"proxies,omitempty"`

	// MaxRetries is the per-download retry budget when rotating proxies (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// AIConfig holds shared settings for stages that call a Generative AI API.
type AIConfig struct {
	// Model is the AI model identifier (e.g. "claude-sonnet-4-5-20250929").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the AI API. Empty selects the
	// built-in heuristic synthesizer.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxRetries is the number of retry attempts for failed API calls (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// SynthesisConfig holds settings for excerpt filtering and sub-query derivation.
type SynthesisConfig struct {
	AIConfig `yaml:",inline"`

	// MaxExcerptLen is the excerpt truncation length in bytes (default 1000).
	MaxExcerptLen int `json:"max_excerpt_len" yaml:"max_excerpt_len"`

	// MaxSubQueries caps the number of derived sub-queries (default 5).
	MaxSubQueries int `json:"max_sub_queries" yaml:"max_sub_queries"`
}

// AgentConfig holds settings for the recursive research loop.
type AgentConfig struct {
	// MaxDepth is the recursion depth limit (default 3).
	MaxDepth int `json:"max_depth" yaml:"max_depth"`

	// SubQueryFanout is the number of sub-queries explored per query (default 2).
	SubQueryFanout int `json:"sub_query_fanout" yaml:"sub_query_fanout"`

	// ResultsDir is the base name for session output directories; a
	// timestamp suffix is appended per session (default "research_results").
	ResultsDir string `json:"results_dir" yaml:"results_dir"`

	// ErrorLog is the path of the append-only error log (default "research_error.log").
	ErrorLog string `json:"error_log" yaml:"error_log"`
}

// ArchiveConfig holds settings for the report archive.
type ArchiveConfig struct {
	// ArchiveDir is the base directory for the archive (contains index/).
	ArchiveDir string `json:"archive_dir" yaml:"archive_dir"`

	// MaxResults is the default maximum number of retrieval results (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// PipelineConfig groups all stage configurations for the pipeline.
type PipelineConfig struct {
	Search    SearchConfig    `json:"search" yaml:"search"`
	Fetch     FetchConfig     `json:"fetch" yaml:"fetch"`
	Synthesis SynthesisConfig `json:"synthesis" yaml:"synthesis"`
	Agent     AgentConfig     `json:"agent" yaml:"agent"`
	Archive   ArchiveConfig   `json:"archive" yaml:"archive"`
}
