// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package websearch discovers candidate URLs for a research query across
// pluggable search backends and returns a unified, deduplicated list.
package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/pdiddy/research-agent/pkg/types"
)

// Backend discovers URLs from a single search source. Each backend
// (DuckDuckGo, RSS) implements this interface per the Strategy pattern.
type Backend interface {
	Name() string
	Search(ctx context.Context, query string, cfg types.SearchConfig) ([]types.WebResult, error)
}

// blockedFragments lists URL substrings that disqualify a result: binary
// documents and non-HTTP schemes the fetch stage cannot extract.
var blockedFragments = []string{".pdf", ".doc", "javascript:", "mailto:"}

// SearchOutput holds the discovered URLs and fan-out statistics.
type SearchOutput struct {
	Results       []types.WebResult
	DupsRemoved   int
	BackendErrors []string
}

// Search fans the query out to all backends concurrently, filters and
// deduplicates the combined results preserving rank order, and returns
// the top MaxResults. A failing backend produces a warning on w, not an
// error; only total failure across every backend is fatal.
func Search(ctx context.Context, query string, backends []Backend, cfg types.SearchConfig, w io.Writer) (SearchOutput, error) {
	if strings.TrimSpace(query) == "" {
		return SearchOutput{}, fmt.Errorf("query is empty: provide a research question")
	}
	if len(backends) == 0 {
		return SearchOutput{}, fmt.Errorf("no search backends configured")
	}

	type backendResult struct {
		order   int
		results []types.WebResult
		err     error
		name    string
	}

	ch := make(chan backendResult, len(backends))
	var wg sync.WaitGroup

	for i, b := range backends {
		wg.Add(1)
		go func(order int, b Backend) {
			defer wg.Done()
			results, err := b.Search(ctx, query, cfg)
			ch <- backendResult{order: order, results: results, err: err, name: b.Name()}
		}(i, b)
	}

	go func() {
		wg.Wait()
		close(ch)
	}()

	collected := make([]backendResult, 0, len(backends))
	var backendErrors []string
	for br := range ch {
		if br.err != nil {
			msg := fmt.Sprintf("%s: %v", br.name, br.err)
			backendErrors = append(backendErrors, msg)
			fmt.Fprintf(w, "warning: backend %s failed: %v\n", br.name, br.err)
			continue
		}
		collected = append(collected, br)
	}

	if len(collected) == 0 && len(backendErrors) > 0 {
		return SearchOutput{BackendErrors: backendErrors},
			fmt.Errorf("all search backends failed: %s", strings.Join(backendErrors, "; "))
	}

	// Merge in backend registration order so output is deterministic
	// regardless of goroutine completion order.
	sort.Slice(collected, func(i, j int) bool { return collected[i].order < collected[j].order })

	var all []types.WebResult
	for _, br := range collected {
		all = append(all, br.results...)
	}

	filtered := filterURLs(all)
	deduped, removed := deduplicate(filtered)

	max := cfg.MaxResults
	if max <= 0 {
		max = 5
	}
	if len(deduped) > max {
		deduped = deduped[:max]
	}

	if len(deduped) == 0 {
		fmt.Fprintln(w, "warning: no URLs found in search results")
	}

	return SearchOutput{
		Results:       deduped,
		DupsRemoved:   removed,
		BackendErrors: backendErrors,
	}, nil
}

// filterURLs drops results with non-HTTP URLs or blocked fragments.
func filterURLs(results []types.WebResult) []types.WebResult {
	var keep []types.WebResult
	for _, r := range results {
		if !strings.HasPrefix(r.URL, "http") {
			continue
		}
		if hasBlockedFragment(r.URL) {
			continue
		}
		keep = append(keep, r)
	}
	return keep
}

func hasBlockedFragment(url string) bool {
	for _, frag := range blockedFragments {
		if strings.Contains(url, frag) {
			return true
		}
	}
	return false
}

// deduplicate removes results that repeat an earlier URL, keeping the
// first occurrence so rank order is preserved.
func deduplicate(results []types.WebResult) ([]types.WebResult, int) {
	seen := make(map[string]bool, len(results))
	var deduped []types.WebResult
	removed := 0
	for _, r := range results {
		if seen[r.URL] {
			removed++
			continue
		}
		seen[r.URL] = true
		deduped = append(deduped, r)
	}
	return deduped, removed
}

// FormatTable writes results as a human-readable table to w.
func FormatTable(out SearchOutput, w io.Writer) {
	if len(out.Results) == 0 {
		fmt.Fprintln(w, "No results found.")
		return
	}

	fmt.Fprintf(w, "%-4s  %-60s  %-12s  %s\n", "Rank", "URL", "Source", "Title")
	fmt.Fprintln(w, strings.Repeat("-", 100))

	for i, r := range out.Results {
		url := truncate(r.URL, 60)
		fmt.Fprintf(w, "%-4d  %-60s  %-12s  %s\n", i+1, url, r.Source, truncate(r.Title, 40))
	}

	fmt.Fprintf(w, "\n%d results", len(out.Results))
	if out.DupsRemoved > 0 {
		fmt.Fprintf(w, " (%d duplicates removed)", out.DupsRemoved)
	}
	fmt.Fprintln(w)
}

// FormatJSON writes results as indented JSON to w.
func FormatJSON(out SearchOutput, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out.Results)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
