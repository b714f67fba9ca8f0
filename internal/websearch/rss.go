// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package websearch

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/pdiddy/research-agent/pkg/types"
)

// RSSBackend pulls configured feeds and keeps items whose title matches
// the query. Feeds are not queryable like a search engine, so the match
// is a local contains-any-keyword check.
type RSSBackend struct {
	Client *http.Client
	Feeds  []string
}

// Name returns the backend identifier.
func (b *RSSBackend) Name() string { return "rss" }

// Search fetches each configured feed and returns items whose lowercased
// title contains any word of the query, in feed order.
func (b *RSSBackend) Search(ctx context.Context, query string, cfg types.SearchConfig) ([]types.WebResult, error) {
	keywords := strings.Fields(strings.ToLower(query))
	if len(keywords) == 0 {
		return nil, fmt.Errorf("empty RSS query")
	}

	feeds := b.Feeds
	if len(feeds) == 0 {
		feeds = cfg.Feeds
	}
	if len(feeds) == 0 {
		return nil, fmt.Errorf("no RSS feeds configured")
	}

	parser := gofeed.NewParser()
	var results []types.WebResult
	var failures []string

	for _, feedURL := range feeds {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
		if err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", feedURL, err))
			continue
		}
		req.Header.Set("User-Agent", cfg.UserAgent)

		resp, err := b.Client.Do(req)
		if err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", feedURL, err))
			continue
		}
		feed, err := parser.Parse(resp.Body)
		resp.Body.Close()
		if err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", feedURL, err))
			continue
		}

		for _, item := range feed.Items {
			title := strings.ToLower(strings.TrimSpace(item.Title))
			if !matchesAnyKeyword(title, keywords) {
				continue
			}
			link := strings.TrimSpace(item.Link)
			if link == "" {
				continue
			}
			results = append(results, types.WebResult{
				URL:     link,
				Title:   strings.TrimSpace(item.Title),
				Snippet: strings.TrimSpace(item.Description),
				Source:  "rss",
				Rank:    len(results) + 1,
			})
		}
	}

	if len(results) == 0 && len(failures) == len(feeds) {
		return nil, fmt.Errorf("all feeds failed: %s", strings.Join(failures, "; "))
	}
	return results, nil
}

func matchesAnyKeyword(title string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(title, kw) {
			return true
		}
	}
	return false
}
