// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package websearch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pdiddy/research-agent/pkg/types"
)

// duckduckgoBase is the DuckDuckGo HTML search endpoint. Declared as a
// var so tests can substitute an httptest server.
var duckduckgoBase = "https://html.duckduckgo.com/html/"

// resultSelectors is the fallback chain of CSS selectors tried against
// the results page. The first selector that yields any URL wins; later
// entries cover markup variants DuckDuckGo has shipped over time.
var resultSelectors = []string{
	"a.result__url",
	"a.result__snippet",
	`a[href^="http"]`,
}

// DuckDuckGoBackend scrapes the DuckDuckGo HTML results page.
type DuckDuckGoBackend struct {
	Client *http.Client
}

// Name returns the backend identifier.
func (b *DuckDuckGoBackend) Name() string { return "duckduckgo" }

// Search queries the DuckDuckGo HTML endpoint and returns result URLs
// in page order.
func (b *DuckDuckGoBackend) Search(ctx context.Context, query string, cfg types.SearchConfig) ([]types.WebResult, error) {
	region := cfg.Region
	if region == "" {
		region = "us-en"
	}

	params := url.Values{
		"q":  {query},
		"kl": {region},
	}
	reqURL := duckduckgoBase + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	req.Header.Set("Referer", "https://duckduckgo.com/")

	resp, err := b.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("DuckDuckGo request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("DuckDuckGo returned HTTP %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing results page: %w", err)
	}

	var results []types.WebResult
	for _, selector := range resultSelectors {
		doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
			href, ok := sel.Attr("href")
			if !ok {
				return
			}
			href = strings.TrimSpace(href)
			if !strings.HasPrefix(href, "http") {
				return
			}
			results = append(results, types.WebResult{
				URL:    href,
				Title:  strings.TrimSpace(sel.Text()),
				Source: "duckduckgo",
				Rank:   len(results) + 1,
			})
		})
		if len(results) > 0 {
			break
		}
	}

	return results, nil
}
