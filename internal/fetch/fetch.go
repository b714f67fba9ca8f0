// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch downloads web pages and extracts their main text content.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/research-agent/internal/httputil"
	"github.com/pdiddy/research-agent/pkg/types"
)

// maxBodyBytes caps how much of a page body is read. Pages larger than
// this are truncated before extraction.
const maxBodyBytes = 4 << 20

// Page is the outcome of fetching one URL. Text is empty when the page
// yielded no extractable content; that is not an error.
type Page struct {
	URL  string
	Text string
	Err  error
}

// Fetcher downloads pages with an optional rotating proxy pool and a
// politeness delay between requests.
type Fetcher struct {
	Client *http.Client
	Proxy  *ProxyPool
	Config types.FetchConfig

	mu      sync.Mutex
	lastReq time.Time
}

// NewFetcher builds a Fetcher from config. When cfg.Proxies is non-empty
// a proxy pool is attached.
func NewFetcher(cfg types.FetchConfig) *Fetcher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	f := &Fetcher{
		Client: &http.Client{Timeout: timeout},
		Config: cfg,
	}
	if len(cfg.Proxies) > 0 {
		f.Proxy = NewProxyPool(cfg.Proxies, timeout)
	}
	return f
}

// Fetch downloads one URL and returns its extracted main text. An empty
// string with a nil error means the page had no usable content.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) (string, error) {
	f.politenessWait()

	resp, err := f.get(ctx, pageURL)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetching %s: HTTP %d", pageURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", pageURL, err)
	}

	text, err := ExtractText(body)
	if err != nil {
		return "", fmt.Errorf("extracting %s: %w", pageURL, err)
	}
	return text, nil
}

func (f *Fetcher) get(ctx context.Context, pageURL string) (*http.Response, error) {
	if f.Proxy != nil {
		return f.Proxy.Get(ctx, pageURL, f.Config.UserAgent, f.Config.MaxRetries)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", f.Config.UserAgent)
	return httputil.DoWithRetry(ctx, f.Client, req, f.Config.MaxRetries)
}

// Pages fetches the given URLs with bounded concurrency, returning one
// Page per URL in input order. Individual failures land in Page.Err and
// never abort the batch.
func (f *Fetcher) Pages(ctx context.Context, urls []string) []Page {
	pages := make([]Page, len(urls))

	limit := f.Config.MaxConcurrent
	if limit <= 0 {
		limit = 3
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, u := range urls {
		i, u := i, u
		g.Go(func() error {
			text, err := f.Fetch(ctx, u)
			pages[i] = Page{URL: u, Text: text, Err: err}
			return nil
		})
	}
	g.Wait()

	return pages
}

// politenessWait spaces consecutive requests by DownloadDelay.
func (f *Fetcher) politenessWait() {
	delay := f.Config.DownloadDelay
	if delay <= 0 {
		return
	}

	f.mu.Lock()
	wait := delay - time.Since(f.lastReq)
	if wait > 0 {
		f.lastReq = f.lastReq.Add(delay)
	} else {
		f.lastReq = time.Now()
		wait = 0
	}
	f.mu.Unlock()

	if wait > 0 {
		time.Sleep(wait)
	}
}
