// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"net/url"
	"sync"
	"time"
)

// proxyBackoffBase is the base duration for backoff between proxy
// attempts. Tests override this to avoid real sleeps.
var proxyBackoffBase = 1 * time.Second

// ProxyPool rotates requests across a fixed set of HTTP proxies. It
// tracks which proxies have failed and how often each has succeeded,
// preferring proxies with a successful history. When every proxy has
// failed the pool resets and tries them all again.
type ProxyPool struct {
	timeout time.Duration

	mu        sync.Mutex
	proxies   []string
	failed    map[string]bool
	successes map[string]int
	clients   map[string]*http.Client
}

// NewProxyPool builds a pool over the given proxy URLs.
func NewProxyPool(proxies []string, timeout time.Duration) *ProxyPool {
	return &ProxyPool{
		timeout:   timeout,
		proxies:   append([]string(nil), proxies...),
		failed:    make(map[string]bool),
		successes: make(map[string]int),
		clients:   make(map[string]*http.Client),
	}
}

// next picks the available proxy with the most recorded successes,
// resetting the failed set when all proxies are exhausted.
func (p *ProxyPool) next() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	available := p.availableLocked()
	if len(available) == 0 {
		p.failed = make(map[string]bool)
		available = p.availableLocked()
	}
	if len(available) == 0 {
		return "", fmt.Errorf("proxy pool is empty")
	}

	best := available[0]
	for _, candidate := range available[1:] {
		if p.successes[candidate] > p.successes[best] {
			best = candidate
		}
	}
	return best, nil
}

func (p *ProxyPool) availableLocked() []string {
	var out []string
	for _, proxy := range p.proxies {
		if !p.failed[proxy] {
			out = append(out, proxy)
		}
	}
	return out
}

// MarkSuccess records a successful request through the proxy.
func (p *ProxyPool) MarkSuccess(proxy string) {
	p.mu.Lock()
	p.successes[proxy]++
	p.mu.Unlock()
}

// MarkFailed removes the proxy from rotation until the pool resets.
func (p *ProxyPool) MarkFailed(proxy string) {
	p.mu.Lock()
	p.failed[proxy] = true
	p.mu.Unlock()
}

// client returns a cached http.Client routed through the proxy.
func (p *ProxyPool) client(proxy string) (*http.Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if c, ok := p.clients[proxy]; ok {
		return c, nil
	}

	proxyURL, err := url.Parse(proxy)
	if err != nil {
		return nil, fmt.Errorf("invalid proxy URL %q: %w", proxy, err)
	}
	c := &http.Client{
		Timeout:   p.timeout,
		Transport: &http.Transport{Proxy: http.ProxyURL(proxyURL)},
	}
	p.clients[proxy] = c
	return c, nil
}

// Get performs a GET through the pool, rotating to another proxy with
// exponential backoff plus jitter after each failure. A non-200 status
// or transport error marks the current proxy failed. When maxRetries is
// 0 the default (3) is used.
func (p *ProxyPool) Get(ctx context.Context, pageURL, userAgent string, maxRetries int) (*http.Response, error) {
	if maxRetries <= 0 {
		maxRetries = 3
	}

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		proxy, err := p.next()
		if err != nil {
			return nil, err
		}

		resp, err := p.tryProxy(ctx, proxy, pageURL, userAgent)
		if err == nil {
			p.MarkSuccess(proxy)
			return resp, nil
		}
		lastErr = err
		p.MarkFailed(proxy)

		backoff := time.Duration(math.Pow(2, float64(attempt)))*proxyBackoffBase +
			time.Duration(rand.Int63n(int64(proxyBackoffBase/2)))
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}

	return nil, fmt.Errorf("all proxy attempts failed for %s: %w", pageURL, lastErr)
}

func (p *ProxyPool) tryProxy(ctx context.Context, proxy, pageURL, userAgent string) (*http.Response, error) {
	client, err := p.client(proxy)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("proxy %s: HTTP %d", proxy, resp.StatusCode)
	}
	return resp, nil
}
