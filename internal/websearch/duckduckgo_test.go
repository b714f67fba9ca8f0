// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package websearch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

const ddgResultsPage = `<!DOCTYPE html>
<html><body>
<div class="results">
  <div class="result">
    <a class="result__url" href="http://example.com/quantum">example.com/quantum</a>
    <a class="result__snippet" href="http://example.com/quantum">An introduction to quantum computing.</a>
  </div>
  <div class="result">
    <a class="result__url" href="http://physics.example.org/qubits">physics.example.org/qubits</a>
  </div>
</div>
</body></html>`

const ddgFallbackPage = `<!DOCTYPE html>
<html><body>
<p>Results moved: <a href="http://example.com/moved">here</a>
and <a href="/relative">here</a>.</p>
</body></html>`

func ddgTestServer(t *testing.T, page string) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") == "" {
			t.Error("missing q parameter")
		}
		if r.URL.Query().Get("kl") == "" {
			t.Error("missing kl parameter")
		}
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(page))
	}))
	t.Cleanup(ts.Close)

	orig := duckduckgoBase
	duckduckgoBase = ts.URL + "/"
	t.Cleanup(func() { duckduckgoBase = orig })

	return ts
}

func TestDuckDuckGoParsesPrimarySelector(t *testing.T) {
	ts := ddgTestServer(t, ddgResultsPage)
	backend := &DuckDuckGoBackend{Client: ts.Client()}

	results, err := backend.Search(context.Background(), "quantum computing basics", testCfg())
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(results))
	}
	if results[0].URL != "http://example.com/quantum" {
		t.Errorf("results[0].URL = %q", results[0].URL)
	}
	if results[1].URL != "http://physics.example.org/qubits" {
		t.Errorf("results[1].URL = %q", results[1].URL)
	}
	if results[0].Rank != 1 || results[1].Rank != 2 {
		t.Errorf("ranks = %d, %d, want 1, 2", results[0].Rank, results[1].Rank)
	}
}

func TestDuckDuckGoFallbackSelector(t *testing.T) {
	// No result__url anchors: the generic http-link selector should apply,
	// and relative links should be skipped.
	ts := ddgTestServer(t, ddgFallbackPage)
	backend := &DuckDuckGoBackend{Client: ts.Client()}

	results, err := backend.Search(context.Background(), "quantum computing", testCfg())
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Fatalf("len(results) = %d, want 1", len(results))
	}
	if results[0].URL != "http://example.com/moved" {
		t.Errorf("results[0].URL = %q", results[0].URL)
	}
}

func TestDuckDuckGoHTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer ts.Close()

	orig := duckduckgoBase
	duckduckgoBase = ts.URL + "/"
	defer func() { duckduckgoBase = orig }()

	backend := &DuckDuckGoBackend{Client: ts.Client()}
	_, err := backend.Search(context.Background(), "quantum computing", testCfg())
	if err == nil {
		t.Fatal("expected error for HTTP 403")
	}
}
