// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package websearch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

const rssFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
  <title>Science Digest</title>
  <item>
    <title>Quantum error correction milestone</title>
    <link>http://digest.example/quantum-milestone</link>
    <description>A new code reduces logical error rates.</description>
  </item>
  <item>
    <title>Gardening tips for spring</title>
    <link>http://digest.example/gardening</link>
  </item>
  <item>
    <title>Computing at the edge</title>
    <link>http://digest.example/edge</link>
  </item>
</channel>
</rss>`

func TestRSSBackendKeywordMatch(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(rssFeed))
	}))
	defer ts.Close()

	backend := &RSSBackend{Client: ts.Client(), Feeds: []string{ts.URL}}
	results, err := backend.Search(context.Background(), "quantum computing", testCfg())
	if err != nil {
		t.Fatal(err)
	}

	// "quantum" matches the first item, "computing" the third.
	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(results))
	}
	if results[0].URL != "http://digest.example/quantum-milestone" {
		t.Errorf("results[0].URL = %q", results[0].URL)
	}
	if results[1].URL != "http://digest.example/edge" {
		t.Errorf("results[1].URL = %q", results[1].URL)
	}
	if results[0].Source != "rss" {
		t.Errorf("Source = %q, want rss", results[0].Source)
	}
}

func TestRSSBackendNoFeeds(t *testing.T) {
	backend := &RSSBackend{Client: http.DefaultClient}
	_, err := backend.Search(context.Background(), "quantum", testCfg())
	if err == nil {
		t.Fatal("expected error with no feeds configured")
	}
}

func TestRSSBackendAllFeedsFailed(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("not a feed"))
	}))
	defer ts.Close()

	backend := &RSSBackend{Client: ts.Client(), Feeds: []string{ts.URL}}
	_, err := backend.Search(context.Background(), "quantum", testCfg())
	if err == nil {
		t.Fatal("expected error when every feed fails to parse")
	}
}
