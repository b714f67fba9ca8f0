// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pdiddy/research-agent/internal/httputil"
	"github.com/pdiddy/research-agent/pkg/types"
)

func init() {
	httputil.RetryBaseDelay = 1 * time.Millisecond
	proxyBackoffBase = 1 * time.Millisecond
}

func testFetchCfg() types.FetchConfig {
	return types.FetchConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   5 * time.Second,
			UserAgent: "test/0.1",
		},
		MaxPages:      3,
		MaxConcurrent: 3,
		MaxRetries:    1,
	}
}

func TestFetchExtractsPageText(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != "test/0.1" {
			t.Errorf("User-Agent = %q", r.Header.Get("User-Agent"))
		}
		w.Write([]byte(`<html><body><article><p>Quantum bits are two-level systems.</p></article></body></html>`))
	}))
	defer ts.Close()

	f := NewFetcher(testFetchCfg())
	f.Client = ts.Client()

	text, err := f.Fetch(context.Background(), ts.URL)
	if err != nil {
		t.Fatal(err)
	}
	if text != "Quantum bits are two-level systems." {
		t.Errorf("text = %q", text)
	}
}

func TestFetchNonOKStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	f := NewFetcher(testFetchCfg())
	f.Client = ts.Client()

	_, err := f.Fetch(context.Background(), ts.URL)
	if err == nil {
		t.Fatal("expected error for HTTP 404")
	}
}

func TestPagesKeepsInputOrderAndIsolatesFailures(t *testing.T) {
	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`<html><body><p>fine</p></body></html>`))
	}))
	defer ok.Close()
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer bad.Close()

	cfg := testFetchCfg()
	f := NewFetcher(cfg)

	urls := []string{ok.URL + "/a", bad.URL + "/b", ok.URL + "/c"}
	pages := f.Pages(context.Background(), urls)

	if len(pages) != 3 {
		t.Fatalf("len(pages) = %d, want 3", len(pages))
	}
	for i, u := range urls {
		if pages[i].URL != u {
			t.Errorf("pages[%d].URL = %q, want %q", i, pages[i].URL, u)
		}
	}
	if pages[0].Err != nil || pages[2].Err != nil {
		t.Errorf("healthy pages errored: %v, %v", pages[0].Err, pages[2].Err)
	}
	if pages[1].Err == nil {
		t.Error("pages[1].Err = nil, want failure for HTTP 500")
	}
	if pages[0].Text != "fine" {
		t.Errorf("pages[0].Text = %q", pages[0].Text)
	}
}

func TestPolitenessDelaySpacesRequests(t *testing.T) {
	var stamps []time.Time
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		stamps = append(stamps, time.Now())
		w.Write([]byte(`<html><body><p>x</p></body></html>`))
	}))
	defer ts.Close()

	cfg := testFetchCfg()
	cfg.DownloadDelay = 30 * time.Millisecond
	cfg.MaxConcurrent = 1
	f := NewFetcher(cfg)
	f.Client = ts.Client()

	start := time.Now()
	f.Pages(context.Background(), []string{ts.URL + "/1", ts.URL + "/2", ts.URL + "/3"})

	if elapsed := time.Since(start); elapsed < 60*time.Millisecond {
		t.Errorf("three delayed fetches took %v, want >= 60ms", elapsed)
	}
	if len(stamps) != 3 {
		t.Errorf("server saw %d requests, want 3", len(stamps))
	}
}
