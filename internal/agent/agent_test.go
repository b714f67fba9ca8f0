// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package agent

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pdiddy/research-agent/internal/fetch"
	"github.com/pdiddy/research-agent/internal/report"
	"github.com/pdiddy/research-agent/internal/websearch"
	"github.com/pdiddy/research-agent/pkg/types"
)

// --- stubs ---

type stubBackend struct {
	results map[string][]types.WebResult
}

func (s *stubBackend) Name() string { return "stub" }

func (s *stubBackend) Search(_ context.Context, query string, _ types.SearchConfig) ([]types.WebResult, error) {
	return s.results[query], nil
}

type stubFetcher struct {
	pages   map[string]fetch.Page
	fetched []string
}

func (s *stubFetcher) Pages(_ context.Context, urls []string) []fetch.Page {
	var out []fetch.Page
	for _, u := range urls {
		s.fetched = append(s.fetched, u)
		p, ok := s.pages[u]
		if !ok {
			p = fetch.Page{URL: u, Text: "default page text"}
		}
		p.URL = u
		out = append(out, p)
	}
	return out
}

type stubSynth struct {
	subQueries map[string][]string
}

func (s *stubSynth) FilterContent(_ context.Context, text string) (string, error) {
	return text, nil
}

func (s *stubSynth) SubQueries(_ context.Context, query string, _ []types.Finding) ([]string, error) {
	return s.subQueries[query], nil
}

func (s *stubSynth) Summarize(_ context.Context, reports []types.Report) (string, error) {
	var b strings.Builder
	for _, r := range reports {
		b.WriteString("## " + r.Query + "\n")
	}
	return b.String(), nil
}

func result(url string) types.WebResult {
	return types.WebResult{URL: url, Source: "stub"}
}

func testAgent(t *testing.T, backend *stubBackend, fetcher *stubFetcher, s *stubSynth, cfg types.AgentConfig) (*Agent, *bytes.Buffer) {
	t.Helper()
	if cfg.ErrorLog == "" {
		cfg.ErrorLog = filepath.Join(t.TempDir(), "errors.log")
	}
	var buf bytes.Buffer
	a := New([]websearch.Backend{backend}, fetcher, s,
		types.SearchConfig{MaxResults: 5}, types.FetchConfig{MaxPages: 3}, cfg, &buf)
	return a, &buf
}

func TestResearchBuildsFindingsInOrder(t *testing.T) {
	backend := &stubBackend{results: map[string][]types.WebResult{
		"quantum computing": {
			result("http://a.example/1"),
			result("http://b.example/2"),
			result("http://c.example/3"),
		},
	}}
	fetcher := &stubFetcher{pages: map[string]fetch.Page{
		"http://a.example/1": {Text: "first page"},
		"http://b.example/2": {Text: "second page"},
		"http://c.example/3": {Text: "third page"},
	}}

	a, _ := testAgent(t, backend, fetcher, &stubSynth{}, types.AgentConfig{MaxDepth: 2})
	r, err := a.Research(context.Background(), "quantum computing", 0)
	if err != nil {
		t.Fatal(err)
	}

	want := []string{"http://a.example/1", "http://b.example/2", "http://c.example/3"}
	got := r.SourceURLs()
	if len(got) != len(want) {
		t.Fatalf("findings = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("finding[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if len(a.Reports()) != 1 {
		t.Errorf("len(Reports) = %d, want 1", len(a.Reports()))
	}
}

func TestResearchDepthLimit(t *testing.T) {
	backend := &stubBackend{results: map[string][]types.WebResult{}}
	a, _ := testAgent(t, backend, &stubFetcher{}, &stubSynth{}, types.AgentConfig{MaxDepth: 2})

	r, err := a.Research(context.Background(), "too deep", 2)
	if err != nil {
		t.Fatal(err)
	}
	if r.HasFindings() || len(r.SubQueries) != 0 {
		t.Errorf("report beyond depth limit should be empty, got %+v", r)
	}
	if len(a.Reports()) != 0 {
		t.Errorf("depth-limited query should not be recorded")
	}
}

func TestResearchRecursesIntoSubQueries(t *testing.T) {
	backend := &stubBackend{results: map[string][]types.WebResult{
		"root":  {result("http://root.example/a")},
		"sub-1": {result("http://sub1.example/a")},
		"sub-2": {result("http://sub2.example/a")},
		"sub-3": {result("http://sub3.example/a")},
	}}
	fetcher := &stubFetcher{pages: map[string]fetch.Page{}}
	s := &stubSynth{subQueries: map[string][]string{
		"root": {"sub-1", "sub-2", "sub-3"},
	}}

	a, _ := testAgent(t, backend, fetcher, s, types.AgentConfig{MaxDepth: 2, SubQueryFanout: 2})
	if _, err := a.Research(context.Background(), "root", 0); err != nil {
		t.Fatal(err)
	}

	// Fanout 2: sub-3 is never explored.
	queries := make(map[string]bool)
	for _, r := range a.Reports() {
		queries[r.Query] = true
	}
	if !queries["root"] || !queries["sub-1"] || !queries["sub-2"] {
		t.Errorf("reports = %v, want root, sub-1, sub-2", queries)
	}
	if queries["sub-3"] {
		t.Error("sub-3 explored despite fanout limit of 2")
	}
}

func TestResearchSkipsVisitedURLs(t *testing.T) {
	shared := result("http://shared.example/page")
	backend := &stubBackend{results: map[string][]types.WebResult{
		"root": {shared},
		"sub":  {shared, result("http://fresh.example/page")},
	}}
	fetcher := &stubFetcher{pages: map[string]fetch.Page{}}
	s := &stubSynth{subQueries: map[string][]string{"root": {"sub"}}}

	a, _ := testAgent(t, backend, fetcher, s, types.AgentConfig{MaxDepth: 2})
	if _, err := a.Research(context.Background(), "root", 0); err != nil {
		t.Fatal(err)
	}

	visits := 0
	for _, u := range fetcher.fetched {
		if u == "http://shared.example/page" {
			visits++
		}
	}
	if visits != 1 {
		t.Errorf("shared URL fetched %d times, want 1", visits)
	}
}

func TestResearchNoContentYieldsEmptyReport(t *testing.T) {
	backend := &stubBackend{results: map[string][]types.WebResult{
		"dry query": {result("http://empty.example/a")},
	}}
	fetcher := &stubFetcher{pages: map[string]fetch.Page{
		"http://empty.example/a": {Text: ""},
	}}

	a, buf := testAgent(t, backend, fetcher, &stubSynth{}, types.AgentConfig{MaxDepth: 2})
	r, err := a.Research(context.Background(), "dry query", 0)
	if err != nil {
		t.Fatal(err)
	}
	if r.HasFindings() {
		t.Errorf("report = %+v, want no findings", r)
	}
	if len(a.Reports()) != 0 {
		t.Error("content-free query should not be recorded")
	}
	if !strings.Contains(buf.String(), "no content gathered") {
		t.Errorf("output %q should warn about missing content", buf.String())
	}
}

func TestResearchFetchFailureIsLoggedNotFatal(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "errors.log")
	backend := &stubBackend{results: map[string][]types.WebResult{
		"flaky": {result("http://down.example/a"), result("http://up.example/b")},
	}}
	fetcher := &stubFetcher{pages: map[string]fetch.Page{
		"http://down.example/a": {Err: os.ErrDeadlineExceeded},
		"http://up.example/b":   {Text: "healthy content"},
	}}

	a, _ := testAgent(t, backend, fetcher, &stubSynth{}, types.AgentConfig{MaxDepth: 2, ErrorLog: logPath})
	r, err := a.Research(context.Background(), "flaky", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(r.Findings) != 1 || r.Findings[0].SourceURL != "http://up.example/b" {
		t.Errorf("findings = %+v, want only the healthy page", r.Findings)
	}

	logged, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(logged), "ERROR:") || !strings.Contains(string(logged), "http://down.example/a") {
		t.Errorf("error log = %q, want the failed URL", logged)
	}
}

// --- SaveResults ---

func TestSaveResults(t *testing.T) {
	backend := &stubBackend{results: map[string][]types.WebResult{
		"quantum computing basics": {result("http://a.example/1")},
	}}
	fetcher := &stubFetcher{pages: map[string]fetch.Page{
		"http://a.example/1": {Text: "qubit content"},
	}}

	cfg := types.AgentConfig{
		MaxDepth:   2,
		ResultsDir: filepath.Join(t.TempDir(), "research_results"),
	}
	a, _ := testAgent(t, backend, fetcher, &stubSynth{}, cfg)
	if _, err := a.Research(context.Background(), "quantum computing basics", 0); err != nil {
		t.Fatal(err)
	}

	dir, err := a.SaveResults(context.Background(), "quantum computing basics")
	if err != nil {
		t.Fatal(err)
	}

	reportPath := filepath.Join(dir, "quantum_computing_basics.md")
	doc, err := os.ReadFile(reportPath)
	if err != nil {
		t.Fatal(err)
	}
	parsed, err := report.Parse(string(doc))
	if err != nil {
		t.Fatalf("saved report does not parse: %v", err)
	}
	if parsed.Query != "quantum computing basics" {
		t.Errorf("parsed query = %q", parsed.Query)
	}

	summary, err := os.ReadFile(filepath.Join(dir, "summary.md"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(summary), "Total queries researched: 1") {
		t.Errorf("summary = %q", summary)
	}

	sf, err := report.ReadSessionFile(filepath.Join(dir, "session.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if sf.Query != "quantum computing basics" || len(sf.Reports) != 1 {
		t.Errorf("session file = %+v", sf)
	}
}
