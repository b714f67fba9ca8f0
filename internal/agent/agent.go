// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package agent drives the recursive research loop: discover URLs for a
// query, fetch and filter page content, derive sub-queries, and recurse
// until the depth limit. Failures degrade to logged warnings and empty
// reports so one bad query never aborts a session.
package agent

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/pdiddy/research-agent/internal/fetch"
	"github.com/pdiddy/research-agent/internal/report"
	"github.com/pdiddy/research-agent/internal/synth"
	"github.com/pdiddy/research-agent/internal/websearch"
	"github.com/pdiddy/research-agent/pkg/types"
)

// dirTimestampFormat names session output directories.
const dirTimestampFormat = "20060102_150405"

// PageFetcher is the slice of the fetch stage the agent needs. The tests
// substitute a stub; production wiring passes *fetch.Fetcher.
type PageFetcher interface {
	Pages(ctx context.Context, urls []string) []fetch.Page
}

// Agent holds the wiring and accumulated state of one research session.
type Agent struct {
	Backends  []websearch.Backend
	Fetcher   PageFetcher
	Synth     synth.Synthesizer
	SearchCfg types.SearchConfig
	FetchCfg  types.FetchConfig
	Cfg       types.AgentConfig

	// Out receives progress lines; ErrLog receives failures.
	Out    io.Writer
	ErrLog *ErrorLog

	visited map[string]bool
	reports []types.Report
}

// New builds an Agent over the given stages.
func New(backends []websearch.Backend, fetcher PageFetcher, s synth.Synthesizer,
	searchCfg types.SearchConfig, fetchCfg types.FetchConfig, cfg types.AgentConfig, out io.Writer) *Agent {

	errLogPath := cfg.ErrorLog
	if errLogPath == "" {
		errLogPath = "research_error.log"
	}

	return &Agent{
		Backends:  backends,
		Fetcher:   fetcher,
		Synth:     s,
		SearchCfg: searchCfg,
		FetchCfg:  fetchCfg,
		Cfg:       cfg,
		Out:       out,
		ErrLog:    NewErrorLog(errLogPath, out),
		visited:   make(map[string]bool),
	}
}

// Reports returns the reports accumulated so far, in completion order.
func (a *Agent) Reports() []types.Report {
	return a.reports
}

// Research runs the recursive loop for one query. Failures inside a
// query are logged and yield an empty report; the error return is
// reserved for context cancellation.
func (a *Agent) Research(ctx context.Context, query string, depth int) (types.Report, error) {
	maxDepth := a.Cfg.MaxDepth
	if maxDepth <= 0 {
		maxDepth = 3
	}
	if depth >= maxDepth {
		return types.Report{Query: query}, nil
	}
	if err := ctx.Err(); err != nil {
		return types.Report{Query: query}, err
	}

	fmt.Fprintf(a.Out, "researching: %s (depth %d)\n", query, depth)

	out, err := websearch.Search(ctx, query, a.Backends, a.SearchCfg, a.Out)
	if err != nil {
		a.ErrLog.Logf("searching %q: %v", query, err)
		return types.Report{Query: query}, nil
	}

	urls := a.selectURLs(out.Results)
	findings := a.gather(ctx, query, urls)

	if len(findings) == 0 {
		fmt.Fprintf(a.Out, "warning: no content gathered for %q\n", query)
		return types.Report{Query: query}, nil
	}

	subQueries, err := a.Synth.SubQueries(ctx, query, findings)
	if err != nil {
		a.ErrLog.Logf("deriving sub-queries for %q: %v", query, err)
		subQueries = nil
	}

	r := types.Report{
		Query:       query,
		GeneratedAt: time.Now(),
		Findings:    findings,
		SubQueries:  subQueries,
	}
	a.reports = append(a.reports, r)

	fanout := a.Cfg.SubQueryFanout
	if fanout <= 0 {
		fanout = 2
	}
	for i, sub := range subQueries {
		if i == fanout {
			break
		}
		fmt.Fprintf(a.Out, "exploring sub-query: %s\n", sub)
		if _, err := a.Research(ctx, sub, depth+1); err != nil {
			return r, err
		}
	}

	return r, nil
}

// selectURLs takes the top unvisited URLs up to the per-query page cap
// and records them as visited.
func (a *Agent) selectURLs(results []types.WebResult) []string {
	maxPages := a.FetchCfg.MaxPages
	if maxPages <= 0 {
		maxPages = 3
	}

	var urls []string
	for _, r := range results {
		if len(urls) == maxPages {
			break
		}
		if a.visited[r.URL] {
			fmt.Fprintf(a.Out, "skipping already visited URL: %s\n", r.URL)
			continue
		}
		a.visited[r.URL] = true
		urls = append(urls, r.URL)
	}
	return urls
}

// gather fetches the pages and turns non-empty extractions into
// findings, preserving retrieval order.
func (a *Agent) gather(ctx context.Context, query string, urls []string) []types.Finding {
	var findings []types.Finding
	for _, page := range a.Fetcher.Pages(ctx, urls) {
		if page.Err != nil {
			a.ErrLog.Logf("fetching %s for %q: %v", page.URL, query, page.Err)
			continue
		}
		if page.Text == "" {
			fmt.Fprintf(a.Out, "no content extracted from %s\n", page.URL)
			continue
		}

		excerpt, err := a.Synth.FilterContent(ctx, page.Text)
		if err != nil {
			a.ErrLog.Logf("filtering %s: %v", page.URL, err)
			continue
		}
		if excerpt == "" {
			continue
		}
		findings = append(findings, types.Finding{SourceURL: page.URL, Excerpt: excerpt})
	}
	return findings
}

// SaveResults writes one report file per researched query plus the
// session summary and session record into a fresh timestamped directory,
// and returns the directory path.
func (a *Agent) SaveResults(ctx context.Context, rootQuery string) (string, error) {
	base := a.Cfg.ResultsDir
	if base == "" {
		base = "research_results"
	}
	now := time.Now()
	dir := fmt.Sprintf("%s_%s", base, now.Format(dirTimestampFormat))

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating results directory: %w", err)
	}
	fmt.Fprintf(a.Out, "saving results to: %s\n", dir)

	sessionReports := make([]report.SessionReport, 0, len(a.reports))
	for _, r := range a.reports {
		doc, err := report.Render(r)
		if err != nil {
			return "", fmt.Errorf("rendering report for %q: %w", r.Query, err)
		}

		name := report.SanitizeFilename(r.Query) + ".md"
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
			return "", fmt.Errorf("writing report %s: %w", path, err)
		}
		fmt.Fprintf(a.Out, "saved report: %s\n", path)

		sessionReports = append(sessionReports, report.SessionReport{
			Query:    r.Query,
			Path:     name,
			Findings: len(r.Findings),
		})
	}

	body, err := a.Synth.Summarize(ctx, a.reports)
	if err != nil {
		a.ErrLog.Logf("summarizing session: %v", err)
		body = ""
	}
	summary, err := report.RenderSummary(now, len(a.reports), body)
	if err != nil {
		return "", fmt.Errorf("rendering summary: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "summary.md"), []byte(summary), 0o644); err != nil {
		return "", fmt.Errorf("writing summary: %w", err)
	}

	sf := report.SessionFile{
		Query:   rootQuery,
		Config:  report.Knobs(a.Cfg, a.FetchCfg),
		Reports: sessionReports,
		Summary: report.SessionSummary{TotalQueries: len(a.reports), Timestamp: now},
	}
	if err := report.WriteSessionFile(filepath.Join(dir, "session.yaml"), sf); err != nil {
		return "", err
	}

	return dir, nil
}
