// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report renders research reports to their fixed Markdown layout
// and parses them back. Render and Parse round-trip: parsing a rendered
// report recovers the query, findings, sub-queries, and timestamp.
package report

import (
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/pdiddy/research-agent/pkg/types"
)

// TimeFormat is the timestamp layout used in rendered reports.
const TimeFormat = "2006-01-02 15:04:05"

// reportTmpl is the report document layout. The byte layout is a contract:
// the parser, the archive ingester, and downstream consumers all read it.
var reportTmpl = template.Must(template.New("report").Parse(`# Research Results: {{.Query}}

## Overview
This document contains research findings for the query: {{.Query}}

## Main Findings
{{range .Findings}}
### Source: {{.SourceURL}}
{{.Excerpt}}
{{end}}
## Related Topics
The following sub-queries were explored:
{{range .SubQueries}}- {{.}}
{{end}}
---
Generated on: {{.Timestamp}}
`))

// reportData feeds reportTmpl; Timestamp is pre-formatted so the
// template stays layout-only.
type reportData struct {
	Query      string
	Findings   []types.Finding
	SubQueries []string
	Timestamp  string
}

// Render produces the Markdown document for a report. The query must be
// non-empty; findings and sub-queries are emitted in slice order.
func Render(r types.Report) (string, error) {
	if strings.TrimSpace(r.Query) == "" {
		return "", fmt.Errorf("report has empty query")
	}

	generatedAt := r.GeneratedAt
	if generatedAt.IsZero() {
		generatedAt = time.Now()
	}

	var b strings.Builder
	err := reportTmpl.Execute(&b, reportData{
		Query:      r.Query,
		Findings:   r.Findings,
		SubQueries: r.SubQueries,
		Timestamp:  generatedAt.Format(TimeFormat),
	})
	if err != nil {
		return "", fmt.Errorf("rendering report: %w", err)
	}
	return b.String(), nil
}
