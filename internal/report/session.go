// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"fmt"
	"os"
	"strings"
	"text/template"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/research-agent/pkg/types"
)

// summaryTmpl is the session summary layout (summary.md).
var summaryTmpl = template.Must(template.New("summary").Parse(`# Research Summary

Generated on: {{.Timestamp}}

## Overview
- Total queries researched: {{.TotalQueries}}

## Queries
{{.Queries}}
`))

// RenderSummary produces the summary.md document for a session. body is
// the per-query summary text produced by the synthesizer.
func RenderSummary(generatedAt time.Time, totalQueries int, body string) (string, error) {
	var b strings.Builder
	err := summaryTmpl.Execute(&b, struct {
		Timestamp    string
		TotalQueries int
		Queries      string
	}{
		Timestamp:    generatedAt.Format(TimeFormat),
		TotalQueries: totalQueries,
		Queries:      body,
	})
	if err != nil {
		return "", fmt.Errorf("rendering summary: %w", err)
	}
	return b.String(), nil
}

// SessionFile is the on-disk YAML record of one research session: the
// root query, the effective knobs, and the reports that were written.
// The researcher can inspect a past session without re-parsing reports.
type SessionFile struct {
	Query   string          `yaml:"query"`
	Config  SessionConfig   `yaml:"config"`
	Reports []SessionReport `yaml:"reports"`
	Summary SessionSummary  `yaml:"summary"`
}

// SessionConfig echoes the agent knobs that produced the session.
type SessionConfig struct {
	MaxDepth       int `yaml:"max_depth"`
	SubQueryFanout int `yaml:"sub_query_fanout"`
	MaxPages       int `yaml:"max_pages"`
}

// SessionReport records one written report.
type SessionReport struct {
	Query    string `yaml:"query"`
	Path     string `yaml:"path"`
	Findings int    `yaml:"findings"`
}

// SessionSummary stores session statistics and a timestamp.
type SessionSummary struct {
	TotalQueries int       `yaml:"total_queries"`
	Timestamp    time.Time `yaml:"timestamp"`
}

// WriteSessionFile saves the session record as YAML.
func WriteSessionFile(path string, sf SessionFile) error {
	data, err := yaml.Marshal(&sf)
	if err != nil {
		return fmt.Errorf("marshaling session file: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing session file: %w", err)
	}
	return nil
}

// ReadSessionFile loads a session record from YAML.
func ReadSessionFile(path string) (SessionFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return SessionFile{}, fmt.Errorf("reading session file: %w", err)
	}
	var sf SessionFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return SessionFile{}, fmt.Errorf("parsing session file: %w", err)
	}
	return sf, nil
}

// Knobs extracts the session config echo from pipeline config.
func Knobs(agent types.AgentConfig, fetch types.FetchConfig) SessionConfig {
	return SessionConfig{
		MaxDepth:       agent.MaxDepth,
		SubQueryFanout: agent.SubQueryFanout,
		MaxPages:       fetch.MaxPages,
	}
}
