// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/pdiddy/research-agent/pkg/types"
)

const (
	titlePrefix     = "# Research Results: "
	findingsHeader  = "## Main Findings"
	sourcePrefix    = "### Source: "
	relatedHeader   = "## Related Topics"
	bulletPrefix    = "- "
	generatedPrefix = "Generated on: "
)

// Parse reads a rendered report document back into a Report. It is the
// inverse of Render for well-formed documents and tolerates extra blank
// lines elsewhere.
func Parse(doc string) (types.Report, error) {
	lines := strings.Split(doc, "\n")
	if len(lines) == 0 || !strings.HasPrefix(lines[0], titlePrefix) {
		return types.Report{}, fmt.Errorf("document does not start with %q", titlePrefix)
	}

	r := types.Report{
		Query: strings.TrimPrefix(lines[0], titlePrefix),
	}
	if r.Query == "" {
		return types.Report{}, fmt.Errorf("report title has empty query")
	}

	inFindings := false
	inRelated := false
	var current *types.Finding
	var excerptLines []string

	flush := func() {
		if current != nil {
			current.Excerpt = strings.TrimSpace(strings.Join(excerptLines, "\n"))
			r.Findings = append(r.Findings, *current)
			current = nil
			excerptLines = nil
		}
	}

	for _, line := range lines[1:] {
		switch {
		case line == findingsHeader:
			inFindings = true
			inRelated = false

		case line == relatedHeader:
			flush()
			inFindings = false
			inRelated = true

		case strings.HasPrefix(line, sourcePrefix) && inFindings:
			flush()
			current = &types.Finding{SourceURL: strings.TrimPrefix(line, sourcePrefix)}

		case strings.HasPrefix(line, bulletPrefix) && inRelated:
			r.SubQueries = append(r.SubQueries, strings.TrimPrefix(line, bulletPrefix))

		case strings.HasPrefix(line, generatedPrefix):
			flush()
			inFindings = false
			inRelated = false
			ts, err := time.Parse(TimeFormat, strings.TrimPrefix(line, generatedPrefix))
			if err != nil {
				return types.Report{}, fmt.Errorf("parsing timestamp: %w", err)
			}
			r.GeneratedAt = ts

		case current != nil:
			excerptLines = append(excerptLines, line)
		}
	}
	flush()

	if r.GeneratedAt.IsZero() {
		return types.Report{}, fmt.Errorf("document has no %q line", generatedPrefix)
	}
	return r, nil
}

// Validate checks a rendered document against the layout contract and
// returns one message per violation. A nil slice means the document is
// well-formed.
func Validate(doc string) []string {
	var violations []string

	if !strings.HasPrefix(doc, titlePrefix) {
		violations = append(violations, fmt.Sprintf("document must begin with %q", titlePrefix))
	}
	if !strings.Contains(doc, "\n"+findingsHeader+"\n") {
		violations = append(violations, fmt.Sprintf("missing %q section", findingsHeader))
	}
	if !strings.Contains(doc, "\n"+relatedHeader+"\n") {
		violations = append(violations, fmt.Sprintf("missing %q section", relatedHeader))
	}

	lastGenerated := ""
	for _, line := range strings.Split(strings.TrimRight(doc, "\n"), "\n") {
		if strings.HasPrefix(line, generatedPrefix) {
			lastGenerated = line
		}
	}
	if lastGenerated == "" {
		violations = append(violations, fmt.Sprintf("missing trailing %q line", generatedPrefix))
	} else if _, err := time.Parse(TimeFormat, strings.TrimPrefix(lastGenerated, generatedPrefix)); err != nil {
		violations = append(violations, fmt.Sprintf("timestamp does not match %q: %v", TimeFormat, err))
	}

	return violations
}
