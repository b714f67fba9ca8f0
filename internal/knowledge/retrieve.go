// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package knowledge

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// QueryOptions holds parameters for archive queries.
type QueryOptions struct {
	// Text is the FTS5 full-text search string over excerpts.
	Text string

	// Query filters by the report's research query (substring match).
	Query string

	// SourceURL filters by finding source URL (substring match).
	SourceURL string

	// MaxResults limits result count. Zero uses the store default.
	MaxResults int
}

// IsEmpty reports whether the query has no search terms or filters.
func (q QueryOptions) IsEmpty() bool {
	return q.Text == "" && q.Query == "" && q.SourceURL == ""
}

// QueryResult is one archived finding with its report context.
type QueryResult struct {
	ReportID    string    `json:"report_id" yaml:"report_id"`
	ReportQuery string    `json:"report_query" yaml:"report_query"`
	GeneratedAt time.Time `json:"generated_at" yaml:"generated_at"`
	Path        string    `json:"path" yaml:"path"`
	SourceURL   string    `json:"source_url" yaml:"source_url"`
	Excerpt     string    `json:"excerpt" yaml:"excerpt"`
	Position    int       `json:"position" yaml:"position"`
}

// Retrieve queries the archive with optional full-text search and
// structured filters. Full-text queries rank by FTS relevance;
// structured-only queries sort by report query and finding position.
func (s *Store) Retrieve(ctx context.Context, opts QueryOptions) ([]QueryResult, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	var (
		qb     strings.Builder
		args   []any
		useFTS = opts.Text != ""
	)

	if useFTS {
		qb.WriteString(
			`SELECT r.id, r.query, r.generated_at, r.path,
				f.source_url, f.excerpt, f.position
			FROM findings_fts
			JOIN findings f ON f.rowid = findings_fts.rowid
			JOIN reports r ON f.report_id = r.id
			WHERE findings_fts MATCH ?`)
		args = append(args, opts.Text)
	} else {
		qb.WriteString(
			`SELECT r.id, r.query, r.generated_at, r.path,
				f.source_url, f.excerpt, f.position
			FROM findings f
			JOIN reports r ON f.report_id = r.id
			WHERE 1=1`)
	}

	if opts.Query != "" {
		qb.WriteString(` AND r.query LIKE ?`)
		args = append(args, "%"+opts.Query+"%")
	}
	if opts.SourceURL != "" {
		qb.WriteString(` AND f.source_url LIKE ?`)
		args = append(args, "%"+opts.SourceURL+"%")
	}

	if useFTS {
		qb.WriteString(` ORDER BY findings_fts.rank`)
	} else {
		qb.WriteString(` ORDER BY r.query, f.position`)
	}

	qb.WriteString(` LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying archive: %w", err)
	}
	defer rows.Close()

	var results []QueryResult
	for rows.Next() {
		var (
			qr        QueryResult
			generated string
		)
		if err := rows.Scan(
			&qr.ReportID, &qr.ReportQuery, &generated, &qr.Path,
			&qr.SourceURL, &qr.Excerpt, &qr.Position,
		); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		if ts, parseErr := time.Parse(time.RFC3339, generated); parseErr == nil {
			qr.GeneratedAt = ts
		}
		results = append(results, qr)
	}

	return results, rows.Err()
}

// SubQueries returns the archived sub-queries of a report in derivation
// order.
func (s *Store) SubQueries(ctx context.Context, reportID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT text FROM subqueries WHERE report_id = ? ORDER BY position`, reportID)
	if err != nil {
		return nil, fmt.Errorf("querying sub-queries: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var text string
		if err := rows.Scan(&text); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		out = append(out, text)
	}
	return out, rows.Err()
}
