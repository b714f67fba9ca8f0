// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package knowledge archives generated research reports in a SQLite
// database with FTS5 retrieval over finding excerpts.
package knowledge

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/research-agent/internal/report"
	"github.com/pdiddy/research-agent/pkg/types"
)

const (
	indexDir = "index"
	dbFile   = "research.db"
)

// Store manages the report archive SQLite database.
type Store struct {
	db         *sql.DB
	archiveDir string
	maxResults int
}

// NewStore opens or creates the archive database at
// archiveDir/index/research.db, creating the schema if needed.
func NewStore(cfg types.ArchiveConfig) (*Store, error) {
	dbDir := filepath.Join(cfg.ArchiveDir, indexDir)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	dbPath := filepath.Join(dbDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	s := &Store{
		db:         db,
		archiveDir: cfg.ArchiveDir,
		maxResults: maxResults,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS reports (
			id TEXT PRIMARY KEY,
			query TEXT NOT NULL,
			generated_at TEXT NOT NULL,
			path TEXT NOT NULL UNIQUE
		)`,
		`CREATE TABLE IF NOT EXISTS findings (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			report_id TEXT NOT NULL REFERENCES reports(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			source_url TEXT NOT NULL,
			excerpt TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_findings_report_id ON findings(report_id)`,
		`CREATE TABLE IF NOT EXISTS subqueries (
			report_id TEXT NOT NULL REFERENCES reports(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			text TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_subqueries_report_id ON subqueries(report_id)`,
		`CREATE TABLE IF NOT EXISTS ingest_status (
			path TEXT PRIMARY KEY,
			file_mod_time TEXT
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='findings_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE findings_fts USING fts5(excerpt, content=findings, content_rowid=rowid)`,
			`CREATE TRIGGER findings_ai AFTER INSERT ON findings BEGIN
				INSERT INTO findings_fts(rowid, excerpt) VALUES (new.rowid, new.excerpt);
			END`,
			`CREATE TRIGGER findings_ad AFTER DELETE ON findings BEGIN
				INSERT INTO findings_fts(findings_fts, rowid, excerpt) VALUES('delete', old.rowid, old.excerpt);
			END`,
			`CREATE TRIGGER findings_au AFTER UPDATE ON findings BEGIN
				INSERT INTO findings_fts(findings_fts, rowid, excerpt) VALUES('delete', old.rowid, old.excerpt);
				INSERT INTO findings_fts(rowid, excerpt) VALUES (new.rowid, new.excerpt);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}

	return nil
}

// IngestSummary holds counts from an archive ingest run.
type IngestSummary struct {
	Indexed int
	Updated int
	Skipped int
	Failed  int
}

// Total returns the number of report files processed.
func (s IngestSummary) Total() int {
	return s.Indexed + s.Updated + s.Skipped + s.Failed
}

// Ingest parses every report file (*.md except summary.md) in dir and
// stores it. Unchanged files are skipped and changed files re-ingested;
// per-file failures are counted, not fatal.
func (s *Store) Ingest(ctx context.Context, dir string, w io.Writer) (IngestSummary, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return IngestSummary{}, fmt.Errorf("reading results directory %s: %w", dir, err)
	}

	var summary IngestSummary

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") || entry.Name() == "summary.md" {
			continue
		}

		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		path := filepath.Join(dir, entry.Name())

		info, err := entry.Info()
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", entry.Name(), err)
			summary.Failed++
			continue
		}
		modTime := info.ModTime().UTC().Format(time.RFC3339Nano)

		var storedModTime string
		err = s.db.QueryRowContext(ctx,
			`SELECT file_mod_time FROM ingest_status WHERE path = ?`, path,
		).Scan(&storedModTime)

		if err == nil && storedModTime == modTime {
			fmt.Fprintf(w, "skipped %s\n", entry.Name())
			summary.Skipped++
			continue
		}
		isUpdate := err == nil

		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", entry.Name(), err)
			summary.Failed++
			continue
		}

		r, err := report.Parse(string(data))
		if err != nil {
			fmt.Fprintf(w, "failed  %s: parse error: %v\n", entry.Name(), err)
			summary.Failed++
			continue
		}

		if err := s.ingestReport(ctx, r, path, modTime); err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", entry.Name(), err)
			summary.Failed++
			continue
		}

		if isUpdate {
			fmt.Fprintf(w, "updated %s (%d findings)\n", entry.Name(), len(r.Findings))
			summary.Updated++
		} else {
			fmt.Fprintf(w, "indexing %s (%d findings)\n", entry.Name(), len(r.Findings))
			summary.Indexed++
		}
	}

	fmt.Fprintf(w, "\nindexed: %d, updated: %d, skipped: %d, failed: %d\n",
		summary.Indexed, summary.Updated, summary.Skipped, summary.Failed)

	return summary, nil
}

func (s *Store) ingestReport(ctx context.Context, r types.Report, path, modTime string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	// Reuse an existing row ID for the same path so re-ingest replaces
	// rather than duplicates.
	reportID := uuid.NewString()
	err = tx.QueryRowContext(ctx, `SELECT id FROM reports WHERE path = ?`, path).Scan(&reportID)
	switch {
	case err == sql.ErrNoRows:
		_, err = tx.ExecContext(ctx,
			`INSERT INTO reports (id, query, generated_at, path) VALUES (?, ?, ?, ?)`,
			reportID, r.Query, r.GeneratedAt.Format(time.RFC3339), path,
		)
		if err != nil {
			return fmt.Errorf("inserting report: %w", err)
		}
	case err != nil:
		return fmt.Errorf("looking up report: %w", err)
	default:
		if _, err := tx.ExecContext(ctx, `DELETE FROM findings WHERE report_id = ?`, reportID); err != nil {
			return fmt.Errorf("deleting old findings: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM subqueries WHERE report_id = ?`, reportID); err != nil {
			return fmt.Errorf("deleting old sub-queries: %w", err)
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE reports SET query = ?, generated_at = ? WHERE id = ?`,
			r.Query, r.GeneratedAt.Format(time.RFC3339), reportID,
		)
		if err != nil {
			return fmt.Errorf("updating report: %w", err)
		}
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO findings (report_id, position, source_url, excerpt) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, f := range r.Findings {
		if _, err := stmt.ExecContext(ctx, reportID, i, f.SourceURL, f.Excerpt); err != nil {
			return fmt.Errorf("inserting finding: %w", err)
		}
	}

	for i, sq := range r.SubQueries {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO subqueries (report_id, position, text) VALUES (?, ?, ?)`,
			reportID, i, sq,
		)
		if err != nil {
			return fmt.Errorf("inserting sub-query: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO ingest_status (path, file_mod_time) VALUES (?, ?)
		 ON CONFLICT(path) DO UPDATE SET file_mod_time=excluded.file_mod_time`,
		path, modTime,
	)
	if err != nil {
		return fmt.Errorf("recording ingest status: %w", err)
	}

	return tx.Commit()
}
