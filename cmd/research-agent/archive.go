// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/research-agent/internal/knowledge"
	"github.com/pdiddy/research-agent/pkg/types"
)

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Manage the report archive (ingest, retrieve, export)",
	Long: `Archive maintains a local SQLite index of generated reports with FTS5
full-text search over finding excerpts. Use subcommands to ingest a
results directory, query the archive, or export it.`,
}

// --- ingest subcommand ---

var archiveIngestCmd = &cobra.Command{
	Use:   "ingest <results-dir>",
	Short: "Index a results directory into the archive",
	Long: `Ingest parses every report file in a results directory and stores its
findings and sub-queries in the archive database. Unchanged files are
skipped on subsequent runs; changed files are re-indexed.`,
	Args: cobra.ExactArgs(1),
	RunE: runArchiveIngest,
}

func runArchiveIngest(cmd *cobra.Command, args []string) error {
	store, err := knowledge.NewStore(archiveConfig(cmd))
	if err != nil {
		return err
	}
	defer store.Close()

	summary, err := store.Ingest(context.Background(), args[0], os.Stdout)
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d report(s) failed indexing", summary.Failed)
	}
	return nil
}

// --- retrieve subcommand ---

var archiveRetrieveCmd = &cobra.Command{
	Use:   "retrieve [text]",
	Short: "Query the archive with full-text search and filters",
	Long: `Retrieve searches archived findings using FTS5 full-text search over
excerpts, structured filters (research query, source URL), or both.
Results link back to the report file they came from.`,
	RunE: runArchiveRetrieve,
}

func runArchiveRetrieve(cmd *cobra.Command, args []string) error {
	store, err := knowledge.NewStore(archiveConfig(cmd))
	if err != nil {
		return err
	}
	defer store.Close()

	opts := queryOptsFromFlags(cmd, args)
	if opts.IsEmpty() {
		return fmt.Errorf("query or filter required: provide search text, --query, or --source")
	}

	results, err := store.Retrieve(context.Background(), opts)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatRetrieveOutput(results, jsonOutput)
}

func formatRetrieveOutput(results []knowledge.QueryResult, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-4s  %-30s  %-50s  %s\n", "Rank", "Query", "Excerpt", "Source")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 110))

	for i, r := range results {
		query := r.ReportQuery
		if len(query) > 30 {
			query = query[:27] + "..."
		}
		excerpt := r.Excerpt
		if len(excerpt) > 50 {
			excerpt = excerpt[:47] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-4d  %-30s  %-50s  %s\n", i+1, query, excerpt, r.SourceURL)
	}

	fmt.Fprintf(os.Stdout, "\n%d results\n", len(results))
	return nil
}

// --- export subcommand ---

var archiveExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the archive to YAML or JSON",
	Long: `Export writes the full archive (or a filtered subset) to
<archive-dir>/index/export.yaml or export.json. Supports the same
filter flags as retrieve for partial exports.`,
	RunE: runArchiveExport,
}

func runArchiveExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")

	cfg := archiveConfig(cmd)
	store, err := knowledge.NewStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	opts := queryOptsFromFlags(cmd, args)

	switch format {
	case "yaml", "":
		if err := store.ExportYAML(context.Background(), opts); err != nil {
			return err
		}
		fmt.Printf("Exported to %s/index/export.yaml\n", cfg.ArchiveDir)
	case "json":
		if err := store.ExportJSON(context.Background(), opts); err != nil {
			return err
		}
		fmt.Printf("Exported to %s/index/export.json\n", cfg.ArchiveDir)
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}

	return nil
}

// --- shared helpers ---

func archiveConfig(cmd *cobra.Command) types.ArchiveConfig {
	archiveDir, _ := cmd.Flags().GetString("archive-dir")
	if archiveDir == "" {
		archiveDir = "archive"
	}
	maxResults, _ := cmd.Flags().GetInt("max-results")

	return types.ArchiveConfig{
		ArchiveDir: archiveDir,
		MaxResults: maxResults,
	}
}

func queryOptsFromFlags(cmd *cobra.Command, args []string) knowledge.QueryOptions {
	text, _ := cmd.Flags().GetString("text")
	if text == "" && len(args) > 0 {
		text = strings.Join(args, " ")
	}

	query, _ := cmd.Flags().GetString("query")
	source, _ := cmd.Flags().GetString("source")
	limit, _ := cmd.Flags().GetInt("limit")

	return knowledge.QueryOptions{
		Text:       text,
		Query:      query,
		SourceURL:  source,
		MaxResults: limit,
	}
}

func init() {
	// Shared flags on the parent command, inherited by subcommands.
	archiveCmd.PersistentFlags().String("archive-dir", "archive", "base directory for the archive (contains index/)")
	archiveCmd.PersistentFlags().Int("max-results", 20, "maximum number of query results")

	// Retrieve flags.
	archiveRetrieveCmd.Flags().String("text", "", "full-text search over finding excerpts")
	archiveRetrieveCmd.Flags().String("query", "", "filter by research query (substring)")
	archiveRetrieveCmd.Flags().String("source", "", "filter by source URL (substring)")
	archiveRetrieveCmd.Flags().Int("limit", 0, "maximum results (0 = use default)")
	archiveRetrieveCmd.Flags().Bool("json", false, "output results as JSON")

	// Export flags.
	archiveExportCmd.Flags().String("format", "yaml", "export format: yaml or json")
	archiveExportCmd.Flags().String("text", "", "full-text search filter for partial export")
	archiveExportCmd.Flags().String("query", "", "filter by research query for partial export")
	archiveExportCmd.Flags().String("source", "", "filter by source URL for partial export")
	archiveExportCmd.Flags().Int("limit", 0, "maximum findings to export (0 = all)")

	// Wire subcommands.
	archiveCmd.AddCommand(archiveIngestCmd)
	archiveCmd.AddCommand(archiveRetrieveCmd)
	archiveCmd.AddCommand(archiveExportCmd)

	rootCmd.AddCommand(archiveCmd)
}
