// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/research-agent/internal/report"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Parse, validate, or re-render generated report files",
}

// --- show subcommand ---

var reportShowCmd = &cobra.Command{
	Use:   "show <file>",
	Short: "Parse a report file and print its contents",
	Long: `Show parses a generated report file back into its structured form and
prints the query, sources, and sub-queries. With --json the full parsed
report is emitted as JSON.`,
	Args: cobra.ExactArgs(1),
	RunE: runReportShow,
}

func runReportShow(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	r, err := report.Parse(string(data))
	if err != nil {
		return fmt.Errorf("parsing %s: %w", args[0], err)
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	}

	fmt.Printf("Query:     %s\n", r.Query)
	fmt.Printf("Generated: %s\n", r.GeneratedAt.Format(report.TimeFormat))
	fmt.Printf("Findings:  %d\n", len(r.Findings))
	for i, f := range r.Findings {
		fmt.Printf("  %d. %s (%d chars)\n", i+1, f.SourceURL, len(f.Excerpt))
	}
	if len(r.SubQueries) > 0 {
		fmt.Println("Sub-queries:")
		for _, sq := range r.SubQueries {
			fmt.Printf("  - %s\n", sq)
		}
	}
	return nil
}

// --- validate subcommand ---

var reportValidateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Check a report file against the document format",
	Long: `Validate checks a report file for format violations: missing title,
missing overview statement, malformed source blocks, or a missing
generation timestamp. Each violation is printed; any violation makes
the command exit non-zero.`,
	Args: cobra.ExactArgs(1),
	RunE: runReportValidate,
}

func runReportValidate(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	violations := report.Validate(string(data))
	if len(violations) == 0 {
		fmt.Printf("%s: ok\n", args[0])
		return nil
	}

	for _, v := range violations {
		fmt.Fprintf(os.Stderr, "%s: %s\n", args[0], v)
	}
	return fmt.Errorf("%d violation(s)", len(violations))
}

// --- rewrite subcommand ---

var reportRewriteCmd = &cobra.Command{
	Use:   "rewrite <file>",
	Short: "Re-render a report file in canonical form",
	Long: `Rewrite parses a report file and renders it back out, normalizing any
formatting drift. The result goes to stdout unless --write replaces the
file in place.`,
	Args: cobra.ExactArgs(1),
	RunE: runReportRewrite,
}

func runReportRewrite(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	r, err := report.Parse(string(data))
	if err != nil {
		return fmt.Errorf("parsing %s: %w", args[0], err)
	}

	doc, err := report.Render(r)
	if err != nil {
		return err
	}

	write, _ := cmd.Flags().GetBool("write")
	if write {
		return os.WriteFile(args[0], []byte(doc), 0o644)
	}
	fmt.Print(doc)
	return nil
}

func init() {
	reportShowCmd.Flags().Bool("json", false, "output the parsed report as JSON")
	reportRewriteCmd.Flags().Bool("write", false, "replace the file instead of printing to stdout")

	reportCmd.AddCommand(reportShowCmd)
	reportCmd.AddCommand(reportValidateCmd)
	reportCmd.AddCommand(reportRewriteCmd)

	rootCmd.AddCommand(reportCmd)
}
