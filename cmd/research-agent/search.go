// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/research-agent/internal/websearch"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Discover URLs for a query without researching them",
	Long: `Search runs only the URL-discovery stage: the query is fanned out to the
enabled backends (DuckDuckGo HTML results, optional RSS feeds), results are
deduplicated preserving rank order, and the top URLs are printed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")

	cfg := searchConfigFromFlags(cmd)
	backends := buildBackends(cfg)
	if len(backends) == 0 {
		return fmt.Errorf("no search backends enabled: drop --no-duckduckgo or configure --feeds")
	}

	out, err := websearch.Search(context.Background(), query, backends, cfg, os.Stderr)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		return websearch.FormatJSON(out, os.Stdout)
	}
	websearch.FormatTable(out, os.Stdout)
	return nil
}

func init() {
	searchCmd.Flags().Int("max-results", 5, "maximum URLs to return")
	searchCmd.Flags().String("region", "us-en", "DuckDuckGo region code")
	searchCmd.Flags().StringSlice("feeds", nil, "RSS feed URLs for the RSS backend")
	searchCmd.Flags().Bool("no-duckduckgo", false, "disable the DuckDuckGo backend")
	searchCmd.Flags().Bool("json", false, "output results as JSON")

	rootCmd.AddCommand(searchCmd)
}
