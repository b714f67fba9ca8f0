// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/research-agent/internal/agent"
	"github.com/pdiddy/research-agent/internal/fetch"
	"github.com/pdiddy/research-agent/internal/secrets"
	"github.com/pdiddy/research-agent/internal/synth"
	"github.com/pdiddy/research-agent/pkg/types"
)

var researchCmd = &cobra.Command{
	Use:   "research [query]",
	Short: "Run the recursive research loop for a query",
	Long: `Research discovers URLs for the query, fetches and extracts page content,
derives follow-up sub-queries, and recurses to the depth limit. One Markdown
report is written per researched query, plus a session summary and a YAML
session record, into a fresh timestamped results directory.

Without an Anthropic API key (.secrets/anthropic-api-key or
ANTHROPIC_API_KEY) the deterministic heuristic synthesizer is used.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runResearch,
}

func runResearch(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")

	searchCfg := searchConfigFromFlags(cmd)
	fetchCfg := fetchConfigFromFlags(cmd)
	synthCfg := synthConfigFromFlags(cmd)
	agentCfg := agentConfigFromFlags(cmd)

	backends := buildBackends(searchCfg)
	if len(backends) == 0 {
		return fmt.Errorf("no search backends enabled: drop --no-duckduckgo or configure --feeds")
	}

	a := agent.New(backends, fetch.NewFetcher(fetchCfg), synth.New(synthCfg),
		searchCfg, fetchCfg, agentCfg, os.Stdout)

	ctx := context.Background()
	if _, err := a.Research(ctx, query, 0); err != nil {
		return err
	}

	if len(a.Reports()) == 0 {
		fmt.Println("no findings gathered; nothing to save")
		return nil
	}

	dir, err := a.SaveResults(ctx, query)
	if err != nil {
		return err
	}
	fmt.Printf("research complete: %d report(s) in %s\n", len(a.Reports()), dir)
	return nil
}

func fetchConfigFromFlags(cmd *cobra.Command) types.FetchConfig {
	maxPages, _ := cmd.Flags().GetInt("max-pages")
	delay, _ := cmd.Flags().GetDuration("delay")
	maxConcurrent, _ := cmd.Flags().GetInt("max-concurrent")

	proxies, _ := cmd.Flags().GetStringSlice("proxy")
	if len(proxies) == 0 {
		proxies = viper.GetStringSlice("fetch.proxies")
	}

	userAgent := viper.GetString("http.user_agent")
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	return types.FetchConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   10 * time.Second,
			UserAgent: userAgent,
		},
		DownloadDelay: delay,
		MaxPages:      maxPages,
		MaxConcurrent: maxConcurrent,
		Proxies:       proxies,
		MaxRetries:    3,
	}
}

func synthConfigFromFlags(cmd *cobra.Command) types.SynthesisConfig {
	model, _ := cmd.Flags().GetString("model")
	if model == "" {
		model = viper.GetString("synthesis.model")
	}

	apiKey := viper.GetString("synthesis.api_key")
	if apiKey == "" {
		// Errors here were already surfaced by the root command's
		// secrets preload; an empty key selects the heuristic.
		apiKey, _ = secrets.AnthropicKey(secretsDir)
	}

	return types.SynthesisConfig{
		AIConfig: types.AIConfig{
			Model:  model,
			APIKey: apiKey,
		},
		MaxExcerptLen: viper.GetInt("synthesis.max_excerpt_len"),
		MaxSubQueries: viper.GetInt("synthesis.max_sub_queries"),
	}
}

func agentConfigFromFlags(cmd *cobra.Command) types.AgentConfig {
	maxDepth, _ := cmd.Flags().GetInt("max-depth")
	fanout, _ := cmd.Flags().GetInt("fanout")
	outputDir, _ := cmd.Flags().GetString("output-dir")

	return types.AgentConfig{
		MaxDepth:       maxDepth,
		SubQueryFanout: fanout,
		ResultsDir:     outputDir,
		ErrorLog:       viper.GetString("agent.error_log"),
	}
}

func init() {
	researchCmd.Flags().Int("max-depth", 3, "recursion depth limit")
	researchCmd.Flags().Int("fanout", 2, "sub-queries explored per query")
	researchCmd.Flags().Int("max-results", 5, "maximum URLs discovered per query")
	researchCmd.Flags().Int("max-pages", 3, "top-ranked URLs fetched per query")
	researchCmd.Flags().Int("max-concurrent", 3, "concurrent page downloads")
	researchCmd.Flags().Duration("delay", time.Second, "politeness delay between downloads")
	researchCmd.Flags().String("output-dir", "research_results", "base name for the session output directory")
	researchCmd.Flags().String("region", "us-en", "DuckDuckGo region code")
	researchCmd.Flags().String("model", "", "Claude model identifier for synthesis")
	researchCmd.Flags().StringSlice("feeds", nil, "RSS feed URLs for the RSS backend")
	researchCmd.Flags().StringSlice("proxy", nil, "proxy URLs to rotate through")
	researchCmd.Flags().Bool("no-duckduckgo", false, "disable the DuckDuckGo backend")

	rootCmd.AddCommand(researchCmd)
}
