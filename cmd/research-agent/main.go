// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the research-agent CLI.
package main

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/research-agent/internal/secrets"
	"github.com/pdiddy/research-agent/internal/websearch"
	"github.com/pdiddy/research-agent/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// defaultUserAgent is sent when no user agent is configured. Search
// engines answer a browser UA more reliably than a Go default.
const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// secretsDir is the directory API keys are loaded from at startup.
const secretsDir = ".secrets/"

// rootCmd is the base command for the research-agent CLI.
var rootCmd = &cobra.Command{
	Use:   "research-agent",
	Short: "Recursive web research with Markdown reports",
	Long: `research-agent performs recursive web research: it discovers URLs for a
query through pluggable search backends, fetches and extracts page content,
derives follow-up sub-queries, and recurses to a depth limit. Each researched
query becomes a Markdown report; a session summary and session record are
written alongside.

Each pipeline stage is a subcommand: research runs the full loop, search runs
URL discovery alone, report parses and validates generated documents, and
archive maintains a SQLite index with full-text retrieval over findings.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(secretsDir)
		if err != nil {
			return err
		}
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./research-agent.yaml or ~/.config/research-agent/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("research-agent")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "research-agent"))
		}
	}

	viper.SetEnvPrefix("RESEARCH_AGENT")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// --- shared config assembly ---

// searchConfigFromFlags builds a SearchConfig from the flags shared by
// the research and search commands, falling back to the config file.
func searchConfigFromFlags(cmd *cobra.Command) types.SearchConfig {
	maxResults, _ := cmd.Flags().GetInt("max-results")
	region, _ := cmd.Flags().GetString("region")
	noDDG, _ := cmd.Flags().GetBool("no-duckduckgo")

	feeds, _ := cmd.Flags().GetStringSlice("feeds")
	if len(feeds) == 0 {
		feeds = viper.GetStringSlice("search.feeds")
	}

	userAgent := viper.GetString("http.user_agent")
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	return types.SearchConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   10 * time.Second,
			UserAgent: userAgent,
		},
		MaxResults:       maxResults,
		EnableDuckDuckGo: !noDDG,
		Feeds:            feeds,
		Region:           region,
	}
}

// buildBackends assembles the enabled search backends.
func buildBackends(cfg types.SearchConfig) []websearch.Backend {
	client := &http.Client{Timeout: cfg.Timeout}

	var backends []websearch.Backend
	if cfg.EnableDuckDuckGo {
		backends = append(backends, &websearch.DuckDuckGoBackend{Client: client})
	}
	if len(cfg.Feeds) > 0 {
		backends = append(backends, &websearch.RSSBackend{Client: client, Feeds: cfg.Feeds})
	}
	return backends
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
