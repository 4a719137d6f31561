// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the paper-harvester CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/paper-harvester/internal/secrets"
	"github.com/pdiddy/paper-harvester/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ and .env at startup.
var loadedSecrets map[string]string

// secretOr returns the loaded secret for key. Secrets from .secrets/ and
// .env take precedence; fallback covers keys no secret file provides.
func secretOr(key, fallback string) string {
	if v := loadedSecrets[key]; v != "" {
		return v
	}
	return fallback
}

// rootCmd is the base command for the paper-harvester CLI.
var rootCmd = &cobra.Command{
	Use:   "paper-harvester",
	Short: "Harvest, merge, and verify scientific literature metadata",
	Long: `paper-harvester queries literature APIs (OpenAlex, Crossref, arXiv,
Semantic Scholar, DOAJ) for papers matching a topic, normalizes and
deduplicates the results, recovers open-access PDF links, and exports the
merged records as JSONL and CSV.

A separate download pass fetches each record's PDF, verifies the payload is a
real PDF, and stores verified files in a zip archive with a failure report
for everything that could not be fetched.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		fromFiles, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		fromEnv, err := secrets.LoadDotenv(".env")
		if err != nil {
			return err
		}
		loadedSecrets = secrets.Merge(fromFiles, fromEnv)
		if len(loadedSecrets) > 0 {
			keys := make([]string, 0, len(loadedSecrets))
			for k := range loadedSecrets {
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

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./paper-harvester.yaml or ~/.config/paper-harvester/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("paper-harvester")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "paper-harvester"))
		}
	}

	viper.SetEnvPrefix("PAPER_HARVESTER")
	viper.AutomaticEnv()

	viper.SetDefault("user_agent", "paper-harvester/0.1")
	viper.SetDefault("timeout", 30*time.Second)
	viper.SetDefault("rate_per_second", 2.0)
	viper.SetDefault("strict_min_score", 2.0)

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// harvestConfig assembles the stage configuration from viper settings and
// loaded secrets.
func harvestConfig() types.HarvestConfig {
	http := types.HTTPConfig{
		Timeout:   viper.GetDuration("timeout"),
		UserAgent: viper.GetString("user_agent"),
	}

	contactEmail := secretOr("crossref-email", viper.GetString("contact_email"))

	cfg := types.HarvestConfig{
		Sources: types.SourceConfig{
			HTTPConfig:            http,
			Retry:                 types.DefaultRetry(),
			RatePerSecond:         viper.GetFloat64("rate_per_second"),
			EnableOpenAlex:        !viper.GetBool("disable_openalex"),
			EnableCrossref:        !viper.GetBool("disable_crossref"),
			EnableArxiv:           !viper.GetBool("disable_arxiv"),
			EnableSemanticScholar: !viper.GetBool("disable_semantic_scholar"),
			EnableDOAJ:            !viper.GetBool("disable_doaj"),
			SemanticScholarAPIKey: secretOr("semantic-scholar-api-key", viper.GetString("semantic_scholar_api_key")),
			ContactEmail:          contactEmail,
		},
		Dedup: types.DefaultDedup(),
		Enrich: types.EnrichConfig{
			HTTPConfig:    http,
			Retry:         types.DefaultRetry(),
			ContactEmail:  secretOr("unpaywall-email", viper.GetString("unpaywall_email")),
			ValidateLinks: viper.GetBool("validate_links"),
		},
		Download: types.DownloadConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration("download_timeout"),
				UserAgent: http.UserAgent,
			},
			Retry: types.DefaultRetry(),
		},
		Store: types.StoreConfig{
			Path: viper.GetString("store_path"),
		},
		StrictMinScore: viper.GetFloat64("strict_min_score"),
	}

	if cfg.Download.Timeout == 0 {
		cfg.Download.Timeout = 2 * time.Minute
	}
	if th := viper.GetFloat64("dedup_title_threshold"); th > 0 {
		cfg.Dedup.TitleThreshold = th
	}
	return cfg
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
