package main

import (
	"github.com/spf13/cobra"

	"github.com/pressroom/pressroom/internal/api"
	"github.com/pressroom/pressroom/version"
)

var (
	cfgFile      string
	homeDir      string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "pressroom",
	Short: "Guided biotech article pipeline with LLM generation and WeChat publishing",
	Long: `Pressroom is a guided content pipeline that researches a biotech company,
generates a long-form article through LLM calls, decomposes it into
text/image blocks, generates illustrative figures, and publishes the
result to the WeChat draft box.

The pipeline includes:
  - Research framework and storyline generation
  - Article drafting and polishing with selectable LLM backends
  - Image-text marking, skeleton substitution, and figure generation
  - Image re-hosting and draft publishing via the WeChat API`,
	Version: version.GitRelease,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.pressroom/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "pressroom home directory (default: ~/.pressroom)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)

	// Set output format before any command runs
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		api.SetOutputFormat(outputFormat)
	}

	rootCmd.AddCommand(versionCmd)
}
