package handlers

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"reclaim/internal/config"
	"reclaim/internal/logger"
)

var cfgFile string

// NewRootCmd creates the root command with all subcommands attached.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "reclaim",
		Short: "Reclaim turns YouTube videos into audio summaries.",
		Long: `Reclaim scrapes configured YouTube channels for new videos, fetches
transcripts, and turns them into spoken summaries: an LLM condenses the
transcript, a TTS provider renders it to audio, and a notification
provider delivers the result.`,
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.reclaim.yaml)")

	rootCmd.AddCommand(NewScrapeCmd())
	rootCmd.AddCommand(NewSummarizeCmd())
	rootCmd.AddCommand(NewRetryCmd())
	rootCmd.AddCommand(NewTranscriptCmd())
	rootCmd.AddCommand(NewStatusCmd())
	rootCmd.AddCommand(NewTestProvidersCmd())
	rootCmd.AddCommand(NewStatsCmd())
	rootCmd.AddCommand(NewCleanupCmd())

	return rootCmd
}

// Execute runs the root command.
func Execute() {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// initConfig loads configuration and applies the configured log level.
func initConfig() {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	logger.SetLevel(cfg.Logging.Level)

	if cfg.App.ConfigFile != "" {
		logger.Debug("Using config file", "path", cfg.App.ConfigFile)
	}
}
