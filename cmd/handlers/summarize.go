package handlers

import (
	"fmt"

	"github.com/spf13/cobra"

	"reclaim/internal/config"
	"reclaim/internal/summary"
)

// NewSummarizeCmd creates the summarize command and its video
// subcommand.
func NewSummarizeCmd() *cobra.Command {
	var (
		limit    int
		force    bool
		noScrape bool
	)

	summarizeCmd := &cobra.Command{
		Use:   "summarize [channel]",
		Short: "Summarize pending transcripts into audio",
		Long: `Summarize runs the pipeline over unsummarized videos: generate a
summary with the channel's LLM provider, render it to audio, send a
notification, and mark the video as processed. Without a channel name
every summary-enabled channel is processed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.Close()

			channel := ""
			if len(args) == 1 {
				channel = args[0]
			}

			result := app.Summary.ProcessChannelSummaries(cmd.Context(), channel, limit, force, !noScrape)
			if result.Err != "" {
				return fmt.Errorf("%s", result.Err)
			}
			printBatchResult(result)
			return nil
		},
	}

	summarizeCmd.Flags().IntVar(&limit, "limit", 50, "maximum videos to process per channel")
	summarizeCmd.Flags().BoolVar(&force, "force", false, "force a fresh scrape before summarizing")
	summarizeCmd.Flags().BoolVar(&noScrape, "no-scrape", false, "skip the scrape pass before summarizing")

	summarizeCmd.AddCommand(newSummarizeVideoCmd())
	return summarizeCmd
}

// newSummarizeVideoCmd summarizes a single stored video by URL.
func newSummarizeVideoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "video <url>",
		Short: "Summarize one stored video by URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.Close()

			videoURL := args[0]

			var summaryCfg *config.ChannelSummary
			if video, err := app.Store.GetVideoByURL(videoURL); err == nil && video != nil {
				if ch, ok := app.Config.ChannelByURL(video.ChannelURL); ok {
					cfg := ch.Summary
					summaryCfg = &cfg
				}
			}

			result := app.Summary.ProcessVideoSummary(cmd.Context(), videoURL, summaryCfg)
			switch {
			case result.Success:
				fmt.Printf("Summarized %q (%d characters)\n", result.VideoTitle, result.SummaryLength)
				if result.TextPath != "" {
					fmt.Printf("  text:  %s\n", result.TextPath)
				}
				fmt.Printf("  audio: %s\n", result.AudioPath)
				return nil
			case result.Skipped:
				fmt.Printf("Skipped: %s\n", result.Error)
				return nil
			default:
				return fmt.Errorf("%s", result.Error)
			}
		},
	}
}

func printBatchResult(result summary.BatchResult) {
	fmt.Printf("Processed: %d, Failed: %d, Skipped: %d\n",
		result.Processed, result.Failed, result.Skipped)
	for _, ch := range result.Channels {
		fmt.Printf("  %s: %d processed, %d failed, %d skipped\n",
			ch.ChannelName, ch.Processed, ch.Failed, ch.Skipped)
	}
}
