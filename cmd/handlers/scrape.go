package handlers

import (
	"fmt"

	"github.com/spf13/cobra"

	"reclaim/internal/youtube"
)

// NewScrapeCmd creates the scrape command.
func NewScrapeCmd() *cobra.Command {
	var force bool

	scrapeCmd := &cobra.Command{
		Use:   "scrape [channel]",
		Short: "Fetch new videos and transcripts for configured channels",
		Long: `Scrape lists recent uploads for each active channel, fetches
transcripts for videos not yet cached, and records them in the video
store. With a channel name argument only that channel is scraped.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.Close()

			ctx := cmd.Context()

			if len(args) == 1 {
				result, err := app.YouTube.ScrapeChannel(ctx, args[0], force)
				if err != nil {
					return err
				}
				printChannelResult(result)
				return nil
			}

			result := app.YouTube.ScrapeAllChannels(ctx, force)
			fmt.Printf("Scraped %d/%d channels: %d videos, %d new transcripts, %d cached, %d errors\n",
				result.ProcessedChannels, result.TotalChannels,
				result.VideosFound, result.NewTranscripts, result.CachedTranscripts, result.TotalErrors)
			for _, ch := range result.Channels {
				printChannelResult(&ch)
			}
			return nil
		},
	}

	scrapeCmd.Flags().BoolVar(&force, "force", false, "refetch transcripts even when already cached")
	return scrapeCmd
}

func printChannelResult(result *youtube.ChannelResult) {
	fmt.Printf("  %s: %d videos, %d new, %d cached, %d without transcript\n",
		result.ChannelName, result.VideosFound, result.NewTranscripts,
		result.CachedTranscripts, result.NoTranscripts)
	for _, errMsg := range result.Errors {
		fmt.Printf("    error: %s\n", errMsg)
	}
}
