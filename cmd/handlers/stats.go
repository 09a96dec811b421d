package handlers

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewStatsCmd creates the stats command.
func NewStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show video, summary, and cache statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.Close()

			stats, err := app.Store.GetStats()
			if err != nil {
				return err
			}
			fmt.Println(headerStyle.Render("Videos"))
			fmt.Printf("  total:            %d\n", stats.TotalVideos)
			fmt.Printf("  with transcripts: %d\n", stats.WithTranscripts)
			fmt.Printf("  llm processed:    %d\n", stats.LLMProcessed)
			fmt.Printf("  unprocessed:      %d\n", stats.Unprocessed)
			fmt.Printf("  channels:         %d\n", stats.UniqueChannels)

			summaryStats, err := app.Store.GetSummaryStats()
			if err != nil {
				return err
			}
			fmt.Println(headerStyle.Render("Summaries"))
			fmt.Printf("  transcribed: %d\n", summaryStats.TotalWithTranscripts)
			fmt.Printf("  summarized:  %d\n", summaryStats.SummaryProcessed)
			fmt.Printf("  pending:     %d\n", summaryStats.PendingSummaries)
			fmt.Printf("  errored:     %d\n", summaryStats.SummaryErrors)

			counts, err := app.Store.ChannelCounts()
			if err != nil {
				return err
			}
			if len(counts) > 0 {
				fmt.Println(headerStyle.Render("Channels"))
				for _, c := range counts {
					fmt.Printf("  %-24s %3d videos, %3d transcribed, %3d summarized\n",
						c.ChannelName, c.Total, c.WithTranscripts, c.Summarized)
				}
			}

			cacheStats, err := app.Cache.Stats()
			if err != nil {
				return err
			}
			fmt.Println(headerStyle.Render("Transcript cache"))
			fmt.Printf("  files: %d\n", cacheStats.FileCount)
			fmt.Printf("  size:  %.2f MB\n", cacheStats.SizeMB)
			return nil
		},
	}
}
