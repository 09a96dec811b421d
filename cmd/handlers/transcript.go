package handlers

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewTranscriptCmd creates the transcript command.
func NewTranscriptCmd() *cobra.Command {
	var (
		language string
		full     bool
	)

	transcriptCmd := &cobra.Command{
		Use:   "transcript <url>",
		Short: "Fetch and cache the transcript for a video URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.Close()

			transcript, err := app.YouTube.VideoTranscript(cmd.Context(), args[0], language)
			if err != nil {
				return err
			}

			meta := transcript.Metadata
			if !transcript.HasText() {
				fmt.Printf("No transcript for %s (%s)\n", meta.VideoID, meta.Error)
				if len(meta.AvailableLanguages) > 0 {
					fmt.Printf("Available languages: %v\n", meta.AvailableLanguages)
				}
				return nil
			}

			fmt.Printf("Video: %s (%s)\n", meta.Title, meta.VideoID)
			fmt.Printf("Language: %s (%s), %d entries\n", meta.Language, meta.SourceType, meta.TotalEntries)
			if full {
				fmt.Println()
				fmt.Println(transcript.Text)
			} else {
				preview := transcript.Text
				if len(preview) > 500 {
					preview = preview[:500] + "..."
				}
				fmt.Println()
				fmt.Println(preview)
			}
			return nil
		},
	}

	transcriptCmd.Flags().StringVar(&language, "language", "", "preferred caption language")
	transcriptCmd.Flags().BoolVar(&full, "full", false, "print the full transcript text")
	return transcriptCmd
}
