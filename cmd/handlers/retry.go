package handlers

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewRetryCmd creates the retry command.
func NewRetryCmd() *cobra.Command {
	var limit int

	retryCmd := &cobra.Command{
		Use:   "retry",
		Short: "Re-run the pipeline for videos whose summary failed",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.Close()

			result := app.Summary.RetryFailedSummaries(cmd.Context(), limit)
			if result.Err != "" {
				return fmt.Errorf("%s", result.Err)
			}
			if result.Processed == 0 && result.Failed == 0 {
				fmt.Println("No failed summaries to retry")
				return nil
			}
			fmt.Printf("Retry completed - Processed: %d, Failed: %d\n", result.Processed, result.Failed)
			return nil
		},
	}

	retryCmd.Flags().IntVar(&limit, "limit", 50, "maximum videos to retry")
	return retryCmd
}
