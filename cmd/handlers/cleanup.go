package handlers

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// NewCleanupCmd creates the cleanup command.
func NewCleanupCmd() *cobra.Command {
	var audioMaxAgeHours int

	cleanupCmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Remove old summary audio files and empty cache folders",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.Close()

			maxAge := audioMaxAgeHours
			if !cmd.Flags().Changed("audio-max-age-hours") {
				maxAge = app.Config.Summary.AudioMaxAgeHrs
			}

			removed, err := app.Summary.CleanupAudioFiles(time.Duration(maxAge) * time.Hour)
			if err != nil {
				return err
			}
			fmt.Printf("Removed %d audio files older than %dh\n", removed, maxAge)

			dirs, err := app.Cache.CleanupEmptyDirs()
			if err != nil {
				return err
			}
			fmt.Printf("Removed %d empty cache directories\n", dirs)
			return nil
		},
	}

	cleanupCmd.Flags().IntVar(&audioMaxAgeHours, "audio-max-age-hours", 24, "delete summary audio older than this many hours")
	return cleanupCmd
}
