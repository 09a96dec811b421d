package handlers

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	badStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// providerStatus is the common shape of the three managers' Status
// snapshots.
type providerStatus struct {
	Name       string
	Type       string
	Configured bool
	Available  bool
}

// NewStatusCmd creates the status command.
func NewStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show configured provider instances and their state",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.Close()

			var llmRows, ttsRows, notifyRows []providerStatus
			for _, s := range app.LLM.Status() {
				llmRows = append(llmRows, providerStatus{s.Name, s.Type, s.Configured, s.Available})
			}
			for _, s := range app.TTS.Status() {
				ttsRows = append(ttsRows, providerStatus{s.Name, s.Type, s.Configured, s.Available})
			}
			for _, s := range app.Notify.Status() {
				notifyRows = append(notifyRows, providerStatus{s.Name, s.Type, s.Configured, s.Available})
			}

			printProviderTable("LLM providers", llmRows)
			printProviderTable("TTS providers", ttsRows)
			printProviderTable("Notification providers", notifyRows)

			fmt.Println(headerStyle.Render("Channels"))
			channels := app.Config.Platforms.YouTube.Channels
			if len(channels) == 0 {
				fmt.Println(dimStyle.Render("  (none configured)"))
				return nil
			}
			for _, ch := range channels {
				flags := ""
				if ch.Scrape {
					flags += " scrape"
				}
				if ch.Summary.Enabled {
					flags += " summary"
				}
				if flags == "" {
					flags = " disabled"
				}
				fmt.Printf("  %-24s%s\n", ch.Name, dimStyle.Render(flags))
			}
			return nil
		},
	}
}

func printProviderTable(title string, rows []providerStatus) {
	fmt.Println(headerStyle.Render(title))
	if len(rows) == 0 {
		fmt.Println(dimStyle.Render("  (none configured)"))
		return
	}
	for _, row := range rows {
		state := okStyle.Render("available")
		switch {
		case !row.Configured:
			state = badStyle.Render("not configured")
		case !row.Available:
			state = badStyle.Render("unavailable")
		}
		fmt.Printf("  %-20s %-12s %s\n", row.Name, dimStyle.Render(row.Type), state)
	}
}
