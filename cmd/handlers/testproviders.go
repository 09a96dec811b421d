package handlers

import (
	"fmt"

	"github.com/spf13/cobra"

	"reclaim/internal/llm"
	"reclaim/internal/notify"
	"reclaim/internal/tts"
)

// NewTestProvidersCmd creates the test-providers command.
func NewTestProvidersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test-providers [capability] [instance]",
		Short: "Run live connectivity tests against provider backends",
		Long: `Test-providers performs a real round trip against each provider
backend. Restrict the run with a capability (llm, tts, notify) and
optionally a single instance name.`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.Close()

			capability := ""
			instance := ""
			if len(args) > 0 {
				capability = args[0]
			}
			if len(args) > 1 {
				instance = args[1]
			}

			ctx := cmd.Context()

			if capability == "" || capability == "llm" {
				fmt.Println(headerStyle.Render("LLM providers"))
				for name, result := range app.LLM.TestProviders(ctx, instance) {
					printTestResult(name, result.Status == llm.StatusSuccess, result.Response, result.ErrorDetails)
				}
			}
			if capability == "" || capability == "tts" {
				fmt.Println(headerStyle.Render("TTS providers"))
				for name, result := range app.TTS.TestProviders(ctx, instance) {
					note := ""
					if result.ProviderResponse != nil {
						if n, ok := result.ProviderResponse["note"].(string); ok {
							note = n
						}
					}
					printTestResult(name, result.Status == tts.StatusSuccess, note, result.ErrorDetails)
				}
			}
			if capability == "" || capability == "notify" {
				fmt.Println(headerStyle.Render("Notification providers"))
				for name, result := range app.Notify.TestProviders(ctx, instance) {
					printTestResult(name, result.Status == notify.StatusSuccess, result.Message, result.ErrorDetails)
				}
			}
			return nil
		},
	}
}

func printTestResult(name string, ok bool, detail, errDetail string) {
	if ok {
		fmt.Printf("  %-20s %s %s\n", name, okStyle.Render("ok"), dimStyle.Render(detail))
		return
	}
	fmt.Printf("  %-20s %s %s\n", name, badStyle.Render("failed"), errDetail)
}
