package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"reclaim/internal/provider"
)

func init() {
	Register("slack", NewSlack)
	Register("discord", NewDiscord)
}

// slackMessage is the minimal incoming-webhook payload.
type slackMessage struct {
	Text string `json:"text"`
}

// discordMessage is the minimal webhook payload.
type discordMessage struct {
	Content string `json:"content"`
}

// webhook is the shared implementation behind the Slack and Discord
// providers. Webhooks cannot attach files, so audio paths are ignored.
type webhook struct {
	instanceName string
	platform     string
	webhookURL   string
	hostMarker   string
	okStatuses   []int

	httpClient *http.Client
}

func newWebhook(instanceName, platform, hostMarker string, okStatuses []int, cfg provider.Settings) *webhook {
	return &webhook{
		instanceName: instanceName,
		platform:     platform,
		webhookURL:   cfg.String("webhook_url", ""),
		hostMarker:   hostMarker,
		okStatuses:   okStatuses,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Int("timeout_seconds", 30)) * time.Second,
		},
	}
}

// NewSlack builds a Slack incoming-webhook provider.
func NewSlack(instanceName string, cfg provider.Settings) Provider {
	return &slackProvider{newWebhook(instanceName, "Slack", "hooks.slack.com", []int{http.StatusOK}, cfg)}
}

// NewDiscord builds a Discord webhook provider.
func NewDiscord(instanceName string, cfg provider.Settings) Provider {
	return &discordProvider{newWebhook(instanceName, "Discord", "discord.com/api/webhooks", []int{http.StatusOK, http.StatusNoContent}, cfg)}
}

func (w *webhook) name() string {
	return fmt.Sprintf("%s (%s)", w.platform, w.instanceName)
}

func (w *webhook) isConfigured() bool {
	url := strings.TrimSpace(w.webhookURL)
	return url != "" && strings.Contains(url, w.hostMarker)
}

func (w *webhook) post(ctx context.Context, payload any) Result {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return Failed(fmt.Sprintf("failed to marshal %s message: %v", w.platform, err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.webhookURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return Failed(fmt.Sprintf("failed to create request: %v", err))
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := w.httpClient.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		return Result{
			Status:       StatusFailed,
			ErrorDetails: fmt.Sprintf("%s webhook request failed: %v", w.platform, err),
			DeliveryTime: elapsed,
		}
	}
	defer func() { _ = resp.Body.Close() }()

	ok := false
	for _, s := range w.okStatuses {
		if resp.StatusCode == s {
			ok = true
			break
		}
	}
	if !ok {
		body, _ := io.ReadAll(resp.Body)
		return Result{
			Status:       StatusFailed,
			ErrorDetails: fmt.Sprintf("%s webhook returned status %d: %s", w.platform, resp.StatusCode, string(body)),
			DeliveryTime: elapsed,
		}
	}

	return Result{
		Status:       StatusSuccess,
		DeliveryTime: elapsed,
		ProviderResponse: map[string]any{
			"status_code": resp.StatusCode,
		},
	}
}

func (w *webhook) cleanup() {
	w.httpClient.CloseIdleConnections()
}

type slackProvider struct{ *webhook }

// Send posts the message to the Slack incoming webhook. The audio path
// is ignored.
func (s *slackProvider) Send(ctx context.Context, message, audioPath string) Result {
	if !s.isConfigured() {
		return Failed("Slack provider is not configured: webhook_url missing or invalid")
	}
	if strings.TrimSpace(message) == "" {
		return Failed("message cannot be empty")
	}
	result := s.post(ctx, slackMessage{Text: message})
	result.Message = message
	return result
}

func (s *slackProvider) IsConfigured() bool { return s.isConfigured() }
func (s *slackProvider) Name() string       { return s.name() }
func (s *slackProvider) Cleanup()           { s.cleanup() }

// TestConnection posts a short test message to the webhook.
func (s *slackProvider) TestConnection(ctx context.Context) Result {
	if !s.isConfigured() {
		return Failed("Slack provider is not configured")
	}
	result := s.post(ctx, slackMessage{Text: "Connection test."})
	if result.OK() {
		result.Message = "Connection successful."
	}
	return result
}

type discordProvider struct{ *webhook }

// Send posts the message to the Discord webhook. The audio path is
// ignored.
func (d *discordProvider) Send(ctx context.Context, message, audioPath string) Result {
	if !d.isConfigured() {
		return Failed("Discord provider is not configured: webhook_url missing or invalid")
	}
	if strings.TrimSpace(message) == "" {
		return Failed("message cannot be empty")
	}
	result := d.post(ctx, discordMessage{Content: message})
	result.Message = message
	return result
}

func (d *discordProvider) IsConfigured() bool { return d.isConfigured() }
func (d *discordProvider) Name() string       { return d.name() }
func (d *discordProvider) Cleanup()           { d.cleanup() }

// TestConnection posts a short test message to the webhook.
func (d *discordProvider) TestConnection(ctx context.Context) Result {
	if !d.isConfigured() {
		return Failed("Discord provider is not configured")
	}
	result := d.post(ctx, discordMessage{Content: "Connection test."})
	if result.OK() {
		result.Message = "Connection successful."
	}
	return result
}
