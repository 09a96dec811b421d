package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"reclaim/internal/provider"
)

func TestWebhookIsConfigured(t *testing.T) {
	tests := []struct {
		factory func(string, provider.Settings) Provider
		url     string
		want    bool
	}{
		{NewSlack, "https://hooks.slack.com/services/T0/B0/xyz", true},
		{NewSlack, "https://example.com/webhook", false},
		{NewSlack, "", false},
		{NewDiscord, "https://discord.com/api/webhooks/123/abc", true},
		{NewDiscord, "https://hooks.slack.com/services/T0/B0/xyz", false},
	}
	for _, tt := range tests {
		p := tt.factory("hook", provider.Settings{"webhook_url": tt.url})
		if got := p.IsConfigured(); got != tt.want {
			t.Errorf("%s url=%q: IsConfigured() = %v, want %v", p.Name(), tt.url, got, tt.want)
		}
	}
}

func TestWebhookPostPayloads(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = map[string]string{}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decoding payload: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	slack := &webhook{
		instanceName: "s", platform: "Slack", webhookURL: srv.URL,
		okStatuses: []int{http.StatusOK, http.StatusNoContent},
		httpClient: srv.Client(),
	}
	if result := slack.post(context.Background(), slackMessage{Text: "hi"}); !result.OK() {
		t.Fatalf("slack post failed: %s", result.ErrorDetails)
	}
	if got["text"] != "hi" {
		t.Errorf("slack payload = %v", got)
	}

	discord := &webhook{
		instanceName: "d", platform: "Discord", webhookURL: srv.URL,
		okStatuses: []int{http.StatusOK, http.StatusNoContent},
		httpClient: srv.Client(),
	}
	if result := discord.post(context.Background(), discordMessage{Content: "hi"}); !result.OK() {
		t.Fatalf("discord post failed: %s", result.ErrorDetails)
	}
	if got["content"] != "hi" {
		t.Errorf("discord payload = %v", got)
	}
}

func TestWebhookPostRejectsBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte("invalid token"))
	}))
	defer srv.Close()

	hook := &webhook{
		instanceName: "s", platform: "Slack", webhookURL: srv.URL,
		okStatuses: []int{http.StatusOK},
		httpClient: srv.Client(),
	}
	result := hook.post(context.Background(), slackMessage{Text: "hi"})
	if result.Status != StatusFailed {
		t.Fatalf("expected failure, got %v", result.Status)
	}
}

func TestWebhookSendRequiresConfiguration(t *testing.T) {
	slack := NewSlack("s", provider.Settings{"webhook_url": "https://example.com/nope"})
	if result := slack.Send(context.Background(), "hi", ""); result.Status != StatusFailed {
		t.Errorf("expected fail-fast for bad Slack URL, got %v", result.Status)
	}

	discord := NewDiscord("d", provider.Settings{})
	if result := discord.Send(context.Background(), "hi", ""); result.Status != StatusFailed {
		t.Errorf("expected fail-fast for missing Discord URL, got %v", result.Status)
	}
}
