package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"reclaim/internal/provider"
)

func newOpenAITestServer(t *testing.T, hits *atomic.Int64, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenAIGenerate(t *testing.T) {
	var hits atomic.Int64
	srv := newOpenAITestServer(t, &hits, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("unexpected auth header %q", got)
		}

		var req openAIChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		if len(req.Messages) != 2 {
			t.Fatalf("expected system+user messages, got %d", len(req.Messages))
		}
		if req.Messages[0].Role != "system" || req.Messages[1].Role != "user" {
			t.Errorf("unexpected message roles: %+v", req.Messages)
		}

		_ = json.NewEncoder(w).Encode(map[string]any{
			"model": req.Model,
			"choices": []map[string]any{
				{
					"message":       map[string]string{"content": "a tidy summary"},
					"finish_reason": "stop",
				},
			},
			"usage": map[string]int{"total_tokens": 42},
		})
	})

	p := NewOpenAI("primary", provider.Settings{
		"api_key":  "sk-test",
		"base_url": srv.URL,
	})

	result := p.Generate(context.Background(), "be brief", "summarize the video", Options{})
	if !result.OK() {
		t.Fatalf("Generate failed: %s", result.ErrorDetails)
	}
	if result.Response != "a tidy summary" {
		t.Errorf("response = %q", result.Response)
	}
	if result.TokenCount != 42 {
		t.Errorf("token count = %d", result.TokenCount)
	}
	if result.ProviderResponse["finish_reason"] != "stop" {
		t.Errorf("provider response = %+v", result.ProviderResponse)
	}
}

func TestOpenAIGenerateAPIError(t *testing.T) {
	var hits atomic.Int64
	srv := newOpenAITestServer(t, &hits, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": {"message": "rate limited"}}`))
	})

	p := NewOpenAI("primary", provider.Settings{
		"api_key":  "sk-test",
		"base_url": srv.URL,
	})

	result := p.Generate(context.Background(), "", "prompt", Options{})
	if result.Status != StatusFailed {
		t.Fatalf("expected failure, got %v", result.Status)
	}
	if !strings.Contains(result.ErrorDetails, "429") {
		t.Errorf("error should carry the status code: %s", result.ErrorDetails)
	}
}

func TestOpenAIUnconfiguredSkipsNetwork(t *testing.T) {
	var hits atomic.Int64
	srv := newOpenAITestServer(t, &hits, func(w http.ResponseWriter, r *http.Request) {})

	for _, key := range []string{"", "your-api-key-here", "<paste key>", "not-an-sk-key"} {
		p := NewOpenAI("primary", provider.Settings{
			"api_key":  key,
			"base_url": srv.URL,
		})
		if p.IsConfigured() {
			t.Errorf("key %q should not count as configured", key)
		}
		result := p.Generate(context.Background(), "", "prompt", Options{})
		if result.Status != StatusFailed {
			t.Errorf("key %q: expected fail-fast, got %v", key, result.Status)
		}
	}

	if hits.Load() != 0 {
		t.Errorf("unconfigured provider reached the network %d times", hits.Load())
	}
}
