package llm

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
	Register("ollama", NewOllama)
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Options  ollamaOptions   `json:"options,omitempty"`
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaOptions struct {
	NumPredict  int     `json:"num_predict,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
}

type ollamaChatResponse struct {
	Model   string `json:"model"`
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
	Done      bool `json:"done"`
	EvalCount int  `json:"eval_count"`
}

type ollamaTagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// Ollama generates text through a local Ollama server.
type Ollama struct {
	instanceName string
	baseURL      string
	model        string
	maxTokens    int
	temperature  float64

	httpClient *http.Client
}

// NewOllama builds an Ollama provider from its settings block.
func NewOllama(instanceName string, cfg provider.Settings) Provider {
	return &Ollama{
		instanceName: instanceName,
		baseURL:      strings.TrimRight(cfg.String("base_url", "http://localhost:11434"), "/"),
		model:        cfg.String("model", ""),
		maxTokens:    cfg.Int("max_tokens", 2048),
		temperature:  cfg.Float("temperature", 0.7),
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Int("timeout_seconds", 300)) * time.Second,
		},
	}
}

// Name returns the display name including the instance name.
func (o *Ollama) Name() string {
	return fmt.Sprintf("Ollama (%s)", o.instanceName)
}

// IsConfigured requires a base URL and a non-placeholder model name.
func (o *Ollama) IsConfigured() bool {
	model := strings.TrimSpace(o.model)
	if o.baseURL == "" || model == "" {
		return false
	}
	return !strings.HasPrefix(model, "your-") && !strings.HasPrefix(model, "<")
}

// Generate produces text through the Ollama chat endpoint.
func (o *Ollama) Generate(ctx context.Context, systemPrompt, userPrompt string, opts Options) Result {
	if !o.IsConfigured() {
		return Failed("Ollama provider is not configured: base_url or model missing")
	}
	if strings.TrimSpace(userPrompt) == "" {
		return Failed("user prompt cannot be empty")
	}

	maxTokens := o.maxTokens
	if opts.MaxTokens > 0 {
		maxTokens = opts.MaxTokens
	}
	temperature := o.temperature
	if opts.Temperature > 0 {
		temperature = opts.Temperature
	}

	var messages []ollamaMessage
	if strings.TrimSpace(systemPrompt) != "" {
		messages = append(messages, ollamaMessage{Role: "system", Content: systemPrompt})
	}
	messages = append(messages, ollamaMessage{Role: "user", Content: userPrompt})

	jsonData, err := json.Marshal(ollamaChatRequest{
		Model:    o.model,
		Messages: messages,
		Stream:   false,
		Options: ollamaOptions{
			NumPredict:  maxTokens,
			Temperature: temperature,
		},
	})
	if err != nil {
		return Failed(fmt.Sprintf("failed to marshal request: %v", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/chat", bytes.NewBuffer(jsonData))
	if err != nil {
		return Failed(fmt.Sprintf("failed to create request: %v", err))
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := o.httpClient.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		return Result{
			Status:         StatusFailed,
			ErrorDetails:   fmt.Sprintf("Ollama request failed (is the server running at %s?): %v", o.baseURL, err),
			GenerationTime: elapsed,
		}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{
			Status:         StatusFailed,
			ErrorDetails:   fmt.Sprintf("failed to read response: %v", err),
			GenerationTime: elapsed,
		}
	}
	if resp.StatusCode != http.StatusOK {
		return Result{
			Status:         StatusFailed,
			ErrorDetails:   fmt.Sprintf("Ollama API error %d: %s", resp.StatusCode, string(body)),
			GenerationTime: elapsed,
		}
	}

	var parsed ollamaChatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return Result{
			Status:         StatusFailed,
			ErrorDetails:   fmt.Sprintf("failed to decode response: %v", err),
			GenerationTime: elapsed,
		}
	}
	if parsed.Message.Content == "" {
		return Result{
			Status:         StatusFailed,
			ErrorDetails:   "empty response from Ollama model",
			GenerationTime: elapsed,
		}
	}

	return Result{
		Status:         StatusSuccess,
		Response:       parsed.Message.Content,
		GenerationTime: elapsed,
		TokenCount:     parsed.EvalCount,
		ProviderResponse: map[string]any{
			"model": parsed.Model,
			"done":  parsed.Done,
		},
	}
}

// TestConnection lists the server's models, verifies the configured one
// is present, then runs a small generation.
func (o *Ollama) TestConnection(ctx context.Context) Result {
	if !o.IsConfigured() {
		return Failed("Ollama provider is not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.baseURL+"/api/tags", nil)
	if err != nil {
		return Failed(fmt.Sprintf("failed to create request: %v", err))
	}
	resp, err := o.httpClient.Do(req)
	if err != nil {
		return Failed(fmt.Sprintf("cannot reach Ollama server at %s: %v", o.baseURL, err))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return Failed(fmt.Sprintf("Ollama API error %d: %s", resp.StatusCode, string(body)))
	}

	var tags ollamaTagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return Failed(fmt.Sprintf("failed to decode model list: %v", err))
	}

	found := false
	for _, m := range tags.Models {
		if m.Name == o.model || strings.TrimSuffix(m.Name, ":latest") == o.model {
			found = true
			break
		}
	}
	if !found {
		return Failed(fmt.Sprintf("model %q is not available on the Ollama server", o.model))
	}

	result := o.Generate(ctx, "", "Reply with the single word: ok", Options{MaxTokens: 8})
	if result.OK() {
		result.Response = fmt.Sprintf("Connection successful. Model: %s", o.model)
	}
	return result
}

// Cleanup closes idle connections held by the HTTP client.
func (o *Ollama) Cleanup() {
	o.httpClient.CloseIdleConnections()
}
