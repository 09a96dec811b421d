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
	Register("openai", NewOpenAI)
}

// openAIChatRequest is the chat completions request payload.
type openAIChatRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Temperature float64         `json:"temperature,omitempty"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// openAIChatResponse is the subset of the response we read.
type openAIChatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

// OpenAI generates text through the OpenAI chat completions API.
type OpenAI struct {
	instanceName string
	apiKey       string
	model        string
	baseURL      string
	maxTokens    int
	temperature  float64

	httpClient *http.Client
}

// NewOpenAI builds an OpenAI provider from its settings block.
func NewOpenAI(instanceName string, cfg provider.Settings) Provider {
	return &OpenAI{
		instanceName: instanceName,
		apiKey:       cfg.String("api_key", ""),
		model:        cfg.String("model", "gpt-4o-mini"),
		baseURL:      strings.TrimRight(cfg.String("base_url", "https://api.openai.com/v1"), "/"),
		maxTokens:    cfg.Int("max_tokens", 2048),
		temperature:  cfg.Float("temperature", 0.7),
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Int("timeout_seconds", 120)) * time.Second,
		},
	}
}

// Name returns the display name including the instance name.
func (o *OpenAI) Name() string {
	return fmt.Sprintf("OpenAI (%s)", o.instanceName)
}

// IsConfigured checks for a plausible API key. OpenAI keys start with
// "sk-".
func (o *OpenAI) IsConfigured() bool {
	key := strings.TrimSpace(o.apiKey)
	if key == "" || strings.HasPrefix(key, "your-") || strings.HasPrefix(key, "<") {
		return false
	}
	return strings.HasPrefix(key, "sk-")
}

// Generate produces text for the prompts through the chat completions
// endpoint.
func (o *OpenAI) Generate(ctx context.Context, systemPrompt, userPrompt string, opts Options) Result {
	if !o.IsConfigured() {
		return Failed("OpenAI provider is not configured: api_key missing or invalid")
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

	var messages []openAIMessage
	if strings.TrimSpace(systemPrompt) != "" {
		messages = append(messages, openAIMessage{Role: "system", Content: systemPrompt})
	}
	messages = append(messages, openAIMessage{Role: "user", Content: userPrompt})

	jsonData, err := json.Marshal(openAIChatRequest{
		Model:       o.model,
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return Failed(fmt.Sprintf("failed to marshal request: %v", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return Failed(fmt.Sprintf("failed to create request: %v", err))
	}
	req.Header.Set("Authorization", "Bearer "+o.apiKey)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := o.httpClient.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		return Result{
			Status:         StatusFailed,
			ErrorDetails:   fmt.Sprintf("OpenAI request failed: %v", err),
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
			ErrorDetails:   fmt.Sprintf("OpenAI API error %d: %s", resp.StatusCode, string(body)),
			GenerationTime: elapsed,
		}
	}

	var parsed openAIChatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return Result{
			Status:         StatusFailed,
			ErrorDetails:   fmt.Sprintf("failed to decode response: %v", err),
			GenerationTime: elapsed,
		}
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return Result{
			Status:         StatusFailed,
			ErrorDetails:   "empty response from OpenAI model",
			GenerationTime: elapsed,
		}
	}

	return Result{
		Status:         StatusSuccess,
		Response:       parsed.Choices[0].Message.Content,
		GenerationTime: elapsed,
		TokenCount:     parsed.Usage.TotalTokens,
		ProviderResponse: map[string]any{
			"model":         parsed.Model,
			"finish_reason": parsed.Choices[0].FinishReason,
		},
	}
}

// TestConnection performs a minimal live generation round trip.
func (o *OpenAI) TestConnection(ctx context.Context) Result {
	if !o.IsConfigured() {
		return Failed("OpenAI provider is not configured")
	}
	result := o.Generate(ctx, "", "Reply with the single word: ok", Options{MaxTokens: 8})
	if result.OK() {
		result.Response = fmt.Sprintf("Connection successful. Model: %s", o.model)
	}
	return result
}

// Cleanup closes idle connections held by the HTTP client.
func (o *OpenAI) Cleanup() {
	o.httpClient.CloseIdleConnections()
}
