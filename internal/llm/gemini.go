package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"reclaim/internal/provider"
)

const defaultGeminiModel = "gemini-2.0-flash"

func init() {
	Register("gemini", NewGemini)
}

// Gemini generates text through the Gemini API. The SDK client is created
// lazily on first use and a failed creation is cached.
type Gemini struct {
	instanceName string
	apiKey       string
	model        string
	maxTokens    int
	temperature  float64

	state   loadState
	client  *genai.Client
	loadErr string
}

// NewGemini builds a Gemini provider from its settings block.
func NewGemini(instanceName string, cfg provider.Settings) Provider {
	return &Gemini{
		instanceName: instanceName,
		apiKey:       cfg.String("api_key", ""),
		model:        cfg.String("model", defaultGeminiModel),
		maxTokens:    cfg.Int("max_tokens", 2048),
		temperature:  cfg.Float("temperature", 0.7),
	}
}

// Name returns the display name including the instance name.
func (g *Gemini) Name() string {
	return fmt.Sprintf("Gemini (%s)", g.instanceName)
}

// IsConfigured checks for a plausible API key without touching the
// network. Gemini keys start with "AIza".
func (g *Gemini) IsConfigured() bool {
	key := strings.TrimSpace(g.apiKey)
	if key == "" || strings.HasPrefix(key, "your-") || strings.HasPrefix(key, "<") {
		return false
	}
	return strings.HasPrefix(key, "AIza")
}

func (g *Gemini) ensureClient(ctx context.Context) error {
	switch g.state {
	case loadReady:
		return nil
	case loadFailed:
		return fmt.Errorf("gemini client unavailable: %s", g.loadErr)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  g.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		g.state = loadFailed
		g.loadErr = err.Error()
		return fmt.Errorf("failed to create Gemini client: %w", err)
	}
	g.client = client
	g.state = loadReady
	return nil
}

// Generate produces text for the prompts through the Gemini API.
func (g *Gemini) Generate(ctx context.Context, systemPrompt, userPrompt string, opts Options) Result {
	if !g.IsConfigured() {
		return Failed("Gemini provider is not configured: api_key missing or invalid")
	}
	if strings.TrimSpace(userPrompt) == "" {
		return Failed("user prompt cannot be empty")
	}
	if err := g.ensureClient(ctx); err != nil {
		return Failed(err.Error())
	}

	maxTokens := g.maxTokens
	if opts.MaxTokens > 0 {
		maxTokens = opts.MaxTokens
	}
	temperature := g.temperature
	if opts.Temperature > 0 {
		temperature = opts.Temperature
	}

	genCfg := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(maxTokens),
		Temperature:     genai.Ptr(float32(temperature)),
	}
	if strings.TrimSpace(systemPrompt) != "" {
		genCfg.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: systemPrompt}},
		}
	}

	contents := []*genai.Content{{
		Parts: []*genai.Part{{Text: userPrompt}},
		Role:  "user",
	}}

	start := time.Now()
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, genCfg)
	elapsed := time.Since(start)
	if err != nil {
		return Result{
			Status:         StatusFailed,
			ErrorDetails:   fmt.Sprintf("Gemini generation failed: %v", err),
			GenerationTime: elapsed,
		}
	}

	text := resp.Text()
	if text == "" {
		return Result{
			Status:         StatusFailed,
			ErrorDetails:   "empty response from Gemini model",
			GenerationTime: elapsed,
		}
	}

	result := Result{
		Status:         StatusSuccess,
		Response:       text,
		GenerationTime: elapsed,
		ProviderResponse: map[string]any{
			"model": g.model,
		},
	}
	if resp.UsageMetadata != nil {
		result.TokenCount = int(resp.UsageMetadata.TotalTokenCount)
	}
	return result
}

// TestConnection performs a minimal live generation round trip.
func (g *Gemini) TestConnection(ctx context.Context) Result {
	if !g.IsConfigured() {
		return Failed("Gemini provider is not configured")
	}
	result := g.Generate(ctx, "", "Reply with the single word: ok", Options{MaxTokens: 8})
	if result.OK() {
		result.Response = fmt.Sprintf("Connection successful. Model: %s", g.model)
	}
	return result
}

// Cleanup drops the SDK client so a later call re-creates it.
func (g *Gemini) Cleanup() {
	g.client = nil
	g.state = loadPending
	g.loadErr = ""
}
