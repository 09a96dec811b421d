package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"reclaim/internal/provider"
)

func init() {
	Register("openai", NewOpenAI)
}

// openAISpeechRequest is the audio/speech request payload.
type openAISpeechRequest struct {
	Model          string  `json:"model"`
	Input          string  `json:"input"`
	Voice          string  `json:"voice"`
	ResponseFormat string  `json:"response_format"`
	Speed          float64 `json:"speed,omitempty"`
}

// OpenAI renders speech through the OpenAI audio API.
type OpenAI struct {
	instanceName string
	apiKey       string
	model        string
	voice        string
	speed        float64
	baseURL      string

	httpClient *http.Client
}

// NewOpenAI builds an OpenAI TTS provider from its settings block.
func NewOpenAI(instanceName string, cfg provider.Settings) Provider {
	return &OpenAI{
		instanceName: instanceName,
		apiKey:       cfg.String("api_key", ""),
		model:        cfg.String("model", "tts-1"),
		voice:        cfg.String("voice", "alloy"),
		speed:        cfg.Float("speed", 1.0),
		baseURL:      strings.TrimRight(cfg.String("base_url", "https://api.openai.com/v1"), "/"),
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Int("timeout_seconds", 120)) * time.Second,
		},
	}
}

// Name returns the display name including the instance name.
func (o *OpenAI) Name() string {
	return fmt.Sprintf("OpenAI TTS (%s)", o.instanceName)
}

// IsConfigured checks for a plausible API key.
func (o *OpenAI) IsConfigured() bool {
	key := strings.TrimSpace(o.apiKey)
	if key == "" || strings.HasPrefix(key, "your-") || strings.HasPrefix(key, "<") {
		return false
	}
	return strings.HasPrefix(key, "sk-")
}

// Synthesize writes the rendered audio to outputPath.
func (o *OpenAI) Synthesize(ctx context.Context, text, outputPath string) Result {
	if !o.IsConfigured() {
		return Failed("OpenAI TTS provider is not configured: api_key missing or invalid")
	}
	if strings.TrimSpace(text) == "" {
		return Failed("text cannot be empty")
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return Failed(fmt.Sprintf("failed to create output directory: %v", err))
	}

	format := "wav"
	if ext := strings.TrimPrefix(filepath.Ext(outputPath), "."); ext != "" {
		format = ext
	}

	jsonData, err := json.Marshal(openAISpeechRequest{
		Model:          o.model,
		Input:          text,
		Voice:          o.voice,
		ResponseFormat: format,
		Speed:          o.speed,
	})
	if err != nil {
		return Failed(fmt.Sprintf("failed to marshal request: %v", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/audio/speech", bytes.NewBuffer(jsonData))
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
			ErrorDetails:   fmt.Sprintf("OpenAI TTS request failed: %v", err),
			GenerationTime: elapsed,
		}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return Result{
			Status:         StatusFailed,
			ErrorDetails:   fmt.Sprintf("OpenAI TTS API error %d: %s", resp.StatusCode, string(body)),
			GenerationTime: elapsed,
		}
	}

	file, err := os.Create(outputPath)
	if err != nil {
		return Failed(fmt.Sprintf("failed to create output file: %v", err))
	}
	defer func() { _ = file.Close() }()

	if _, err := io.Copy(file, resp.Body); err != nil {
		return Failed(fmt.Sprintf("failed to write audio data: %v", err))
	}

	return Result{
		Status:         StatusSuccess,
		OutputFile:     outputPath,
		GenerationTime: elapsed,
		ProviderResponse: map[string]any{
			"model": o.model,
			"voice": o.voice,
		},
	}
}

// TestConnection renders a short sample into a temp file.
func (o *OpenAI) TestConnection(ctx context.Context) Result {
	if !o.IsConfigured() {
		return Failed("OpenAI TTS provider is not configured")
	}

	tmp := filepath.Join(os.TempDir(), fmt.Sprintf("openai_tts_test_%d.wav", time.Now().UnixNano()))
	defer func() { _ = os.Remove(tmp) }()

	result := o.Synthesize(ctx, "Test.", tmp)
	if result.OK() {
		result.OutputFile = ""
		result.ProviderResponse["note"] = fmt.Sprintf("Connection successful. Model: %s", o.model)
	}
	return result
}

// Cleanup closes idle connections held by the HTTP client.
func (o *OpenAI) Cleanup() {
	o.httpClient.CloseIdleConnections()
}
