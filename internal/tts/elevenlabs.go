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
	Register("elevenlabs", NewElevenLabs)
}

// elevenLabsRequest is the text-to-speech request payload.
type elevenLabsRequest struct {
	Text          string                  `json:"text"`
	ModelID       string                  `json:"model_id"`
	VoiceSettings elevenLabsVoiceSettings `json:"voice_settings"`
}

type elevenLabsVoiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

// ElevenLabs renders speech through the ElevenLabs API.
type ElevenLabs struct {
	instanceName string
	apiKey       string
	voiceID      string
	modelID      string
	baseURL      string

	httpClient *http.Client
}

// NewElevenLabs builds an ElevenLabs provider from its settings block.
func NewElevenLabs(instanceName string, cfg provider.Settings) Provider {
	return &ElevenLabs{
		instanceName: instanceName,
		apiKey:       cfg.String("api_key", ""),
		voiceID:      cfg.String("voice_id", "21m00Tcm4TlvDq8ikWAM"),
		modelID:      cfg.String("model_id", "eleven_monolingual_v1"),
		baseURL:      strings.TrimRight(cfg.String("base_url", "https://api.elevenlabs.io/v1"), "/"),
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Int("timeout_seconds", 120)) * time.Second,
		},
	}
}

// Name returns the display name including the instance name.
func (e *ElevenLabs) Name() string {
	return fmt.Sprintf("ElevenLabs (%s)", e.instanceName)
}

// IsConfigured checks for a non-placeholder API key and a voice id.
func (e *ElevenLabs) IsConfigured() bool {
	key := strings.TrimSpace(e.apiKey)
	if key == "" || strings.HasPrefix(key, "your-") || strings.HasPrefix(key, "<") {
		return false
	}
	return e.voiceID != ""
}

// Synthesize writes the rendered audio to outputPath.
func (e *ElevenLabs) Synthesize(ctx context.Context, text, outputPath string) Result {
	if !e.IsConfigured() {
		return Failed("ElevenLabs provider is not configured: api_key or voice_id missing")
	}
	if strings.TrimSpace(text) == "" {
		return Failed("text cannot be empty")
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return Failed(fmt.Sprintf("failed to create output directory: %v", err))
	}

	jsonData, err := json.Marshal(elevenLabsRequest{
		Text:    text,
		ModelID: e.modelID,
		VoiceSettings: elevenLabsVoiceSettings{
			Stability:       0.5,
			SimilarityBoost: 0.5,
		},
	})
	if err != nil {
		return Failed(fmt.Sprintf("failed to marshal request: %v", err))
	}

	url := fmt.Sprintf("%s/text-to-speech/%s", e.baseURL, e.voiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return Failed(fmt.Sprintf("failed to create request: %v", err))
	}
	req.Header.Set("Accept", "audio/mpeg")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("xi-api-key", e.apiKey)

	start := time.Now()
	resp, err := e.httpClient.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		return Result{
			Status:         StatusFailed,
			ErrorDetails:   fmt.Sprintf("ElevenLabs request failed: %v", err),
			GenerationTime: elapsed,
		}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return Result{
			Status:         StatusFailed,
			ErrorDetails:   fmt.Sprintf("ElevenLabs API error %d: %s", resp.StatusCode, string(body)),
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
			"model_id": e.modelID,
			"voice_id": e.voiceID,
		},
	}
}

// TestConnection renders a short sample into a temp file.
func (e *ElevenLabs) TestConnection(ctx context.Context) Result {
	if !e.IsConfigured() {
		return Failed("ElevenLabs provider is not configured")
	}

	tmp := filepath.Join(os.TempDir(), fmt.Sprintf("elevenlabs_test_%d.mp3", time.Now().UnixNano()))
	defer func() { _ = os.Remove(tmp) }()

	result := e.Synthesize(ctx, "Test.", tmp)
	if result.OK() {
		result.OutputFile = ""
		result.ProviderResponse["note"] = fmt.Sprintf("Connection successful. Voice: %s", e.voiceID)
	}
	return result
}

// Cleanup closes idle connections held by the HTTP client.
func (e *ElevenLabs) Cleanup() {
	e.httpClient.CloseIdleConnections()
}
