package tts

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"reclaim/internal/provider"
)

func TestOpenAISynthesizeWritesFile(t *testing.T) {
	audio := []byte("RIFFfakewavdataWAVE")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/audio/speech" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		var req openAISpeechRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		if req.ResponseFormat != "wav" {
			t.Errorf("response format = %q, want wav", req.ResponseFormat)
		}
		if req.Voice != "alloy" {
			t.Errorf("voice = %q", req.Voice)
		}
		_, _ = w.Write(audio)
	}))
	defer srv.Close()

	p := NewOpenAI("cloud", provider.Settings{
		"api_key":  "sk-test",
		"base_url": srv.URL,
	})

	outputPath := filepath.Join(t.TempDir(), "audio", "summary.wav")
	result := p.Synthesize(context.Background(), "hello there", outputPath)
	if !result.OK() {
		t.Fatalf("Synthesize failed: %s", result.ErrorDetails)
	}
	if result.OutputFile != outputPath {
		t.Errorf("output file = %q", result.OutputFile)
	}

	data, err := os.ReadFile(outputPath)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if string(data) != string(audio) {
		t.Errorf("output bytes differ from server response")
	}
}

func TestOpenAISynthesizeAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"message": "bad key"}}`))
	}))
	defer srv.Close()

	p := NewOpenAI("cloud", provider.Settings{
		"api_key":  "sk-test",
		"base_url": srv.URL,
	})

	outputPath := filepath.Join(t.TempDir(), "summary.wav")
	result := p.Synthesize(context.Background(), "hello", outputPath)
	if result.Status != StatusFailed {
		t.Fatalf("expected failure, got %v", result.Status)
	}
	if _, err := os.Stat(outputPath); !os.IsNotExist(err) {
		t.Error("output file should not exist after API error")
	}
}

func TestOpenAIUnconfigured(t *testing.T) {
	p := NewOpenAI("cloud", provider.Settings{"api_key": "your-api-key-here"})
	if p.IsConfigured() {
		t.Error("placeholder key should not count as configured")
	}
	result := p.Synthesize(context.Background(), "hello", filepath.Join(t.TempDir(), "x.wav"))
	if result.Status != StatusFailed {
		t.Errorf("expected fail-fast, got %v", result.Status)
	}
}

func TestPiperIsConfiguredRequiresSidecar(t *testing.T) {
	dir := t.TempDir()
	model := filepath.Join(dir, "voice.onnx")
	if err := os.WriteFile(model, []byte("model"), 0644); err != nil {
		t.Fatalf("writing model: %v", err)
	}

	p := NewPiper("local", provider.Settings{"model_path": model})
	if p.IsConfigured() {
		t.Error("configured without .onnx.json sidecar")
	}

	if err := os.WriteFile(model+".json", []byte("{}"), 0644); err != nil {
		t.Fatalf("writing sidecar: %v", err)
	}
	if !p.IsConfigured() {
		t.Error("not configured despite model and sidecar present")
	}

	wrongExt := NewPiper("local", provider.Settings{"model_path": filepath.Join(dir, "voice.bin")})
	if wrongExt.IsConfigured() {
		t.Error("non-onnx path should not count as configured")
	}
}
