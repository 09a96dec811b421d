package llm

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"reclaim/internal/provider"
)

func init() {
	Register("llamacpp", NewLlamaCpp)
}

// LlamaCpp generates text by running the llama.cpp CLI against a local
// GGUF model file. The binary lookup happens lazily and a failed lookup
// is cached.
type LlamaCpp struct {
	instanceName string
	modelPath    string
	binaryPath   string
	contextSize  int
	threads      int
	maxTokens    int
	temperature  float64

	state    loadState
	resolved string
	loadErr  string
}

// NewLlamaCpp builds a llama.cpp provider from its settings block.
func NewLlamaCpp(instanceName string, cfg provider.Settings) Provider {
	return &LlamaCpp{
		instanceName: instanceName,
		modelPath:    cfg.String("model_path", ""),
		binaryPath:   cfg.String("binary_path", "llama-cli"),
		contextSize:  cfg.Int("context_size", 4096),
		threads:      cfg.Int("threads", 4),
		maxTokens:    cfg.Int("max_tokens", 1024),
		temperature:  cfg.Float("temperature", 0.7),
	}
}

// Name returns the display name including the instance name.
func (l *LlamaCpp) Name() string {
	return fmt.Sprintf("LlamaCpp (%s)", l.instanceName)
}

// IsConfigured requires a .gguf model path pointing at an existing file.
func (l *LlamaCpp) IsConfigured() bool {
	path := strings.TrimSpace(l.modelPath)
	if path == "" || !strings.HasSuffix(path, ".gguf") {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func (l *LlamaCpp) ensureBinary() error {
	switch l.state {
	case loadReady:
		return nil
	case loadFailed:
		return fmt.Errorf("llama.cpp binary unavailable: %s", l.loadErr)
	}

	resolved, err := exec.LookPath(l.binaryPath)
	if err != nil {
		l.state = loadFailed
		l.loadErr = err.Error()
		return fmt.Errorf("llama.cpp binary %q not found: %w", l.binaryPath, err)
	}
	l.resolved = resolved
	l.state = loadReady
	return nil
}

// Generate runs the llama.cpp CLI once and captures its stdout as the
// response.
func (l *LlamaCpp) Generate(ctx context.Context, systemPrompt, userPrompt string, opts Options) Result {
	if !l.IsConfigured() {
		return Failed("llama.cpp provider is not configured: model_path missing or not a .gguf file")
	}
	if strings.TrimSpace(userPrompt) == "" {
		return Failed("user prompt cannot be empty")
	}
	if err := l.ensureBinary(); err != nil {
		return Failed(err.Error())
	}

	maxTokens := l.maxTokens
	if opts.MaxTokens > 0 {
		maxTokens = opts.MaxTokens
	}
	temperature := l.temperature
	if opts.Temperature > 0 {
		temperature = opts.Temperature
	}

	prompt := userPrompt
	if strings.TrimSpace(systemPrompt) != "" {
		prompt = systemPrompt + "\n\n" + userPrompt
	}

	args := []string{
		"-m", l.modelPath,
		"-p", prompt,
		"-n", strconv.Itoa(maxTokens),
		"-c", strconv.Itoa(l.contextSize),
		"-t", strconv.Itoa(l.threads),
		"--temp", strconv.FormatFloat(temperature, 'f', 2, 64),
		"--no-display-prompt",
	}

	cmd := exec.CommandContext(ctx, l.resolved, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)
	if err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = err.Error()
		}
		return Result{
			Status:         StatusFailed,
			ErrorDetails:   fmt.Sprintf("llama.cpp run failed: %s", detail),
			GenerationTime: elapsed,
		}
	}

	text := strings.TrimSpace(stdout.String())
	if text == "" {
		return Result{
			Status:         StatusFailed,
			ErrorDetails:   "empty response from llama.cpp",
			GenerationTime: elapsed,
		}
	}

	return Result{
		Status:         StatusSuccess,
		Response:       text,
		GenerationTime: elapsed,
		ProviderResponse: map[string]any{
			"model_path": l.modelPath,
			"binary":     l.resolved,
		},
	}
}

// TestConnection verifies the binary resolves and the model file is
// readable, then runs a tiny generation.
func (l *LlamaCpp) TestConnection(ctx context.Context) Result {
	if !l.IsConfigured() {
		return Failed("llama.cpp provider is not configured")
	}
	if err := l.ensureBinary(); err != nil {
		return Failed(err.Error())
	}
	result := l.Generate(ctx, "", "Reply with the single word: ok", Options{MaxTokens: 8})
	if result.OK() {
		result.Response = fmt.Sprintf("Connection successful. Model: %s", l.modelPath)
	}
	return result
}

// Cleanup resets the cached binary lookup.
func (l *LlamaCpp) Cleanup() {
	l.resolved = ""
	l.state = loadPending
	l.loadErr = ""
}
