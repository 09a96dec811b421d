package tts

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"reclaim/internal/provider"
)

func init() {
	Register("piper", NewPiper)
}

// Piper renders speech by piping text through the piper CLI with a local
// ONNX voice model. Piper requires the model and its JSON sidecar next
// to each other.
type Piper struct {
	instanceName string
	modelPath    string
	binaryPath   string
	speaker      int

	state    loadState
	resolved string
	loadErr  string
}

// NewPiper builds a piper provider from its settings block.
func NewPiper(instanceName string, cfg provider.Settings) Provider {
	return &Piper{
		instanceName: instanceName,
		modelPath:    cfg.String("model_path", ""),
		binaryPath:   cfg.String("binary_path", "piper"),
		speaker:      cfg.Int("speaker", 0),
	}
}

// Name returns the display name including the instance name.
func (p *Piper) Name() string {
	return fmt.Sprintf("Piper (%s)", p.instanceName)
}

// IsConfigured requires an .onnx model with its .onnx.json sidecar, both
// present on disk.
func (p *Piper) IsConfigured() bool {
	path := strings.TrimSpace(p.modelPath)
	if path == "" || !strings.HasSuffix(path, ".onnx") {
		return false
	}
	if _, err := os.Stat(path); err != nil {
		return false
	}
	_, err := os.Stat(path + ".json")
	return err == nil
}

func (p *Piper) ensureBinary() error {
	switch p.state {
	case loadReady:
		return nil
	case loadFailed:
		return fmt.Errorf("piper binary unavailable: %s", p.loadErr)
	}

	resolved, err := exec.LookPath(p.binaryPath)
	if err != nil {
		p.state = loadFailed
		p.loadErr = err.Error()
		return fmt.Errorf("piper binary %q not found: %w", p.binaryPath, err)
	}
	p.resolved = resolved
	p.state = loadReady
	return nil
}

// Synthesize writes a WAV file by running piper with the text on stdin.
func (p *Piper) Synthesize(ctx context.Context, text, outputPath string) Result {
	if !p.IsConfigured() {
		return Failed("piper provider is not configured: model_path missing or sidecar .onnx.json absent")
	}
	if strings.TrimSpace(text) == "" {
		return Failed("text cannot be empty")
	}
	if err := p.ensureBinary(); err != nil {
		return Failed(err.Error())
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return Failed(fmt.Sprintf("failed to create output directory: %v", err))
	}

	args := []string{
		"--model", p.modelPath,
		"--output_file", outputPath,
	}
	if p.speaker > 0 {
		args = append(args, "--speaker", fmt.Sprintf("%d", p.speaker))
	}

	cmd := exec.CommandContext(ctx, p.resolved, args...)
	cmd.Stdin = strings.NewReader(text)
	var stderr bytes.Buffer
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
			ErrorDetails:   fmt.Sprintf("piper run failed: %s", detail),
			GenerationTime: elapsed,
		}
	}
	if _, err := os.Stat(outputPath); err != nil {
		return Result{
			Status:         StatusFailed,
			ErrorDetails:   fmt.Sprintf("piper produced no output file: %v", err),
			GenerationTime: elapsed,
		}
	}

	duration, err := wavDuration(outputPath)
	if err != nil {
		duration = 0
	}

	return Result{
		Status:         StatusSuccess,
		OutputFile:     outputPath,
		AudioDuration:  duration,
		GenerationTime: elapsed,
		ProviderResponse: map[string]any{
			"model_path": p.modelPath,
			"binary":     p.resolved,
		},
	}
}

// TestConnection verifies the binary and model, then renders a short
// sample into a temp file.
func (p *Piper) TestConnection(ctx context.Context) Result {
	if !p.IsConfigured() {
		return Failed("piper provider is not configured")
	}
	if err := p.ensureBinary(); err != nil {
		return Failed(err.Error())
	}

	tmp := filepath.Join(os.TempDir(), fmt.Sprintf("piper_test_%d.wav", time.Now().UnixNano()))
	defer func() { _ = os.Remove(tmp) }()

	result := p.Synthesize(ctx, "Test.", tmp)
	if result.OK() {
		result.OutputFile = ""
		result.ProviderResponse["note"] = fmt.Sprintf("Connection successful. Model: %s", p.modelPath)
	}
	return result
}

// Cleanup resets the cached binary lookup.
func (p *Piper) Cleanup() {
	p.resolved = ""
	p.state = loadPending
	p.loadErr = ""
}

// wavDuration reads the RIFF header of a PCM WAV file and computes its
// play time from the data size and byte rate.
func wavDuration(path string) (time.Duration, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer func() { _ = f.Close() }()

	header := make([]byte, 44)
	if _, err := f.Read(header); err != nil {
		return 0, fmt.Errorf("failed to read WAV header: %w", err)
	}
	if string(header[0:4]) != "RIFF" || string(header[8:12]) != "WAVE" {
		return 0, fmt.Errorf("not a RIFF/WAVE file")
	}

	byteRate := binary.LittleEndian.Uint32(header[28:32])
	dataSize := binary.LittleEndian.Uint32(header[40:44])
	if byteRate == 0 {
		return 0, fmt.Errorf("invalid byte rate")
	}

	seconds := float64(dataSize) / float64(byteRate)
	return time.Duration(seconds * float64(time.Second)), nil
}
