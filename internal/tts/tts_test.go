package tts

import (
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"reclaim/internal/config"
	"reclaim/internal/provider"
)

// writeWAV writes a minimal PCM WAV file with the given byte rate and
// data size in the header.
func writeWAV(t *testing.T, path string, byteRate, dataSize uint32) {
	t.Helper()
	header := make([]byte, 44)
	copy(header[0:4], "RIFF")
	copy(header[8:12], "WAVE")
	copy(header[12:16], "fmt ")
	binary.LittleEndian.PutUint32(header[28:32], byteRate)
	copy(header[36:40], "data")
	binary.LittleEndian.PutUint32(header[40:44], dataSize)
	if err := os.WriteFile(path, append(header, make([]byte, 64)...), 0644); err != nil {
		t.Fatalf("writing wav: %v", err)
	}
}

func TestWavDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.wav")
	// 44100 Hz * 2 bytes mono = 88200 bytes/sec; 3 seconds of data.
	writeWAV(t, path, 88200, 264600)

	d, err := wavDuration(path)
	if err != nil {
		t.Fatalf("wavDuration failed: %v", err)
	}
	if d != 3*time.Second {
		t.Errorf("duration = %v, want 3s", d)
	}
}

func TestWavDurationRejectsNonWav(t *testing.T) {
	path := filepath.Join(t.TempDir(), "not.wav")
	if err := os.WriteFile(path, []byte("this is not audio at all, just text padding to 44+ bytes....."), 0644); err != nil {
		t.Fatalf("writing file: %v", err)
	}
	if _, err := wavDuration(path); err == nil {
		t.Error("expected error for non-WAV file")
	}
}

func TestWavDurationZeroByteRate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zero.wav")
	writeWAV(t, path, 0, 1000)
	if _, err := wavDuration(path); err == nil {
		t.Error("expected error for zero byte rate")
	}
}

func TestEstimateSpokenMinutes(t *testing.T) {
	tests := []struct {
		words int
		want  int
	}{
		{0, 0},
		{149, 0},
		{150, 1},
		{750, 5},
	}
	for _, tt := range tests {
		text := strings.TrimSpace(strings.Repeat("word ", tt.words))
		if got := EstimateSpokenMinutes(text); got != tt.want {
			t.Errorf("EstimateSpokenMinutes(%d words) = %d, want %d", tt.words, got, tt.want)
		}
	}
}

// stubSpeech is a scriptable provider for manager tests.
type stubSpeech struct {
	name       string
	configured bool
	calls      int
}

func (s *stubSpeech) Synthesize(ctx context.Context, text, outputPath string) Result {
	s.calls++
	if !s.configured {
		return Failed("stub not configured")
	}
	return Result{Status: StatusSuccess, OutputFile: outputPath}
}

func (s *stubSpeech) IsConfigured() bool                        { return s.configured }
func (s *stubSpeech) TestConnection(ctx context.Context) Result { return Result{Status: StatusSuccess} }
func (s *stubSpeech) Name() string                              { return s.name }
func (s *stubSpeech) Cleanup()                                  {}

func registerSpeechStubs(t *testing.T) map[string]*stubSpeech {
	t.Helper()
	created := make(map[string]*stubSpeech)
	Register("stub", func(instanceName string, cfg provider.Settings) Provider {
		p := &stubSpeech{name: instanceName, configured: cfg.Bool("configured", false)}
		created[instanceName] = p
		return p
	})
	return created
}

func speechInstance(name string, configured bool) config.ProviderInstance {
	return config.ProviderInstance{
		Name:    name,
		Type:    "stub",
		Enabled: true,
		Config:  map[string]any{"configured": configured},
	}
}

func TestManagerAutoSelect(t *testing.T) {
	stubs := registerSpeechStubs(t)

	m := NewManager([]config.ProviderInstance{
		speechInstance("local", false),
		speechInstance("cloud", true),
	})

	result := m.Synthesize(context.Background(), "read this aloud", "/tmp/out.wav", "")
	if !result.OK() {
		t.Fatalf("Synthesize failed: %s", result.ErrorDetails)
	}
	if stubs["local"].calls != 0 || stubs["cloud"].calls != 1 {
		t.Errorf("unexpected call counts: local=%d cloud=%d", stubs["local"].calls, stubs["cloud"].calls)
	}
}

func TestManagerEmptyText(t *testing.T) {
	stubs := registerSpeechStubs(t)

	m := NewManager([]config.ProviderInstance{speechInstance("cloud", true)})

	result := m.Synthesize(context.Background(), "  \n ", "/tmp/out.wav", "cloud")
	if result.Status != StatusFailed {
		t.Errorf("expected failure for empty text, got %v", result.Status)
	}
	if stubs["cloud"].calls != 0 {
		t.Error("provider was called despite empty text")
	}
}

func TestManagerUnknownAndUnconfiguredInstance(t *testing.T) {
	registerSpeechStubs(t)

	m := NewManager([]config.ProviderInstance{
		speechInstance("cloud", true),
		speechInstance("broken", false),
	})

	if result := m.Synthesize(context.Background(), "text", "/tmp/out.wav", "ghost"); result.Status != StatusFailed {
		t.Errorf("expected failure for unknown instance, got %v", result.Status)
	}
	if result := m.Synthesize(context.Background(), "text", "/tmp/out.wav", "broken"); result.Status != StatusFailed {
		t.Errorf("expected failure for unconfigured instance, got %v", result.Status)
	}
}
