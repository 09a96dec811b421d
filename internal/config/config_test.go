package config

import (
	"os"
	"path/filepath"
	"testing"
)

const testYAML = `
app:
  data_dir: /tmp/reclaim-test

logging:
  level: debug

platforms:
  youtube:
    enabled: true
    cache_dir: /tmp/reclaim-test/transcripts
    channels:
      - name: gocast
        scrap: true
        url: https://www.youtube.com/@gocast
        max_videos: 3
        language: en
        summary:
          enabled: true
          llm_provider: gemini-main
          system_prompt: "Summarize briefly."
      - name: quiet
        scrap: false
        url: https://www.youtube.com/@quiet
      - name: nourl
        scrap: true

llm:
  providers:
    - name: gemini-main
      type: gemini
      enabled: true
      config:
        api_key: AIzaFakeKey
        model: gemini-2.0-flash
    - name: fallback
      type: openai
      enabled: false
      config:
        api_key: sk-fake

tts:
  providers:
    - name: local
      type: piper
      enabled: true
      config:
        model_path: /models/voice.onnx

notifications:
  providers:
    - name: tg
      type: telegram
      enabled: true
      config:
        bot_token: "123:abc"
        chat_id: "42"

summary:
  audio_max_age_hours: 12
  notify_on_success: false
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "reclaim.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoadFromFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, testYAML))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Logging.Level != "debug" {
		t.Errorf("logging level = %q", cfg.Logging.Level)
	}
	if len(cfg.Platforms.YouTube.Channels) != 3 {
		t.Fatalf("expected 3 channels, got %d", len(cfg.Platforms.YouTube.Channels))
	}

	ch := cfg.Platforms.YouTube.Channels[0]
	if ch.Name != "gocast" || !ch.Scrape || ch.MaxVideos != 3 {
		t.Errorf("unexpected channel: %+v", ch)
	}
	if !ch.Summary.Enabled || ch.Summary.LLMProvider != "gemini-main" {
		t.Errorf("unexpected channel summary: %+v", ch.Summary)
	}
	if ch.Summary.SystemPrompt != "Summarize briefly." {
		t.Errorf("system prompt = %q", ch.Summary.SystemPrompt)
	}

	if len(cfg.LLM.Providers) != 2 {
		t.Fatalf("expected 2 llm providers, got %d", len(cfg.LLM.Providers))
	}
	p := cfg.LLM.Providers[0]
	if p.Name != "gemini-main" || p.Type != "gemini" || !p.Enabled {
		t.Errorf("unexpected provider: %+v", p)
	}
	if p.Config["api_key"] != "AIzaFakeKey" {
		t.Errorf("provider config not carried verbatim: %v", p.Config)
	}

	if cfg.Summary.AudioMaxAgeHrs != 12 {
		t.Errorf("audio max age = %d", cfg.Summary.AudioMaxAgeHrs)
	}
	if cfg.Summary.NotifyOnSuccess {
		t.Error("notify_on_success should be false")
	}
	// Unset keys keep their defaults.
	if cfg.Summary.AudioDir == "" || cfg.Summary.TextDir == "" {
		t.Error("summary directories should default")
	}
	if cfg.Database.Path == "" {
		t.Error("database path should default")
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing explicit config file")
	}
}

func TestChannelFilters(t *testing.T) {
	cfg, err := Load(writeConfig(t, testYAML))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	active := cfg.ActiveChannels()
	if len(active) != 1 || active[0].Name != "gocast" {
		t.Errorf("unexpected active channels: %+v", active)
	}

	summarized := cfg.SummaryEnabledChannels()
	if len(summarized) != 1 || summarized[0].Name != "gocast" {
		t.Errorf("unexpected summary channels: %+v", summarized)
	}

	if _, ok := cfg.ChannelByName("quiet"); !ok {
		t.Error("ChannelByName missed quiet")
	}
	if _, ok := cfg.ChannelByName("ghost"); ok {
		t.Error("ChannelByName found a channel that does not exist")
	}
	if ch, ok := cfg.ChannelByURL("https://www.youtube.com/@gocast"); !ok || ch.Name != "gocast" {
		t.Errorf("ChannelByURL = %+v, %v", ch, ok)
	}
}

func TestCacheFolderFor(t *testing.T) {
	cfg := &Config{}
	cfg.Platforms.YouTube.CacheDir = "/data/transcripts"

	if got := cfg.CacheFolderFor(Channel{Name: "gocast"}); got != filepath.Join("/data/transcripts", "gocast") {
		t.Errorf("default cache folder = %q", got)
	}
	if got := cfg.CacheFolderFor(Channel{Name: "gocast", CacheFolder: "/elsewhere"}); got != "/elsewhere" {
		t.Errorf("explicit cache folder = %q", got)
	}
}

func TestValidateDuplicateProviderNames(t *testing.T) {
	yaml := `
llm:
  providers:
    - name: same
      type: gemini
      enabled: true
    - name: same
      type: openai
      enabled: true
`
	if _, err := Load(writeConfig(t, yaml)); err == nil {
		t.Error("expected duplicate provider name to fail validation")
	}
}

func TestValidateUnnamedProvider(t *testing.T) {
	yaml := `
tts:
  providers:
    - type: piper
      enabled: true
`
	if _, err := Load(writeConfig(t, yaml)); err == nil {
		t.Error("expected unnamed provider to fail validation")
	}
}

func TestValidateDuplicateChannelNames(t *testing.T) {
	yaml := `
platforms:
  youtube:
    channels:
      - name: twin
        url: https://www.youtube.com/@a
      - name: twin
        url: https://www.youtube.com/@b
`
	if _, err := Load(writeConfig(t, yaml)); err == nil {
		t.Error("expected duplicate channel name to fail validation")
	}
}
