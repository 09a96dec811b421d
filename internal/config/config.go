// Package config provides centralized configuration management for reclaim.
// Configuration is loaded from a YAML file (with .env and environment
// variable overrides) and exposed as typed structs.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the root configuration structure.
type Config struct {
	App           AppConfig      `mapstructure:"app"`
	Database      DatabaseConfig `mapstructure:"database"`
	Logging       LoggingConfig  `mapstructure:"logging"`
	Platforms     Platforms      `mapstructure:"platforms"`
	LLM           ProviderSet    `mapstructure:"llm"`
	TTS           ProviderSet    `mapstructure:"tts"`
	Notifications ProviderSet    `mapstructure:"notifications"`
	Summary       SummaryConfig  `mapstructure:"summary"`
}

// AppConfig holds application-level settings.
type AppConfig struct {
	DataDir    string `mapstructure:"data_dir"`
	ConfigFile string `mapstructure:"-"`
}

// DatabaseConfig holds SQLite settings.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// Platforms groups per-platform scraping configuration. YouTube is the
// only platform today; the nesting leaves room for more.
type Platforms struct {
	YouTube YouTubeConfig `mapstructure:"youtube"`
}

// YouTubeConfig holds the channel list and platform-wide toggles.
type YouTubeConfig struct {
	Enabled  bool      `mapstructure:"enabled"`
	CacheDir string    `mapstructure:"cache_dir"`
	Channels []Channel `mapstructure:"channels"`
}

// Channel is one configured YouTube channel.
type Channel struct {
	Name        string         `mapstructure:"name"`
	Scrape      bool           `mapstructure:"scrap"`
	URL         string         `mapstructure:"url"`
	MaxVideos   int            `mapstructure:"max_videos"`
	Language    string         `mapstructure:"language"`
	CacheFolder string         `mapstructure:"cache_folder"`
	Summary     ChannelSummary `mapstructure:"summary"`
}

// ChannelSummary selects the provider instances used when summarizing a
// channel's videos. Empty instance names mean auto-selection.
type ChannelSummary struct {
	Enabled              bool   `mapstructure:"enabled"`
	LLMProvider          string `mapstructure:"llm_provider"`
	TTSProvider          string `mapstructure:"tts_provider"`
	NotificationProvider string `mapstructure:"notification_provider"`
	SystemPrompt         string `mapstructure:"system_prompt"`
}

// ProviderSet is the configured provider instance list for one capability.
type ProviderSet struct {
	Providers []ProviderInstance `mapstructure:"providers"`
}

// ProviderInstance is one named, typed provider entry. Config carries the
// provider-specific settings verbatim.
type ProviderInstance struct {
	Name    string         `mapstructure:"name"`
	Type    string         `mapstructure:"type"`
	Enabled bool           `mapstructure:"enabled"`
	Config  map[string]any `mapstructure:"config"`
}

// SummaryConfig holds the pipeline output directories and cleanup policy.
type SummaryConfig struct {
	AudioDir        string `mapstructure:"audio_dir"`
	TextDir         string `mapstructure:"text_dir"`
	AudioMaxAgeHrs  int    `mapstructure:"audio_max_age_hours"`
	NotifyOnSuccess bool   `mapstructure:"notify_on_success"`
}

var globalConfig *Config

// Load loads configuration from file, environment variables, and defaults.
// Call once at startup; Get() returns the loaded config afterwards.
func Load(configFile string) (*Config, error) {
	// .env first so viper's AutomaticEnv sees its values
	_ = godotenv.Load()

	v := viper.New()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(".reclaim")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
	}

	v.SetEnvPrefix("RECLAIM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if configFile != "" {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// No config file is fine; defaults and env vars still apply.
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.App.ConfigFile = v.ConfigFileUsed()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	globalConfig = cfg
	return cfg, nil
}

// Get returns the loaded configuration, loading defaults if Load was
// never called.
func Get() *Config {
	if globalConfig == nil {
		cfg, err := Load("")
		if err != nil {
			// Fall back to pure defaults rather than crash
			v := viper.New()
			setDefaults(v)
			cfg = &Config{}
			_ = v.Unmarshal(cfg)
		}
		globalConfig = cfg
	}
	return globalConfig
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.data_dir", "cache_data")
	v.SetDefault("database.path", filepath.Join("cache_data", "youtube_videos.db"))
	v.SetDefault("logging.level", "info")
	v.SetDefault("platforms.youtube.enabled", true)
	v.SetDefault("platforms.youtube.cache_dir", filepath.Join("cache_data", "transcripts"))
	v.SetDefault("summary.audio_dir", filepath.Join("cache_data", "summaries", "audio"))
	v.SetDefault("summary.text_dir", filepath.Join("cache_data", "summaries", "text"))
	v.SetDefault("summary.audio_max_age_hours", 24)
	v.SetDefault("summary.notify_on_success", true)
}

// Validate checks structural rules the rest of the system depends on:
// provider instance names must be non-empty and unique per capability,
// and channels must have names.
func (c *Config) Validate() error {
	for capability, set := range map[string]ProviderSet{
		"llm":           c.LLM,
		"tts":           c.TTS,
		"notifications": c.Notifications,
	} {
		seen := make(map[string]bool)
		for _, inst := range set.Providers {
			if strings.TrimSpace(inst.Name) == "" {
				return fmt.Errorf("%s provider with type %q has no name", capability, inst.Type)
			}
			if strings.TrimSpace(inst.Type) == "" {
				return fmt.Errorf("%s provider %q has no type", capability, inst.Name)
			}
			if seen[inst.Name] {
				return fmt.Errorf("duplicate %s provider name %q", capability, inst.Name)
			}
			seen[inst.Name] = true
		}
	}

	seen := make(map[string]bool)
	for _, ch := range c.Platforms.YouTube.Channels {
		if strings.TrimSpace(ch.Name) == "" {
			return fmt.Errorf("youtube channel with url %q has no name", ch.URL)
		}
		if seen[ch.Name] {
			return fmt.Errorf("duplicate youtube channel name %q", ch.Name)
		}
		seen[ch.Name] = true
	}
	return nil
}

// ActiveChannels returns the channels enabled for scraping that have a URL.
func (c *Config) ActiveChannels() []Channel {
	var active []Channel
	for _, ch := range c.Platforms.YouTube.Channels {
		if ch.Scrape && ch.URL != "" {
			active = append(active, ch)
		}
	}
	return active
}

// SummaryEnabledChannels returns the channels with summarization turned on.
func (c *Config) SummaryEnabledChannels() []Channel {
	var enabled []Channel
	for _, ch := range c.Platforms.YouTube.Channels {
		if ch.Summary.Enabled {
			enabled = append(enabled, ch)
		}
	}
	return enabled
}

// ChannelByName returns the channel with the given name, or false.
func (c *Config) ChannelByName(name string) (Channel, bool) {
	for _, ch := range c.Platforms.YouTube.Channels {
		if ch.Name == name {
			return ch, true
		}
	}
	return Channel{}, false
}

// ChannelByURL returns the channel with the given URL, or false.
func (c *Config) ChannelByURL(url string) (Channel, bool) {
	for _, ch := range c.Platforms.YouTube.Channels {
		if ch.URL == url {
			return ch, true
		}
	}
	return Channel{}, false
}

// CacheFolderFor resolves the transcript cache folder for a channel,
// defaulting to a per-channel directory under the platform cache dir.
func (c *Config) CacheFolderFor(ch Channel) string {
	if ch.CacheFolder != "" {
		return ch.CacheFolder
	}
	return filepath.Join(c.Platforms.YouTube.CacheDir, ch.Name)
}
