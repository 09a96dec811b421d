package handlers

import (
	"fmt"

	"reclaim/internal/cache"
	"reclaim/internal/config"
	"reclaim/internal/llm"
	"reclaim/internal/notify"
	"reclaim/internal/store"
	"reclaim/internal/summary"
	"reclaim/internal/tts"
	"reclaim/internal/youtube"
)

// App bundles the wired services behind the CLI commands. Each command
// builds one, uses it, and closes it.
type App struct {
	Config  *config.Config
	Store   *store.Store
	Cache   *cache.Cache
	LLM     *llm.Manager
	TTS     *tts.Manager
	Notify  *notify.Manager
	YouTube *youtube.Service
	Summary *summary.Service
}

// newApp wires the full service graph from the loaded configuration.
func newApp() (*App, error) {
	cfg := config.Get()

	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open video store: %w", err)
	}

	transcriptCache, err := cache.New(cfg.Platforms.YouTube.CacheDir)
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("failed to open transcript cache: %w", err)
	}

	llmManager := llm.NewManager(cfg.LLM.Providers)
	ttsManager := tts.NewManager(cfg.TTS.Providers)
	notifyManager := notify.NewManager(cfg.Notifications.Providers)

	ytService := youtube.NewService(cfg, youtube.NewClient(), st, transcriptCache)
	summaryService := summary.NewService(cfg, st, transcriptCache, llmManager, ttsManager, notifyManager, ytService)

	return &App{
		Config:  cfg,
		Store:   st,
		Cache:   transcriptCache,
		LLM:     llmManager,
		TTS:     ttsManager,
		Notify:  notifyManager,
		YouTube: ytService,
		Summary: summaryService,
	}, nil
}

// Close releases the store and provider resources.
func (a *App) Close() {
	a.LLM.CleanupAll()
	a.TTS.CleanupAll()
	a.Notify.CleanupAll()
	_ = a.Store.Close()
}
