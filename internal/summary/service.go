// Package summary runs the transcript-to-audio pipeline: LLM
// summarization, text artifact, TTS synthesis, notification, and state
// tracking.
package summary

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"reclaim/internal/config"
	"reclaim/internal/llm"
	"reclaim/internal/logger"
	"reclaim/internal/notify"
	"reclaim/internal/store"
	"reclaim/internal/tts"
	"reclaim/internal/youtube"
)

// DefaultSystemPrompt is the podcast-style prompt used when a channel
// does not configure its own.
const DefaultSystemPrompt = `You are a podcast host creating an engaging audio summary of a YouTube video transcript.

Your task:
1. Convert the transcript into a conversational, easy-to-listen format
2. Focus on the key insights, main points, and takeaways
3. Make it sound natural for audio playback (use conversational language)
4. Keep it concise but informative (aim for 3-5 minutes when spoken)
5. Start with a brief intro mentioning the video title
6. End with a conclusion summarizing the main value

Style: Conversational, engaging, podcast-like
Tone: Friendly but informative
Length: 500-800 words (approximately 3-5 minutes of audio)

Important: Output ONLY the summary text, no meta-commentary or explanations.`

// LLMClient is the slice of the LLM manager the pipeline uses.
type LLMClient interface {
	Generate(ctx context.Context, userPrompt, instanceName, systemPrompt string, opts llm.Options) llm.Result
}

// SpeechClient is the slice of the TTS manager the pipeline uses.
type SpeechClient interface {
	Synthesize(ctx context.Context, text, outputPath, instanceName string) tts.Result
}

// Notifier is the slice of the notification manager the pipeline uses.
type Notifier interface {
	Send(ctx context.Context, message, audioPath, instanceName string) notify.Result
}

// TranscriptLoader reads cached transcripts by path.
type TranscriptLoader interface {
	TranscriptByPath(path string) (*youtube.Transcript, error)
}

// Scraper refreshes channel transcripts before a summary pass.
type Scraper interface {
	ScrapeAllChannels(ctx context.Context, force bool) *youtube.ScrapeResult
	ScrapeChannel(ctx context.Context, name string, force bool) (*youtube.ChannelResult, error)
}

// VideoResult is the outcome of one video's pipeline run.
type VideoResult struct {
	Success       bool
	Skipped       bool
	Error         string
	VideoTitle    string
	SummaryLength int
	AudioPath     string
	TextPath      string
}

// ChannelTally tallies one channel's batch.
type ChannelTally struct {
	ChannelName string
	Processed   int
	Failed      int
	Skipped     int
}

// BatchResult aggregates a multi-channel summary pass.
type BatchResult struct {
	Processed int
	Failed    int
	Skipped   int
	Channels  []ChannelTally
	Err       string
}

// Service drives the summary pipeline over stored videos.
type Service struct {
	cfg      *config.Config
	store    *store.Store
	cache    TranscriptLoader
	llm      LLMClient
	tts      SpeechClient
	notifier Notifier
	scraper  Scraper
	audioDir string
	textDir  string
}

// NewService wires the pipeline. scraper may be nil; scrape-first
// requests are then skipped.
func NewService(cfg *config.Config, st *store.Store, cache TranscriptLoader, llmClient LLMClient, speech SpeechClient, notifier Notifier, scraper Scraper) *Service {
	return &Service{
		cfg:      cfg,
		store:    st,
		cache:    cache,
		llm:      llmClient,
		tts:      speech,
		notifier: notifier,
		scraper:  scraper,
		audioDir: cfg.Summary.AudioDir,
		textDir:  cfg.Summary.TextDir,
	}
}

// ProcessVideoSummary runs the full pipeline for one stored video:
// LLM summary, text artifact, TTS audio, notification, then the DB
// success mark. LLM and TTS failures record a summary error and stop;
// the text artifact and the notification are best-effort.
func (s *Service) ProcessVideoSummary(ctx context.Context, videoURL string, summaryCfg *config.ChannelSummary) VideoResult {
	logger.Info("Processing video summary", "url", videoURL)

	video, err := s.store.GetVideoByURL(videoURL)
	if err != nil {
		return s.fail(videoURL, fmt.Sprintf("failed to load video record: %v", err))
	}
	if video == nil {
		return VideoResult{Error: "video not found in database"}
	}
	if !video.HasTranscript() {
		return VideoResult{Skipped: true, Error: "no transcript available"}
	}

	transcript, err := s.cache.TranscriptByPath(video.TranscriptPath)
	if err != nil || !transcript.HasText() {
		detail := "failed to load transcript"
		if err != nil {
			detail = fmt.Sprintf("failed to load transcript: %v", err)
		}
		return s.fail(videoURL, detail)
	}

	var cfg config.ChannelSummary
	if summaryCfg != nil {
		cfg = *summaryCfg
	}
	systemPrompt := cfg.SystemPrompt
	if strings.TrimSpace(systemPrompt) == "" {
		systemPrompt = DefaultSystemPrompt
	}

	runID := uuid.NewString()

	// Stage 1: LLM summary
	logger.Info("Generating summary", "title", video.Title, "run_id", runID)
	llmResult := s.llm.Generate(ctx, transcript.Text, cfg.LLMProvider, systemPrompt, llm.Options{})
	if !llmResult.OK() {
		return s.fail(videoURL, fmt.Sprintf("LLM generation failed: %s", llmResult.ErrorDetails))
	}
	summaryText := llmResult.Response

	// Stage 2: text artifact, best-effort
	timestamp := time.Now().Format("20060102_150405")
	textPath := filepath.Join(s.textDir, fmt.Sprintf("summary_%s_%s.txt", video.VideoID, timestamp))
	if err := s.writeTextArtifact(textPath, video, runID, summaryText); err != nil {
		logger.Warn("Failed to save summary text file", "path", textPath, "error", err.Error())
		textPath = ""
	}

	// Stage 3: TTS audio
	audioPath := filepath.Join(s.audioDir, fmt.Sprintf("summary_%s_%s.wav", video.VideoID, timestamp))
	logger.Info("Converting summary to audio", "output", audioPath)
	ttsResult := s.tts.Synthesize(ctx, summaryText, audioPath, cfg.TTSProvider)
	if !ttsResult.OK() {
		return s.fail(videoURL, fmt.Sprintf("TTS conversion failed: %s", ttsResult.ErrorDetails))
	}
	audioPath = ttsResult.OutputFile

	// Stage 4: notification, non-fatal
	if s.cfg.Summary.NotifyOnSuccess && s.notifier != nil {
		message := notificationMessage(video, summaryText)
		notifyResult := s.notifier.Send(ctx, message, audioPath, cfg.NotificationProvider)
		if !notifyResult.OK() {
			logger.Warn("Notification failed", "url", videoURL, "error", notifyResult.ErrorDetails)
		}
	}

	// Stage 5: success mark
	if err := s.store.MarkSummaryProcessed(videoURL, summaryText, audioPath); err != nil {
		return s.fail(videoURL, fmt.Sprintf("failed to record summary completion: %v", err))
	}

	logger.Info("Summary processing completed", "title", video.Title, "text", textPath, "audio", audioPath)
	return VideoResult{
		Success:       true,
		VideoTitle:    video.Title,
		SummaryLength: len(summaryText),
		AudioPath:     audioPath,
		TextPath:      textPath,
	}
}

func (s *Service) fail(videoURL, detail string) VideoResult {
	if err := s.store.MarkSummaryError(videoURL, detail); err != nil {
		logger.Error("Failed to record summary error", err, "url", videoURL)
	}
	return VideoResult{Error: detail}
}

func (s *Service) writeTextArtifact(path string, video *store.Video, runID, summaryText string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Video Title: %s\n", video.Title)
	fmt.Fprintf(&b, "Video URL: %s\n", video.URL)
	fmt.Fprintf(&b, "Channel: %s\n", video.ChannelName)
	fmt.Fprintf(&b, "Generated: %s\n", time.Now().Format(time.RFC3339))
	fmt.Fprintf(&b, "Run: %s\n", runID)
	fmt.Fprintf(&b, "\n%s\n\n", strings.Repeat("=", 80))
	b.WriteString(summaryText)

	return os.WriteFile(path, []byte(b.String()), 0644)
}

// notificationMessage formats the delivery text with an estimated
// listen time at about 150 spoken words per minute.
func notificationMessage(video *store.Video, summaryText string) string {
	minutes := len(strings.Fields(summaryText)) / 150
	return fmt.Sprintf("🎥 New Video Summary: %s\n\nChannel: %s\nDuration: ~%d minutes\n\n[Audio file attached]",
		video.Title, video.ChannelName, minutes)
}

// ProcessChannelSummaries summarizes pending videos for one channel, or
// for every summary-enabled channel when channelName is empty. With
// scrapeFirst set it runs a scrape pass first; scrape failures only log.
func (s *Service) ProcessChannelSummaries(ctx context.Context, channelName string, limit int, force, scrapeFirst bool) BatchResult {
	logger.Info("Starting summary processing", "channel", orAll(channelName))

	if scrapeFirst && s.scraper != nil {
		if channelName != "" {
			if _, err := s.scraper.ScrapeChannel(ctx, channelName, force); err != nil {
				logger.Warn("Scrape before summarizing failed", "channel", channelName, "error", err.Error())
			}
		} else {
			s.scraper.ScrapeAllChannels(ctx, force)
		}
	}

	var channels []config.Channel
	if channelName != "" {
		ch, ok := s.cfg.ChannelByName(channelName)
		if !ok || !ch.Summary.Enabled {
			return BatchResult{Err: fmt.Sprintf("channel %q not found or summary not enabled", channelName)}
		}
		channels = []config.Channel{ch}
	} else {
		channels = s.cfg.SummaryEnabledChannels()
		if len(channels) == 0 {
			return BatchResult{Err: "no channels with summary enabled"}
		}
	}

	if limit <= 0 {
		limit = 50
	}

	result := BatchResult{}
	for _, ch := range channels {
		tally := ChannelTally{ChannelName: ch.Name}

		videos, err := s.store.UnsummarizedVideos(ch.URL, limit)
		if err != nil {
			logger.Error("Failed to list unsummarized videos", err, "channel", ch.Name)
			result.Channels = append(result.Channels, tally)
			continue
		}
		if len(videos) == 0 {
			logger.Info("No unsummarized videos", "channel", ch.Name)
			result.Channels = append(result.Channels, tally)
			continue
		}

		summaryCfg := ch.Summary
		for _, video := range videos {
			r := s.ProcessVideoSummary(ctx, video.URL, &summaryCfg)
			switch {
			case r.Success:
				tally.Processed++
			case r.Skipped:
				tally.Skipped++
			default:
				tally.Failed++
			}
		}

		result.Processed += tally.Processed
		result.Failed += tally.Failed
		result.Skipped += tally.Skipped
		result.Channels = append(result.Channels, tally)
	}

	logger.Info("Summary processing completed",
		"processed", result.Processed, "failed", result.Failed, "skipped", result.Skipped)
	return result
}

func orAll(name string) string {
	if name == "" {
		return "all enabled channels"
	}
	return name
}

// RetryFailedSummaries re-runs the full pipeline for videos whose last
// attempt recorded an error, using each video's channel summary config.
func (s *Service) RetryFailedSummaries(ctx context.Context, limit int) BatchResult {
	logger.Info("Retrying failed summaries")

	if limit <= 0 {
		limit = 50
	}
	videos, err := s.store.FailedSummaries(limit)
	if err != nil {
		return BatchResult{Err: fmt.Sprintf("failed to list failed summaries: %v", err)}
	}
	if len(videos) == 0 {
		return BatchResult{}
	}

	result := BatchResult{}
	for _, video := range videos {
		var summaryCfg *config.ChannelSummary
		if ch, ok := s.cfg.ChannelByURL(video.ChannelURL); ok {
			cfg := ch.Summary
			summaryCfg = &cfg
		}

		r := s.ProcessVideoSummary(ctx, video.URL, summaryCfg)
		if r.Success {
			result.Processed++
		} else {
			result.Failed++
		}
	}

	logger.Info("Retry completed", "processed", result.Processed, "failed", result.Failed)
	return result
}

// CleanupAudioFiles removes WAV files in the audio directory older than
// maxAge, returning how many were deleted. Files are judged by
// modification time only.
func (s *Service) CleanupAudioFiles(maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(s.audioDir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read audio directory: %w", err)
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".wav") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			path := filepath.Join(s.audioDir, entry.Name())
			if err := os.Remove(path); err != nil {
				logger.Warn("Failed to remove audio file", "path", path, "error", err.Error())
				continue
			}
			removed++
			logger.Debug("Removed old audio file", "path", path)
		}
	}

	logger.Info("Audio cleanup completed", "removed", removed)
	return removed, nil
}

// Stats returns summary pipeline counters from the store.
func (s *Service) Stats() (*store.SummaryStats, error) {
	return s.store.GetSummaryStats()
}
