package youtube

import (
	"context"
	"fmt"

	"reclaim/internal/config"
	"reclaim/internal/logger"
	"reclaim/internal/store"
)

// TranscriptCache is the slice of the transcript cache the channel
// manager needs. The concrete implementation lives in internal/cache.
type TranscriptCache interface {
	Exists(channelFolder, videoID, title string) (path string, ok bool)
	Save(channelFolder, videoID, title string, t *Transcript) (string, error)
	LoadTranscript(channelFolder, videoID, title string) (*Transcript, string, error)
	TranscriptByPath(path string) (*Transcript, error)
}

// Per-video scrape outcomes.
const (
	OutcomeCached       = "cached"
	OutcomeNew          = "new_transcript"
	OutcomeNoTranscript = "no_transcript"
	OutcomeError        = "error"
)

// VideoOutcome is the scrape result for one video.
type VideoOutcome struct {
	VideoID        string
	Title          string
	URL            string
	Status         string
	TranscriptPath string
	Err            string
}

// ChannelResult tallies one channel's scrape pass.
type ChannelResult struct {
	ChannelName       string
	ChannelURL        string
	VideosFound       int
	NewTranscripts    int
	CachedTranscripts int
	NoTranscripts     int
	Errors            []string
	Videos            []VideoOutcome
}

// ScrapeResult aggregates a multi-channel scrape pass.
type ScrapeResult struct {
	TotalChannels     int
	ProcessedChannels int
	VideosFound       int
	NewTranscripts    int
	CachedTranscripts int
	TotalErrors       int
	Channels          []ChannelResult
}

// ChannelManager walks configured channels, fetches missing transcripts,
// and keeps the cache and store in sync. One misbehaving video or
// channel never aborts the rest of the pass.
type ChannelManager struct {
	cfg     *config.Config
	fetcher Fetcher
	store   *store.Store
	cache   TranscriptCache
}

// NewChannelManager wires the channel manager.
func NewChannelManager(cfg *config.Config, fetcher Fetcher, st *store.Store, cache TranscriptCache) *ChannelManager {
	return &ChannelManager{cfg: cfg, fetcher: fetcher, store: st, cache: cache}
}

// ProcessAllChannels scrapes every active channel. Channel failures are
// collected in the per-channel results, never propagated.
func (m *ChannelManager) ProcessAllChannels(ctx context.Context, force bool) *ScrapeResult {
	channels := m.cfg.ActiveChannels()
	result := &ScrapeResult{TotalChannels: len(channels)}

	for _, ch := range channels {
		chResult := m.ProcessChannel(ctx, ch, force)
		result.ProcessedChannels++
		result.VideosFound += chResult.VideosFound
		result.NewTranscripts += chResult.NewTranscripts
		result.CachedTranscripts += chResult.CachedTranscripts
		result.TotalErrors += len(chResult.Errors)
		result.Channels = append(result.Channels, *chResult)
	}

	logger.Info("Scrape pass complete",
		"channels", result.ProcessedChannels,
		"videos", result.VideosFound,
		"new", result.NewTranscripts,
		"cached", result.CachedTranscripts,
		"errors", result.TotalErrors)
	return result
}

// ProcessChannel scrapes one channel: list recent uploads, then fetch
// and persist whatever transcripts are not already cached.
func (m *ChannelManager) ProcessChannel(ctx context.Context, ch config.Channel, force bool) *ChannelResult {
	result := &ChannelResult{ChannelName: ch.Name, ChannelURL: ch.URL}

	maxVideos := ch.MaxVideos
	if maxVideos <= 0 {
		maxVideos = 5
	}

	videos, err := m.fetcher.LatestVideos(ctx, ch.URL, maxVideos)
	if err != nil {
		msg := fmt.Sprintf("failed to list videos for channel %s: %v", ch.Name, err)
		logger.Error("Channel listing failed", err, "channel", ch.Name)
		result.Errors = append(result.Errors, msg)
		return result
	}
	result.VideosFound = len(videos)

	for _, video := range videos {
		outcome := m.processVideo(ctx, ch, video, force)
		result.Videos = append(result.Videos, outcome)
		switch outcome.Status {
		case OutcomeNew:
			result.NewTranscripts++
		case OutcomeCached:
			result.CachedTranscripts++
		case OutcomeNoTranscript:
			result.NoTranscripts++
		case OutcomeError:
			result.Errors = append(result.Errors, outcome.Err)
		}
	}

	logger.Info("Processed channel",
		"channel", ch.Name,
		"videos", result.VideosFound,
		"new", result.NewTranscripts,
		"cached", result.CachedTranscripts,
		"errors", len(result.Errors))
	return result
}

func (m *ChannelManager) processVideo(ctx context.Context, ch config.Channel, video Video, force bool) VideoOutcome {
	outcome := VideoOutcome{VideoID: video.ID, Title: video.Title, URL: video.URL}
	folder := m.cfg.CacheFolderFor(ch)

	if !force {
		// The cache file is the skip signal; the upsert reconciles a DB
		// row that fell behind the cache, so both checks end up holding.
		if path, ok := m.cache.Exists(folder, video.ID, video.Title); ok {
			if err := m.upsertFromCache(ch, video, folder, path); err != nil {
				outcome.Status = OutcomeError
				outcome.Err = fmt.Sprintf("video %s: %v", video.ID, err)
				return outcome
			}
			outcome.Status = OutcomeCached
			outcome.TranscriptPath = path
			return outcome
		}
	}

	transcript, err := m.fetcher.VideoTranscript(ctx, video.URL, ch.Language)
	if err != nil {
		logger.Error("Transcript fetch failed", err, "video_id", video.ID)
		outcome.Status = OutcomeError
		outcome.Err = fmt.Sprintf("video %s: %v", video.ID, err)
		return outcome
	}

	// Cache misses too, so the next pass skips the video.
	cachePath, err := m.cache.Save(folder, video.ID, video.Title, transcript)
	if err != nil {
		outcome.Status = OutcomeError
		outcome.Err = fmt.Sprintf("video %s: %v", video.ID, err)
		return outcome
	}

	record := &store.Video{
		URL:         video.URL,
		VideoID:     video.ID,
		Title:       video.Title,
		ChannelName: ch.Name,
		ChannelURL:  ch.URL,
		FetchedAt:   video.FetchedAt,
	}
	if transcript.HasText() {
		record.TranscriptPath = cachePath
		record.Language = transcript.Metadata.Language
		record.SourceType = transcript.Metadata.SourceType
		record.TotalEntries = transcript.Metadata.TotalEntries
	}
	if err := m.store.UpsertVideo(record); err != nil {
		outcome.Status = OutcomeError
		outcome.Err = fmt.Sprintf("video %s: %v", video.ID, err)
		return outcome
	}

	if transcript.HasText() {
		outcome.Status = OutcomeNew
		outcome.TranscriptPath = cachePath
	} else {
		outcome.Status = OutcomeNoTranscript
	}
	return outcome
}

// upsertFromCache refreshes the DB row from an existing cache file.
func (m *ChannelManager) upsertFromCache(ch config.Channel, video Video, folder, path string) error {
	transcript, _, err := m.cache.LoadTranscript(folder, video.ID, video.Title)
	if err != nil {
		return err
	}

	record := &store.Video{
		URL:         video.URL,
		VideoID:     video.ID,
		Title:       video.Title,
		ChannelName: ch.Name,
		ChannelURL:  ch.URL,
		FetchedAt:   video.FetchedAt,
	}
	if transcript.HasText() {
		record.TranscriptPath = path
		record.Language = transcript.Metadata.Language
		record.SourceType = transcript.Metadata.SourceType
		record.TotalEntries = transcript.Metadata.TotalEntries
	}
	return m.store.UpsertVideo(record)
}
