package youtube

import (
	"context"
	"fmt"

	"reclaim/internal/config"
	"reclaim/internal/logger"
	"reclaim/internal/store"
)

// manualFolder holds transcripts requested for ad-hoc URLs that do not
// belong to a configured channel.
const manualFolder = "manual"

// Service is the high-level YouTube facade used by the CLI and the
// summary pipeline.
type Service struct {
	cfg      *config.Config
	fetcher  Fetcher
	store    *store.Store
	cache    TranscriptCache
	channels *ChannelManager
}

// NewService wires the service and its channel manager.
func NewService(cfg *config.Config, fetcher Fetcher, st *store.Store, cache TranscriptCache) *Service {
	return &Service{
		cfg:      cfg,
		fetcher:  fetcher,
		store:    st,
		cache:    cache,
		channels: NewChannelManager(cfg, fetcher, st, cache),
	}
}

// ScrapeAllChannels runs a scrape pass over every active channel.
func (s *Service) ScrapeAllChannels(ctx context.Context, force bool) *ScrapeResult {
	return s.channels.ProcessAllChannels(ctx, force)
}

// ScrapeChannel runs a scrape pass for one configured channel by name.
func (s *Service) ScrapeChannel(ctx context.Context, name string, force bool) (*ChannelResult, error) {
	ch, ok := s.cfg.ChannelByName(name)
	if !ok {
		return nil, fmt.Errorf("channel %q is not configured", name)
	}
	if !ch.Scrape || ch.URL == "" {
		return nil, fmt.Errorf("channel %q is not enabled for scraping", name)
	}
	return s.channels.ProcessChannel(ctx, ch, force), nil
}

// VideoTranscript fetches the transcript for an arbitrary video URL,
// serving from cache when possible and persisting the result. Videos
// outside configured channels go under the manual cache folder.
func (s *Service) VideoTranscript(ctx context.Context, videoURL, language string) (*Transcript, error) {
	videoID := ExtractVideoID(videoURL)
	if videoID == "" {
		return nil, fmt.Errorf("could not extract video id from %s", videoURL)
	}
	url := WatchURL(videoID)

	record, err := s.store.GetVideoByURL(url)
	if err != nil {
		return nil, err
	}
	if record != nil && record.HasTranscript() {
		transcript, err := s.cache.TranscriptByPath(record.TranscriptPath)
		if err == nil && transcript.HasText() {
			logger.Debug("Serving transcript from cache", "video_id", videoID)
			return transcript, nil
		}
		// Cache file drifted from the DB row; fall through and refetch.
		logger.Warn("Cached transcript unreadable, refetching", "video_id", videoID, "path", record.TranscriptPath)
	}

	transcript, err := s.fetcher.VideoTranscript(ctx, url, language)
	if err != nil {
		return nil, err
	}

	channelName := manualFolder
	channelURL := ""
	folder := manualFolder
	if record != nil && record.ChannelName != "" && record.ChannelName != manualFolder {
		channelName = record.ChannelName
		channelURL = record.ChannelURL
		if ch, ok := s.cfg.ChannelByURL(record.ChannelURL); ok {
			folder = s.cfg.CacheFolderFor(ch)
		}
	}

	title := transcript.Metadata.Title
	if title == "" {
		title = videoID
	}

	cachePath, err := s.cache.Save(folder, videoID, title, transcript)
	if err != nil {
		return nil, err
	}

	rec := &store.Video{
		URL:         url,
		VideoID:     videoID,
		Title:       title,
		ChannelName: channelName,
		ChannelURL:  channelURL,
	}
	if transcript.HasText() {
		rec.TranscriptPath = cachePath
		rec.Language = transcript.Metadata.Language
		rec.SourceType = transcript.Metadata.SourceType
		rec.TotalEntries = transcript.Metadata.TotalEntries
	}
	if err := s.store.UpsertVideo(rec); err != nil {
		return nil, err
	}

	return transcript, nil
}

// MarkVideoProcessed flags a video as consumed by an LLM pass.
func (s *Service) MarkVideoProcessed(url string) error {
	return s.store.MarkLLMProcessed(url)
}

// UnprocessedVideos lists transcribed videos not yet consumed by an LLM
// pass.
func (s *Service) UnprocessedVideos(limit int) ([]*store.Video, error) {
	return s.store.UnprocessedVideos(limit)
}
