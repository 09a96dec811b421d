package youtube

import (
	"context"
	"testing"

	"reclaim/internal/config"
)

func TestVideoTranscriptManualFolder(t *testing.T) {
	videoID := "aaaaaaaaaaa"
	fetcher := &stubFetcher{
		transcripts: map[string]*Transcript{
			WatchURL(videoID): {
				Text:     "manual fetch words",
				Metadata: Metadata{VideoID: videoID, Title: "Ad Hoc", Language: "en", SourceType: SourceManual},
			},
		},
	}
	st := newScrapeStore(t)
	cache := newMemCache()
	svc := NewService(scrapeConfig(), fetcher, st, cache)

	// A messy URL still resolves to the canonical record.
	transcript, err := svc.VideoTranscript(context.Background(), "https://youtu.be/"+videoID+"?t=10", "en")
	if err != nil {
		t.Fatalf("VideoTranscript failed: %v", err)
	}
	if !transcript.HasText() {
		t.Fatal("expected transcript text")
	}

	video, err := st.GetVideoByURL(WatchURL(videoID))
	if err != nil || video == nil {
		t.Fatalf("video not persisted: %v", err)
	}
	if video.ChannelName != "manual" {
		t.Errorf("channel name = %q, want manual", video.ChannelName)
	}
	if !video.HasTranscript() {
		t.Error("transcript path not recorded")
	}

	// A second call serves from the cache without refetching.
	if _, err := svc.VideoTranscript(context.Background(), WatchURL(videoID), "en"); err != nil {
		t.Fatalf("cached fetch failed: %v", err)
	}
	if fetcher.fetches != 1 {
		t.Errorf("expected 1 fetch, got %d", fetcher.fetches)
	}
}

func TestVideoTranscriptRejectsBadURL(t *testing.T) {
	svc := NewService(scrapeConfig(), &stubFetcher{}, newScrapeStore(t), newMemCache())
	if _, err := svc.VideoTranscript(context.Background(), "https://example.com/watch", "en"); err == nil {
		t.Error("expected error for URL without a video id")
	}
}

func TestScrapeChannelValidation(t *testing.T) {
	cfg := scrapeConfig(
		config.Channel{Name: "disabled", Scrape: false, URL: "https://www.youtube.com/@disabled"},
	)
	svc := NewService(cfg, &stubFetcher{}, newScrapeStore(t), newMemCache())

	if _, err := svc.ScrapeChannel(context.Background(), "ghost", false); err == nil {
		t.Error("expected error for unknown channel")
	}
	if _, err := svc.ScrapeChannel(context.Background(), "disabled", false); err == nil {
		t.Error("expected error for scrape-disabled channel")
	}
}
