// Package youtube lists channel uploads and fetches video transcripts.
// Listing uses the public channel Atom feed; transcripts come from the
// yt-dlp CLI.
package youtube

import (
	"context"
	"regexp"
	"strings"
	"time"
)

// Video is one listed channel upload.
type Video struct {
	ID         string
	URL        string
	Title      string
	ChannelURL string
	Published  time.Time
	FetchedAt  time.Time
}

// Entry is one timed transcript segment.
type Entry struct {
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
	Text     string  `json:"text"`
}

// Metadata describes a transcript's provenance. Error is set when no
// transcript could be obtained; such transcripts carry no text but are
// still cached so the miss is remembered.
type Metadata struct {
	VideoID            string   `json:"video_id"`
	Title              string   `json:"title"`
	Language           string   `json:"language,omitempty"`
	SourceType         string   `json:"source_type,omitempty"`
	TotalEntries       int      `json:"total_entries"`
	AvailableLanguages []string `json:"available_languages,omitempty"`
	FetchedAt          string   `json:"fetched_at"`
	Error              string   `json:"error,omitempty"`
}

// Transcript is the full fetched transcript of one video.
type Transcript struct {
	Text     string   `json:"text"`
	Entries  []Entry  `json:"entries"`
	Metadata Metadata `json:"metadata"`
}

// HasText reports whether a usable transcript was obtained.
func (t *Transcript) HasText() bool {
	return t != nil && t.Metadata.Error == "" && strings.TrimSpace(t.Text) != ""
}

// Source types recorded in transcript metadata.
const (
	SourceManual    = "manual"
	SourceAutomatic = "automatic"
)

// Fetcher is the external-data boundary: video listing and transcript
// extraction. The production implementation is Client; tests substitute
// stubs.
type Fetcher interface {
	LatestVideos(ctx context.Context, channelURL string, max int) ([]Video, error)
	VideoTranscript(ctx context.Context, videoURL, language string) (*Transcript, error)
}

var videoIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`[?&]v=([a-zA-Z0-9_-]{11})`),
	regexp.MustCompile(`youtu\.be/([a-zA-Z0-9_-]{11})`),
	regexp.MustCompile(`/shorts/([a-zA-Z0-9_-]{11})`),
	regexp.MustCompile(`/embed/([a-zA-Z0-9_-]{11})`),
}

// ExtractVideoID pulls the 11-character video id out of a YouTube URL,
// or returns "".
func ExtractVideoID(url string) string {
	for _, re := range videoIDPatterns {
		if m := re.FindStringSubmatch(url); m != nil {
			return m[1]
		}
	}
	return ""
}

// WatchURL builds the canonical watch URL for a video id.
func WatchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}
