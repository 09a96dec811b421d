package youtube

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"reclaim/internal/logger"
)

// probeResult is the subset of yt-dlp's video JSON we read.
type probeResult struct {
	ID                string                      `json:"id"`
	Title             string                      `json:"title"`
	Subtitles         map[string][]map[string]any `json:"subtitles"`
	AutomaticCaptions map[string][]map[string]any `json:"automatic_captions"`
}

// timedTextDoc is YouTube's json3 caption document.
type timedTextDoc struct {
	Events []struct {
		StartMs    int64 `json:"tStartMs"`
		DurationMs int64 `json:"dDurationMs"`
		Segs       []struct {
			UTF8 string `json:"utf8"`
		} `json:"segs"`
	} `json:"events"`
}

// VideoTranscript fetches the transcript for a video. Manual captions
// are preferred over automatic ones; the requested language falls back
// to English and then to the first available. A video without captions
// yields an error-tagged Transcript, not a Go error, so the miss can be
// cached and persisted.
func (c *Client) VideoTranscript(ctx context.Context, videoURL, language string) (*Transcript, error) {
	probe, err := c.probeVideo(ctx, videoURL)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC().Format(time.RFC3339)
	available := captionLanguages(probe)

	lang, sourceType := chooseCaptionTrack(probe, language)
	if lang == "" {
		logger.Info("No transcript available", "video_id", probe.ID, "languages", available)
		return &Transcript{
			Metadata: Metadata{
				VideoID:            probe.ID,
				Title:              probe.Title,
				AvailableLanguages: available,
				FetchedAt:          now,
				Error:              "No transcripts available",
			},
		}, nil
	}

	entries, err := c.downloadCaptions(ctx, videoURL, probe.ID, lang, sourceType)
	if err != nil {
		return nil, err
	}

	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		parts = append(parts, e.Text)
	}

	logger.Info("Fetched transcript", "video_id", probe.ID, "language", lang, "source", sourceType, "entries", len(entries))
	return &Transcript{
		Text:    strings.Join(parts, " "),
		Entries: entries,
		Metadata: Metadata{
			VideoID:            probe.ID,
			Title:              probe.Title,
			Language:           lang,
			SourceType:         sourceType,
			TotalEntries:       len(entries),
			AvailableLanguages: available,
			FetchedAt:          now,
		},
	}, nil
}

// probeVideo asks yt-dlp for the video's metadata without downloading.
func (c *Client) probeVideo(ctx context.Context, videoURL string) (*probeResult, error) {
	out, err := c.runYtdlp(ctx, "--skip-download", "--dump-single-json", "--no-warnings", videoURL)
	if err != nil {
		return nil, fmt.Errorf("yt-dlp probe failed for %s: %w", videoURL, err)
	}

	var probe probeResult
	if err := json.Unmarshal(out, &probe); err != nil {
		return nil, fmt.Errorf("failed to parse yt-dlp probe output: %w", err)
	}
	if probe.ID == "" {
		return nil, fmt.Errorf("yt-dlp probe returned no video id for %s", videoURL)
	}
	return &probe, nil
}

// captionLanguages returns the union of manual and automatic caption
// languages, sorted.
func captionLanguages(probe *probeResult) []string {
	seen := make(map[string]bool)
	for lang := range probe.Subtitles {
		seen[lang] = true
	}
	for lang := range probe.AutomaticCaptions {
		seen[lang] = true
	}
	langs := make([]string, 0, len(seen))
	for lang := range seen {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}

// chooseCaptionTrack picks the caption language and source. Manual
// tracks win over automatic; within a source the requested language
// wins, then English, then the alphabetically first.
func chooseCaptionTrack(probe *probeResult, requested string) (string, string) {
	pick := func(tracks map[string][]map[string]any) string {
		if len(tracks) == 0 {
			return ""
		}
		if requested != "" {
			if _, ok := tracks[requested]; ok {
				return requested
			}
		}
		if _, ok := tracks["en"]; ok {
			return "en"
		}
		langs := make([]string, 0, len(tracks))
		for lang := range tracks {
			langs = append(langs, lang)
		}
		sort.Strings(langs)
		return langs[0]
	}

	if lang := pick(probe.Subtitles); lang != "" {
		return lang, SourceManual
	}
	if lang := pick(probe.AutomaticCaptions); lang != "" {
		return lang, SourceAutomatic
	}
	return "", ""
}

// downloadCaptions pulls the chosen json3 caption track into a temp dir
// and parses it.
func (c *Client) downloadCaptions(ctx context.Context, videoURL, videoID, lang, sourceType string) ([]Entry, error) {
	tmpDir, err := os.MkdirTemp("", "reclaim-captions-")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(tmpDir) }()

	subsFlag := "--write-subs"
	if sourceType == SourceAutomatic {
		subsFlag = "--write-auto-subs"
	}

	_, err = c.runYtdlp(ctx,
		"--skip-download", subsFlag,
		"--sub-langs", lang,
		"--sub-format", "json3",
		"--no-warnings",
		"-o", "%(id)s.%(ext)s",
		"-P", tmpDir,
		videoURL)
	if err != nil {
		return nil, fmt.Errorf("yt-dlp caption download failed for %s: %w", videoURL, err)
	}

	matches, err := filepath.Glob(filepath.Join(tmpDir, videoID+"*.json3"))
	if err != nil || len(matches) == 0 {
		return nil, fmt.Errorf("yt-dlp produced no caption file for %s (lang %s)", videoID, lang)
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read caption file: %w", err)
	}

	return parseTimedText(data)
}

// parseTimedText converts a json3 caption document into transcript
// entries, dropping styling-only and empty events.
func parseTimedText(data []byte) ([]Entry, error) {
	var doc timedTextDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse caption json: %w", err)
	}

	var entries []Entry
	for _, event := range doc.Events {
		if len(event.Segs) == 0 {
			continue
		}
		var b strings.Builder
		for _, seg := range event.Segs {
			b.WriteString(seg.UTF8)
		}
		text := strings.TrimSpace(strings.ReplaceAll(b.String(), "\n", " "))
		if text == "" {
			continue
		}
		entries = append(entries, Entry{
			Start:    float64(event.StartMs) / 1000,
			Duration: float64(event.DurationMs) / 1000,
			Text:     text,
		})
	}
	return entries, nil
}

// runYtdlp executes yt-dlp with the client's timeout and returns stdout.
func (c *Client) runYtdlp(ctx context.Context, args ...string) ([]byte, error) {
	if c.ytdlpTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.ytdlpTimeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, c.ytdlpPath, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = err.Error()
		}
		return nil, fmt.Errorf("%s", detail)
	}
	return stdout.Bytes(), nil
}
