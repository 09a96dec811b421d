// Package cache stores fetched transcripts as JSON files under
// per-channel folders with deterministic names.
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"reclaim/internal/logger"
	"reclaim/internal/youtube"
)

// invalidChars matches filesystem-hostile characters replaced during
// sanitization.
var invalidChars = regexp.MustCompile(`[<>:"/\\|?*]+`)

// maxNameLen caps the sanitized base name (without extension).
const maxNameLen = 200

// Entry is the envelope written around a cached transcript.
type Entry struct {
	CachedAt   string              `json:"cached_at"`
	VideoID    string              `json:"video_id"`
	Title      string              `json:"title"`
	CachePath  string              `json:"cache_path"`
	Transcript *youtube.Transcript `json:"transcript"`
}

// CacheStats reports cache disk usage.
type CacheStats struct {
	FileCount int
	SizeMB    float64
}

// Cache is a filesystem transcript cache rooted at a base directory.
type Cache struct {
	baseDir string
}

// New creates a cache rooted at baseDir, creating the directory.
func New(baseDir string) (*Cache, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &Cache{baseDir: baseDir}, nil
}

// BaseDir returns the cache root.
func (c *Cache) BaseDir() string { return c.baseDir }

// SanitizeName converts a video id and title into a safe file base name.
// Invalid characters collapse to underscores and the result is capped at
// 200 characters.
func SanitizeName(videoID, title string) string {
	name := videoID + "_" + title
	name = invalidChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, " ._")
	if len(name) > maxNameLen {
		name = name[:maxNameLen]
		name = strings.Trim(name, " ._")
	}
	return name
}

// PathFor returns the deterministic cache path for a video within a
// channel folder. channelFolder may be absolute or relative to the
// cache root.
func (c *Cache) PathFor(channelFolder, videoID, title string) string {
	dir := channelFolder
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(c.baseDir, dir)
	}
	return filepath.Join(dir, SanitizeName(videoID, title)+".json")
}

// Exists reports whether a cached transcript file is present for the
// video.
func (c *Cache) Exists(channelFolder, videoID, title string) (string, bool) {
	path := c.PathFor(channelFolder, videoID, title)
	if _, err := os.Stat(path); err != nil {
		return path, false
	}
	return path, true
}

// Save writes the transcript envelope, creating the channel folder as
// needed, and returns the cache path.
func (c *Cache) Save(channelFolder, videoID, title string, transcript *youtube.Transcript) (string, error) {
	path := c.PathFor(channelFolder, videoID, title)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create channel folder: %w", err)
	}

	entry := Entry{
		CachedAt:   time.Now().UTC().Format(time.RFC3339),
		VideoID:    videoID,
		Title:      title,
		CachePath:  path,
		Transcript: transcript,
	}

	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal cache entry: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write cache file: %w", err)
	}

	logger.Debug("Cached transcript", "video_id", videoID, "path", path)
	return path, nil
}

// Load reads the cached transcript for the video, or (nil, nil) when it
// is not cached.
func (c *Cache) Load(channelFolder, videoID, title string) (*Entry, error) {
	path, ok := c.Exists(channelFolder, videoID, title)
	if !ok {
		return nil, nil
	}
	return c.LoadByPath(path)
}

// LoadByPath reads a cache entry from an explicit file path.
func (c *Cache) LoadByPath(path string) (*Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read cache file %s: %w", path, err)
	}
	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("failed to parse cache file %s: %w", path, err)
	}
	return &entry, nil
}

// LoadTranscript reads just the transcript from a cached entry, with
// its path. Returns (nil, "", nil) when the video is not cached.
func (c *Cache) LoadTranscript(channelFolder, videoID, title string) (*youtube.Transcript, string, error) {
	entry, err := c.Load(channelFolder, videoID, title)
	if err != nil || entry == nil {
		return nil, "", err
	}
	return entry.Transcript, entry.CachePath, nil
}

// TranscriptByPath reads just the transcript from an explicit cache
// file path.
func (c *Cache) TranscriptByPath(path string) (*youtube.Transcript, error) {
	entry, err := c.LoadByPath(path)
	if err != nil {
		return nil, err
	}
	return entry.Transcript, nil
}

// Delete removes a cached transcript file if present.
func (c *Cache) Delete(channelFolder, videoID, title string) error {
	path := c.PathFor(channelFolder, videoID, title)
	err := os.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete cache file %s: %w", path, err)
	}
	return nil
}

// Stats walks the cache and totals JSON file count and size.
func (c *Cache) Stats() (*CacheStats, error) {
	stats := &CacheStats{}
	var bytes int64

	err := filepath.WalkDir(c.baseDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".json") {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		stats.FileCount++
		bytes += info.Size()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk cache: %w", err)
	}

	stats.SizeMB = float64(bytes) / (1024 * 1024)
	return stats, nil
}

// CleanupEmptyDirs removes empty directories under the cache root,
// deepest first, and returns how many were removed.
func (c *Cache) CleanupEmptyDirs() (int, error) {
	var dirs []string
	err := filepath.WalkDir(c.baseDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() && path != c.baseDir {
			dirs = append(dirs, path)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to walk cache: %w", err)
	}

	// Deepest first so nested empties collapse upward
	sort.Slice(dirs, func(i, j int) bool {
		return strings.Count(dirs[i], string(filepath.Separator)) > strings.Count(dirs[j], string(filepath.Separator))
	})

	removed := 0
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		if len(entries) == 0 {
			if err := os.Remove(dir); err == nil {
				removed++
			}
		}
	}
	return removed, nil
}
