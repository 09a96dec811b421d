// Package store persists video and summary state in SQLite.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"reclaim/internal/logger"
)

// Video is one tracked YouTube video. The URL is the stable identity;
// everything else may be refreshed on later scrapes. A zero
// SummaryProcessedAt and an empty SummaryError mean NULL in the table.
type Video struct {
	ID                 int64
	URL                string
	VideoID            string
	Title              string
	ChannelName        string
	ChannelURL         string
	TranscriptPath     string
	Language           string
	SourceType         string
	TotalEntries       int
	SummaryProcessed   bool
	SummaryText        string
	SummaryAudioPath   string
	SummaryProcessedAt time.Time
	SummaryError       string
	LLMProcessed       bool
	FetchedAt          time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// HasTranscript reports whether a transcript file path was recorded.
func (v *Video) HasTranscript() bool { return v.TranscriptPath != "" }

// Stats summarizes the tracked video corpus.
type Stats struct {
	TotalVideos     int
	WithTranscripts int
	LLMProcessed    int
	Unprocessed     int
	UniqueChannels  int
}

// SummaryStats summarizes summary pipeline progress over videos that
// have transcripts.
type SummaryStats struct {
	TotalWithTranscripts int
	SummaryProcessed     int
	PendingSummaries     int
	SummaryErrors        int
}

// Store wraps the SQLite database.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the database at path and ensures the
// schema exists.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}

	logger.Debug("Opened video store", "path", path)
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS youtube_videos (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		url TEXT NOT NULL UNIQUE,
		video_id TEXT NOT NULL,
		title TEXT NOT NULL,
		channel_name TEXT NOT NULL,
		channel_url TEXT NOT NULL,
		transcript_path TEXT,
		language TEXT,
		source_type TEXT,
		total_entries INTEGER DEFAULT 0,
		summary_processed BOOLEAN DEFAULT FALSE,
		summary_text TEXT,
		summary_audio_path TEXT,
		summary_processed_at TIMESTAMP,
		summary_error TEXT,
		llm_processed BOOLEAN DEFAULT FALSE,
		fetched_at TIMESTAMP,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_youtube_videos_video_id ON youtube_videos(video_id);
	CREATE INDEX IF NOT EXISTS idx_youtube_videos_channel_url ON youtube_videos(channel_url);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

func nullStr(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}

func nullTime(v time.Time) sql.NullTime {
	return sql.NullTime{Time: v, Valid: !v.IsZero()}
}

// UpsertVideo inserts the video or refreshes its metadata when the URL
// is already known. created_at is written only on insert; summary state
// columns are never touched here.
func (s *Store) UpsertVideo(v *Video) error {
	now := time.Now().UTC()
	fetchedAt := v.FetchedAt
	if fetchedAt.IsZero() {
		fetchedAt = now
	}

	exists, err := s.VideoExists(v.URL)
	if err != nil {
		return err
	}

	if exists {
		_, err = s.db.Exec(`
			UPDATE youtube_videos
			SET video_id = ?, title = ?, channel_name = ?, channel_url = ?,
			    transcript_path = ?, language = ?, source_type = ?,
			    total_entries = ?, fetched_at = ?, updated_at = ?
			WHERE url = ?`,
			v.VideoID, v.Title, v.ChannelName, v.ChannelURL,
			nullStr(v.TranscriptPath), nullStr(v.Language), nullStr(v.SourceType),
			v.TotalEntries, fetchedAt, now, v.URL)
		if err != nil {
			return fmt.Errorf("failed to update video %s: %w", v.URL, err)
		}
		return nil
	}

	_, err = s.db.Exec(`
		INSERT INTO youtube_videos
			(url, video_id, title, channel_name, channel_url, transcript_path,
			 language, source_type, total_entries, fetched_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		v.URL, v.VideoID, v.Title, v.ChannelName, v.ChannelURL,
		nullStr(v.TranscriptPath), nullStr(v.Language), nullStr(v.SourceType),
		v.TotalEntries, fetchedAt, now, now)
	if err != nil {
		return fmt.Errorf("failed to insert video %s: %w", v.URL, err)
	}
	return nil
}

// VideoExists reports whether a row with the URL exists.
func (s *Store) VideoExists(url string) (bool, error) {
	var n int
	err := s.db.QueryRow("SELECT COUNT(1) FROM youtube_videos WHERE url = ?", url).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check video existence: %w", err)
	}
	return n > 0, nil
}

const videoColumns = `id, url, video_id, title, channel_name, channel_url,
	transcript_path, language, source_type, total_entries,
	summary_processed, summary_text, summary_audio_path, summary_processed_at,
	summary_error, llm_processed, fetched_at, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVideo(row rowScanner) (*Video, error) {
	var v Video
	var transcriptPath, language, sourceType, summaryText, audioPath, summaryErr sql.NullString
	var processedAt, fetchedAt sql.NullTime

	err := row.Scan(&v.ID, &v.URL, &v.VideoID, &v.Title, &v.ChannelName, &v.ChannelURL,
		&transcriptPath, &language, &sourceType, &v.TotalEntries,
		&v.SummaryProcessed, &summaryText, &audioPath, &processedAt,
		&summaryErr, &v.LLMProcessed, &fetchedAt, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}

	v.TranscriptPath = transcriptPath.String
	v.Language = language.String
	v.SourceType = sourceType.String
	v.SummaryText = summaryText.String
	v.SummaryAudioPath = audioPath.String
	v.SummaryError = summaryErr.String
	if processedAt.Valid {
		v.SummaryProcessedAt = processedAt.Time
	}
	if fetchedAt.Valid {
		v.FetchedAt = fetchedAt.Time
	}
	return &v, nil
}

// GetVideoByURL returns the video, or (nil, nil) when unknown.
func (s *Store) GetVideoByURL(url string) (*Video, error) {
	row := s.db.QueryRow("SELECT "+videoColumns+" FROM youtube_videos WHERE url = ?", url)
	v, err := scanVideo(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get video %s: %w", url, err)
	}
	return v, nil
}

func (s *Store) queryVideos(query string, args ...any) ([]*Video, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query videos: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var videos []*Video
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan video: %w", err)
		}
		videos = append(videos, v)
	}
	return videos, rows.Err()
}

// VideosByChannel returns a channel's videos, newest first.
func (s *Store) VideosByChannel(channelURL string, limit int) ([]*Video, error) {
	return s.queryVideos("SELECT "+videoColumns+` FROM youtube_videos
		WHERE channel_url = ? ORDER BY created_at DESC LIMIT ?`, channelURL, limit)
}

// UnsummarizedVideos returns videos eligible for the summary pipeline,
// oldest first. channelURL narrows to one channel when non-empty.
func (s *Store) UnsummarizedVideos(channelURL string, limit int) ([]*Video, error) {
	query := "SELECT " + videoColumns + ` FROM youtube_videos
		WHERE summary_processed = 0 AND summary_error IS NULL AND transcript_path IS NOT NULL`
	args := []any{}
	if channelURL != "" {
		query += " AND channel_url = ?"
		args = append(args, channelURL)
	}
	query += " ORDER BY created_at ASC LIMIT ?"
	args = append(args, limit)
	return s.queryVideos(query, args...)
}

// UnprocessedVideos returns transcribed videos not yet marked as seen by
// an LLM pass, oldest first.
func (s *Store) UnprocessedVideos(limit int) ([]*Video, error) {
	return s.queryVideos("SELECT "+videoColumns+` FROM youtube_videos
		WHERE llm_processed = 0 AND transcript_path IS NOT NULL
		ORDER BY created_at ASC LIMIT ?`, limit)
}

// FailedSummaries returns videos whose last summary attempt recorded an
// error, oldest first. A row stays retry-eligible even when an earlier
// run already marked it processed.
func (s *Store) FailedSummaries(limit int) ([]*Video, error) {
	return s.queryVideos("SELECT "+videoColumns+` FROM youtube_videos
		WHERE summary_error IS NOT NULL AND transcript_path IS NOT NULL
		ORDER BY created_at ASC LIMIT ?`, limit)
}

// MarkSummaryProcessed records a completed summary run and clears any
// previous error.
func (s *Store) MarkSummaryProcessed(url, summaryText, audioPath string) error {
	now := time.Now().UTC()
	res, err := s.db.Exec(`
		UPDATE youtube_videos
		SET summary_processed = 1, summary_text = ?, summary_audio_path = ?,
		    summary_processed_at = ?, summary_error = NULL, updated_at = ?
		WHERE url = ?`,
		nullStr(summaryText), nullStr(audioPath), now, now, url)
	if err != nil {
		return fmt.Errorf("failed to mark summary processed for %s: %w", url, err)
	}
	return requireRow(res, url)
}

// MarkSummaryError records a failed summary attempt.
func (s *Store) MarkSummaryError(url, errMsg string) error {
	now := time.Now().UTC()
	res, err := s.db.Exec(`
		UPDATE youtube_videos SET summary_error = ?, updated_at = ? WHERE url = ?`,
		errMsg, now, url)
	if err != nil {
		return fmt.Errorf("failed to mark summary error for %s: %w", url, err)
	}
	return requireRow(res, url)
}

// MarkLLMProcessed flags a video as consumed by an LLM pass.
func (s *Store) MarkLLMProcessed(url string) error {
	now := time.Now().UTC()
	res, err := s.db.Exec(`
		UPDATE youtube_videos SET llm_processed = 1, updated_at = ? WHERE url = ?`,
		now, url)
	if err != nil {
		return fmt.Errorf("failed to mark llm processed for %s: %w", url, err)
	}
	return requireRow(res, url)
}

func requireRow(res sql.Result, url string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("no video found for url %s", url)
	}
	return nil
}

// GetStats returns corpus-wide counters.
func (s *Store) GetStats() (*Stats, error) {
	stats := &Stats{}
	row := s.db.QueryRow(`
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN transcript_path IS NOT NULL THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN llm_processed = 1 THEN 1 ELSE 0 END), 0),
		       COUNT(DISTINCT channel_url)
		FROM youtube_videos`)
	if err := row.Scan(&stats.TotalVideos, &stats.WithTranscripts, &stats.LLMProcessed, &stats.UniqueChannels); err != nil {
		return nil, fmt.Errorf("failed to compute stats: %w", err)
	}
	stats.Unprocessed = stats.WithTranscripts - stats.LLMProcessed
	if stats.Unprocessed < 0 {
		stats.Unprocessed = 0
	}
	return stats, nil
}

// ChannelCount is per-channel progress for stats output.
type ChannelCount struct {
	ChannelName     string
	ChannelURL      string
	Total           int
	WithTranscripts int
	Summarized      int
}

// ChannelCounts returns per-channel totals ordered by channel name.
func (s *Store) ChannelCounts() ([]ChannelCount, error) {
	rows, err := s.db.Query(`
		SELECT channel_name, channel_url, COUNT(*),
		       COALESCE(SUM(CASE WHEN transcript_path IS NOT NULL THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN summary_processed = 1 THEN 1 ELSE 0 END), 0)
		FROM youtube_videos
		GROUP BY channel_name, channel_url
		ORDER BY channel_name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query channel counts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var counts []ChannelCount
	for rows.Next() {
		var c ChannelCount
		if err := rows.Scan(&c.ChannelName, &c.ChannelURL, &c.Total, &c.WithTranscripts, &c.Summarized); err != nil {
			return nil, fmt.Errorf("failed to scan channel count: %w", err)
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

// GetSummaryStats returns summary pipeline counters over transcribed
// videos.
func (s *Store) GetSummaryStats() (*SummaryStats, error) {
	stats := &SummaryStats{}
	row := s.db.QueryRow(`
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN summary_processed = 1 THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN summary_processed = 0 AND summary_error IS NULL THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN summary_error IS NOT NULL THEN 1 ELSE 0 END), 0)
		FROM youtube_videos
		WHERE transcript_path IS NOT NULL`)
	if err := row.Scan(&stats.TotalWithTranscripts, &stats.SummaryProcessed, &stats.PendingSummaries, &stats.SummaryErrors); err != nil {
		return nil, fmt.Errorf("failed to compute summary stats: %w", err)
	}
	return stats, nil
}
