package youtube

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"reclaim/internal/logger"
)

const feedURLFormat = "https://www.youtube.com/feeds/videos.xml?channel_id=%s"

var channelIDPattern = regexp.MustCompile(`/channel/(UC[a-zA-Z0-9_-]{22})`)

// atomFeed is the subset of the channel Atom feed we read.
type atomFeed struct {
	XMLName xml.Name    `xml:"feed"`
	Title   string      `xml:"title"`
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	VideoID   string `xml:"videoId"`
	Title     string `xml:"title"`
	Published string `xml:"published"`
	Link      struct {
		Href string `xml:"href,attr"`
	} `xml:"link"`
}

// LatestVideos lists a channel's most recent uploads via its Atom feed,
// newest first, bounded by max.
func (c *Client) LatestVideos(ctx context.Context, channelURL string, max int) ([]Video, error) {
	channelID, err := c.resolveChannelID(ctx, channelURL)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve channel id for %s: %w", channelURL, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf(c.feedURLFormat, channelID), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create feed request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch channel feed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("channel feed returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read channel feed: %w", err)
	}

	videos, err := parseFeed(body, channelURL)
	if err != nil {
		return nil, err
	}
	if max > 0 && len(videos) > max {
		videos = videos[:max]
	}

	logger.Debug("Listed channel videos", "channel", channelURL, "count", len(videos))
	return videos, nil
}

// parseFeed converts Atom feed XML into Videos, keeping feed order
// (newest first).
func parseFeed(data []byte, channelURL string) ([]Video, error) {
	var feed atomFeed
	if err := xml.Unmarshal(data, &feed); err != nil {
		return nil, fmt.Errorf("failed to parse channel feed: %w", err)
	}

	now := time.Now().UTC()
	videos := make([]Video, 0, len(feed.Entries))
	for _, entry := range feed.Entries {
		if entry.VideoID == "" {
			continue
		}
		url := entry.Link.Href
		if url == "" {
			url = WatchURL(entry.VideoID)
		}
		published, _ := time.Parse(time.RFC3339, entry.Published)
		videos = append(videos, Video{
			ID:         entry.VideoID,
			URL:        url,
			Title:      entry.Title,
			ChannelURL: channelURL,
			Published:  published,
			FetchedAt:  now,
		})
	}
	return videos, nil
}

// resolveChannelID turns any channel URL form (/channel/, /@handle,
// /c/name, /user/name) into the UC channel id. Handle URLs require
// fetching the page and reading its identifier metadata. Results are
// cached per URL.
func (c *Client) resolveChannelID(ctx context.Context, channelURL string) (string, error) {
	if m := channelIDPattern.FindStringSubmatch(channelURL); m != nil {
		return m[1], nil
	}

	if id, ok := c.channelIDs[channelURL]; ok {
		return id, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, channelURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create channel page request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; reclaim/1.0)")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch channel page: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("channel page returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to parse channel page: %w", err)
	}

	id := ""
	if content, ok := doc.Find(`meta[itemprop="identifier"]`).Attr("content"); ok && strings.HasPrefix(content, "UC") {
		id = content
	}
	if id == "" {
		if href, ok := doc.Find(`link[rel="canonical"]`).Attr("href"); ok {
			if m := channelIDPattern.FindStringSubmatch(href); m != nil {
				id = m[1]
			}
		}
	}
	if id == "" {
		return "", fmt.Errorf("no channel id found on page %s", channelURL)
	}

	c.channelIDs[channelURL] = id
	logger.Debug("Resolved channel id", "channel", channelURL, "id", id)
	return id, nil
}
