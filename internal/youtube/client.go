package youtube

import (
	"net/http"
	"time"
)

// Client is the production Fetcher: Atom feed listing plus yt-dlp
// transcript extraction.
type Client struct {
	httpClient    *http.Client
	feedURLFormat string
	ytdlpPath     string
	ytdlpTimeout  time.Duration
	channelIDs    map[string]string
}

// ClientOption tweaks a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the HTTP client used for feeds and pages.
func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = h }
}

// WithFeedURLFormat overrides the channel feed URL template. The format
// takes the channel id as its one argument.
func WithFeedURLFormat(format string) ClientOption {
	return func(c *Client) { c.feedURLFormat = format }
}

// WithYtdlpPath sets the yt-dlp binary to invoke.
func WithYtdlpPath(path string) ClientOption {
	return func(c *Client) { c.ytdlpPath = path }
}

// WithYtdlpTimeout bounds each yt-dlp invocation.
func WithYtdlpTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.ytdlpTimeout = d }
}

// NewClient builds a Client with sane defaults.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient:    &http.Client{Timeout: 30 * time.Second},
		feedURLFormat: feedURLFormat,
		ytdlpPath:     "yt-dlp",
		ytdlpTimeout:  120 * time.Second,
		channelIDs:    make(map[string]string),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}
