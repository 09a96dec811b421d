package youtube

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestExtractVideoID(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=10s", "dQw4w9WgXcQ"},
		{"https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://www.youtube.com/shorts/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://www.youtube.com/embed/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://www.youtube.com/watch?v=short", ""},
		{"https://example.com/video", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := ExtractVideoID(tt.url); got != tt.want {
			t.Errorf("ExtractVideoID(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestWatchURL(t *testing.T) {
	if got := WatchURL("dQw4w9WgXcQ"); got != "https://www.youtube.com/watch?v=dQw4w9WgXcQ" {
		t.Errorf("WatchURL = %q", got)
	}
}

const testFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns:yt="http://www.youtube.com/xml/schemas/2015" xmlns="http://www.w3.org/2005/Atom">
  <title>Test Channel</title>
  <entry>
    <yt:videoId>aaaaaaaaaaa</yt:videoId>
    <title>Newest Video</title>
    <published>2026-08-30T10:00:00+00:00</published>
    <link rel="alternate" href="https://www.youtube.com/watch?v=aaaaaaaaaaa"/>
  </entry>
  <entry>
    <yt:videoId>bbbbbbbbbbb</yt:videoId>
    <title>Older Video</title>
    <published>2026-08-20T10:00:00+00:00</published>
    <link rel="alternate" href="https://www.youtube.com/watch?v=bbbbbbbbbbb"/>
  </entry>
  <entry>
    <yt:videoId>ccccccccccc</yt:videoId>
    <title>No Link Video</title>
    <published>2026-08-10T10:00:00+00:00</published>
  </entry>
</feed>`

func TestParseFeed(t *testing.T) {
	videos, err := parseFeed([]byte(testFeed), "https://www.youtube.com/@test")
	if err != nil {
		t.Fatalf("parseFeed failed: %v", err)
	}
	if len(videos) != 3 {
		t.Fatalf("expected 3 videos, got %d", len(videos))
	}

	// Feed order is preserved, newest first.
	if videos[0].ID != "aaaaaaaaaaa" || videos[1].ID != "bbbbbbbbbbb" {
		t.Errorf("feed order lost: %v %v", videos[0].ID, videos[1].ID)
	}
	if videos[0].Title != "Newest Video" {
		t.Errorf("title = %q", videos[0].Title)
	}
	if videos[0].ChannelURL != "https://www.youtube.com/@test" {
		t.Errorf("channel url = %q", videos[0].ChannelURL)
	}
	if videos[0].Published.IsZero() {
		t.Error("published not parsed")
	}
	// Entries without a link get a canonical watch URL.
	if videos[2].URL != WatchURL("ccccccccccc") {
		t.Errorf("missing-link url = %q", videos[2].URL)
	}
}

func TestLatestVideosTruncatesToMax(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("channel_id"); got != "UCabcdefghijklmnopqrstuv" {
			t.Errorf("channel_id = %q", got)
		}
		_, _ = w.Write([]byte(testFeed))
	}))
	defer srv.Close()

	c := NewClient(
		WithHTTPClient(srv.Client()),
		WithFeedURLFormat(srv.URL+"/feeds/videos.xml?channel_id=%s"),
	)

	videos, err := c.LatestVideos(context.Background(), "https://www.youtube.com/channel/UCabcdefghijklmnopqrstuv", 2)
	if err != nil {
		t.Fatalf("LatestVideos failed: %v", err)
	}
	if len(videos) != 2 {
		t.Fatalf("expected truncation to 2, got %d", len(videos))
	}
	if videos[0].ID != "aaaaaaaaaaa" {
		t.Errorf("first video = %q", videos[0].ID)
	}
}

func TestResolveChannelIDFromPage(t *testing.T) {
	page := `<html><head>
		<meta itemprop="identifier" content="UCzzzzzzzzzzzzzzzzzzzzzz">
		<link rel="canonical" href="https://www.youtube.com/channel/UCzzzzzzzzzzzzzzzzzzzzzz">
	</head><body></body></html>`

	var pageHits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pageHits++
		_, _ = w.Write([]byte(page))
	}))
	defer srv.Close()

	c := NewClient(WithHTTPClient(srv.Client()))

	id, err := c.resolveChannelID(context.Background(), srv.URL+"/@handle")
	if err != nil {
		t.Fatalf("resolveChannelID failed: %v", err)
	}
	if id != "UCzzzzzzzzzzzzzzzzzzzzzz" {
		t.Errorf("id = %q", id)
	}

	// Second lookup hits the memo, not the page.
	if _, err := c.resolveChannelID(context.Background(), srv.URL+"/@handle"); err != nil {
		t.Fatalf("second resolve failed: %v", err)
	}
	if pageHits != 1 {
		t.Errorf("expected 1 page fetch, got %d", pageHits)
	}
}

func TestResolveChannelIDFromURL(t *testing.T) {
	c := NewClient()
	id, err := c.resolveChannelID(context.Background(), "https://www.youtube.com/channel/UCabcdefghijklmnopqrstuv/videos")
	if err != nil {
		t.Fatalf("resolveChannelID failed: %v", err)
	}
	if id != "UCabcdefghijklmnopqrstuv" {
		t.Errorf("id = %q", id)
	}
}

func TestParseTimedText(t *testing.T) {
	doc := `{
		"events": [
			{"tStartMs": 0, "dDurationMs": 2000},
			{"tStartMs": 1000, "dDurationMs": 2500, "segs": [{"utf8": "hello"}, {"utf8": " there\n"}]},
			{"tStartMs": 4000, "dDurationMs": 1000, "segs": [{"utf8": "\n"}]},
			{"tStartMs": 5000, "dDurationMs": 1500, "segs": [{"utf8": "general kenobi"}]}
		]
	}`

	entries, err := parseTimedText([]byte(doc))
	if err != nil {
		t.Fatalf("parseTimedText failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries after filtering, got %d", len(entries))
	}
	if entries[0].Text != "hello there" {
		t.Errorf("entry text = %q", entries[0].Text)
	}
	if entries[0].Start != 1.0 || entries[0].Duration != 2.5 {
		t.Errorf("entry timing = %v/%v", entries[0].Start, entries[0].Duration)
	}
	if entries[1].Text != "general kenobi" {
		t.Errorf("entry text = %q", entries[1].Text)
	}
}

func TestChooseCaptionTrack(t *testing.T) {
	track := []map[string]any{{"ext": "json3"}}

	tests := []struct {
		name       string
		probe      probeResult
		requested  string
		wantLang   string
		wantSource string
	}{
		{
			name:       "manual wins over automatic",
			probe:      probeResult{Subtitles: map[string][]map[string]any{"de": track}, AutomaticCaptions: map[string][]map[string]any{"en": track}},
			requested:  "en",
			wantLang:   "de",
			wantSource: SourceManual,
		},
		{
			name:       "requested language preferred",
			probe:      probeResult{Subtitles: map[string][]map[string]any{"en": track, "fr": track}},
			requested:  "fr",
			wantLang:   "fr",
			wantSource: SourceManual,
		},
		{
			name:       "english fallback",
			probe:      probeResult{AutomaticCaptions: map[string][]map[string]any{"en": track, "ja": track}},
			requested:  "fr",
			wantLang:   "en",
			wantSource: SourceAutomatic,
		},
		{
			name:       "first alphabetical fallback",
			probe:      probeResult{AutomaticCaptions: map[string][]map[string]any{"ja": track, "de": track}},
			requested:  "fr",
			wantLang:   "de",
			wantSource: SourceAutomatic,
		},
		{
			name:      "no captions",
			probe:     probeResult{},
			requested: "en",
		},
	}
	for _, tt := range tests {
		lang, source := chooseCaptionTrack(&tt.probe, tt.requested)
		if lang != tt.wantLang || source != tt.wantSource {
			t.Errorf("%s: chooseCaptionTrack = (%q, %q), want (%q, %q)", tt.name, lang, source, tt.wantLang, tt.wantSource)
		}
	}
}

func TestCaptionLanguages(t *testing.T) {
	track := []map[string]any{{"ext": "json3"}}
	probe := &probeResult{
		Subtitles:         map[string][]map[string]any{"en": track, "de": track},
		AutomaticCaptions: map[string][]map[string]any{"en": track, "ja": track},
	}

	langs := captionLanguages(probe)
	want := []string{"de", "en", "ja"}
	if len(langs) != len(want) {
		t.Fatalf("languages = %v", langs)
	}
	for i := range want {
		if langs[i] != want[i] {
			t.Errorf("languages = %v, want %v", langs, want)
			break
		}
	}
}

func TestTranscriptHasText(t *testing.T) {
	var nilTranscript *Transcript
	if nilTranscript.HasText() {
		t.Error("nil transcript should have no text")
	}
	if (&Transcript{Metadata: Metadata{Error: "No transcripts available"}}).HasText() {
		t.Error("error-tagged transcript should have no text")
	}
	if (&Transcript{Text: "   "}).HasText() {
		t.Error("blank transcript should have no text")
	}
	if !(&Transcript{Text: "words"}).HasText() {
		t.Error("transcript with text should report HasText")
	}
}
