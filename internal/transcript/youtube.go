package transcript

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"yt-transcript-rag/internal/models"
)

// Segment is one caption line with its start time.
type Segment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
}

// Transcript is the full transcript of one video plus its metadata.
type Transcript struct {
	VideoID  string       `json:"video_id"`
	Segments []Segment    `json:"segments"`
	Metadata models.Video `json:"metadata"`
}

// FullText joins all segments into one string.
func (t *Transcript) FullText() string {
	parts := make([]string, 0, len(t.Segments))
	for _, seg := range t.Segments {
		parts = append(parts, seg.Text)
	}
	return strings.Join(parts, " ")
}

// Source supplies transcripts and channel listings.
type Source interface {
	FetchTranscript(ctx context.Context, videoID string) (*Transcript, error)
	ChannelVideoIDs(ctx context.Context, channelURL string) ([]string, error)
}

// YouTubeSource fetches captions from the public timedtext endpoint, video
// title/author from oEmbed, and channel listings from the channel RSS feed.
type YouTubeSource struct {
	Client   *http.Client
	Language string
}

// NewYouTubeSource creates a source with a sane request timeout.
func NewYouTubeSource() *YouTubeSource {
	return &YouTubeSource{
		Client:   &http.Client{Timeout: 30 * time.Second},
		Language: "en",
	}
}

type timedTextDoc struct {
	XMLName xml.Name       `xml:"transcript"`
	Texts   []timedTextEnt `xml:"text"`
}

type timedTextEnt struct {
	Start float64 `xml:"start,attr"`
	Dur   float64 `xml:"dur,attr"`
	Body  string  `xml:",chardata"`
}

// FetchTranscript returns the caption segments and metadata for a video.
// Returns ErrTranscriptUnavailable when the video has no captions.
func (s *YouTubeSource) FetchTranscript(ctx context.Context, videoID string) (*Transcript, error) {
	captionsURL := fmt.Sprintf("https://video.google.com/timedtext?lang=%s&v=%s",
		url.QueryEscape(s.Language), url.QueryEscape(videoID))

	body, err := s.get(ctx, captionsURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch captions for %s: %w", videoID, err)
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil, fmt.Errorf("video %s: %w", videoID, models.ErrTranscriptUnavailable)
	}

	var doc timedTextDoc
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse captions for %s: %w", videoID, err)
	}
	if len(doc.Texts) == 0 {
		return nil, fmt.Errorf("video %s: %w", videoID, models.ErrTranscriptUnavailable)
	}

	segments := make([]Segment, 0, len(doc.Texts))
	for _, t := range doc.Texts {
		text := strings.TrimSpace(html.UnescapeString(t.Body))
		if text == "" {
			continue
		}
		segments = append(segments, Segment{Text: text, Start: t.Start})
	}
	if len(segments) == 0 {
		return nil, fmt.Errorf("video %s: %w", videoID, models.ErrTranscriptUnavailable)
	}

	meta := s.fetchMetadata(ctx, videoID)
	meta.YouTubeID = videoID

	return &Transcript{VideoID: videoID, Segments: segments, Metadata: meta}, nil
}

// fetchMetadata fills in title and author from oEmbed. Engagement counts are
// not exposed by the endpoint and stay zero. Best effort: a failed lookup
// leaves placeholder values.
func (s *YouTubeSource) fetchMetadata(ctx context.Context, videoID string) models.Video {
	meta := models.Video{
		YouTubeID: videoID,
		Title:     "Unknown Title",
		Author:    "Unknown Author",
	}

	oembedURL := "https://www.youtube.com/oembed?format=json&url=" +
		url.QueryEscape("https://www.youtube.com/watch?v="+videoID)

	body, err := s.get(ctx, oembedURL)
	if err != nil {
		return meta
	}

	var payload struct {
		Title      string `json:"title"`
		AuthorName string `json:"author_name"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return meta
	}
	if payload.Title != "" {
		meta.Title = payload.Title
	}
	if payload.AuthorName != "" {
		meta.Author = payload.AuthorName
	}
	return meta
}

type channelFeed struct {
	Entries []struct {
		VideoID string `xml:"videoId"`
	} `xml:"entry"`
}

// ChannelVideoIDs lists the recent video IDs of a channel via its RSS feed.
// Accepts a channel URL or a bare channel ID.
func (s *YouTubeSource) ChannelVideoIDs(ctx context.Context, channelURL string) ([]string, error) {
	channelID := extractChannelID(channelURL)
	if channelID == "" {
		return nil, fmt.Errorf("failed to extract channel id from %q", channelURL)
	}

	feedURL := "https://www.youtube.com/feeds/videos.xml?channel_id=" + url.QueryEscape(channelID)
	body, err := s.get(ctx, feedURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch channel feed: %w", err)
	}

	var feed channelFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("failed to parse channel feed: %w", err)
	}

	ids := make([]string, 0, len(feed.Entries))
	for _, entry := range feed.Entries {
		if entry.VideoID != "" {
			ids = append(ids, entry.VideoID)
		}
	}
	return ids, nil
}

func (s *YouTubeSource) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

var videoIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`[?&]v=([A-Za-z0-9_-]{11})`),
	regexp.MustCompile(`youtu\.be/([A-Za-z0-9_-]{11})`),
	regexp.MustCompile(`/embed/([A-Za-z0-9_-]{11})`),
	regexp.MustCompile(`^([A-Za-z0-9_-]{11})$`),
}

// ExtractVideoID pulls the 11-character video ID out of a watch URL, a
// short URL, an embed URL, or a bare ID. Returns "" when nothing matches.
func ExtractVideoID(input string) string {
	input = strings.TrimSpace(input)
	for _, re := range videoIDPatterns {
		if m := re.FindStringSubmatch(input); m != nil {
			return m[1]
		}
	}
	return ""
}

var channelIDPattern = regexp.MustCompile(`/channel/(UC[A-Za-z0-9_-]{22})`)

func extractChannelID(input string) string {
	input = strings.TrimSpace(input)
	if m := channelIDPattern.FindStringSubmatch(input); m != nil {
		return m[1]
	}
	if strings.HasPrefix(input, "UC") && !strings.Contains(input, "/") {
		return input
	}
	return ""
}
