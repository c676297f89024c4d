// Package captions reads the caption tracks a video page advertises and
// downloads their timed text.
package captions

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"ytsummarize/internal/services"
	"ytsummarize/internal/services/retry"
)

const (
	defaultBaseURL = "https://www.youtube.com"
	playerMarker   = "ytInitialPlayerResponse"
	maxPageBytes   = 8 << 20
)

// Track is one caption track listed for a video.
type Track struct {
	Language           string
	Name               string
	IsGenerated        bool
	IsTranslatable     bool
	TranslationTargets []string
	BaseURL            string
}

// Snippet is one timed line of caption text.
type Snippet struct {
	Text     string
	Start    float64
	Duration float64
}

// Lister is the transcript index consumed by the source chain.
type Lister interface {
	ListTracks(ctx context.Context, videoID string) ([]Track, error)
	Fetch(ctx context.Context, track Track, translateTo string) ([]Snippet, error)
}

// Client talks to the video watch page and timed text endpoints.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures the client.
type Option func(*Client)

// WithBaseURL points the client at a different host (primarily for tests).
func WithBaseURL(base string) Option {
	return func(c *Client) {
		if base = strings.TrimRight(strings.TrimSpace(base), "/"); base != "" {
			c.baseURL = base
		}
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// New constructs a caption client.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListTracks returns every caption track the watch page advertises. A page
// without a caption renderer reports services.ErrUnavailable.
func (c *Client) ListTracks(ctx context.Context, videoID string) ([]Track, error) {
	page, err := c.get(ctx, c.baseURL+"/watch?v="+url.QueryEscape(videoID))
	if err != nil {
		return nil, err
	}
	payload, ok := extractPlayerResponse(page)
	if !ok {
		return nil, services.Wrap(services.ErrUnavailable, "captions", videoID, "player response not found", nil)
	}
	player := gjson.Parse(payload)
	if status := player.Get("playabilityStatus.status").String(); status != "" && status != "OK" {
		reason := player.Get("playabilityStatus.reason").String()
		return nil, services.Wrap(services.ErrUnavailable, "captions", videoID, fmt.Sprintf("video not playable: %s %s", status, reason), nil)
	}
	renderer := player.Get("captions.playerCaptionsTracklistRenderer")
	if !renderer.Exists() {
		return nil, services.Wrap(services.ErrUnavailable, "captions", videoID, "transcripts disabled", nil)
	}

	var targets []string
	renderer.Get("translationLanguages.#.languageCode").ForEach(func(_, value gjson.Result) bool {
		targets = append(targets, value.String())
		return true
	})

	var tracks []Track
	renderer.Get("captionTracks").ForEach(func(_, value gjson.Result) bool {
		track := Track{
			Language:       value.Get("languageCode").String(),
			Name:           firstNonEmpty(value.Get("name.simpleText").String(), value.Get("name.runs.0.text").String()),
			IsGenerated:    value.Get("kind").String() == "asr",
			IsTranslatable: value.Get("isTranslatable").Bool(),
			BaseURL:        value.Get("baseUrl").String(),
		}
		if track.IsTranslatable {
			track.TranslationTargets = targets
		}
		tracks = append(tracks, track)
		return true
	})
	if len(tracks) == 0 {
		return nil, services.Wrap(services.ErrUnavailable, "captions", videoID, "no caption tracks", nil)
	}
	return tracks, nil
}

type timedText struct {
	Texts []struct {
		Start    float64 `xml:"start,attr"`
		Duration float64 `xml:"dur,attr"`
		Body     string  `xml:",chardata"`
	} `xml:"text"`
}

// Fetch downloads the timed text for track, translated when translateTo is set.
func (c *Client) Fetch(ctx context.Context, track Track, translateTo string) ([]Snippet, error) {
	if track.BaseURL == "" {
		return nil, services.Wrap(services.ErrUnavailable, "captions", track.Language, "track has no url", nil)
	}
	target, err := url.Parse(track.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("captions: parse track url: %w", err)
	}
	if !target.IsAbs() {
		base, _ := url.Parse(c.baseURL)
		target = base.ResolveReference(target)
	}
	if translateTo != "" {
		query := target.Query()
		query.Set("tlang", translateTo)
		target.RawQuery = query.Encode()
	}
	body, err := c.get(ctx, target.String())
	if err != nil {
		return nil, err
	}
	var doc timedText
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("captions: decode timed text: %w", err)
	}
	snippets := make([]Snippet, 0, len(doc.Texts))
	for _, entry := range doc.Texts {
		// Timed text bodies are entity-escaped twice.
		text := strings.TrimSpace(html.UnescapeString(entry.Body))
		if text == "" {
			continue
		}
		snippets = append(snippets, Snippet{Text: text, Start: entry.Start, Duration: entry.Duration})
	}
	return snippets, nil
}

// JoinSnippets concatenates snippet text with single spaces.
func JoinSnippets(snippets []Snippet) string {
	parts := make([]string, 0, len(snippets))
	for _, s := range snippets {
		if text := strings.Join(strings.Fields(s.Text), " "); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}

func (c *Client) get(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("captions: new request: %w", err)
	}
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("captions: http error: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, fmt.Errorf("captions: read body: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		statusErr := &retry.StatusError{Provider: "captions", StatusCode: resp.StatusCode}
		if resp.StatusCode == http.StatusNotFound {
			return nil, services.Wrap(services.ErrUnavailable, "captions", "fetch", "not found", statusErr)
		}
		return nil, statusErr
	}
	return body, nil
}

// extractPlayerResponse returns the JSON object assigned to the player
// response variable in the watch page.
func extractPlayerResponse(page []byte) (string, bool) {
	text := string(page)
	idx := strings.Index(text, playerMarker)
	if idx < 0 {
		return "", false
	}
	start := strings.IndexByte(text[idx:], '{')
	if start < 0 {
		return "", false
	}
	start += idx
	end, err := matchBrace(text, start)
	if err != nil {
		return "", false
	}
	payload := text[start : end+1]
	if !gjson.Valid(payload) {
		return "", false
	}
	return payload, true
}

func matchBrace(text string, start int) (int, error) {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		switch {
		case escaped:
			escaped = false
		case inString && ch == '\\':
			escaped = true
		case ch == '"':
			inString = !inString
		case inString:
		case ch == '{':
			depth++
		case ch == '}':
			depth--
			if depth == 0 {
				return i, nil
			}
		}
	}
	return 0, errors.New("unbalanced object")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
