package cache

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"ytsummarize/internal/fileutil"
	"ytsummarize/internal/services"
)

// Method is the acquisition strategy that produced a transcript.
type Method string

const (
	MethodCaptions     Method = "captions"
	MethodSubtitles    Method = "subtitles"
	MethodSpeechToText Method = "speech-to-text"
	MethodLocalFile    Method = "local-file"
)

// Methods lists the network acquisition methods in priority order.
var Methods = []Method{MethodCaptions, MethodSubtitles, MethodSpeechToText}

// Valid reports whether m is one of the known methods.
func (m Method) Valid() bool {
	switch m {
	case MethodCaptions, MethodSubtitles, MethodSpeechToText, MethodLocalFile:
		return true
	}
	return false
}

func (m Method) String() string { return string(m) }

// ParseMethod converts a stored or user-supplied tag into a Method.
func ParseMethod(value string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "captions":
		return MethodCaptions, nil
	case "subtitles", "subs":
		return MethodSubtitles, nil
	case "speech-to-text", "stt":
		return MethodSpeechToText, nil
	case "local-file", "file":
		return MethodLocalFile, nil
	}
	return "", services.Wrap(services.ErrValidation, "cache", "parse method", fmt.Sprintf("unknown method %q", value), nil)
}

// Representation is a set of summary renderings.
type Representation uint8

const (
	Markdown Representation = 1 << iota
	Structured

	Both = Markdown | Structured
)

// Has reports whether every flag in other is set in r.
func (r Representation) Has(other Representation) bool {
	return other != 0 && r&other == other
}

func (r Representation) String() string {
	switch r {
	case Markdown:
		return "md"
	case Structured:
		return "json"
	case Both:
		return "md+json"
	}
	return "none"
}

// ParseRepresentation accepts md, json, md+json, or md,json.
func ParseRepresentation(value string) (Representation, error) {
	var r Representation
	fields := strings.FieldsFunc(strings.ToLower(value), func(c rune) bool {
		return c == '+' || c == ',' || c == ' '
	})
	for _, field := range fields {
		switch field {
		case "md", "markdown":
			r |= Markdown
		case "json", "structured":
			r |= Structured
		default:
			return 0, services.Wrap(services.ErrValidation, "summary", "parse format", fmt.Sprintf("unknown format %q", field), nil)
		}
	}
	if r == 0 {
		return 0, services.Wrap(services.ErrValidation, "summary", "parse format", "format required (md, json, md+json)", nil)
	}
	return r, nil
}

// TranscriptRecord is a cached transcript with its provenance.
type TranscriptRecord struct {
	Text     string    `json:"text"`
	VideoID  string    `json:"video_id"`
	Title    string    `json:"title"`
	Channel  string    `json:"channel"`
	Lang     string    `json:"lang"`
	Method   Method    `json:"method"`
	CachedAt time.Time `json:"cached_at"`
}

// SummaryRecord holds one or both renderings of a summary. An empty field
// means the representation was not produced.
type SummaryRecord struct {
	Markdown string          `json:"markdown,omitempty"`
	JSONData json.RawMessage `json:"json_data,omitempty"`
	Model    string          `json:"model"`
	CachedAt time.Time       `json:"cached_at"`
}

// Representations reports which renderings r carries.
func (r SummaryRecord) Representations() Representation {
	var have Representation
	if strings.TrimSpace(r.Markdown) != "" {
		have |= Markdown
	}
	if data := bytes.TrimSpace(r.JSONData); len(data) > 0 && !bytes.Equal(data, []byte("null")) {
		have |= Structured
	}
	return have
}

// Satisfies reports whether every representation in want is present.
func (r SummaryRecord) Satisfies(want Representation) bool {
	return r.Representations().Has(want)
}

func (r SummaryRecord) clone() SummaryRecord {
	r.JSONData = append(json.RawMessage(nil), r.JSONData...)
	return r
}

// YouTubeKey derives the key for a network-sourced transcript.
func YouTubeKey(videoID, lang string, method Method) string {
	return fmt.Sprintf("%s_%s_%s", videoID, lang, method)
}

// FileKey derives the key for local content from its bytes.
func FileKey(data []byte) string {
	return fileutil.SHA256Hex(data)[:16]
}
