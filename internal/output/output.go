// Package output writes a pipeline result to a directory: the transcript,
// a metadata file and whichever summary representations were produced.
package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ytsummarize/internal/fileutil"
	"ytsummarize/internal/language"
	"ytsummarize/internal/pipeline"
	"ytsummarize/internal/summarize"
	"ytsummarize/internal/textutil"
	"ytsummarize/internal/transcript"
)

// File names inside an output directory.
const (
	TranscriptFile = "transcript.txt"
	MetaFile       = "meta.json"
	MarkdownFile   = "summary.md"
	JSONFile       = "summary.json"
	HTMLFile       = "summary.html"
)

// Options controls optional outputs.
type Options struct {
	HTML bool
	// Now stamps generated_at; defaults to time.Now.
	Now func() time.Time
}

// Meta is the content of meta.json.
type Meta struct {
	Source       string    `json:"source"`
	VideoID      string    `json:"video_id,omitempty"`
	Title        string    `json:"title"`
	Channel      string    `json:"channel"`
	Lang         string    `json:"lang"`
	LanguageName string    `json:"language_name"`
	Method       string    `json:"method"`
	CacheKey     string    `json:"cache_key"`
	Model        string    `json:"model,omitempty"`
	Formats      []string  `json:"formats"`
	GeneratedAt  time.Time `json:"generated_at"`
}

// Written lists the files produced by Write.
type Written struct {
	Dir   string
	Files []string
}

// DefaultDir is base/<sanitized title>, falling back to the cache key when
// the title sanitizes to nothing.
func DefaultDir(base string, result pipeline.Result) string {
	name := textutil.SanitizeFileName(result.Transcript.Record.Title)
	name = strings.Trim(name, ".")
	if name == "" {
		name = result.Transcript.Key
	}
	return filepath.Join(base, name)
}

// Write renders result into dir, creating it when needed.
func Write(dir string, result pipeline.Result, opts Options) (Written, error) {
	if strings.TrimSpace(dir) == "" {
		return Written{}, fmt.Errorf("output: directory required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Written{}, fmt.Errorf("output: create %s: %w", dir, err)
	}
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	out := Written{Dir: dir}
	write := func(name string, data []byte) error {
		path := filepath.Join(dir, name)
		if err := fileutil.WriteFileAtomic(path, data, 0o644); err != nil {
			return fmt.Errorf("output: write %s: %w", name, err)
		}
		out.Files = append(out.Files, path)
		return nil
	}

	rec := result.Transcript.Record
	text := rec.Text
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	if err := write(TranscriptFile, []byte(text)); err != nil {
		return out, err
	}

	var formats []string
	if sum := result.Summary; sum != nil {
		if sum.Markdown != "" {
			formats = append(formats, "md")
			if err := write(MarkdownFile, []byte(strings.TrimRight(sum.Markdown, "\n")+"\n")); err != nil {
				return out, err
			}
			if opts.HTML {
				html, err := summarize.RenderHTML(rec.Title, sum.Markdown)
				if err != nil {
					return out, err
				}
				formats = append(formats, "html")
				if err := write(HTMLFile, []byte(html)); err != nil {
					return out, err
				}
			}
		}
		if structured := sum.JSONData; len(structured) > 0 && !bytes.Equal(bytes.TrimSpace(structured), []byte("null")) {
			formats = append(formats, "json")
			var buf bytes.Buffer
			if err := json.Indent(&buf, structured, "", "  "); err != nil {
				return out, fmt.Errorf("output: format %s: %w", JSONFile, err)
			}
			buf.WriteByte('\n')
			if err := write(JSONFile, buf.Bytes()); err != nil {
				return out, err
			}
		}
	}
	if formats == nil {
		formats = []string{}
	}

	meta := Meta{
		Source:       result.Source.Ref,
		Title:        rec.Title,
		Channel:      rec.Channel,
		Lang:         rec.Lang,
		LanguageName: language.DisplayName(rec.Lang),
		Method:       string(rec.Method),
		CacheKey:     result.Transcript.Key,
		Formats:      formats,
		GeneratedAt:  now().UTC(),
	}
	if result.Source.Kind == transcript.SourceVideo {
		meta.VideoID = result.Source.VideoID
	}
	if result.Summary != nil {
		meta.Model = result.Summary.Model
	}
	metaPath := filepath.Join(dir, MetaFile)
	if err := fileutil.WriteJSONAtomic(metaPath, meta); err != nil {
		return out, fmt.Errorf("output: write %s: %w", MetaFile, err)
	}
	out.Files = append(out.Files, metaPath)
	return out, nil
}
