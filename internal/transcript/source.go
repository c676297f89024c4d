package transcript

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"ytsummarize/internal/services"
)

// SourceKind distinguishes video references from local transcript files.
type SourceKind int

const (
	SourceVideo SourceKind = iota + 1
	SourceLocalFile
)

// Source is a parsed summarize target.
type Source struct {
	Kind    SourceKind
	Ref     string
	VideoID string
	Path    string
}

var (
	videoURLPattern = regexp.MustCompile(`(?:youtube\.com/watch\?(?:[^#]*&)?v=|youtu\.be/|youtube\.com/(?:embed|shorts|live)/)([A-Za-z0-9_-]{11})`)
	bareIDPattern   = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)
)

// ExtractVideoID returns the 11-character video id in ref, which may be a
// watch, short, embed, or shorts URL or a bare id.
func ExtractVideoID(ref string) (string, bool) {
	ref = strings.TrimSpace(ref)
	if m := videoURLPattern.FindStringSubmatch(ref); m != nil {
		return m[1], true
	}
	if bareIDPattern.MatchString(ref) {
		return ref, true
	}
	return "", false
}

// ParseSource classifies ref as a local .txt file or a video reference.
func ParseSource(ref string) (Source, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return Source{}, services.Wrap(services.ErrValidation, "source", "parse", "source required", nil)
	}
	info, statErr := os.Stat(ref)
	if statErr == nil && !info.IsDir() {
		if !strings.EqualFold(filepath.Ext(ref), ".txt") {
			return Source{}, services.Wrap(services.ErrValidation, "source", "parse",
				fmt.Sprintf("expected .txt file, got %q", filepath.Ext(ref)), nil)
		}
		return Source{Kind: SourceLocalFile, Ref: ref, Path: ref}, nil
	}
	if id, ok := ExtractVideoID(ref); ok {
		return Source{Kind: SourceVideo, Ref: ref, VideoID: id}, nil
	}
	if statErr != nil && !errors.Is(statErr, os.ErrNotExist) {
		return Source{}, services.Wrap(services.ErrValidation, "source", "parse", "stat source", statErr)
	}
	if looksLikePath(ref) {
		return Source{}, services.Wrap(services.ErrValidation, "source", "parse", "File not found: "+ref, nil)
	}
	return Source{}, services.Wrap(services.ErrValidation, "source", "parse",
		fmt.Sprintf("could not extract video id from %q", ref), nil)
}

func looksLikePath(ref string) bool {
	if strings.HasSuffix(strings.ToLower(ref), ".txt") {
		return true
	}
	return strings.ContainsRune(ref, filepath.Separator) && !strings.Contains(ref, "://")
}
