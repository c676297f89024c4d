package ytdlp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"ytsummarize/internal/services"
)

// DefaultBinary is the executable looked up on PATH.
const DefaultBinary = "yt-dlp"

// Remediation is shown when the binary cannot be found.
const Remediation = "Install with: brew install yt-dlp (or pip install yt-dlp)"

const (
	subtitleTimeout = 60 * time.Second
	metadataTimeout = 30 * time.Second
	audioTimeout    = 5 * time.Minute
	versionTimeout  = 10 * time.Second
)

var (
	subtitleLangPattern = regexp.MustCompile(`\.([a-z]{2}(?:-[A-Z]{2})?)\.vtt$`)
	audioExtensions     = []string{".mp3", ".m4a", ".webm", ".opus"}
)

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string) (stdout, stderr []byte, err error)
}

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// Client wraps yt-dlp CLI interactions.
type Client struct {
	binary string
	exec   Executor
}

// New constructs a yt-dlp client. An empty binary selects DefaultBinary.
func New(binary string, opts ...Option) *Client {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = DefaultBinary
	}
	c := &Client{binary: binary, exec: commandExecutor{}}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Binary returns the configured executable name.
func (c *Client) Binary() string { return c.binary }

// Metadata is the display information yt-dlp reports for a video.
type Metadata struct {
	Title           string
	Channel         string
	DurationSeconds float64
}

// Audio is a downloaded audio file.
type Audio struct {
	Path string
}

// WatchURL returns the canonical watch page for a video id.
func WatchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}

// Version returns the installed yt-dlp version.
func (c *Client) Version(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, versionTimeout)
	defer cancel()
	stdout, stderr, err := c.exec.Run(ctx, c.binary, []string{"--version"})
	if err != nil {
		return "", c.commandError("version", stderr, err)
	}
	return strings.TrimSpace(string(stdout)), nil
}

// FetchSubtitles downloads VTT subtitles into workDir and returns the raw
// file contents with the language parsed from the chosen file name. lang
// "auto" requests auto-generated plus English variants; any other value
// requests that language with English as a fallback.
func (c *Client) FetchSubtitles(ctx context.Context, videoID, lang, workDir string) (string, string, error) {
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return "", "", fmt.Errorf("subtitles: create work dir: %w", err)
	}
	var langArgs []string
	if lang == "" || lang == "auto" {
		langArgs = []string{"--write-auto-subs", "--write-subs", "--sub-langs", "en,en-US,en-GB"}
	} else {
		langArgs = []string{"--sub-langs", lang + ",en", "--write-subs"}
	}
	args := []string{"--skip-download", "--no-playlist"}
	args = append(args, langArgs...)
	args = append(args,
		"--sub-format", "vtt",
		"--convert-subs", "vtt",
		"-o", filepath.Join(workDir, "%(id)s.%(ext)s"),
		WatchURL(videoID),
	)

	runCtx, cancel := context.WithTimeout(ctx, subtitleTimeout)
	defer cancel()
	if _, stderr, err := c.exec.Run(runCtx, c.binary, args); err != nil {
		return "", "", c.commandError("subtitle fetch", stderr, err)
	}

	matches, err := filepath.Glob(filepath.Join(workDir, videoID+"*.vtt"))
	if err != nil {
		return "", "", fmt.Errorf("subtitles: glob: %w", err)
	}
	if len(matches) == 0 {
		return "", "", services.Wrap(services.ErrUnavailable, "subtitles", videoID, "no subtitles found", nil)
	}
	sort.Strings(matches)
	chosen := matches[0]
	for _, candidate := range matches {
		name := filepath.Base(candidate)
		if strings.Contains(name, ".en.") && !strings.Contains(strings.ToLower(name), "auto") {
			chosen = candidate
			break
		}
	}
	foundLang := "en"
	if m := subtitleLangPattern.FindStringSubmatch(filepath.Base(chosen)); m != nil {
		foundLang = m[1]
	}
	data, err := os.ReadFile(chosen)
	if err != nil {
		return "", "", fmt.Errorf("subtitles: read %s: %w", filepath.Base(chosen), err)
	}
	return string(data), foundLang, nil
}

// Metadata fetches title, channel, and duration without downloading media.
func (c *Client) Metadata(ctx context.Context, videoID string) (Metadata, error) {
	runCtx, cancel := context.WithTimeout(ctx, metadataTimeout)
	defer cancel()
	stdout, stderr, err := c.exec.Run(runCtx, c.binary, []string{
		"--dump-json",
		"--no-download",
		"--no-playlist",
		WatchURL(videoID),
	})
	if err != nil {
		return Metadata{}, c.commandError("metadata", stderr, err)
	}
	return parseMetadata(stdout)
}

func parseMetadata(payload []byte) (Metadata, error) {
	if !gjson.ValidBytes(payload) {
		return Metadata{}, services.Wrap(services.ErrUnavailable, "metadata", "parse", "invalid json from yt-dlp", nil)
	}
	result := gjson.ParseBytes(payload)
	channel := result.Get("channel").String()
	if channel == "" {
		channel = result.Get("uploader").String()
	}
	return Metadata{
		Title:           result.Get("title").String(),
		Channel:         channel,
		DurationSeconds: result.Get("duration").Float(),
	}, nil
}

// DownloadAudio extracts best-quality mp3 audio into outputDir.
func (c *Client) DownloadAudio(ctx context.Context, videoID, outputDir string) (Audio, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return Audio{}, fmt.Errorf("audio: create output dir: %w", err)
	}
	args := []string{
		"-x",
		"--audio-format", "mp3",
		"--audio-quality", "0",
		"--no-playlist",
		"-o", filepath.Join(outputDir, videoID+".%(ext)s"),
		WatchURL(videoID),
	}
	runCtx, cancel := context.WithTimeout(ctx, audioTimeout)
	defer cancel()
	if _, stderr, err := c.exec.Run(runCtx, c.binary, args); err != nil {
		return Audio{}, c.commandError("audio download", stderr, err)
	}
	for _, ext := range audioExtensions {
		path := filepath.Join(outputDir, videoID+ext)
		if _, err := os.Stat(path); err == nil {
			return Audio{Path: path}, nil
		}
	}
	return Audio{}, services.Wrap(services.ErrUnavailable, "audio", videoID, "audio file not found after download", nil)
}

func (c *Client) commandError(op string, stderr []byte, err error) error {
	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, os.ErrNotExist) {
		return &services.ToolMissingError{Tool: c.binary, Remediation: Remediation, Err: err}
	}
	detail := strings.TrimSpace(string(stderr))
	if detail == "" {
		detail = err.Error()
	}
	return services.Wrap(services.ErrUnavailable, "yt-dlp", op, detail, err)
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}
