package transcript

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"ytsummarize/internal/cache"
	"ytsummarize/internal/costs"
	"ytsummarize/internal/language"
	"ytsummarize/internal/logging"
	"ytsummarize/internal/services"
	"ytsummarize/internal/services/captions"
	"ytsummarize/internal/services/stt"
	"ytsummarize/internal/services/ytdlp"
)

const (
	// AutoLanguage requests whatever language the source offers.
	AutoLanguage = language.Auto

	placeholderChannel = "Unknown"
	lockRetryDelay     = 250 * time.Millisecond
	lockWait           = 5 * time.Second
)

// Method aliases the cache's acquisition tag.
type Method = cache.Method

// Downloader is the subset of the yt-dlp client the chain depends on.
type Downloader interface {
	FetchSubtitles(ctx context.Context, videoID, lang, workDir string) (string, string, error)
	Metadata(ctx context.Context, videoID string) (ytdlp.Metadata, error)
	DownloadAudio(ctx context.Context, videoID, outputDir string) (ytdlp.Audio, error)
}

// Options controls the audio fallback step.
type Options struct {
	AudioFallback   bool
	MaxMinutes      int
	KeepAudio       bool
	WorkDir         string
	TranscribeModel string
}

// Deps are the collaborators used by the chain. Transcriber may be nil when
// audio fallback is disabled.
type Deps struct {
	Store       *cache.Store
	Captions    captions.Lister
	Downloader  Downloader
	Transcriber stt.Transcriber
	Logger      *slog.Logger
	// Warn receives user-facing notices such as cost warnings.
	Warn func(string)
}

// Chain acquires transcripts by trying captions, downloaded subtitles, and
// audio transcription in that order.
type Chain struct {
	deps   Deps
	opts   Options
	logger *slog.Logger
}

// Request identifies the transcript to acquire.
type Request struct {
	VideoID string
	Lang    string
	Force   bool
}

// Result is an acquired or cached transcript.
type Result struct {
	Key      string
	Record   cache.TranscriptRecord
	CacheHit bool
	// AudioPath is set when audio was downloaded and kept.
	AudioPath string
}

// NewChain constructs a chain.
func NewChain(deps Deps, opts Options) *Chain {
	if opts.WorkDir == "" {
		opts.WorkDir = filepath.Join(os.TempDir(), "yt-summarize")
	}
	return &Chain{
		deps:   deps,
		opts:   opts,
		logger: logging.NewComponentLogger(deps.Logger, "transcript"),
	}
}

// Acquire returns the transcript for req, consulting the cache first unless
// req.Force is set.
func (c *Chain) Acquire(ctx context.Context, req Request) (Result, error) {
	if _, ok := ExtractVideoID(req.VideoID); !ok {
		return Result{}, services.Wrap(services.ErrValidation, "transcript", "acquire", fmt.Sprintf("invalid video id %q", req.VideoID), nil)
	}
	lang := normalizeLang(req.Lang)
	ctx = services.WithVideoID(services.WithStage(ctx, "transcript"), req.VideoID)
	logger := logging.WithContext(ctx, c.logger)

	if !req.Force && c.deps.Store != nil {
		for _, method := range cache.Methods {
			key := cache.YouTubeKey(req.VideoID, lang, method)
			if rec, ok := c.deps.Store.Transcript(key); ok {
				logger.Info("using cached transcript",
					logging.String(logging.FieldCacheKey, key),
					logging.String(logging.FieldMethod, string(method)),
				)
				return Result{Key: key, Record: rec, CacheHit: true}, nil
			}
		}
	}

	result, err := c.acquire(ctx, logger, req.VideoID, lang)
	if err != nil {
		return Result{}, err
	}
	result.Key = cache.YouTubeKey(req.VideoID, lang, result.Record.Method)
	if c.deps.Store != nil {
		if err := c.deps.Store.PutTranscript(result.Key, result.Record); err != nil {
			logging.WarnWithContext(logger, "failed to cache transcript", "transcript_cache_write_failed",
				logging.String(logging.FieldCacheKey, result.Key),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check cache directory permissions"),
				logging.String(logging.FieldImpact, "transcript will be fetched again next run"),
			)
		}
	}
	return result, nil
}

func (c *Chain) acquire(ctx context.Context, logger *slog.Logger, videoID, lang string) (Result, error) {
	text, resolved, err := c.fromCaptions(ctx, videoID, lang)
	if err == nil {
		logger.Info("transcript acquired", logging.Args(
			append(logging.DecisionAttrs("transcript_method", string(cache.MethodCaptions), "caption track available"),
				logging.String("lang", resolved))...)...)
		return c.withMetadata(ctx, logger, videoID, text, resolved, cache.MethodCaptions, nil), nil
	}
	logger.Info("captions unavailable; trying subtitles", logging.Error(err))

	text, resolved, err = c.fromSubtitles(ctx, videoID, lang)
	if err == nil {
		logger.Info("transcript acquired", logging.Args(
			append(logging.DecisionAttrs("transcript_method", string(cache.MethodSubtitles), "subtitle download succeeded"),
				logging.String("lang", resolved))...)...)
		return c.withMetadata(ctx, logger, videoID, text, resolved, cache.MethodSubtitles, nil), nil
	}
	if errors.Is(err, services.ErrToolMissing) {
		return Result{}, err
	}
	logger.Info("subtitles unavailable", logging.Error(err))

	if !c.opts.AudioFallback {
		return Result{}, services.Wrap(services.ErrUnavailable, "transcript", videoID,
			"no captions or subtitles available and audio fallback disabled", nil)
	}
	return c.fromAudio(ctx, logger, videoID, lang)
}

// fromCaptions picks a caption track: an exact language match, then a
// translation into lang, then in auto mode a manual track before an
// auto-generated one.
func (c *Chain) fromCaptions(ctx context.Context, videoID, lang string) (string, string, error) {
	if c.deps.Captions == nil {
		return "", "", services.Wrap(services.ErrUnavailable, "captions", videoID, "caption lookup disabled", nil)
	}
	tracks, err := c.deps.Captions.ListTracks(ctx, videoID)
	if err != nil {
		return "", "", err
	}
	track, translateTo, ok := SelectTrack(tracks, lang)
	if !ok {
		return "", "", services.Wrap(services.ErrUnavailable, "captions", videoID, fmt.Sprintf("no track for language %q", lang), nil)
	}
	snippets, err := c.deps.Captions.Fetch(ctx, track, translateTo)
	if err != nil {
		return "", "", err
	}
	text := captions.JoinSnippets(snippets)
	if text == "" {
		return "", "", services.Wrap(services.ErrUnavailable, "captions", videoID, "caption track is empty", nil)
	}
	resolved := track.Language
	if translateTo != "" {
		resolved = translateTo
	}
	return text, resolved, nil
}

// SelectTrack chooses the caption track for lang and reports the
// translation target when the track must be translated.
func SelectTrack(tracks []captions.Track, lang string) (captions.Track, string, bool) {
	if lang != AutoLanguage {
		for _, t := range tracks {
			if strings.EqualFold(t.Language, lang) {
				return t, "", true
			}
		}
		for _, t := range tracks {
			if !t.IsTranslatable {
				continue
			}
			for _, target := range t.TranslationTargets {
				if strings.EqualFold(target, lang) {
					return t, target, true
				}
			}
		}
		return captions.Track{}, "", false
	}
	for _, t := range tracks {
		if !t.IsGenerated {
			return t, "", true
		}
	}
	for _, t := range tracks {
		if t.IsGenerated {
			return t, "", true
		}
	}
	return captions.Track{}, "", false
}

func (c *Chain) fromSubtitles(ctx context.Context, videoID, lang string) (string, string, error) {
	if c.deps.Downloader == nil {
		return "", "", services.Wrap(services.ErrUnavailable, "subtitles", videoID, "downloader disabled", nil)
	}
	dir, err := os.MkdirTemp("", "yt-summarize-subs-")
	if err != nil {
		return "", "", fmt.Errorf("subtitles: temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	raw, found, err := c.deps.Downloader.FetchSubtitles(ctx, videoID, lang, dir)
	if err != nil {
		return "", "", err
	}
	text := ParseVTT(raw)
	if text == "" {
		return "", "", services.Wrap(services.ErrUnavailable, "subtitles", videoID, "subtitle file was empty", nil)
	}
	return text, found, nil
}

func (c *Chain) fromAudio(ctx context.Context, logger *slog.Logger, videoID, lang string) (Result, error) {
	if c.deps.Transcriber == nil {
		return Result{}, services.Wrap(services.ErrConfiguration, "transcript", videoID, "speech-to-text client not configured", nil)
	}
	meta, metaOK := c.metadata(ctx, logger, videoID)
	if metaOK && c.opts.MaxMinutes > 0 && meta.DurationSeconds > float64(c.opts.MaxMinutes*60) {
		return Result{}, services.Wrap(services.ErrUnavailable, "transcript", videoID,
			fmt.Sprintf("video too long (%.0f min > %d min limit)", meta.DurationSeconds/60, c.opts.MaxMinutes), nil)
	}
	if metaOK {
		est := costs.EstimateTranscription(meta.DurationSeconds, c.opts.TranscribeModel)
		if est.ShouldWarn {
			msg := costs.FormatWarning("Transcription", est.Cost, est.Details())
			logging.WarnWithContext(logger, "transcription cost above threshold", "transcription_cost_warning",
				logging.Float64("estimated_cost", est.Cost),
				logging.Float64("minutes", est.Minutes),
				logging.String(logging.FieldErrorHint, "use --no-audio-fallback to skip transcription"),
				logging.String(logging.FieldImpact, "provider charges apply"),
			)
			c.notify(msg)
		}
	}

	if err := os.MkdirAll(c.opts.WorkDir, 0o755); err != nil {
		return Result{}, fmt.Errorf("transcript: create work dir: %w", err)
	}
	lock := flock.New(filepath.Join(c.opts.WorkDir, videoID+".lock"))
	lockCtx, cancel := context.WithTimeout(ctx, lockWait)
	locked, err := lock.TryLockContext(lockCtx, lockRetryDelay)
	cancel()
	if err != nil || !locked {
		return Result{}, services.Wrap(services.ErrUnavailable, "transcript", videoID,
			"another process is downloading audio for this video", err)
	}
	defer func() {
		_ = lock.Unlock()
		_ = os.Remove(lock.Path())
	}()

	audioDir := filepath.Join(c.opts.WorkDir, videoID)
	keep := false
	defer func() {
		if !keep {
			_ = os.RemoveAll(audioDir)
		}
	}()

	logger.Info("downloading audio for transcription", logging.String("dir", audioDir))
	audio, err := c.deps.Downloader.DownloadAudio(ctx, videoID, audioDir)
	if err != nil {
		return Result{}, err
	}
	text, err := c.deps.Transcriber.Transcribe(ctx, audio.Path, c.opts.TranscribeModel, language.TranscriptionHint(lang))
	if err != nil {
		return Result{}, err
	}
	logger.Info("transcript acquired", logging.Args(
		logging.DecisionAttrs("transcript_method", string(cache.MethodSpeechToText), "captions and subtitles unavailable")...)...)

	resolved := lang
	if resolved == AutoLanguage {
		resolved = "unknown"
	}
	var metaPtr *ytdlp.Metadata
	if metaOK {
		metaPtr = &meta
	}
	result := c.withMetadata(ctx, logger, videoID, text, resolved, cache.MethodSpeechToText, metaPtr)
	if c.opts.KeepAudio {
		keep = true
		result.AudioPath = audio.Path
	}
	return result, nil
}

// metadata is the fallible display lookup; callers choose placeholders.
func (c *Chain) metadata(ctx context.Context, logger *slog.Logger, videoID string) (ytdlp.Metadata, bool) {
	if c.deps.Downloader == nil {
		return ytdlp.Metadata{}, false
	}
	meta, err := c.deps.Downloader.Metadata(ctx, videoID)
	if err != nil {
		logger.Info("video metadata unavailable; using placeholders", logging.Error(err))
		return ytdlp.Metadata{}, false
	}
	return meta, true
}

func (c *Chain) withMetadata(ctx context.Context, logger *slog.Logger, videoID, text, lang string, method Method, known *ytdlp.Metadata) Result {
	var meta ytdlp.Metadata
	if known != nil {
		meta = *known
	} else if m, ok := c.metadata(ctx, logger, videoID); ok {
		meta = m
	}
	title := strings.TrimSpace(meta.Title)
	if title == "" {
		title = videoID
	}
	channel := strings.TrimSpace(meta.Channel)
	if channel == "" {
		channel = placeholderChannel
	}
	return Result{Record: cache.TranscriptRecord{
		Text:     text,
		VideoID:  videoID,
		Title:    title,
		Channel:  channel,
		Lang:     lang,
		Method:   method,
		CachedAt: time.Now().UTC(),
	}}
}

func (c *Chain) notify(msg string) {
	if c.deps.Warn != nil {
		c.deps.Warn(msg)
	}
}

func normalizeLang(lang string) string {
	return language.Normalize(lang)
}
