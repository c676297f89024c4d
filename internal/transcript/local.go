package transcript

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ytsummarize/internal/cache"
	"ytsummarize/internal/logging"
	"ytsummarize/internal/services"
)

const localChannel = "Local file"

// LoadLocal reads a .txt transcript. The cache key is derived from the file
// bytes so edits produce a new entry. title defaults to the file stem.
func (c *Chain) LoadLocal(ctx context.Context, path, title string, force bool) (Result, error) {
	if !strings.EqualFold(filepath.Ext(path), ".txt") {
		return Result{}, services.Wrap(services.ErrValidation, "transcript", "load local",
			"expected .txt file, got "+filepath.Ext(path), nil)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Result{}, services.Wrap(services.ErrValidation, "transcript", "load local", "File not found: "+path, nil)
		}
		return Result{}, services.Wrap(services.ErrValidation, "transcript", "load local", "read file", err)
	}
	key := cache.FileKey(data)
	logger := logging.WithContext(ctx, c.logger).With(logging.String(logging.FieldCacheKey, key))

	title = strings.TrimSpace(title)
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	if !force && c.deps.Store != nil {
		if rec, ok := c.deps.Store.Transcript(key); ok {
			// Same bytes may be summarized under a different title.
			rec.Title = title
			logger.Info("using cached transcript", logging.String(logging.FieldMethod, string(rec.Method)))
			return Result{Key: key, Record: rec, CacheHit: true}, nil
		}
	}

	rec := cache.TranscriptRecord{
		Text:     string(data),
		Title:    title,
		Channel:  localChannel,
		Lang:     AutoLanguage,
		Method:   cache.MethodLocalFile,
		CachedAt: time.Now().UTC(),
	}
	if c.deps.Store != nil {
		if err := c.deps.Store.PutTranscript(key, rec); err != nil {
			logging.WarnWithContext(logger, "failed to cache transcript", "transcript_cache_write_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check cache directory permissions"),
			)
		}
	}
	logger.Info("loaded local transcript", logging.String("path", path))
	return Result{Key: key, Record: rec}, nil
}
