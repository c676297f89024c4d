package testsupport

import (
	"testing"
	"time"

	"ytsummarize/internal/cache"
	"ytsummarize/internal/config"
)

// NewStore returns a cache store rooted at cfg.Paths.CacheDir.
func NewStore(t testing.TB, cfg *config.Config) *cache.Store {
	t.Helper()
	return cache.New(cfg.Paths.CacheDir, nil)
}

// SeedTranscript stores a transcript record under key.
func SeedTranscript(t testing.TB, store *cache.Store, key string, rec cache.TranscriptRecord) {
	t.Helper()

	if rec.CachedAt.IsZero() {
		rec.CachedAt = time.Now().UTC()
	}
	if err := store.PutTranscript(key, rec); err != nil {
		t.Fatalf("PutTranscript(%s): %v", key, err)
	}
}

// SeedSummary stores a summary record under key.
func SeedSummary(t testing.TB, store *cache.Store, key string, rec cache.SummaryRecord) {
	t.Helper()

	if rec.CachedAt.IsZero() {
		rec.CachedAt = time.Now().UTC()
	}
	if err := store.PutSummary(key, rec); err != nil {
		t.Fatalf("PutSummary(%s): %v", key, err)
	}
}
