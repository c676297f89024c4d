package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"ytsummarize/internal/fileutil"
	"ytsummarize/internal/logging"
	"ytsummarize/internal/services"
)

// Kind names the record type stored in a cache file.
type Kind string

const (
	KindTranscript Kind = "transcript"
	KindSummary    Kind = "summary"
)

var kinds = []Kind{KindTranscript, KindSummary}

// Entry is one row of List output.
type Entry struct {
	Key      string
	Kind     Kind
	Title    string
	Size     int64
	Modified time.Time
}

// Stats summarizes the cache directory.
type Stats struct {
	Dir         string
	Transcripts int
	Summaries   int
	TotalBytes  int64
}

// Store is the flat-file cache.
type Store struct {
	dir    string
	logger *slog.Logger
}

// New returns a store rooted at dir. The directory is created on first use.
func New(dir string, logger *slog.Logger) *Store {
	return &Store{
		dir:    strings.TrimSpace(dir),
		logger: logging.NewComponentLogger(logger, "cache"),
	}
}

// Dir returns the backing directory.
func (s *Store) Dir() string { return s.dir }

func (s *Store) ensureDir() error {
	if s.dir == "" {
		return services.Wrap(services.ErrConfiguration, "cache", "init", "cache directory is empty", nil)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("cache: create dir: %w", err)
	}
	return nil
}

func (s *Store) path(key string, kind Kind) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s_%s.json", key, kind))
}

func validKey(key string) bool {
	key = strings.TrimSpace(key)
	return key != "" && !strings.ContainsAny(key, `/\`) && key != "." && key != ".."
}

// Transcript returns the transcript stored under key.
func (s *Store) Transcript(key string) (TranscriptRecord, bool) {
	var rec TranscriptRecord
	if !s.load(key, KindTranscript, &rec) {
		return TranscriptRecord{}, false
	}
	if !rec.Method.Valid() {
		s.warnCorrupt(key, KindTranscript, fmt.Errorf("unknown method %q", rec.Method))
		return TranscriptRecord{}, false
	}
	return rec, true
}

// PutTranscript stores rec under key, replacing any previous record.
func (s *Store) PutTranscript(key string, rec TranscriptRecord) error {
	if rec.CachedAt.IsZero() {
		rec.CachedAt = time.Now().UTC()
	}
	return s.store(key, KindTranscript, rec)
}

// Summary returns the summary under key only when it carries every
// representation in want.
func (s *Store) Summary(key string, want Representation) (SummaryRecord, bool) {
	var rec SummaryRecord
	if !s.load(key, KindSummary, &rec) {
		return SummaryRecord{}, false
	}
	if !rec.Satisfies(want) {
		s.logger.Debug("cached summary lacks requested representation",
			logging.String(logging.FieldCacheKey, key),
			logging.String("want", want.String()),
			logging.String("have", rec.Representations().String()),
		)
		return SummaryRecord{}, false
	}
	return rec.clone(), true
}

// PutSummary stores rec under key, replacing any previous record.
func (s *Store) PutSummary(key string, rec SummaryRecord) error {
	if rec.CachedAt.IsZero() {
		rec.CachedAt = time.Now().UTC()
	}
	return s.store(key, KindSummary, rec)
}

func (s *Store) load(key string, kind Kind, target any) bool {
	if !validKey(key) {
		return false
	}
	if err := s.ensureDir(); err != nil {
		s.warnCorrupt(key, kind, err)
		return false
	}
	data, err := os.ReadFile(s.path(key, kind))
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.warnCorrupt(key, kind, err)
		}
		return false
	}
	if err := json.Unmarshal(data, target); err != nil {
		s.warnCorrupt(key, kind, err)
		return false
	}
	s.logger.Debug("cache hit",
		logging.String(logging.FieldCacheKey, key),
		logging.String("kind", string(kind)),
	)
	return true
}

func (s *Store) store(key string, kind Kind, value any) error {
	if !validKey(key) {
		return services.Wrap(services.ErrValidation, "cache", "put", fmt.Sprintf("invalid key %q", key), nil)
	}
	if err := s.ensureDir(); err != nil {
		return err
	}
	if err := fileutil.WriteJSONAtomic(s.path(key, kind), value); err != nil {
		return fmt.Errorf("cache: write %s %s: %w", kind, key, err)
	}
	s.logger.Debug("cache stored",
		logging.String(logging.FieldCacheKey, key),
		logging.String("kind", string(kind)),
	)
	return nil
}

func (s *Store) warnCorrupt(key string, kind Kind, err error) {
	logging.WarnWithContext(s.logger, "cache entry unreadable; treating as miss", "cache_entry_corrupt",
		logging.String(logging.FieldCacheKey, key),
		logging.String("kind", string(kind)),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "run cache clear --key "+key+" if this repeats"),
		logging.String(logging.FieldImpact, "entry will be rebuilt from the source"),
	)
}

// Clear removes every file stored under key and returns how many were deleted.
func (s *Store) Clear(key string) (int, error) {
	if !validKey(key) {
		return 0, services.Wrap(services.ErrValidation, "cache", "clear", fmt.Sprintf("invalid key %q", key), nil)
	}
	if err := s.ensureDir(); err != nil {
		return 0, err
	}
	removed := 0
	for _, kind := range kinds {
		err := os.Remove(s.path(key, kind))
		switch {
		case err == nil:
			removed++
		case errors.Is(err, os.ErrNotExist):
		default:
			return removed, fmt.Errorf("cache: remove %s %s: %w", kind, key, err)
		}
	}
	return removed, nil
}

// ClearAll removes every cache file and returns how many were deleted.
func (s *Store) ClearAll() (int, error) {
	files, err := s.files()
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, f := range files {
		if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return removed, fmt.Errorf("cache: remove %s: %w", filepath.Base(f.path), err)
		}
		removed++
	}
	return removed, nil
}

// List returns one row per cache file sorted by key then kind.
func (s *Store) List() ([]Entry, error) {
	files, err := s.files()
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(files))
	for _, f := range files {
		entry := Entry{Key: f.key, Kind: f.kind, Size: f.size, Modified: f.modified}
		if f.kind == KindTranscript {
			if rec, ok := s.Transcript(f.key); ok {
				entry.Title = rec.Title
			}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Stats counts records and bytes on disk.
func (s *Store) Stats() (Stats, error) {
	files, err := s.files()
	if err != nil {
		return Stats{}, err
	}
	stats := Stats{Dir: s.dir}
	for _, f := range files {
		switch f.kind {
		case KindTranscript:
			stats.Transcripts++
		case KindSummary:
			stats.Summaries++
		}
		stats.TotalBytes += f.size
	}
	return stats, nil
}

type cacheFile struct {
	path     string
	key      string
	kind     Kind
	size     int64
	modified time.Time
}

func (s *Store) files() ([]cacheFile, error) {
	if err := s.ensureDir(); err != nil {
		return nil, err
	}
	dirEntries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("cache: read dir: %w", err)
	}
	var files []cacheFile
	for _, de := range dirEntries {
		if de.IsDir() {
			continue
		}
		key, kind, ok := parseFileName(de.Name())
		if !ok {
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue
		}
		files = append(files, cacheFile{
			path:     filepath.Join(s.dir, de.Name()),
			key:      key,
			kind:     kind,
			size:     info.Size(),
			modified: info.ModTime(),
		})
	}
	sort.Slice(files, func(i, j int) bool {
		if files[i].key != files[j].key {
			return files[i].key < files[j].key
		}
		return files[i].kind > files[j].kind
	})
	return files, nil
}

func parseFileName(name string) (string, Kind, bool) {
	base, ok := strings.CutSuffix(name, ".json")
	if !ok {
		return "", "", false
	}
	for _, kind := range kinds {
		if key, ok := strings.CutSuffix(base, "_"+string(kind)); ok && key != "" {
			return key, kind, true
		}
	}
	return "", "", false
}
