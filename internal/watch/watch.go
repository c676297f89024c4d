// Package watch summarizes local transcripts as they appear in a folder.
//
// Files are handled one at a time, in the order they settle, so a burst of
// new transcripts never runs concurrent model calls.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"ytsummarize/internal/fileutil"
	"ytsummarize/internal/logging"
)

// DefaultSettle is how long a file must go without events before it is handled.
const DefaultSettle = 500 * time.Millisecond

// Handler processes one settled transcript file.
type Handler func(ctx context.Context, path string) error

// Options tunes the watcher.
type Options struct {
	Settle time.Duration
	Logger *slog.Logger
}

// Watcher monitors one directory for .txt files.
type Watcher struct {
	dir     string
	handler Handler
	settle  time.Duration
	logger  *slog.Logger
	fs      *fsnotify.Watcher
	// handled maps a path to the content hash last processed successfully.
	handled map[string]string
	hash    func(path string) (string, error)
}

// New starts watching dir. Call Run to process events and Close when done.
func New(dir string, handler Handler, opts Options) (*Watcher, error) {
	if handler == nil {
		return nil, errors.New("watch: handler required")
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("watch: %s is not a directory", dir)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("add watch path: %w", err)
	}
	settle := opts.Settle
	if settle <= 0 {
		settle = DefaultSettle
	}
	return &Watcher{
		dir:     dir,
		handler: handler,
		settle:  settle,
		logger:  logging.NewComponentLogger(opts.Logger, "watch"),
		fs:      fsw,
		handled: make(map[string]string),
		hash:    fileutil.HashFile,
	}, nil
}

// Run blocks until ctx is cancelled, handling each created or rewritten
// transcript once its writes settle. Handler errors are logged, not returned.
func (w *Watcher) Run(ctx context.Context) error {
	w.logger.Info("watching for transcripts", logging.String("dir", w.dir))
	tick := w.settle / 2
	if tick < 10*time.Millisecond {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	pending := make(map[string]time.Time)
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("watcher stopped", logging.Int("pending", len(pending)))
			return nil

		case event, ok := <-w.fs.Events:
			if !ok {
				return errors.New("watcher events channel closed")
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !isTranscript(event.Name) {
				w.logger.Debug("ignoring file", logging.String("path", event.Name))
				continue
			}
			pending[event.Name] = time.Now()

		case err, ok := <-w.fs.Errors:
			if !ok {
				return errors.New("watcher errors channel closed")
			}
			logging.WarnWithContext(w.logger, "watcher error", "watch_error",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "the OS event queue may have overflowed; re-save affected files"),
				logging.String(logging.FieldImpact, "some file changes may not be summarized"),
			)

		case now := <-ticker.C:
			for _, path := range settled(pending, now, w.settle) {
				delete(pending, path)
				w.process(ctx, path)
				if ctx.Err() != nil {
					return nil
				}
			}
		}
	}
}

// Close stops the underlying file system watcher.
func (w *Watcher) Close() error {
	return w.fs.Close()
}

func (w *Watcher) process(ctx context.Context, path string) {
	logger := w.logger.With(logging.String("path", path))
	info, err := os.Stat(path)
	if err != nil || info.IsDir() || info.Size() == 0 {
		logger.Debug("skipping file", logging.Bool("missing", err != nil))
		return
	}
	hash, err := w.hash(path)
	if err != nil {
		logging.WarnWithContext(logger, "could not read transcript", "watch_read_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the file permissions, then save the file again"),
			logging.String(logging.FieldImpact, "transcript skipped until its next change"),
		)
		return
	}
	if w.handled[path] == hash {
		logger.Debug("content unchanged; skipping")
		return
	}
	logger.Info("transcript detected")
	if err := w.handler(ctx, path); err != nil {
		logger.Error("failed to process transcript", logging.Error(err))
		return
	}
	w.handled[path] = hash
}

func settled(pending map[string]time.Time, now time.Time, settle time.Duration) []string {
	var ready []string
	for path, last := range pending {
		if now.Sub(last) >= settle {
			ready = append(ready, path)
		}
	}
	sort.Slice(ready, func(i, j int) bool {
		if pending[ready[i]].Equal(pending[ready[j]]) {
			return ready[i] < ready[j]
		}
		return pending[ready[i]].Before(pending[ready[j]])
	})
	return ready
}

func isTranscript(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") || strings.HasPrefix(base, "~") {
		return false
	}
	return strings.EqualFold(filepath.Ext(base), ".txt")
}
