// Package watch converts files dropped into a folder.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/OCAP2/animconv/internal/config"
	"github.com/OCAP2/animconv/internal/dispatcher"
	"github.com/OCAP2/animconv/internal/queue"
	"github.com/OCAP2/animconv/internal/util"
	"github.com/OCAP2/animconv/internal/worker"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is used when Config.Debounce is not positive.
const DefaultDebounce = 500 * time.Millisecond

// Dispatcher routes events; *dispatcher.Dispatcher implements it.
type Dispatcher interface {
	Dispatch(e dispatcher.Event) (any, error)
}

// Config controls a Watcher.
type Config struct {
	Dir        string
	Debounce   time.Duration
	Extensions []string
}

// Watcher collects file events and dispatches a convert command once a
// file has been quiet for the debounce period.
type Watcher struct {
	cfg      Config
	d        Dispatcher
	logger   *slog.Logger
	incoming *queue.Queue[string]
	// path -> time of the latest event
	pending map[string]time.Time
	now     func() time.Time
}

// New creates a watcher. It does not touch the file system until Run.
func New(cfg Config, d Dispatcher, logger *slog.Logger) *Watcher {
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}
	exts := make([]string, 0, len(cfg.Extensions))
	for _, e := range cfg.Extensions {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		exts = append(exts, e)
	}
	cfg.Extensions = exts

	return &Watcher{
		cfg:      cfg,
		d:        d,
		logger:   logger,
		incoming: queue.New[string](),
		pending:  make(map[string]time.Time),
		now:      time.Now,
	}
}

// Matches reports whether path is a source file this watcher converts.
// Converted output is never a match.
func (w *Watcher) Matches(path string) bool {
	lower := strings.ToLower(path)
	if strings.HasSuffix(lower, util.OutputExtension) || strings.HasSuffix(lower, util.OutputExtension+".gz") {
		return false
	}
	// our own config and status files may share the drop folder
	if base := filepath.Base(lower); base == config.FileName || strings.HasSuffix(base, util.StatusSuffix) {
		return false
	}
	ext := filepath.Ext(lower)
	for _, e := range w.cfg.Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Notify queues path for conversion if it matches.
func (w *Watcher) Notify(path string) bool {
	if !w.Matches(path) {
		return false
	}
	w.incoming.Push(path)
	return true
}

// Run watches the directory until ctx is cancelled. Files still waiting
// for their debounce period are dispatched before Run returns.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.cfg.Dir); err != nil {
		return fmt.Errorf("watching %s: %w", w.cfg.Dir, err)
	}
	w.logger.Info("Watching for keyframe files", "dir", w.cfg.Dir, "extensions", w.cfg.Extensions)

	ticker := time.NewTicker(w.cfg.Debounce / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.collect()
			w.flush(time.Time{})
			return nil

		case ev, ok := <-fsw.Events:
			if !ok {
				return errors.New("watcher event channel closed")
			}
			if ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write) {
				w.Notify(ev.Name)
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return errors.New("watcher error channel closed")
			}
			w.logger.Warn("Watcher error", "error", err)

		case <-w.incoming.Ready():
			w.collect()

		case <-ticker.C:
			w.flush(w.now())
		}
	}
}

// collect moves queued paths into the pending set, restarting their quiet period.
func (w *Watcher) collect() {
	now := w.now()
	for _, path := range w.incoming.Drain() {
		w.pending[path] = now
	}
}

// flush dispatches every pending file that has been quiet for the debounce
// period. A zero now dispatches everything. Paths go out in sorted order.
func (w *Watcher) flush(now time.Time) int {
	var ready []string
	for path, seen := range w.pending {
		if now.IsZero() || now.Sub(seen) >= w.cfg.Debounce {
			ready = append(ready, path)
		}
	}
	sort.Strings(ready)

	for _, path := range ready {
		delete(w.pending, path)
		if _, err := w.d.Dispatch(dispatcher.Event{Command: worker.CommandConvert, Args: []string{path}}); err != nil {
			w.logger.Error("Failed to queue conversion", "path", path, "error", err)
		}
	}
	return len(ready)
}
