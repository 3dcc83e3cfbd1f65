// Package watcher reports changes to the Markdown documents of a corpus in
// debounced batches.
//
// Events are collected until the corpus has been quiet for the debounce
// window; the handler then receives the changed paths once. The handler runs
// on the watcher's goroutine, so a slow rebuild delays the next batch rather
// than overlapping with it.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/specialistvlad/refgraph/internal/ctxlog"
)

// DefaultDebounce is used when Options.Debounce is zero.
const DefaultDebounce = 250 * time.Millisecond

// Handler receives the corpus-relative, slash-separated paths changed in a
// batch, sorted. A directory event is reported with the directory's path.
type Handler func(ctx context.Context, changed []string) error

// Options configures a Watcher.
type Options struct {
	Extension string
	Debounce  time.Duration
}

// Watcher watches a corpus root recursively.
type Watcher struct {
	root      string
	extension string
	debounce  time.Duration
	fs        *fsnotify.Watcher
}

// New starts watching root and every non-hidden directory below it.
func New(root string, opts Options) (*Watcher, error) {
	if opts.Extension == "" {
		return nil, errors.New("watcher: extension is required")
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}
	w := &Watcher{root: root, extension: opts.Extension, debounce: opts.Debounce, fs: fw}
	if err := w.addRecursive(root); err != nil {
		fw.Close()
		return nil, err
	}
	return w, nil
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.fs.Close()
}

// Run delivers batches to handle until ctx is canceled or the handler
// returns an error. Cancellation is not an error.
func (w *Watcher) Run(ctx context.Context, handle Handler) error {
	logger := ctxlog.FromContext(ctx)
	pending := make(map[string]struct{})
	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			rel, relevant := w.relevant(ctx, event)
			if !relevant {
				continue
			}
			logger.Debug("Watch: change detected.", "path", rel, "op", event.Op.String())
			pending[rel] = struct{}{}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				timer.Reset(w.debounce)
			}

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watch: file watcher error.", "error", err)

		case <-timerC:
			timer, timerC = nil, nil
			changed := make([]string, 0, len(pending))
			for p := range pending {
				changed = append(changed, p)
			}
			clear(pending)
			slices.Sort(changed)
			logger.Debug("Watch: batch ready.", "changes", len(changed))
			if err := handle(ctx, changed); err != nil {
				return err
			}
		}
	}
}

// relevant filters an event down to documents and directories, adding
// watches for new directories as they appear.
func (w *Watcher) relevant(ctx context.Context, event fsnotify.Event) (string, bool) {
	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") || hidden(rel) {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			// Files moved in with the directory produce no events of their own.
			if err := w.addRecursive(event.Name); err != nil {
				ctxlog.FromContext(ctx).Warn("Watch: cannot watch new directory.", "path", rel, "error", err)
			}
			return rel, true
		}
	}
	if strings.HasSuffix(event.Name, w.extension) {
		return rel, event.Op != fsnotify.Chmod
	}
	// A removed or renamed directory takes its documents with it.
	if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		return rel, filepath.Ext(event.Name) == ""
	}
	return "", false
}

func (w *Watcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := w.fs.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

func hidden(rel string) bool {
	for part := range strings.SplitSeq(filepath.ToSlash(rel), "/") {
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}
