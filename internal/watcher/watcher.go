// Package watcher imports view documents dropped into a directory.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// ErrBadPattern is returned by New for an invalid glob
var ErrBadPattern = errors.New("invalid watch pattern")

// ImportFunc imports the file at path as view, parsed as format
type ImportFunc func(ctx context.Context, view, format, path string) error

// Watcher watches a directory tree for view documents
type Watcher struct {
	dir      string
	pattern  string
	onImport ImportFunc
	debounce time.Duration
	logger   *zap.Logger
}

// New creates a new directory watcher. pattern is a doublestar glob
// relative to dir, such as "**/*.xml".
func New(dir, pattern string, onImport ImportFunc) (*Watcher, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("%w: %q", ErrBadPattern, pattern)
	}
	return &Watcher{
		dir:      dir,
		pattern:  pattern,
		onImport: onImport,
		debounce: 500 * time.Millisecond,
		logger:   zap.NewNop(),
	}, nil
}

// WithDebounce sets the debounce duration
func (w *Watcher) WithDebounce(d time.Duration) *Watcher {
	w.debounce = d
	return w
}

// WithLogger sets the logger
func (w *Watcher) WithLogger(l *zap.Logger) *Watcher {
	w.logger = l
	return w
}

// ImportExisting imports every file already matching the pattern. It
// returns the number of files imported.
func (w *Watcher) ImportExisting(ctx context.Context) (int, error) {
	matches, err := doublestar.Glob(os.DirFS(w.dir), w.pattern, doublestar.WithFilesOnly())
	if err != nil {
		return 0, err
	}
	n := 0
	for _, rel := range matches {
		if err := w.importFile(ctx, filepath.Join(w.dir, filepath.FromSlash(rel))); err != nil {
			w.logger.Warn("import failed", zap.String("file", rel), zap.Error(err))
			continue
		}
		n++
	}
	return n, nil
}

// Watch imports matching files as they are written.
// It blocks until the context is cancelled or an error occurs.
func (w *Watcher) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := w.addTree(watcher, w.dir); err != nil {
		return err
	}
	w.logger.Info("watching for view documents", zap.String("dir", w.dir), zap.String("pattern", w.pattern))

	var mu sync.Mutex
	timers := make(map[string]*time.Timer)
	defer func() {
		mu.Lock()
		for _, t := range timers {
			t.Stop()
		}
		mu.Unlock()
	}()

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addTree(watcher, event.Name); err != nil {
						w.logger.Warn("failed to watch directory", zap.String("dir", event.Name), zap.Error(err))
					}
					continue
				}
			}

			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 || !w.Matches(event.Name) {
				continue
			}

			path := event.Name
			mu.Lock()
			if t, ok := timers[path]; ok {
				t.Stop()
			}
			timers[path] = time.AfterFunc(w.debounce, func() {
				mu.Lock()
				delete(timers, path)
				mu.Unlock()
				if err := w.importFile(ctx, path); err != nil {
					w.logger.Warn("import failed", zap.String("file", path), zap.Error(err))
				}
			})
			mu.Unlock()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", zap.Error(err))

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Matches reports whether path, inside the watched directory, matches the
// pattern
func (w *Watcher) Matches(path string) bool {
	rel, err := filepath.Rel(w.dir, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return false
	}
	ok, err := doublestar.Match(w.pattern, filepath.ToSlash(rel))
	return err == nil && ok
}

func (w *Watcher) addTree(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		return watcher.Add(path)
	})
}

func (w *Watcher) importFile(ctx context.Context, path string) error {
	rel, err := filepath.Rel(w.dir, path)
	if err != nil {
		return err
	}
	view, format := ViewName(rel), FormatOf(path)
	if err := w.onImport(ctx, view, format, path); err != nil {
		return err
	}
	w.logger.Info("view imported", zap.String("file", rel), zap.String("view", view))
	return nil
}

// ViewName derives a view name from a path relative to the watched
// directory: the extension is dropped, separators become dots and other
// characters outside [A-Za-z0-9._-] become dashes.
func ViewName(rel string) string {
	rel = filepath.ToSlash(rel)
	rel = strings.TrimSuffix(rel, filepath.Ext(rel))

	var b strings.Builder
	for _, r := range rel {
		switch {
		case r == '/':
			b.WriteByte('.')
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	return strings.TrimLeft(b.String(), ".-_")
}

// FormatOf returns the view format named by the file extension
func FormatOf(path string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
}
