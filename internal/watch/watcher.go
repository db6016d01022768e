// Package watch rebuilds prompts when corpus documents or the config file change.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/promptkit/internal/logfields"
)

// DefaultDebounce collapses bursts of editor writes into one rebuild.
const DefaultDebounce = 300 * time.Millisecond

// RebuildFunc is invoked after a debounced change.
type RebuildFunc func(ctx context.Context) error

// Watcher watches a corpus directory tree and a config file.
type Watcher struct {
	root       string
	configPath string
	debounce   time.Duration
	rebuild    RebuildFunc
	fs         *fsnotify.Watcher
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period before a rebuild.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// New creates a watcher over root and configPath. configPath may be empty.
func New(root, configPath string, rebuild RebuildFunc, opts ...Option) (*Watcher, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve corpus root: %w", err)
	}
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fsnotify: %w", err)
	}

	w := &Watcher{root: absRoot, debounce: DefaultDebounce, rebuild: rebuild, fs: fs}
	for _, opt := range opts {
		opt(w)
	}

	if err := addDirsRecursive(fs, absRoot); err != nil {
		_ = fs.Close()
		return nil, err
	}
	if configPath != "" {
		absConfig, err := filepath.Abs(configPath)
		if err != nil {
			_ = fs.Close()
			return nil, fmt.Errorf("resolve config path: %w", err)
		}
		w.configPath = absConfig
		// The directory is watched since editors replace files on save.
		if dir := filepath.Dir(absConfig); !strings.HasPrefix(dir+string(filepath.Separator), absRoot+string(filepath.Separator)) {
			if err := fs.Add(dir); err != nil {
				_ = fs.Close()
				return nil, fmt.Errorf("watch config directory %s: %w", dir, err)
			}
		}
	}
	return w, nil
}

// Run blocks until ctx is done, invoking the rebuild function after each
// debounced batch of relevant changes. Rebuild errors are logged.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() { _ = w.fs.Close() }()

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	slog.Info("Watching corpus for changes", logfields.Path(w.root))
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if w.handle(ev) {
				timer.Reset(w.debounce)
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			slog.Warn("Watcher error", logfields.Error(err))
		case <-timer.C:
			slog.Info("Change detected; rebuilding prompts")
			if err := w.rebuild(ctx); err != nil {
				slog.Warn("Rebuild failed", logfields.Error(err))
			}
		}
	}
}

// handle reports whether ev should schedule a rebuild.
func (w *Watcher) handle(ev fsnotify.Event) bool {
	if w.configPath != "" && filepath.Clean(ev.Name) == w.configPath {
		slog.Debug("Config change detected", logfields.File(ev.Name), slog.String("op", ev.Op.String()))
		return ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0
	}
	if shouldIgnoreEvent(ev.Name) {
		return false
	}
	if ev.Op&fsnotify.Create == fsnotify.Create {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			_ = addDirsRecursive(w.fs, ev.Name)
			return true
		}
	}
	if !strings.EqualFold(filepath.Ext(ev.Name), ".md") {
		return false
	}
	slog.Debug("Document change detected", logfields.Path(ev.Name), slog.String("op", ev.Op.String()))
	return ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0
}

func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := w.Add(path); err != nil {
			slog.Warn("Watch add failed", logfields.Path(path), logfields.Error(err))
		}
		return nil
	})
}

// shouldIgnoreEvent filters hidden files and editor swap files.
func shouldIgnoreEvent(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return true
	}
	return strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx") ||
		strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#")
}
