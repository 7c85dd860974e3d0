// Package watch rebuilds the site whenever the source tree changes.
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is used when Options.Debounce is not positive.
const DefaultDebounce = 200 * time.Millisecond

// RebuildFunc performs one full build.
type RebuildFunc func(ctx context.Context) error

// Options configure a watch loop.
type Options struct {
	Debounce time.Duration
	// Ignore lists absolute directories whose events never trigger a
	// rebuild, typically the output directory when it lives under the source.
	Ignore []string
}

// Run watches dir recursively and calls rebuild once per burst of changes
// until ctx is cancelled. Rebuild errors are logged and the loop continues;
// rebuilds never overlap.
func Run(ctx context.Context, dir string, opts Options, logger *slog.Logger, rebuild RebuildFunc) error {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	ignored := func(path string) bool {
		for _, ig := range opts.Ignore {
			if path == ig || strings.HasPrefix(path, ig+string(filepath.Separator)) {
				return true
			}
		}
		return hidden(dir, path)
	}

	if err := addDirsRecursive(w, dir, ignored); err != nil {
		return err
	}

	logger.Info("watch: started", slog.String("root", dir), slog.Duration("debounce", opts.Debounce))

	var timer *time.Timer
	var fire <-chan time.Time

	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(opts.Debounce)
			fire = timer.C
		} else {
			timer.Reset(opts.Debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("watch: stopped")
			return nil

		case <-fire:
			timer, fire = nil, nil
			start := time.Now()
			if err := rebuild(ctx); err != nil {
				logger.Error("watch: rebuild failed", slog.String("error", err.Error()))
				continue
			}
			logger.Info("watch: rebuilt", slog.Duration("took", time.Since(start)))

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ignored(ev.Name) {
				continue
			}
			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, ev.Name, ignored); addErr != nil {
						logger.Warn("watch: add new dir failed",
							slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
					}
				}
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			logger.Debug("watch: change", slog.String("path", ev.Name), slog.String("op", ev.Op.String()))
			schedule()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watch: error", slog.String("error", watchErr.Error()))
		}
	}
}

// hidden reports whether any path element below root starts with a dot.
func hidden(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." {
		return false
	}
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if strings.HasPrefix(part, ".") && part != ".." {
			return true
		}
	}
	return false
}

// addDirsRecursive adds root and all its non-ignored subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string, ignored func(string) bool) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if ignored(path) {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
}
