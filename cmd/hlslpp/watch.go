package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/gogpu/hlslpp"
	"github.com/gogpu/hlslpp/internal/config"
)

// watch reruns the preprocessor whenever an input file, its directory or
// an include directory changes. Rapid saves are debounced.
func watch(ctx context.Context, cfg *config.Config, opts hlslpp.Options, inputs []string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() {
		if err := watcher.Close(); err != nil {
			logger.Error("error closing watcher", zap.Error(err))
		}
	}()

	// Watch the directories, not the files: editors replace files on
	// save and per-file watches go stale.
	dirs := make(map[string]bool)
	for _, input := range inputs {
		dirs[filepath.Dir(input)] = true
	}
	for _, dir := range cfg.IncludeDirs {
		dirs[dir] = true
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			logger.Warn("cannot watch directory", zap.String("dir", dir), zap.Error(err))
		} else {
			logger.Debug("watching", zap.String("dir", dir))
		}
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Initial run before waiting for changes.
	if err := processAll(cfg, opts, inputs); err != nil {
		logger.Error("initial run failed", zap.Error(err))
	}

	pending := make(map[string]time.Time)
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	logger.Info("watching for changes", zap.Int("inputs", len(inputs)))
	for {
		select {
		case <-ctx.Done():
			logger.Info("watch stopped")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if !cfg.WatchesExtension(event.Name) {
				continue
			}
			logger.Debug("change detected", zap.String("file", event.Name))
			pending[event.Name] = time.Now()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("watch error", zap.Error(err))

		case <-ticker.C:
			if len(pending) == 0 {
				continue
			}
			settled := true
			now := time.Now()
			for _, at := range pending {
				if now.Sub(at) < cfg.GetDebounce() {
					settled = false
					break
				}
			}
			if !settled {
				continue
			}
			pending = make(map[string]time.Time)
			if err := processAll(cfg, opts, inputs); err != nil {
				logger.Error("rerun failed", zap.Error(err))
			}
		}
	}
}
