package config

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultReloadDelay debounces bursts of file events into one reload.
const DefaultReloadDelay = 500 * time.Millisecond

// Watch reloads the configuration whenever the loaded file changes and hands
// every valid result to onChange. Invalid edits are logged and skipped. The
// watch stops when ctx is done.
func (l *Loader) Watch(ctx context.Context, onChange func(*Config)) error {
	return l.watch(ctx, DefaultReloadDelay, onChange)
}

func (l *Loader) watch(ctx context.Context, delay time.Duration, onChange func(*Config)) error {
	file := l.ConfigFile()
	if file == "" {
		return errors.New("no config file to watch")
	}
	file, err := filepath.Abs(file)
	if err != nil {
		return fmt.Errorf("failed to resolve config path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	// Editors often replace the file instead of writing it, so watch the
	// directory and filter by name.
	if err := watcher.Add(filepath.Dir(file)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(file), err)
	}

	go l.processEvents(ctx, watcher, file, delay, onChange)

	l.logger.Info().Str("file", file).Msg("Watching config file")
	return nil
}

func (l *Loader) processEvents(ctx context.Context, watcher *fsnotify.Watcher, file string, delay time.Duration, onChange func(*Config)) {
	var (
		mu          sync.Mutex
		reloadTimer *time.Timer
	)
	defer func() {
		mu.Lock()
		if reloadTimer != nil {
			reloadTimer.Stop()
		}
		mu.Unlock()
		_ = watcher.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != file {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}

			l.logger.Debug().
				Str("file", event.Name).
				Str("op", event.Op.String()).
				Msg("Config file changed")

			mu.Lock()
			if reloadTimer != nil {
				reloadTimer.Stop()
			}
			reloadTimer = time.AfterFunc(delay, func() {
				if ctx.Err() != nil {
					return
				}
				cfg, err := l.Load()
				if err != nil {
					l.logger.Error().Err(err).Msg("Failed to reload config, keeping the previous one")
					return
				}
				l.logger.Info().Msg("Config reloaded")
				onChange(cfg)
			})
			mu.Unlock()

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			l.logger.Error().Err(err).Msg("Watcher error")
		}
	}
}
