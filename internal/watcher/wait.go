package watcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"termharness/internal/logging"

	"github.com/fsnotify/fsnotify"
)

const defaultFallback = 250 * time.Millisecond

// WaitForFile blocks until path exists or ctx ends.
func WaitForFile(ctx context.Context, path string, options Options) error {
	return waitFor(ctx, path, options, func() (bool, error) {
		_, err := os.Stat(path)
		if err == nil {
			return true, nil
		}
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	})
}

// WaitForContent blocks until the file at path exists and contains substr.
func WaitForContent(ctx context.Context, path, substr string, options Options) error {
	needle := []byte(substr)
	return waitFor(ctx, path, options, func() (bool, error) {
		data, err := os.ReadFile(path)
		if err == nil {
			return bytes.Contains(data, needle), nil
		}
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	})
}

func waitFor(ctx context.Context, path string, options Options, done check) error {
	if ctx == nil {
		ctx = context.Background()
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}
	ok, err := done()
	if err != nil || ok {
		return err
	}

	fallback := options.Fallback
	if fallback <= 0 {
		fallback = defaultFallback
	}
	logger := options.Logger.With(map[string]string{
		"termharness.category": "watcher",
		"path":                 absPath,
	})

	dirs := newDirWatch(logger)
	defer dirs.Close()
	dirs.follow(absPath)

	ticker := time.NewTicker(fallback)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("wait for %s: %w", path, ctx.Err())
		case event, ok := <-dirs.events():
			if !ok {
				dirs.disable()
				continue
			}
			logger.Debug("watch event", map[string]string{
				"event": event.Name,
				"op":    event.Op.String(),
			})
		case err, ok := <-dirs.errors():
			if !ok {
				dirs.disable()
				continue
			}
			logger.Warn("watch error", map[string]string{
				"error": err.Error(),
			})
		case <-ticker.C:
		}

		dirs.follow(absPath)
		ok, err := done()
		if err != nil || ok {
			return err
		}
	}
}

// dirWatch keeps a single fsnotify watch on the deepest existing directory
// above a target path. Without fsnotify it degrades to ticker-only polling.
type dirWatch struct {
	watcher *fsnotify.Watcher
	watched string
	logger  *logging.Logger
}

func newDirWatch(logger *logging.Logger) *dirWatch {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Warn("fsnotify unavailable, polling only", map[string]string{
			"error": err.Error(),
		})
		return &dirWatch{logger: logger}
	}
	return &dirWatch{watcher: watcher, logger: logger}
}

func (d *dirWatch) follow(target string) {
	if d.watcher == nil {
		return
	}
	dir := nearestExistingDir(filepath.Dir(target))
	if dir == d.watched {
		return
	}
	if d.watched != "" {
		_ = d.watcher.Remove(d.watched)
		d.watched = ""
	}
	if err := d.watcher.Add(dir); err != nil {
		d.logger.Debug("watch add failed", map[string]string{
			"dir":   dir,
			"error": err.Error(),
		})
		return
	}
	d.watched = dir
}

func (d *dirWatch) events() <-chan fsnotify.Event {
	if d.watcher == nil {
		return nil
	}
	return d.watcher.Events
}

func (d *dirWatch) errors() <-chan error {
	if d.watcher == nil {
		return nil
	}
	return d.watcher.Errors
}

func (d *dirWatch) disable() {
	d.Close()
	d.watcher = nil
}

func (d *dirWatch) Close() error {
	if d.watcher == nil {
		return nil
	}
	return d.watcher.Close()
}

func nearestExistingDir(dir string) string {
	for {
		info, err := os.Stat(dir)
		if err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return dir
		}
		dir = parent
	}
}
