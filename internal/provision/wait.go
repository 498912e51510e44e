package provision

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// ErrWaitTimeout reports that the awaited directory did not appear in time.
var ErrWaitTimeout = errors.New("timed out waiting for directory")

// WaitForDir blocks until dir exists, the context is cancelled or the
// timeout elapses. A timeout of zero or less waits indefinitely. The
// directory is watched through its deepest existing ancestor, so the wait
// also makes progress while parent directories are still being created.
func WaitForDir(ctx context.Context, dir string, timeout time.Duration, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	if dirExists(dir) {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	watched, err := watchNearestAncestor(watcher, dir, "")
	if err != nil {
		return err
	}
	// Re-check after the watch is armed so a creation between the first
	// stat and the Add is not missed.
	if dirExists(dir) {
		return nil
	}

	log.Debug("waiting for directory",
		zap.String("dir", dir),
		zap.String("watching", watched),
		zap.Duration("timeout", timeout))

	var deadline <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	// Backup poll for creations that race with re-pointing the watch.
	poll := time.NewTicker(500 * time.Millisecond)
	defer poll.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-deadline:
			return fmt.Errorf("%w: %s after %s", ErrWaitTimeout, dir, timeout)

		case <-poll.C:
			if dirExists(dir) {
				return nil
			}

		case _, ok := <-watcher.Events:
			if !ok {
				return errors.New("watcher closed unexpectedly")
			}
			if dirExists(dir) {
				return nil
			}
			watched, err = watchNearestAncestor(watcher, dir, watched)
			if err != nil {
				return err
			}

		case werr, ok := <-watcher.Errors:
			if !ok {
				return errors.New("watcher closed unexpectedly")
			}
			log.Warn("watch error while waiting for directory", zap.Error(werr))
		}
	}
}

func dirExists(dir string) bool {
	info, err := os.Stat(dir)
	return err == nil && info.IsDir()
}

// watchNearestAncestor points the watcher at the deepest existing ancestor
// of dir, replacing the previous watch when the ancestor has changed.
func watchNearestAncestor(watcher *fsnotify.Watcher, dir, prev string) (string, error) {
	next := nearestExistingAncestor(dir)
	if next == prev {
		return prev, nil
	}
	if prev != "" {
		// The old watch point may have vanished; dropping it is best effort.
		_ = watcher.Remove(prev)
	}
	if err := watcher.Add(next); err != nil {
		return "", fmt.Errorf("failed to watch %s: %w", next, err)
	}
	return next, nil
}

func nearestExistingAncestor(dir string) string {
	cur := filepath.Dir(dir)
	for {
		if _, err := os.Stat(cur); err == nil {
			return cur
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return cur
		}
		cur = parent
	}
}
