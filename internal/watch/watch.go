// Package watch prints working-tree status changes as they happen, by
// watching the repository's .git directory for writes and debouncing bursts
// of events into a single recompute.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/lussier/jitgo/internal/gitcore"
)

const debounceTime = 100 * time.Millisecond

// Run watches repo's .git directory until ctx is canceled, calling onChange
// every time the working tree status settles after a burst of filesystem
// events. onChange receives the freshly recomputed status; it is never
// called concurrently with itself.
func Run(ctx context.Context, repo *gitcore.Repository, logger *slog.Logger, onChange func(*gitcore.WorkingTreeStatus)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer watcher.Close() //nolint:errcheck

	if err := watcher.Add(repo.GitDir()); err != nil {
		return fmt.Errorf("watch: %w", err)
	}

	var debounceTimer *time.Timer
	var recomputeMu sync.Mutex
	recompute := func() {
		recomputeMu.Lock()
		defer recomputeMu.Unlock()
		status, err := gitcore.ComputeWorkingTreeStatus(repo)
		if err != nil {
			logger.Error("failed to recompute status", "err", err)
			return
		}
		onChange(status)
	}

	// Emit the initial status once before watching for changes.
	recompute()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if shouldIgnoreEvent(event) {
				continue
			}

			logger.Debug("change detected", "file", filepath.Base(event.Name), "op", event.Op.String())

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(debounceTime, recompute)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher error", "err", err)
		}
	}
}

// shouldIgnoreEvent filters out events that never affect working tree status:
// lockfile churn and writes to .git/config.
func shouldIgnoreEvent(event fsnotify.Event) bool {
	base := filepath.Base(event.Name)

	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return true
	}
	if strings.HasSuffix(base, ".lock") {
		return true
	}
	if base == "config" {
		return true
	}

	return false
}
