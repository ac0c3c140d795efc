package commands

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchDebounce is how long to wait for further events before re-running.
const watchDebounce = 100 * time.Millisecond

// watchRoots returns the directories to watch for the given lint arguments.
// Files are watched through their parent directory.
func watchRoots(args []string) []string {
	if len(args) == 0 {
		return []string{"."}
	}
	roots := make([]string, 0, len(args))
	for _, a := range args {
		if info, err := os.Stat(a); err == nil && !info.IsDir() {
			a = filepath.Dir(a)
		}
		roots = append(roots, a)
	}
	return roots
}

// watchSQL runs onChange once, then again after .sql files under roots are
// written or created. It returns when ctx is done.
func watchSQL(ctx context.Context, roots []string, logger *slog.Logger, onChange func(context.Context)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	for _, root := range roots {
		if err := watchDirRecursive(watcher, root); err != nil {
			return err
		}
	}

	onChange(ctx)

	// Debounce timer; it only signals, so onChange always runs on this goroutine
	var debounceTimer *time.Timer
	trigger := make(chan struct{}, 1)
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() && !isHiddenDir(info.Name()) {
					if err := watchDirRecursive(watcher, event.Name); err != nil {
						logger.Warn("failed to watch new directory", "dir", event.Name, "error", err)
					}
					continue
				}
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 || !isSQLFile(event.Name) {
				continue
			}

			logger.Debug("file changed", "file", event.Name)
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(watchDebounce, func() {
				select {
				case trigger <- struct{}{}:
				default:
				}
			})

		case <-trigger:
			onChange(ctx)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher error", "error", err)
		}
	}
}

// watchDirRecursive adds a directory and all non-hidden subdirectories to the watcher.
func watchDirRecursive(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && isHiddenDir(d.Name()) {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}
