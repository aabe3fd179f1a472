package services

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/FumingPower3925/ttrpg-session-manager/logger"
)

// FolderWatcher watches the session root for changes and fires a debounced
// callback so the caller can re-scan and re-index. Watch failures are logged
// and tolerated; the tool keeps working from its last scan.
type FolderWatcher struct {
	rootPath string
	debounce time.Duration
	onChange func()

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	timer   *time.Timer
	done    chan struct{}
}

// NewFolderWatcher creates a watcher over rootPath. onChange runs on the
// watcher goroutine after events settle for the debounce interval.
func NewFolderWatcher(rootPath string, debounce time.Duration, onChange func()) *FolderWatcher {
	return &FolderWatcher{
		rootPath: rootPath,
		debounce: debounce,
		onChange: onChange,
		done:     make(chan struct{}),
	}
}

// Start begins watching. The session folder layout is shallow (category
// dirs, act dirs, playlist subfolders), so every existing directory is
// registered up front and new ones are added as they appear.
func (w *FolderWatcher) Start() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	w.mu.Lock()
	w.watcher = watcher
	w.mu.Unlock()

	if err := w.addRecursive(w.rootPath); err != nil {
		logger.L().Warnw("partial watch of session folder", "root", w.rootPath, "error", err)
	}

	go w.run()
	return nil
}

// Stop ends watching and releases the underlying resources.
func (w *FolderWatcher) Stop() {
	close(w.done)
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	if w.watcher != nil {
		_ = w.watcher.Close()
	}
}

func (w *FolderWatcher) addRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // unreadable subtree, skip
		}
		if info.IsDir() {
			if addErr := w.watcher.Add(path); addErr != nil {
				logger.L().Warnw("cannot watch directory", "path", path, "error", addErr)
			}
		}
		return nil
	})
}

func (w *FolderWatcher) run() {
	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = w.addRecursive(event.Name)
				}
			}
			w.scheduleChange()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.L().Warnw("folder watch error", "error", err)
		}
	}
}

func (w *FolderWatcher) scheduleChange() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.onChange)
}
