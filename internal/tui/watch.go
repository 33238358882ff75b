package tui

import (
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/thiagokokada/interdiff-go/internal/debounce"
)

const repoChangeDebounceDelay = 350 * time.Millisecond

// repoWatcher reports, debounced, that refs or objects under the repository
// changed.
type repoWatcher struct {
	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	debounce *debounce.Debouncer
	done     chan struct{}
}

func watchRepository(root string, notify func()) (*repoWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fsnotify: %w", err)
	}
	for path := range watchPaths(root) {
		slog.Debug("watching repository path", slog.String("path", path))
		if err := watcher.Add(path); err != nil {
			return nil, errors.Join(fmt.Errorf("watch %s: %w", path, err), watcher.Close())
		}
	}
	w := &repoWatcher{
		watcher:  watcher,
		debounce: debounce.New(repoChangeDebounceDelay, notify),
		done:     make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

func (w *repoWatcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.watcher == nil {
		return nil
	}
	w.debounce.Stop()
	err := w.watcher.Close()
	w.watcher = nil
	<-w.done
	return err
}

func (w *repoWatcher) loop() {
	defer close(w.done)
	events, errs := w.watcher.Events, w.watcher.Errors
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) ||
				shouldIgnoreWatchPath(ev.Name) {
				continue
			}
			slog.Debug("repository changed", slog.String("path", ev.Name), slog.String("op", ev.Op.String()))
			w.debounce.Trigger()
		case err, ok := <-errs:
			if !ok {
				return
			}
			slog.Error("repository watch", slog.Any("error", err))
		}
	}
}

// watchPaths lists the directories whose changes move refs: the git dir and
// its refs directories, or root itself when it is not a work tree.
func watchPaths(root string) iter.Seq[string] {
	if root == "" {
		return slices.Values([]string(nil))
	}
	gitDir := filepath.Join(root, ".git")
	if !isDir(gitDir) {
		return slices.Values([]string{root})
	}
	paths := []string{gitDir}
	for _, sub := range []string{"heads", "remotes"} {
		if dir := filepath.Join(gitDir, "refs", sub); isDir(dir) {
			paths = append(paths, dir)
		}
	}
	return slices.Values(paths)
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func shouldIgnoreWatchPath(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".lock" || ext == ".ipc"
}
