package store

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads callers when a workspace file changes on disk. It
// watches the containing directory rather than the file itself, since
// sqlite writes through journal/WAL siblings and some editors replace
// files wholesale.
type Watcher struct {
	fs       *fsnotify.Watcher
	done     chan struct{}
	debounce time.Duration
}

// WatchFile invokes onChange (from a background goroutine) whenever path
// or one of its sqlite sidecar files is written. Rapid event bursts are
// coalesced by the debounce window.
func WatchFile(path string, debounce time.Duration, onChange func()) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fs.Add(filepath.Dir(path)); err != nil {
		fs.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}
	if debounce <= 0 {
		debounce = 200 * time.Millisecond
	}

	w := &Watcher{fs: fs, done: make(chan struct{}), debounce: debounce}
	go w.loop(filepath.Base(path), onChange)
	return w, nil
}

func (w *Watcher) loop(base string, onChange func()) {
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if !strings.HasPrefix(filepath.Base(ev.Name), base) {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, onChange)
		case _, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			// Watch errors are not fatal; the next manual refresh
			// still reloads.
		}
	}
}

// Close stops watching. Safe to call once.
func (w *Watcher) Close() {
	close(w.done)
	w.fs.Close()
}
