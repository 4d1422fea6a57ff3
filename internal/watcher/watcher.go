// Package watcher reports changes to schema files below a set of directories.
package watcher

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/tsgonest/schemats/internal/errors"
	"github.com/tsgonest/schemats/internal/logger"
)

// Event represents a file change event.
type Event struct {
	Path string
	Op   string // "create", "write", "remove"
}

// DefaultDebounce batches bursts such as editor save sequences.
const DefaultDebounce = 200 * time.Millisecond

// Watcher watches directory trees for changes to files with the given
// extensions. fsnotify does not recurse, so every directory is added
// individually and new directories are added as they appear.
type Watcher struct {
	dirs       []string
	extensions []string
	ignored    []string
	debounce   time.Duration
	onChange   func(events []Event)

	mu      sync.Mutex
	pending map[string]Event
	timer   *time.Timer

	stopOnce sync.Once
	stopCh   chan struct{}
}

// New creates a new file watcher.
func New(dirs []string, extensions []string, debounce time.Duration, onChange func(events []Event)) *Watcher {
	return &Watcher{
		dirs:       dirs,
		extensions: extensions,
		debounce:   debounce,
		onChange:   onChange,
		pending:    map[string]Event{},
		stopCh:     make(chan struct{}),
	}
}

// Ignore excludes directory trees, typically the generated output directory.
func (w *Watcher) Ignore(dirs ...string) {
	for _, d := range dirs {
		if abs, err := filepath.Abs(d); err == nil {
			w.ignored = append(w.ignored, abs)
		}
	}
}

// Watch blocks until ctx ends or Stop is called, delivering debounced
// batches of events to the callback.
func (w *Watcher) Watch(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "failed to create fsnotify watcher")
	}
	defer fw.Close()

	for _, dir := range w.dirs {
		if err := w.addTree(fw, dir); err != nil {
			return err
		}
	}
	log := logger.Named("watcher")
	log.Debugw("watching", "dirs", w.dirs, "extensions", w.extensions)

	for {
		select {
		case <-ctx.Done():
			w.cancelPending()
			return nil
		case <-w.stopCh:
			w.cancelPending()
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := w.addTree(fw, ev.Name); err != nil {
						log.Warnw("could not watch new directory", "dir", ev.Name, "error", err)
					}
					// Files created before the directory was added are missed
					// by fsnotify; report them now.
					w.queueTree(ev.Name)
					continue
				}
			}
			if e, ok := w.translate(ev); ok {
				log.Debugw("change detected", "file", e.Path, "op", e.Op)
				w.queue(e)
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			log.Warnw("watcher error", "error", err)
		}
	}
}

// Stop stops the watcher.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
}

func (w *Watcher) addTree(fw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == root {
				return errors.Wrapf(err, "watching %s", root)
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && w.skipDir(p) {
			return filepath.SkipDir
		}
		if err := fw.Add(p); err != nil {
			return errors.Wrapf(err, "watching %s", p)
		}
		return nil
	})
}

func (w *Watcher) queueTree(root string) {
	filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if p != root && w.skipDir(p) {
				return filepath.SkipDir
			}
			return nil
		}
		if w.matches(p) {
			w.queue(Event{Path: p, Op: "create"})
		}
		return nil
	})
}

func (w *Watcher) skipDir(p string) bool {
	name := filepath.Base(p)
	if strings.HasPrefix(name, ".") || name == "node_modules" {
		return true
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return false
	}
	for _, ig := range w.ignored {
		if abs == ig || strings.HasPrefix(abs, ig+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func (w *Watcher) matches(p string) bool {
	lower := strings.ToLower(p)
	for _, ext := range w.extensions {
		if strings.HasSuffix(lower, strings.ToLower(ext)) {
			return !w.skipDir(filepath.Dir(p))
		}
	}
	return false
}

// translate maps an fsnotify event onto a schema file event. Chmod-only
// events and non-schema files are dropped.
func (w *Watcher) translate(ev fsnotify.Event) (Event, bool) {
	if !w.matches(ev.Name) {
		return Event{}, false
	}
	switch {
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		return Event{Path: ev.Name, Op: "remove"}, true
	case ev.Has(fsnotify.Create):
		return Event{Path: ev.Name, Op: "create"}, true
	case ev.Has(fsnotify.Write):
		return Event{Path: ev.Name, Op: "write"}, true
	}
	return Event{}, false
}

// queue records e and restarts the debounce timer. The latest event per path
// wins, except that a write never hides an earlier create.
func (w *Watcher) queue(e Event) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if prev, ok := w.pending[e.Path]; ok && prev.Op == "create" && e.Op == "write" {
		e.Op = "create"
	}
	w.pending[e.Path] = e
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.flush)
}

func (w *Watcher) flush() {
	w.mu.Lock()
	events := make([]Event, 0, len(w.pending))
	for _, e := range w.pending {
		events = append(events, e)
	}
	w.pending = map[string]Event{}
	w.mu.Unlock()

	if len(events) == 0 || w.onChange == nil {
		return
	}
	sort.Slice(events, func(i, j int) bool { return events[i].Path < events[j].Path })
	w.onChange(events)
}

func (w *Watcher) cancelPending() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.pending = map[string]Event{}
}
