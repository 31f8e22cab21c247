package bridge

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type watchEntry struct {
	id      string
	channel string
}

// watcher backs fs:watch. One fsnotify watcher serves every path.
type watcher struct {
	events *Events
	log    zerolog.Logger

	mu      sync.Mutex
	fs      *fsnotify.Watcher
	entries map[string]watchEntry // cleaned path -> entry
	done    chan struct{}
}

func newWatcher(events *Events, log zerolog.Logger) *watcher {
	return &watcher{
		events:  events,
		log:     log,
		entries: make(map[string]watchEntry),
	}
}

// Watch starts reporting changes of path and returns the watch id. Watching
// the same path twice returns the existing id.
func (w *watcher) Watch(path string) (string, error) {
	key := filepath.Clean(path)

	w.mu.Lock()
	defer w.mu.Unlock()

	if e, ok := w.entries[key]; ok {
		return e.id, nil
	}
	if w.fs == nil {
		fsw, err := fsnotify.NewWatcher()
		if err != nil {
			return "", fmt.Errorf("failed to create watcher: %w", err)
		}
		w.fs = fsw
		w.done = make(chan struct{})
		go w.processEvents(fsw, w.done)
	}
	if err := w.fs.Add(key); err != nil {
		return "", err
	}
	e := watchEntry{id: uuid.NewString(), channel: ChannelWatchPrefix + path}
	w.entries[key] = e
	w.log.Debug().Str("path", key).Str("watch_id", e.id).Msg("Watching path")
	return e.id, nil
}

// Unwatch stops reporting changes of path.
func (w *watcher) Unwatch(path string) error {
	key := filepath.Clean(path)

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.entries[key]; !ok {
		return fmt.Errorf("%s is not watched", path)
	}
	delete(w.entries, key)
	if err := w.fs.Remove(key); err != nil && !errors.Is(err, fsnotify.ErrNonExistentWatch) {
		return err
	}
	return nil
}

// Close stops all watches.
func (w *watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.fs == nil {
		return nil
	}
	close(w.done)
	err := w.fs.Close()
	w.fs = nil
	w.entries = make(map[string]watchEntry)
	return err
}

func (w *watcher) processEvents(fsw *fsnotify.Watcher, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			w.dispatch(ev)
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn().Err(err).Msg("File watcher error")
		}
	}
}

func (w *watcher) dispatch(ev fsnotify.Event) {
	name := filepath.Clean(ev.Name)

	w.mu.Lock()
	e, ok := w.entries[name]
	if !ok {
		e, ok = w.entries[filepath.Dir(name)]
	}
	w.mu.Unlock()
	if !ok {
		return
	}

	w.events.Emit(e.channel, map[string]any{
		"event": eventName(ev.Op),
		"path":  ev.Name,
	})
}

// eventName maps fsnotify operations to the renderer's event names.
func eventName(op fsnotify.Op) string {
	switch {
	case op.Has(fsnotify.Create):
		return "add"
	case op.Has(fsnotify.Remove):
		return "unlink"
	case op.Has(fsnotify.Rename):
		return "rename"
	default:
		return "change"
	}
}
