// Package watcher provides debounced file system watching of one directory.
package watcher

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher monitors a directory and signals after a burst of matching
// changes has settled.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	dir       string
	match     func(name string) bool
	onError   func(error)
	debounce  time.Duration
	onChange  chan struct{}
	done      chan struct{}
}

// Config holds watcher configuration options.
type Config struct {
	Dir         string
	DebounceDur time.Duration

	// Match selects the file base names that trigger a signal.
	// Nil matches every file.
	Match func(name string) bool

	// OnError receives fsnotify errors. Nil drops them.
	OnError func(error)
}

// DefaultConfig returns sensible defaults for the watcher.
func DefaultConfig(dir string) Config {
	return Config{
		Dir:         dir,
		DebounceDur: 100 * time.Millisecond,
	}
}

// MatchSuffix matches base names ending in suffix.
func MatchSuffix(suffix string) func(string) bool {
	return func(name string) bool {
		return len(name) > len(suffix) && filepath.Ext(name) == suffix
	}
}

// New creates a new directory watcher.
func New(cfg Config) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}

	return &Watcher{
		fsWatcher: fsw,
		dir:       cfg.Dir,
		match:     cfg.Match,
		onError:   cfg.OnError,
		debounce:  cfg.DebounceDur,
		onChange:  make(chan struct{}, 1),
		done:      make(chan struct{}),
	}, nil
}

// Start begins watching the directory.
// Returns a channel that receives a signal when matching files change.
func (w *Watcher) Start() (<-chan struct{}, error) {
	if err := w.fsWatcher.Add(w.dir); err != nil {
		return nil, fmt.Errorf("watching directory %s: %w", w.dir, err)
	}

	go w.loop()

	return w.onChange, nil
}

// Stop terminates the watcher and releases resources.
func (w *Watcher) Stop() error {
	close(w.done)
	return w.fsWatcher.Close()
}

// loop processes file system events with debouncing.
func (w *Watcher) loop() {
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if !w.isRelevantEvent(event) {
				continue
			}
			// Each relevant event pushes the deadline back.
			timer.Reset(w.debounce)

		case <-timer.C:
			// Non-blocking send - drop if a signal is already pending
			select {
			case w.onChange <- struct{}{}:
			default:
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			if w.onError != nil {
				w.onError(err)
			}

		case <-w.done:
			return
		}
	}
}

// isRelevantEvent checks if the event should trigger a signal.
func (w *Watcher) isRelevantEvent(event fsnotify.Event) bool {
	// Writers that rename a finished temp file into place produce Create.
	if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return false
	}
	if w.match == nil {
		return true
	}
	return w.match(filepath.Base(event.Name))
}
