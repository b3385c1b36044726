package catalog

import (
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads callers when the dataset file changes on disk. Events
// are debounced so editors that write in several steps (or via a temp-file
// rename) trigger a single reload.
type Watcher struct {
	path     string
	debounce time.Duration
	onChange func()
	watcher  *fsnotify.Watcher
	done     chan struct{}
}

// NewWatcher creates a watcher for the dataset file at path. onChange runs
// on the watcher goroutine after the debounce window closes.
func NewWatcher(path string, debounce time.Duration, onChange func()) *Watcher {
	return &Watcher{
		path:     path,
		debounce: debounce,
		onChange: onChange,
		done:     make(chan struct{}),
	}
}

// Start begins watching the dataset's directory. Watching the directory
// rather than the file keeps the watch alive across atomic replace-by-rename
// writes. Call Stop to clean up.
func (w *Watcher) Start() error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("catalog: failed to create watcher: %w", err)
	}
	dir := filepath.Dir(w.path)
	if err := fw.Add(dir); err != nil {
		_ = fw.Close()
		return fmt.Errorf("catalog: failed to watch %s: %w", dir, err)
	}
	w.watcher = fw

	go w.loop()
	log.Printf("catalog: watching %s for dataset changes", w.path)
	return nil
}

// Stop shuts down the watcher and waits for the loop to exit. Stopping a
// watcher that never started is a no-op.
func (w *Watcher) Stop() {
	if w.watcher == nil {
		return
	}
	_ = w.watcher.Close()
	<-w.done
}

func (w *Watcher) loop() {
	defer close(w.done)

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	pending := false
	base := filepath.Base(w.path)

	for {
		select {
		case evt, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(evt.Name) != base {
				continue
			}
			if evt.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if pending && !timer.Stop() {
				<-timer.C
			}
			timer.Reset(w.debounce)
			pending = true
		case <-timer.C:
			pending = false
			w.onChange()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("Warning: catalog watcher error: %v", err)
		}
	}
}
