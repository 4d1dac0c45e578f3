package session

import (
	"log"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reports external writes to a session file, such as another
// process editing the markup on disk. Events are debounced so a single
// save that produces several filesystem writes fires once.
type Watcher struct {
	w        *fsnotify.Watcher
	path     string
	onChange func(path string)
	stopCh   chan struct{}
}

// debounceWindow absorbs the write bursts editors and atomic-rename saves
// produce for a single logical file change.
const debounceWindow = 200 * time.Millisecond

// Watch starts watching the given file. onChange is called from a
// background goroutine; callers updating UI must marshal back to the
// event loop themselves.
func Watch(path string, onChange func(path string)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	// Watch the directory, not the file: atomic-rename saves replace the
	// inode and a file-level watch would go stale after the first event.
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, err
	}

	w := &Watcher{
		w:        fw,
		path:     filepath.Clean(path),
		onChange: onChange,
		stopCh:   make(chan struct{}),
	}
	go w.eventLoop()
	return w, nil
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.stopCh)
	return w.w.Close()
}

func (w *Watcher) eventLoop() {
	var timer *time.Timer
	var timerCh <-chan time.Time

	for {
		select {
		case <-w.stopCh:
			return

		case err, ok := <-w.w.Errors:
			if !ok {
				return
			}
			log.Printf("session: watch error: %v", err)

		case ev, ok := <-w.w.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounceWindow)
			} else {
				// A tick from an earlier burst may still sit in the
				// channel; drain it or Reset arms an already-fired timer
				// and the next wait returns immediately.
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(debounceWindow)
			}
			timerCh = timer.C

		case <-timerCh:
			timerCh = nil
			w.onChange(w.path)
		}
	}
}
