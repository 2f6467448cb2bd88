// Package shaderwatch reloads a fragment shader file when it changes on disk.
//
// Events arrive on a background goroutine, but GL calls may only be made on
// the render thread, so the watcher only keeps the newest source and the
// render loop collects it with Pending between frames.
package shaderwatch

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// Watcher watches one file.
type Watcher struct {
	path    string
	watcher *fsnotify.Watcher
	done    chan struct{}
	wg      sync.WaitGroup

	mu      sync.Mutex
	pending string
	changed bool

	// notify receives a value after each reload; it is never blocked on.
	notify chan struct{}
}

// New starts watching path. The directory is watched rather than the file so
// that editors which replace the file by renaming are still seen.
func New(path string) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, err
	}
	w := &Watcher{
		path:    abs,
		watcher: fw,
		done:    make(chan struct{}),
		notify:  make(chan struct{}, 1),
	}
	w.wg.Add(1)
	go w.watch()
	log.Info("watching fragment shader", "path", abs)
	return w, nil
}

func (w *Watcher) watch() {
	defer w.wg.Done()
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&fsnotify.Write == fsnotify.Write ||
				event.Op&fsnotify.Create == fsnotify.Create {
				w.reload()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Warn("shader watcher error", "err", err)
		}
	}
}

func (w *Watcher) reload() {
	data, err := os.ReadFile(w.path)
	if err != nil {
		log.Warn("could not read changed shader", "path", w.path, "err", err)
		return
	}
	if len(data) == 0 {
		// truncated mid-save; the following write brings the content
		return
	}
	w.mu.Lock()
	w.pending = string(data)
	w.changed = true
	w.mu.Unlock()

	select {
	case w.notify <- struct{}{}:
	default:
	}
}

// Pending returns the newest unseen source, if the file changed since the
// last call.
func (w *Watcher) Pending() (string, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.changed {
		return "", false
	}
	w.changed = false
	return w.pending, true
}

// Changed is signalled after each reload.
func (w *Watcher) Changed() <-chan struct{} {
	return w.notify
}

// Close stops watching.
func (w *Watcher) Close() error {
	close(w.done)
	err := w.watcher.Close()
	w.wg.Wait()
	return err
}
