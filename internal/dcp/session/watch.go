package session

import (
	"log"

	"github.com/fsnotify/fsnotify"
)

// SidecarWatcher watches the Store's base directory for externally
// deleted sidecar files — e.g. another process running `/dcp sweep`
// clearing state — and forgets the matching in-memory Manager entry so
// the next touch re-lazy-initializes from a clean slate instead of
// serving state the disk no longer agrees with.
type SidecarWatcher struct {
	manager *Manager
	fsw     *fsnotify.Watcher
	done    chan struct{}
}

// NewSidecarWatcher starts watching store's base directory. The
// directory must already exist; callers typically create it via one
// Store.Save before watching.
func NewSidecarWatcher(manager *Manager, store *Store) (*SidecarWatcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(store.basePath); err != nil {
		fsw.Close()
		return nil, err
	}

	w := &SidecarWatcher{manager: manager, fsw: fsw, done: make(chan struct{})}
	go w.loop()
	return w, nil
}

func (w *SidecarWatcher) loop() {
	defer close(w.done)
	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Remove) {
				continue
			}
			w.manager.forgetBySidecarPath(event.Name)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Printf("sidecar watcher: %v", err)
		}
	}
}

// Close stops the watcher and waits for its goroutine to exit.
func (w *SidecarWatcher) Close() error {
	err := w.fsw.Close()
	<-w.done
	return err
}
