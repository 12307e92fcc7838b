// Package watcher observes the build output directory for freshly
// written artifacts. It is the second completion-detection path next to
// the supervisor's marker parsing, covering watch tool versions whose
// textual markers are unreliable.
package watcher

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher watches one directory tree for files ending in the backend's
// artifact extension and invokes onArtifact for each hit.
type Watcher struct {
	log        *zap.Logger
	fsw        *fsnotify.Watcher
	ext        string
	onArtifact func()

	mu     sync.Mutex
	closed bool
}

// New starts watching dir recursively. Setup fails soft: when dir does
// not exist yet (the first build has not run), a warning is logged and
// a nil Watcher is returned with no error. Stop on a nil Watcher is a
// no-op.
func New(log *zap.Logger, dir, ext string, onArtifact func()) (*Watcher, error) {
	if log == nil {
		log = zap.NewNop()
	}

	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		log.Warn("build output directory does not exist yet, artifact watching disabled",
			zap.String("dir", dir))
		return nil, nil
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		log:        log,
		fsw:        fsw,
		ext:        ext,
		onArtifact: onArtifact,
	}

	if err := w.addTree(dir); err != nil {
		_ = fsw.Close()
		return nil, err
	}

	go w.run()

	log.Debug("artifact watcher started", zap.String("dir", dir), zap.String("ext", ext))
	return w, nil
}

// addTree registers dir and every subdirectory below it. fsnotify
// watches are not recursive on their own.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, entry os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return w.fsw.Add(path)
		}
		return nil
	})
}

func (w *Watcher) run() {
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn("artifact watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	// New subdirectories must be added to keep the watch recursive.
	if ev.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := w.fsw.Add(ev.Name); err != nil {
				w.log.Warn("failed to watch new directory", zap.String("dir", ev.Name), zap.Error(err))
			}
			return
		}
	}

	if !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Write) {
		return
	}
	if !strings.HasSuffix(ev.Name, w.ext) {
		return
	}

	w.log.Debug("artifact changed", zap.String("file", ev.Name))
	if w.onArtifact != nil {
		w.onArtifact()
	}
}

// Stop closes the watcher. Synchronous, immediate, and idempotent.
func (w *Watcher) Stop() {
	if w == nil {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}
	w.closed = true
	_ = w.fsw.Close()
}
