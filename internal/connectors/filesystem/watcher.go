package filesystem

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/ragextract/internal/core/domain"
	"github.com/custodia-labs/ragextract/internal/logger"
)

// DefaultDebounce is how long a path must stay quiet before its change is
// reported. Copies arrive as a burst of writes.
const DefaultDebounce = 500 * time.Millisecond

// ChangeType is the kind of change seen in a watched directory.
type ChangeType string

// Change types.
const (
	ChangeCreated ChangeType = "created"
	ChangeUpdated ChangeType = "updated"
	ChangeDeleted ChangeType = "deleted"
)

// Change is a single file event. Document is nil for deletions.
type Change struct {
	Type     ChangeType
	Path     string
	Document *domain.RawDocument
}

// Watcher emits changes for files in one directory. Hidden entries inside
// the directory are ignored. Events for a path are merged until it has been
// quiet for the debounce interval, so one copy yields one change.
type Watcher struct {
	root      string
	mimeTypes map[string]bool
	debounce  time.Duration

	mu      sync.Mutex
	watcher *fsnotify.Watcher
}

// pending is a change waiting for its path to go quiet. gen identifies the
// timer that may report it.
type pending struct {
	typ   ChangeType
	gen   uint64
	timer *time.Timer
}

type fired struct {
	path string
	gen  uint64
}

// NewWatcher creates a watcher for root. When mimeTypes is non-empty only
// files of those types are reported.
func NewWatcher(root string, mimeTypes ...string) *Watcher {
	w := &Watcher{root: root, debounce: DefaultDebounce}
	if len(mimeTypes) > 0 {
		w.mimeTypes = make(map[string]bool, len(mimeTypes))
		for _, t := range mimeTypes {
			w.mimeTypes[t] = true
		}
	}
	return w
}

// SetDebounce sets the quiet interval. Zero reports every event at once.
func (w *Watcher) SetDebounce(d time.Duration) {
	w.debounce = d
}

// Watch starts watching and returns a channel of changes. The channel is
// closed when ctx is cancelled or Close is called.
func (w *Watcher) Watch(ctx context.Context) (<-chan Change, error) {
	info, err := os.Stat(w.root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", domain.ErrInvalidInput, w.root)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := fsw.Add(w.root); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watching %s: %w", w.root, err)
	}

	w.mu.Lock()
	if w.watcher != nil {
		w.watcher.Close()
	}
	w.watcher = fsw
	w.mu.Unlock()

	changes := make(chan Change)
	go w.run(ctx, fsw, changes)
	return changes, nil
}

func (w *Watcher) run(ctx context.Context, fsw *fsnotify.Watcher, changes chan<- Change) {
	done := make(chan struct{})
	quiet := make(chan fired)
	waiting := make(map[string]*pending)
	var gen uint64

	defer func() {
		close(done)
		for _, p := range waiting {
			p.timer.Stop()
		}
		fsw.Close()
		close(changes)
	}()

	emit := func(change *Change) bool {
		if change == nil {
			return true
		}
		select {
		case changes <- *change:
			return true
		case <-ctx.Done():
			return false
		}
	}

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			typ, ok := w.classify(event)
			if !ok {
				continue
			}
			if w.debounce <= 0 {
				if !emit(w.resolve(event.Name, typ)) {
					return
				}
				continue
			}

			gen++
			p := waiting[event.Name]
			if p == nil {
				p = &pending{typ: typ}
				waiting[event.Name] = p
			} else {
				p.timer.Stop()
				p.typ = merge(p.typ, typ)
			}
			p.gen = gen
			path, g := event.Name, gen
			p.timer = time.AfterFunc(w.debounce, func() {
				select {
				case quiet <- fired{path: path, gen: g}:
				case <-done:
				}
			})

		case f := <-quiet:
			p := waiting[f.path]
			if p == nil || p.gen != f.gen {
				continue
			}
			delete(waiting, f.path)
			if !emit(w.resolve(f.path, p.typ)) {
				return
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			logger.Warn("watch %s: %v", w.root, err)
		}
	}
}

// merge combines a waiting change with a newer event for the same path.
// A file that was created stays created through later writes, and the
// latest delete or re-create wins.
func merge(prev, next ChangeType) ChangeType {
	if prev == ChangeCreated && next == ChangeUpdated {
		return ChangeCreated
	}
	return next
}

// Close stops watching.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.watcher == nil {
		return nil
	}
	err := w.watcher.Close()
	w.watcher = nil
	return err
}

// handleFsEvent converts an fsnotify event into a change, or nil when the
// event is not relevant.
func (w *Watcher) handleFsEvent(event fsnotify.Event) *Change {
	typ, ok := w.classify(event)
	if !ok {
		return nil
	}
	return w.resolve(event.Name, typ)
}

// classify maps an event to a change type, reporting false for events
// that are never reported.
func (w *Watcher) classify(event fsnotify.Event) (ChangeType, bool) {
	if w.hidden(event.Name) || !w.wanted(event.Name) {
		return "", false
	}
	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		return ChangeDeleted, true
	case event.Has(fsnotify.Create):
		return ChangeCreated, true
	case event.Has(fsnotify.Write):
		return ChangeUpdated, true
	}
	return "", false
}

// resolve reads the file behind a change. It returns nil for directories
// and files removed before they could be read.
func (w *Watcher) resolve(path string, typ ChangeType) *Change {
	if typ == ChangeDeleted {
		return &Change{Type: ChangeDeleted, Path: path}
	}
	doc, err := Load(path)
	if err != nil {
		return nil
	}
	return &Change{Type: typ, Path: path, Document: doc}
}

// hidden checks only the part of path below the watched root, so watching
// a directory inside a dot-directory still works.
func (w *Watcher) hidden(path string) bool {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return isHidden(filepath.Base(path))
	}
	return isHidden(rel)
}

func (w *Watcher) wanted(path string) bool {
	if w.mimeTypes == nil {
		return true
	}
	return w.mimeTypes[detectMIMEType(path)]
}
