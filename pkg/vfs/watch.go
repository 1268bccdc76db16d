package vfs

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/fonline/fodev/internal/errx"
)

// Watch reports changes under path. Recursive watches add directories as they
// appear. Paths matching an exclude pattern, and everything below an excluded
// directory, are never reported.
func (l *LocalFS) Watch(path string, opts WatchOptions) (Watcher, error) {
	root, err := filepath.Abs(path)
	if err != nil {
		return nil, errx.Wrap(ErrWatch, err)
	}
	if _, err := os.Stat(root); err != nil {
		return nil, mapError(err)
	}
	for _, pattern := range opts.Excludes {
		if !doublestar.ValidatePattern(pattern) {
			return nil, errx.With(ErrWatch, ": invalid exclude pattern %q", pattern)
		}
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errx.Wrap(ErrWatch, err)
	}
	w := &localWatcher{
		root:     root,
		opts:     opts,
		fsw:      fsw,
		events:   make(chan Event, 64),
		errors:   make(chan error, 8),
		done:     make(chan struct{}),
		finished: make(chan struct{}),
		logger:   l.logger,
	}
	if err := w.add(root); err != nil {
		_ = fsw.Close()
		return nil, errx.Wrap(ErrWatch, err)
	}
	go w.loop()
	return w, nil
}

type localWatcher struct {
	root   string
	opts   WatchOptions
	fsw    *fsnotify.Watcher
	logger *slog.Logger

	events   chan Event
	errors   chan error
	done     chan struct{}
	finished chan struct{}
	once     sync.Once
}

func (w *localWatcher) Events() <-chan Event { return w.events }

func (w *localWatcher) Errors() <-chan error { return w.errors }

func (w *localWatcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		err = w.fsw.Close()
		<-w.finished
	})
	return err
}

// add registers dir and, for recursive watches, every non-excluded
// directory below it.
func (w *localWatcher) add(dir string) error {
	if !w.opts.Recursive {
		return w.fsw.Add(dir)
	}
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == dir {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if p != w.root && w.excluded(p) {
			return filepath.SkipDir
		}
		return w.fsw.Add(p)
	})
}

func (w *localWatcher) excluded(p string) bool {
	if len(w.opts.Excludes) == 0 {
		return false
	}
	rel, err := filepath.Rel(w.root, p)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	for _, pattern := range w.opts.Excludes {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
		if ok, _ := doublestar.Match(pattern+"/**", rel); ok {
			return true
		}
	}
	return false
}

func (w *localWatcher) loop() {
	defer close(w.finished)
	defer close(w.events)
	defer close(w.errors)

	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			select {
			case w.errors <- errx.Wrap(ErrWatch, err):
			case <-w.done:
				return
			default:
				w.logger.Warn("watch error dropped", "error", err)
			}
		}
	}
}

func (w *localWatcher) handle(ev fsnotify.Event) {
	if w.excluded(ev.Name) {
		return
	}

	var kind ChangeType
	switch {
	case ev.Has(fsnotify.Create):
		kind = Created
		if w.opts.Recursive {
			if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
				if err := w.add(ev.Name); err != nil && !errors.Is(err, fs.ErrNotExist) {
					w.logger.Warn("watch new directory", "path", ev.Name, "error", err)
				}
			}
		}
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		kind = Deleted
	case ev.Has(fsnotify.Write), ev.Has(fsnotify.Chmod):
		kind = Changed
	default:
		return
	}

	select {
	case w.events <- Event{Type: kind, Path: ev.Name}:
	case <-w.done:
	}
}
