package vfs

import (
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

// MemFS is an in-memory FileSystem. Paths are slash-separated and rooted at
// "/"; OS-native separators are accepted and converted.
type MemFS struct {
	mu       sync.RWMutex
	files    map[string]*memFile
	dirs     map[string]time.Time
	watchers map[*memWatcher]struct{}
	now      func() time.Time
}

type memFile struct {
	data    []byte
	modTime time.Time
}

func NewMemFS() *MemFS {
	now := time.Now
	return &MemFS{
		files:    make(map[string]*memFile),
		dirs:     map[string]time.Time{"/": now()},
		watchers: make(map[*memWatcher]struct{}),
		now:      now,
	}
}

func (m *MemFS) normPath(p string) string {
	p = filepath.ToSlash(p)
	if vol := filepath.VolumeName(p); vol != "" {
		p = p[len(vol):]
	}
	p = path.Clean("/" + p)
	return p
}

func (m *MemFS) Stat(p string) (FileInfo, error) {
	p = m.normPath(p)
	m.mu.RLock()
	defer m.mu.RUnlock()

	if mod, ok := m.dirs[p]; ok {
		return FileInfo{Name: path.Base(p), Type: TypeDir, ModTime: mod}, nil
	}
	f, ok := m.files[p]
	if !ok {
		return FileInfo{}, ErrFileNotFound
	}
	return FileInfo{Name: path.Base(p), Type: TypeFile, Size: int64(len(f.data)), ModTime: f.modTime}, nil
}

// ReadDir lists the direct children of p sorted by name.
func (m *MemFS) ReadDir(p string) ([]DirEntry, error) {
	p = m.normPath(p)
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.dirs[p]; !ok {
		if _, isFile := m.files[p]; isFile {
			return nil, ErrFileNotADirectory
		}
		return nil, ErrFileNotFound
	}

	var entries []DirEntry
	for fp := range m.files {
		if path.Dir(fp) == p {
			entries = append(entries, DirEntry{Name: path.Base(fp), Type: TypeFile})
		}
	}
	for dp := range m.dirs {
		if dp != p && path.Dir(dp) == p {
			entries = append(entries, DirEntry{Name: path.Base(dp), Type: TypeDir})
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

func (m *MemFS) ReadFile(p string) ([]byte, error) {
	p = m.normPath(p)
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.dirs[p]; ok {
		return nil, ErrFileIsADirectory
	}
	f, ok := m.files[p]
	if !ok {
		return nil, ErrFileNotFound
	}
	return append([]byte(nil), f.data...), nil
}

func (m *MemFS) WriteFile(p string, data []byte, opts WriteOptions) error {
	p = m.normPath(p)
	m.mu.Lock()

	if _, ok := m.dirs[p]; ok {
		m.mu.Unlock()
		return ErrFileIsADirectory
	}
	_, exists := m.files[p]
	switch {
	case !exists && !opts.Create:
		m.mu.Unlock()
		return ErrFileNotFound
	case exists && opts.Create && !opts.Overwrite:
		m.mu.Unlock()
		return ErrFileExists
	}
	if err := m.mkdirAllLocked(path.Dir(p)); err != nil {
		m.mu.Unlock()
		return err
	}
	m.files[p] = &memFile{data: append([]byte(nil), data...), modTime: m.now()}
	m.mu.Unlock()

	if exists {
		m.notify(Event{Type: Changed, Path: p})
	} else {
		m.notify(Event{Type: Created, Path: p})
	}
	return nil
}

// MkdirAll creates p and any missing parents.
func (m *MemFS) MkdirAll(p string) error {
	p = m.normPath(p)
	m.mu.Lock()
	err := m.mkdirAllLocked(p)
	m.mu.Unlock()
	return err
}

func (m *MemFS) mkdirAllLocked(p string) error {
	if _, ok := m.dirs[p]; ok {
		return nil
	}
	if _, ok := m.files[p]; ok {
		return ErrFileNotADirectory
	}
	if err := m.mkdirAllLocked(path.Dir(p)); err != nil {
		return err
	}
	m.dirs[p] = m.now()
	return nil
}

func (m *MemFS) Rename(oldPath, newPath string, opts RenameOptions) error {
	oldPath, newPath = m.normPath(oldPath), m.normPath(newPath)
	m.mu.Lock()

	_, oldIsDir := m.dirs[oldPath]
	_, oldIsFile := m.files[oldPath]
	if !oldIsDir && !oldIsFile {
		m.mu.Unlock()
		return ErrFileNotFound
	}
	if oldPath == newPath {
		m.mu.Unlock()
		return nil
	}
	if oldIsDir && strings.HasPrefix(newPath, oldPath+"/") {
		m.mu.Unlock()
		return ErrNoPermissions
	}
	_, newIsDir := m.dirs[newPath]
	_, newIsFile := m.files[newPath]
	if newIsDir || newIsFile {
		if !opts.Overwrite {
			m.mu.Unlock()
			return ErrFileExists
		}
		m.removeTreeLocked(newPath)
	}
	if err := m.mkdirAllLocked(path.Dir(newPath)); err != nil {
		m.mu.Unlock()
		return err
	}

	if oldIsFile {
		m.files[newPath] = m.files[oldPath]
		delete(m.files, oldPath)
	} else {
		prefix := oldPath + "/"
		files := make(map[string]*memFile)
		for fp, f := range m.files {
			if strings.HasPrefix(fp, prefix) {
				files[newPath+"/"+strings.TrimPrefix(fp, prefix)] = f
				delete(m.files, fp)
			}
		}
		dirs := make(map[string]time.Time)
		for dp, mod := range m.dirs {
			if dp == oldPath || strings.HasPrefix(dp, prefix) {
				dirs[newPath+strings.TrimPrefix(dp, oldPath)] = mod
				delete(m.dirs, dp)
			}
		}
		for fp, f := range files {
			m.files[fp] = f
		}
		for dp, mod := range dirs {
			m.dirs[dp] = mod
		}
	}
	m.mu.Unlock()

	m.notify(Event{Type: Deleted, Path: oldPath})
	m.notify(Event{Type: Created, Path: newPath})
	return nil
}

func (m *MemFS) Remove(p string, opts RemoveOptions) error {
	p = m.normPath(p)
	m.mu.Lock()

	if _, ok := m.files[p]; ok {
		delete(m.files, p)
		m.mu.Unlock()
		m.notify(Event{Type: Deleted, Path: p})
		return nil
	}
	if _, ok := m.dirs[p]; !ok {
		m.mu.Unlock()
		return ErrFileNotFound
	}
	if p == "/" {
		m.mu.Unlock()
		return ErrNoPermissions
	}
	if !opts.Recursive && m.hasChildrenLocked(p) {
		m.mu.Unlock()
		return ErrFileExists
	}
	m.removeTreeLocked(p)
	m.mu.Unlock()

	m.notify(Event{Type: Deleted, Path: p})
	return nil
}

func (m *MemFS) hasChildrenLocked(dir string) bool {
	prefix := dir + "/"
	for fp := range m.files {
		if strings.HasPrefix(fp, prefix) {
			return true
		}
	}
	for dp := range m.dirs {
		if strings.HasPrefix(dp, prefix) {
			return true
		}
	}
	return false
}

func (m *MemFS) removeTreeLocked(p string) {
	delete(m.files, p)
	delete(m.dirs, p)
	prefix := p + "/"
	for fp := range m.files {
		if strings.HasPrefix(fp, prefix) {
			delete(m.files, fp)
		}
	}
	for dp := range m.dirs {
		if strings.HasPrefix(dp, prefix) {
			delete(m.dirs, dp)
		}
	}
}

// Watch reports changes made through this MemFS under p.
func (m *MemFS) Watch(p string, opts WatchOptions) (Watcher, error) {
	p = m.normPath(p)
	if _, err := m.Stat(p); err != nil {
		return nil, err
	}
	w := &memWatcher{
		fs:     m,
		root:   p,
		opts:   opts,
		events: make(chan Event, 64),
		errors: make(chan error),
	}
	m.mu.Lock()
	m.watchers[w] = struct{}{}
	m.mu.Unlock()
	return w, nil
}

func (m *MemFS) notify(ev Event) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for w := range m.watchers {
		if w.matches(ev.Path) {
			select {
			case w.events <- ev:
			default:
			}
		}
	}
}

type memWatcher struct {
	fs     *MemFS
	root   string
	opts   WatchOptions
	events chan Event
	errors chan error
	once   sync.Once
}

func (w *memWatcher) Events() <-chan Event { return w.events }

func (w *memWatcher) Errors() <-chan error { return w.errors }

func (w *memWatcher) Close() error {
	w.once.Do(func() {
		w.fs.mu.Lock()
		delete(w.fs.watchers, w)
		w.fs.mu.Unlock()
		close(w.events)
		close(w.errors)
	})
	return nil
}

func (w *memWatcher) matches(p string) bool {
	var rel string
	switch {
	case p == w.root:
		rel = "."
	case w.root == "/":
		rel = strings.TrimPrefix(p, "/")
	case strings.HasPrefix(p, w.root+"/"):
		rel = strings.TrimPrefix(p, w.root+"/")
	default:
		return false
	}
	if !w.opts.Recursive && strings.Contains(rel, "/") {
		return false
	}
	for _, pattern := range w.opts.Excludes {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return false
		}
		if ok, _ := doublestar.Match(pattern+"/**", rel); ok {
			return false
		}
	}
	return true
}
