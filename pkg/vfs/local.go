package vfs

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

// LocalFS is the host file system.
type LocalFS struct {
	logger *slog.Logger
}

func NewLocalFS(logger *slog.Logger) *LocalFS {
	if logger == nil {
		logger = slog.Default()
	}
	return &LocalFS{logger: logger.With("component", "vfs")}
}

func (l *LocalFS) Stat(path string) (FileInfo, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return FileInfo{}, mapError(err)
	}
	fi := FileInfo{
		Name:    info.Name(),
		Type:    fileType(info.Mode()),
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}
	// Report what a symlink points at, when it resolves.
	if fi.Type == TypeSymlink {
		if target, err := os.Stat(path); err == nil {
			fi.Type = fileType(target.Mode())
			fi.Size = target.Size()
		}
	}
	return fi, nil
}

func (l *LocalFS) ReadDir(path string) ([]DirEntry, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, mapError(err)
	}
	out := make([]DirEntry, 0, len(entries))
	for _, e := range entries {
		t := fileType(e.Type())
		link := t == TypeSymlink
		if link {
			if target, err := os.Stat(filepath.Join(path, e.Name())); err == nil {
				t = fileType(target.Mode())
			}
		}
		out = append(out, DirEntry{Name: e.Name(), Type: t, Link: link})
	}
	return out, nil
}

func (l *LocalFS) ReadFile(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, mapError(err)
	}
	if info.IsDir() {
		return nil, ErrFileIsADirectory
	}
	data, err := os.ReadFile(path)
	return data, mapError(err)
}

func (l *LocalFS) WriteFile(path string, data []byte, opts WriteOptions) error {
	info, err := os.Stat(path)
	exists := err == nil
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return mapError(err)
	}
	switch {
	case exists && info.IsDir():
		return ErrFileIsADirectory
	case !exists && !opts.Create:
		return ErrFileNotFound
	case exists && opts.Create && !opts.Overwrite:
		return ErrFileExists
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return mapError(err)
	}
	mode := os.FileMode(0644)
	if exists {
		mode = info.Mode().Perm()
	}
	return mapError(os.WriteFile(path, data, mode))
}

func (l *LocalFS) Rename(oldPath, newPath string, opts RenameOptions) error {
	if _, err := os.Lstat(oldPath); err != nil {
		return mapError(err)
	}
	if _, err := os.Lstat(newPath); err == nil {
		if !opts.Overwrite {
			return ErrFileExists
		}
		if err := os.RemoveAll(newPath); err != nil {
			return mapError(err)
		}
	}
	if err := os.MkdirAll(filepath.Dir(newPath), 0755); err != nil {
		return mapError(err)
	}
	return mapError(os.Rename(oldPath, newPath))
}

func (l *LocalFS) Remove(path string, opts RemoveOptions) error {
	if _, err := os.Lstat(path); err != nil {
		return mapError(err)
	}
	if opts.Recursive {
		return mapError(os.RemoveAll(path))
	}
	return mapError(os.Remove(path))
}
