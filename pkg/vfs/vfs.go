// Package vfs is the narrow file system surface the explorer browses and
// watches: stat, list, read, write, rename, remove and change notification.
package vfs

import (
	"io/fs"
	"time"
)

type FileType int

const (
	TypeUnknown FileType = iota
	TypeFile
	TypeDir
	TypeSymlink
)

func (t FileType) String() string {
	switch t {
	case TypeFile:
		return "file"
	case TypeDir:
		return "dir"
	case TypeSymlink:
		return "symlink"
	default:
		return "unknown"
	}
}

func fileType(mode fs.FileMode) FileType {
	switch {
	case mode&fs.ModeSymlink != 0:
		return TypeSymlink
	case mode.IsDir():
		return TypeDir
	case mode.IsRegular():
		return TypeFile
	default:
		return TypeUnknown
	}
}

type FileInfo struct {
	Name    string
	Type    FileType
	Size    int64
	ModTime time.Time
}

func (fi FileInfo) IsDir() bool { return fi.Type == TypeDir }

// DirEntry is one child of a listed directory. Type is what the entry
// resolves to; Link marks entries reached through a symlink.
type DirEntry struct {
	Name string
	Type FileType
	Link bool
}

// WriteOptions mirror create/overwrite semantics: writing a missing file
// needs Create, replacing an existing one with Create set needs Overwrite.
type WriteOptions struct {
	Create    bool
	Overwrite bool
}

type RenameOptions struct {
	Overwrite bool
}

type RemoveOptions struct {
	Recursive bool
}

// WatchOptions select what a watch reports. Excludes are doublestar patterns
// matched against slash-separated paths relative to the watched root.
type WatchOptions struct {
	Recursive bool
	Excludes  []string
}

type ChangeType int

const (
	Changed ChangeType = iota + 1
	Created
	Deleted
)

func (c ChangeType) String() string {
	switch c {
	case Changed:
		return "changed"
	case Created:
		return "created"
	case Deleted:
		return "deleted"
	default:
		return "unknown"
	}
}

type Event struct {
	Type ChangeType
	Path string
}

// Watcher delivers change events until closed.
type Watcher interface {
	Events() <-chan Event
	Errors() <-chan error
	Close() error
}

// FileSystem is implemented by LocalFS and MemFS.
type FileSystem interface {
	Stat(path string) (FileInfo, error)
	ReadDir(path string) ([]DirEntry, error)
	ReadFile(path string) ([]byte, error)
	WriteFile(path string, data []byte, opts WriteOptions) error
	Rename(oldPath, newPath string, opts RenameOptions) error
	Remove(path string, opts RemoveOptions) error
	Watch(path string, opts WatchOptions) (Watcher, error)
}
