package vfs

import (
	"errors"
	"io/fs"
	"syscall"

	"github.com/fonline/fodev/internal/errx"
)

var (
	ErrFileNotFound      = errors.New("file not found")
	ErrFileIsADirectory  = errors.New("file is a directory")
	ErrFileNotADirectory = errors.New("file is not a directory")
	ErrFileExists        = errors.New("file exists")
	ErrNoPermissions     = errors.New("no permissions")
	ErrWatch             = errors.New("watch")
)

// mapError folds OS errors into the package sentinels, keeping the cause.
func mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, fs.ErrNotExist):
		return errx.Wrap(ErrFileNotFound, err)
	case errors.Is(err, fs.ErrExist), errors.Is(err, syscall.ENOTEMPTY):
		return errx.Wrap(ErrFileExists, err)
	case errors.Is(err, fs.ErrPermission):
		return errx.Wrap(ErrNoPermissions, err)
	case errors.Is(err, syscall.EISDIR):
		return errx.Wrap(ErrFileIsADirectory, err)
	case errors.Is(err, syscall.ENOTDIR):
		return errx.Wrap(ErrFileNotADirectory, err)
	default:
		return err
	}
}
