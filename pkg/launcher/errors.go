package launcher

import "errors"

var (
	ErrNoShell        = errors.New("no shell to launch")
	ErrStart          = errors.New("start process")
	ErrAlreadyRunning = errors.New("already running")
	ErrTerminal       = errors.New("attach terminal")
)
