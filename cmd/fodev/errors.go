package main

import (
	"errors"
	"strconv"
)

// Setup errors
var (
	ErrReadConfigFile  = errors.New("read config file")
	ErrInvalidLogLevel = errors.New("invalid log level")
	ErrResolveFolder   = errors.New("resolve workspace folder")
	ErrOpenEventLog    = errors.New("open event log")
	ErrLoadSettings    = errors.New("load settings")
)

// Command errors
var (
	ErrCommandRequired = errors.New("command required")
	ErrActionFailed    = errors.New("action failed")
	ErrRenderTree      = errors.New("render tree")
	ErrWatch           = errors.New("watch")
	ErrUnknownEntry    = errors.New("no content or resource entry")
	ErrOutsideEntry    = errors.New("path leaves its entry")
	ErrFileOperation   = errors.New("file operation")
)

// exitError carries a child process exit code out of RunE.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return "exit status " + strconv.Itoa(e.code)
}
