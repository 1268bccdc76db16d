package config

import (
	"errors"
	"fmt"
)

// Root resolution failures. Every reason wraps ErrRootUnresolved so callers can
// match the category or the exact field that needs correcting.
var (
	ErrRootUnresolved           = errors.New("root unresolved")
	ErrEnginePathUnspecified    = fmt.Errorf("%w: engine path not specified", ErrRootUnresolved)
	ErrEnginePathInvalid        = fmt.Errorf("%w: engine path is not a FOnline engine", ErrRootUnresolved)
	ErrWorkspacePathUnspecified = fmt.Errorf("%w: workspace path not specified", ErrRootUnresolved)
	ErrContributionUnspecified  = fmt.Errorf("%w: cmake contribution not specified", ErrRootUnresolved)
	ErrContributionMissing      = fmt.Errorf("%w: cmake contribution file not found", ErrRootUnresolved)
	ErrRootsAttemptsExhausted   = errors.New("root resolution attempts exhausted")
)

// Document failures.
var (
	ErrMalformedConfig = errors.New("malformed config")
	ErrReadConfig      = errors.New("read config")
	ErrScanFolder      = errors.New("scan workspace folder")
)
