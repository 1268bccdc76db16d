package action

import "errors"

var (
	ErrUnknownAction = errors.New("unknown action")
	ErrNoLauncher    = errors.New("no launcher configured")
	ErrLaunch        = errors.New("launch action")
)
