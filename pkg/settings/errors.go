package settings

import "errors"

var (
	ErrReadFolderSettings  = errors.New("read folder settings")
	ErrWriteFolderSettings = errors.New("write folder settings")
	ErrMalformedSettings   = errors.New("malformed settings file")
	ErrUnknownFolder       = errors.New("unknown workspace folder")
)
