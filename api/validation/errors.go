package validation

import "errors"

var (
	ErrUnknownContainer = errors.New("unrecognized file container")
	ErrFileTooLarge     = errors.New("file size exceeds the configured limit")
)
