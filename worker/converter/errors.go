package converter

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput covers client mistakes: a missing source file or an
	// unrecognized document extension. Raised before any backend runs.
	ErrInvalidInput = errors.New("invalid input document")

	// ErrBackendUnavailable means no usable conversion backend is installed,
	// or an explicitly requested one is not usable on this host.
	ErrBackendUnavailable = errors.New("conversion backend unavailable")
)

// ConversionError reports a backend failure with its diagnostic output.
type ConversionError struct {
	Backend string
	Msg     string
	Err     error
}

func (e *ConversionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Backend, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Backend, e.Msg)
}

func (e *ConversionError) Unwrap() error { return e.Err }

func conversionErr(backend, msg string, err error) error {
	return &ConversionError{Backend: backend, Msg: msg, Err: err}
}
