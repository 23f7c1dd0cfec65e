package internalerr

import "errors"

// Sentinel errors for common cases
var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrUnsupportedLibrary = errors.New("unsupported library")
	ErrDimension          = errors.New("zero matrix dimension")
	ErrRemote             = errors.New("remote computation failed")
	ErrInvalidConfig      = errors.New("invalid configuration")
	ErrRunInFlight        = errors.New("pipeline run already in flight")
	ErrNotFound           = errors.New("not found")
)
