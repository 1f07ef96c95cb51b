package path

import (
	"errors"
	"fmt"
)

// -- Error Types --

// RootError is returned when a root directory cannot be canonicalised.
type RootError struct {
	Root  string
	Cause error
}

func (e *RootError) Error() string {
	return fmt.Sprintf("invalid root %s: %v", e.Root, e.Cause)
}
func (e *RootError) Unwrap() error { return e.Cause }

// -- Sentinels --

var (
	ErrOutsideBase   = errors.New("path is outside base directory")
	ErrBaseNotSet    = errors.New("base directory not set")
	ErrNotADirectory = errors.New("not a directory")
)
