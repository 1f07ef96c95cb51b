package fs

import (
	"errors"
	"fmt"
)

// -- Error Types --

// ReadDirError is returned when a directory listing fails part-way.
type ReadDirError struct {
	Path  string
	Cause error
}

func (e *ReadDirError) Error() string {
	return fmt.Sprintf("failed to read directory %s: %v", e.Path, e.Cause)
}
func (e *ReadDirError) Unwrap() error { return e.Cause }

// -- Sentinels --

var (
	ErrSymlinksUnsupported = errors.New("backing filesystem does not support symlinks")
)
