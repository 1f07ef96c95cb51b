package vfs

import (
	"errors"
	"fmt"
)

// -- Error Types --

// InvalidPathError is returned when a path cannot be normalised.
type InvalidPathError struct {
	Path   string
	Reason string
}

func (e *InvalidPathError) Error() string {
	return fmt.Sprintf("invalid path %q: %s", e.Path, e.Reason)
}

// StaleNodeError is returned when a caller mutates a node that has been
// invalidated. Re-resolve the path to obtain a live node.
type StaleNodeError struct {
	Path string
}

func (e *StaleNodeError) Error() string {
	return fmt.Sprintf("node %s is no longer valid", e.Path)
}

// ProviderError wraps a failed provider call.
type ProviderError struct {
	Op    string
	Path  string
	Cause error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Cause)
}
func (e *ProviderError) Unwrap() error { return e.Cause }

// -- Sentinels --

var (
	ErrNotDirectory = errors.New("not a directory")
	ErrNilNode      = errors.New("nil node")
)
