package main

import "fmt"

// UsageError reports bad command-line arguments.
type UsageError struct {
	Command string
	Reason  string
}

func (e *UsageError) Error() string {
	return fmt.Sprintf("%s: %s", e.Command, e.Reason)
}

// NotFoundError reports a path that does not exist.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: not found", e.Path)
}
