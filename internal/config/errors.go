package config

import "fmt"

// -- Error Types --

// ParseError is returned when the dotfile is not valid JSON or does not
// match the config schema.
type ParseError struct {
	Cause error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse config: %v", e.Cause)
}
func (e *ParseError) Unwrap() error { return e.Cause }
