// Package storage holds the primitives shared by the project, version, stats and
// knowledge stores: timestamps, ids, parse errors and atomic file writes.
package storage

import (
	"errors"
	"fmt"
)

// ParseError reports a persisted record that is missing or cannot be decoded.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// IsParseError reports whether err is or wraps a *ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}
