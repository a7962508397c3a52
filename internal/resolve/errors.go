package resolve

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNullByte  = errors.New("path segments must not contain null bytes")
	ErrNoWorkdir = errors.New("current working directory is unavailable")
)

// ResolutionError is returned when segments cannot be combined into a path
type ResolutionError struct {
	Segments []string
	Cause    error
}

func (e *ResolutionError) Error() string {
	if len(e.Segments) == 0 {
		return fmt.Sprintf("Invalid path: %v", e.Cause)
	}
	return fmt.Sprintf("Invalid path: %v (segments: %s)", e.Cause, strings.Join(e.Segments, ", "))
}

func (e *ResolutionError) Unwrap() error { return e.Cause }
