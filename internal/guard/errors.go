package guard

import (
	"errors"
	"fmt"
)

// ErrPathsRequired is returned when a batch operation receives no slice at all
var ErrPathsRequired = errors.New("paths argument must be a slice also if it is only one entry")

// ArgumentError is returned synchronously, before any I/O, when a batch
// operation is called with a nil paths slice.
type ArgumentError struct {
	Operation string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("%s: %v", e.Operation, ErrPathsRequired)
}

func (e *ArgumentError) Unwrap() error { return ErrPathsRequired }

// InvalidPathError wraps a resolution, access or policy failure raised
// while validating a mutation target. Path is the path that was checked.
type InvalidPathError struct {
	Path  string
	Cause error
}

func (e *InvalidPathError) Error() string {
	return fmt.Sprintf("%v given path: %s", e.Cause, e.Path)
}

func (e *InvalidPathError) Unwrap() error { return e.Cause }

// MkdirError wraps the OS failure of a validated directory creation
type MkdirError struct {
	Path  string
	Cause error
}

func (e *MkdirError) Error() string {
	return fmt.Sprintf("mkdir failed: %v", e.Cause)
}

func (e *MkdirError) Unwrap() error { return e.Cause }

// TouchError wraps the OS failure of a validated create-or-truncate
type TouchError struct {
	Path  string
	Cause error
}

func (e *TouchError) Error() string {
	return fmt.Sprintf("touch failed: %v given path: %s", e.Cause, e.Path)
}

func (e *TouchError) Unwrap() error { return e.Cause }

// RmError wraps the OS failure of a validated removal
type RmError struct {
	Path  string
	Cause error
}

func (e *RmError) Error() string {
	return fmt.Sprintf("rm failed: %v given path: %s", e.Cause, e.Path)
}

func (e *RmError) Unwrap() error { return e.Cause }
