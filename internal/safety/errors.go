package safety

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidPath    = errors.New("invalid path")
	ErrProtectedPath  = errors.New("protected path")
	ErrOutsideAllowed = errors.New("outside allowed roots")
	ErrSymlinkEscape  = errors.New("symlink escape detected")
	ErrNotADirectory  = errors.New("not a directory")
	ErrNotAFile       = errors.New("not a file")
)

// AccessError is returned when a path is missing or lacks a required permission
type AccessError struct {
	Path        string
	Requirement Requirement
	Cause       error
}

func (e *AccessError) Error() string {
	return fmt.Sprintf("Invalid path: %v", e.Cause)
}

func (e *AccessError) Unwrap() error { return e.Cause }

// NotADirectoryError is returned when a directory was required
type NotADirectoryError struct {
	Path string
}

func (e *NotADirectoryError) Error() string {
	return fmt.Sprintf("Invalid path: %s is not a directory.", e.Path)
}

func (e *NotADirectoryError) Unwrap() error { return ErrNotADirectory }

// NotAFileError is returned when a regular file was required
type NotAFileError struct {
	Path string
}

func (e *NotAFileError) Error() string {
	return fmt.Sprintf("Invalid path: %s is not a file.", e.Path)
}

func (e *NotAFileError) Unwrap() error { return ErrNotAFile }

// PolicyError is returned when a mutation target violates the safety contract
type PolicyError struct {
	Path  string
	Cause error
}

func (e *PolicyError) Error() string {
	return fmt.Sprintf("Invalid path: %s: %v", e.Path, e.Cause)
}

func (e *PolicyError) Unwrap() error { return e.Cause }
