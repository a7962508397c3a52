package fsops

import (
	"errors"
	"io/fs"
)

// ErrIsDirectory is returned by Remove when the target is a directory.
// Single-entry removal never descends; directories go through RemoveAll.
var ErrIsDirectory = errors.New("is a directory")

// Creator abstracts filesystem create operations
type Creator interface {
	Mkdir(path string, perm fs.FileMode) error
	// Touch opens path for writing with create+truncate and closes it
	Touch(path string) error
}

// Deleter abstracts filesystem delete operations
type Deleter interface {
	Remove(path string) error
	RemoveAll(path string) error
}

// Ops is the full mutation seam used by the guarded components.
// Enables mocking in tests to prove rejected batches never mutate.
type Ops interface {
	Creator
	Deleter
}
