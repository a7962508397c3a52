package guard

import (
	"log"
	"path/filepath"
	"time"

	"pathguard/internal/journal"
)

// DirectoryCreator creates single directories below an existing, valid parent
type DirectoryCreator struct {
	guard
}

// NewDirectoryCreator creates a DirectoryCreator backed by the real filesystem
func NewDirectoryCreator(resolver Resolver, validator Validator, logger *log.Logger) *DirectoryCreator {
	return &DirectoryCreator{guard: newGuard(resolver, validator, logger)}
}

// Mkdir creates path with mode DirMode. It never creates ancestors: the
// parent must already pass IsValid. Returns "made directory -> <abs>".
func (c *DirectoryCreator) Mkdir(path string) (string, error) {
	started := time.Now()
	op := journal.OpMkdir

	abs, err := c.absolute(path)
	if err != nil {
		return "", c.reject(op, path, &InvalidPathError{Path: path, Cause: err}, started)
	}
	if err := c.validator.ValidateWriteTarget(abs); err != nil {
		return "", c.reject(op, abs, &InvalidPathError{Path: abs, Cause: err}, started)
	}
	parent := filepath.Dir(abs)
	if _, err := c.validator.IsValid(parent); err != nil {
		return "", c.reject(op, abs, &InvalidPathError{Path: parent, Cause: err}, started)
	}

	c.throttle.Wait()
	if err := c.ops.Mkdir(abs, DirMode); err != nil {
		return "", c.fail(op, abs, &MkdirError{Path: abs, Cause: err}, started)
	}

	line := "made directory -> " + abs
	c.done(op, abs, line)
	c.succeed(op, 1, started)
	return line, nil
}
