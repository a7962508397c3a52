package guard

import (
	"errors"
	"log"
	"path/filepath"
	"strings"
	"time"

	"pathguard/internal/journal"
)

// Remover deletes batches of directories or files
type Remover struct {
	guard
}

// NewRemover creates a Remover backed by the real filesystem
func NewRemover(resolver Resolver, validator Validator, logger *log.Logger) *Remover {
	return &Remover{guard: newGuard(resolver, validator, logger)}
}

// RmDir validates that every path is a valid directory, then removes each
// one recursively in input order.
func (r *Remover) RmDir(paths []string) (string, error) {
	return r.remove(journal.OpRmDir, paths, false, r.ops.RemoveAll)
}

// RmFile validates the parent directory of every path, then removes each
// path non-recursively in input order. The file's own permissions are not
// checked; a read-only file in a writable directory is removable.
func (r *Remover) RmFile(paths []string) (string, error) {
	return r.remove(journal.OpRmFile, paths, true, r.ops.Remove)
}

func (r *Remover) remove(op journal.Operation, paths []string, fileMode bool, rm func(string) error) (string, error) {
	started := time.Now()
	if paths == nil {
		return "", r.rejectArgs(op, started)
	}

	targets, err := r.validateRemoval(paths, fileMode)
	if err != nil {
		var path string
		var invalid *InvalidPathError
		if errors.As(err, &invalid) {
			path = invalid.Path
		}
		return "", r.reject(op, path, err, started)
	}

	lines := make([]string, 0, len(targets))
	for _, abs := range targets {
		r.throttle.Wait()
		if err := rm(abs); err != nil {
			return "", r.fail(op, abs, &RmError{Path: abs, Cause: err}, started)
		}
		line := "removed -> " + abs
		r.done(op, abs, line)
		lines = append(lines, line)
	}

	r.succeed(op, len(lines), started)
	return strings.Join(lines, "\n"), nil
}

// validateRemoval absolutizes every path and checks it against the removal
// policy. In fileMode the parent directory must pass IsValid, otherwise the
// path itself must. The absolute paths are returned only if all pass.
func (r *Remover) validateRemoval(paths []string, fileMode bool) ([]string, error) {
	targets := make([]string, 0, len(paths))
	for _, p := range paths {
		abs, err := r.absolute(p)
		if err != nil {
			return nil, &InvalidPathError{Path: p, Cause: err}
		}
		if err := r.validator.ValidateDeleteTarget(abs); err != nil {
			return nil, &InvalidPathError{Path: abs, Cause: err}
		}

		checked := abs
		if fileMode {
			checked = filepath.Dir(abs)
		}
		if _, err := r.validator.IsValid(checked); err != nil {
			return nil, &InvalidPathError{Path: checked, Cause: err}
		}
		targets = append(targets, abs)
	}
	return targets, nil
}
