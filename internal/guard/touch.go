package guard

import (
	"log"
	"path/filepath"
	"strings"
	"time"

	"pathguard/internal/journal"
)

// FileToucher creates or truncates batches of files
type FileToucher struct {
	guard
}

// NewFileToucher creates a FileToucher backed by the real filesystem
func NewFileToucher(resolver Resolver, validator Validator, logger *log.Logger) *FileToucher {
	return &FileToucher{guard: newGuard(resolver, validator, logger)}
}

// Touch validates every path first, then opens each one for writing with
// create+truncate and closes it, in input order. The first failure aborts
// the call; files touched before it stay touched. Returns the
// newline-joined "touched -> <abs>" lines of this call only.
func (t *FileToucher) Touch(paths []string) (string, error) {
	started := time.Now()
	op := journal.OpTouch

	if paths == nil {
		return "", t.rejectArgs(op, started)
	}

	targets := make([]string, 0, len(paths))
	for _, p := range paths {
		abs, err := t.absolute(p)
		if err != nil {
			return "", t.reject(op, p, &InvalidPathError{Path: p, Cause: err}, started)
		}
		if err := t.validator.ValidateWriteTarget(abs); err != nil {
			return "", t.reject(op, abs, &InvalidPathError{Path: abs, Cause: err}, started)
		}
		// parent of the path as given, relative input resolves against the validator's working directory
		if _, err := t.validator.IsValid(filepath.Dir(p)); err != nil {
			return "", t.reject(op, abs, &InvalidPathError{Path: p, Cause: err}, started)
		}
		targets = append(targets, abs)
	}

	lines := make([]string, 0, len(targets))
	for _, abs := range targets {
		t.throttle.Wait()
		if err := t.ops.Touch(abs); err != nil {
			return "", t.fail(op, abs, &TouchError{Path: abs, Cause: err}, started)
		}
		line := "touched -> " + abs
		t.done(op, abs, line)
		lines = append(lines, line)
	}

	t.succeed(op, len(lines), started)
	return strings.Join(lines, "\n"), nil
}
