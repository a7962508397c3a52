//go:build unix

package safety

import (
	"io/fs"

	"golang.org/x/sys/unix"
)

// checkAccess issues a single access(2) call for the combined requirement
func checkAccess(path string, req Requirement) error {
	if err := unix.Access(path, uint32(req)); err != nil {
		return &fs.PathError{Op: "access", Path: path, Err: err}
	}
	return nil
}
