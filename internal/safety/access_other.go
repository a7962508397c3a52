//go:build !unix

package safety

import (
	"io/fs"
	"os"
)

// checkAccess approximates access(2) from the owner permission bits
func checkAccess(path string, req Requirement) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	perm := info.Mode().Perm()
	if req&readOK != 0 && perm&0o400 == 0 ||
		req&writeOK != 0 && perm&0o200 == 0 ||
		req&execOK != 0 && perm&0o100 == 0 {
		return &fs.PathError{Op: "access", Path: path, Err: fs.ErrPermission}
	}
	return nil
}
