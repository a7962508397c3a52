package resolve

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Resolver turns path segments into a single absolute, cleaned path
type Resolver struct {
	getwd func() (string, error)
}

// NewResolver creates a resolver that fills relative paths from os.Getwd
func NewResolver() *Resolver {
	return &Resolver{getwd: os.Getwd}
}

// NewResolverAt creates a resolver whose working directory is fixed to dir
func NewResolverAt(dir string) *Resolver {
	return &Resolver{getwd: func() (string, error) { return dir, nil }}
}

// Cwd returns the working directory used to absolutize relative segments
func (r *Resolver) Cwd() (string, error) {
	wd, err := r.getwd()
	if err != nil {
		return "", &ResolutionError{Cause: fmt.Errorf("%w: %v", ErrNoWorkdir, err)}
	}
	return wd, nil
}

// Resolve walks segments right to left, prepending each one until an
// absolute path is formed. When no segment is absolute the working
// directory is used as the base. Empty segments are ignored and the
// result is cleaned, so it never carries a trailing separator unless it
// is the filesystem root.
func (r *Resolver) Resolve(segments ...string) (string, error) {
	for _, seg := range segments {
		if strings.IndexByte(seg, 0) >= 0 {
			return "", &ResolutionError{Segments: segments, Cause: fmt.Errorf("%w: %q", ErrNullByte, seg)}
		}
	}

	resolved := ""
	for i := len(segments) - 1; i >= 0; i-- {
		seg := segments[i]
		if seg == "" {
			continue
		}
		resolved = filepath.Join(seg, resolved)
		if filepath.IsAbs(seg) {
			return filepath.Clean(resolved), nil
		}
	}

	wd, err := r.getwd()
	if err != nil {
		return "", &ResolutionError{Segments: segments, Cause: fmt.Errorf("%w: %v", ErrNoWorkdir, err)}
	}
	return filepath.Join(wd, resolved), nil
}
