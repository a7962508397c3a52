package safety

import (
	"os"
	"path/filepath"
	"strings"
)

type pathResolver interface {
	Resolve(segments ...string) (string, error)
}

type nodeKind int

const (
	kindAny nodeKind = iota
	kindDirectory
	kindFile
)

// Validator gates every mutation: it answers the access questions
// (exists, readable, writable, executable, node type) and enforces the
// target policy (protected paths, allowed roots, symlink escape).
type Validator struct {
	AllowedRoots   []string
	ProtectedPaths []string

	resolver pathResolver
	access   func(path string, req Requirement) error
	stat     func(path string) (os.FileInfo, error)
}

// NewValidator creates a validator with allowed roots and optional additional protected paths.
// An empty allowed list places no root restriction on targets.
func NewValidator(resolver pathResolver, allowed []string, extraProtected []string) *Validator {
	return &Validator{
		AllowedRoots:   normalizeRoots(allowed),
		ProtectedPaths: defaultProtected(extraProtected),
		resolver:       resolver,
		access:         checkAccess,
		stat:           os.Stat,
	}
}

// NewValidatorWithProtected is NewValidator with protected replacing the
// built-in protected list. "/" is always protected.
func NewValidatorWithProtected(resolver pathResolver, allowed []string, protected []string) *Validator {
	v := NewValidator(resolver, allowed, nil)
	v.ProtectedPaths = append([]string(nil), protected...)
	return v
}

// IsValid resolves path and requires an existing directory that the
// caller can read, write and traverse. Returns the resolved path.
func (v *Validator) IsValid(path string) (string, error) {
	return v.check(path, RequireReadWriteExec, kindDirectory)
}

// IsFile resolves path and requires an existing, readable and writable
// regular file. Returns the resolved path.
func (v *Validator) IsFile(path string) (string, error) {
	return v.check(path, RequireReadWrite, kindFile)
}

// IsExecutable performs the same permission check as IsValid but accepts
// any node type.
func (v *Validator) IsExecutable(path string) (string, error) {
	return v.check(path, RequireReadWriteExec, kindAny)
}

func (v *Validator) check(path string, req Requirement, want nodeKind) (string, error) {
	resolved, err := v.resolver.Resolve(path)
	if err != nil {
		return "", err
	}

	// one combined call, the permission state may change before stat runs
	if err := v.access(resolved, req); err != nil {
		return "", &AccessError{Path: resolved, Requirement: req, Cause: err}
	}
	if want == kindAny {
		return resolved, nil
	}

	info, err := v.stat(resolved)
	if err != nil {
		return "", &AccessError{Path: resolved, Requirement: req, Cause: err}
	}

	switch want {
	case kindDirectory:
		if !info.IsDir() {
			return "", &NotADirectoryError{Path: resolved}
		}
	case kindFile:
		if !info.Mode().IsRegular() {
			return "", &NotAFileError{Path: resolved}
		}
	}
	return resolved, nil
}

// ValidateDeleteTarget is the single-source-of-truth for removal authorization
func (v *Validator) ValidateDeleteTarget(path string) error {
	p, err := NormalizePath(path)
	if err != nil {
		return &PolicyError{Path: path, Cause: err}
	}

	if IsProtectedPath(p, v.ProtectedPaths) {
		return &PolicyError{Path: p, Cause: ErrProtectedPath}
	}
	return v.validateRoots(p)
}

// ValidateWriteTarget authorizes creation of path. Protected paths only
// guard removals; creation is limited by the allowed roots alone.
func (v *Validator) ValidateWriteTarget(path string) error {
	p, err := NormalizePath(path)
	if err != nil {
		return &PolicyError{Path: path, Cause: err}
	}
	return v.validateRoots(p)
}

func (v *Validator) validateRoots(p string) error {
	if len(v.AllowedRoots) == 0 {
		return nil
	}
	if !IsWithinAllowedRoots(p, v.AllowedRoots) {
		return &PolicyError{Path: p, Cause: ErrOutsideAllowed}
	}

	escaped, err := DetectSymlinkEscape(p, v.AllowedRoots)
	if os.IsNotExist(err) {
		// the target is created below its nearest existing ancestor
		escaped, err = detectMissingEscape(p, v.AllowedRoots)
	}
	if err != nil {
		return &PolicyError{Path: p, Cause: err}
	}
	if escaped {
		return &PolicyError{Path: p, Cause: ErrSymlinkEscape}
	}
	return nil
}

// NormalizePath converts path to absolute, cleaned form
func NormalizePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", ErrInvalidPath
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", ErrInvalidPath
	}
	return filepath.Clean(abs), nil
}

// IsWithinAllowedRoots checks if path is within any allowed root
func IsWithinAllowedRoots(path string, allowedRoots []string) bool {
	p := filepath.Clean(path)
	for _, r := range allowedRoots {
		// hasPathPrefix treats "/" as an exact match for the protected list
		if filepath.Clean(r) == string(os.PathSeparator) || hasPathPrefix(p, r) {
			return true
		}
	}
	return false
}

// DetectSymlinkEscape resolves symlinks and checks if resolved path escapes allowed roots
func DetectSymlinkEscape(cleanAbs string, allowedRoots []string) (bool, error) {
	resolved, err := filepath.EvalSymlinks(cleanAbs)
	if err != nil {
		return false, err
	}
	resolvedAbs, err := filepath.Abs(resolved)
	if err != nil {
		return false, err
	}
	return !IsWithinAllowedRoots(filepath.Clean(resolvedAbs), withRootTargets(allowedRoots)), nil
}

// maxLinkHops bounds symlink chains followed by resolveMissing
const maxLinkHops = 255

// detectMissingEscape checks a path that does not exist yet. Symlinks in
// its existing ancestors, and a dangling link at any level, are followed
// before the missing tail is re-attached.
func detectMissingEscape(cleanAbs string, allowedRoots []string) (bool, error) {
	resolved, err := resolveMissing(cleanAbs)
	if err != nil {
		return false, err
	}
	return !IsWithinAllowedRoots(resolved, withRootTargets(allowedRoots)), nil
}

// resolveMissing returns where cleanAbs would land once created
func resolveMissing(cleanAbs string) (string, error) {
	cur, tail := cleanAbs, ""
	for hops := 0; hops < maxLinkHops; {
		resolved, err := filepath.EvalSymlinks(cur)
		if err == nil {
			return filepath.Clean(filepath.Join(resolved, tail)), nil
		}
		if !os.IsNotExist(err) {
			return "", err
		}

		// a dangling link is followed by creation, so follow it here too
		if info, lerr := os.Lstat(cur); lerr == nil && info.Mode()&os.ModeSymlink != 0 {
			target, err := os.Readlink(cur)
			if err != nil {
				return "", err
			}
			if !filepath.IsAbs(target) {
				target = filepath.Join(filepath.Dir(cur), target)
			}
			cur = filepath.Clean(target)
			hops++
			continue
		}

		parent := filepath.Dir(cur)
		if parent == cur {
			return filepath.Clean(filepath.Join(cur, tail)), nil
		}
		tail = filepath.Join(filepath.Base(cur), tail)
		cur = parent
	}
	return "", ErrSymlinkEscape
}

// withRootTargets adds the symlink targets of the roots themselves
// (/var -> /private/var)
func withRootTargets(allowedRoots []string) []string {
	roots := make([]string, 0, len(allowedRoots)*2)
	for _, r := range allowedRoots {
		roots = append(roots, r)
		if target, err := filepath.EvalSymlinks(r); err == nil && target != r {
			roots = append(roots, target)
		}
	}
	return roots
}

// IsProtectedPath checks if path matches protected system paths
func IsProtectedPath(path string, protected []string) bool {
	p := filepath.Clean(path)

	// Hard block: "/" exact
	if p == string(os.PathSeparator) {
		return true
	}

	for _, prot := range protected {
		prot = filepath.Clean(prot)
		if p == prot || hasPathPrefix(p, prot) {
			return true
		}
	}
	return false
}

// hasPathPrefix checks if path has the given prefix
func hasPathPrefix(path, prefix string) bool {
	path = filepath.Clean(path)
	prefix = filepath.Clean(prefix)

	if prefix == string(os.PathSeparator) {
		return path == prefix
	}
	if path == prefix {
		return true
	}
	return strings.HasPrefix(path, prefix+string(os.PathSeparator))
}

// normalizeRoots converts slice of roots to absolute, cleaned paths
func normalizeRoots(roots []string) []string {
	out := make([]string, 0, len(roots))
	for _, r := range roots {
		if strings.TrimSpace(r) == "" {
			continue
		}
		abs, err := filepath.Abs(r)
		if err != nil {
			continue
		}
		out = append(out, filepath.Clean(abs))
	}
	return out
}

// defaultProtected returns the base set of protected paths plus any extras
func defaultProtected(extra []string) []string {
	base := []string{
		"/",
		"/etc",
		"/bin",
		"/usr",
		"/boot",
		"/lib",
		"/lib64",
		"/sbin",
		"/proc",
		"/sys",
		"/dev",
	}
	return append(base, extra...)
}
