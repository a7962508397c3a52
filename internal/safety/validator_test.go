package safety

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pathguard/internal/resolve"
)

func newTestValidator(allowed []string) *Validator {
	return NewValidator(resolve.NewResolver(), allowed, nil)
}

// TestIsValid verifies the directory check: exists, rwx, is a directory
func TestIsValid(t *testing.T) {
	tmpDir := t.TempDir()
	// rwx so the access check passes and the type check is reached
	file := filepath.Join(tmpDir, "file.sh")
	if err := os.WriteFile(file, []byte("x"), 0755); err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}
	plain := filepath.Join(tmpDir, "plain.txt")
	if err := os.WriteFile(plain, []byte("x"), 0644); err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}

	v := newTestValidator(nil)

	got, err := v.IsValid(tmpDir)
	if err != nil {
		t.Fatalf("IsValid(%s) unexpected error: %v", tmpDir, err)
	}
	if got != tmpDir {
		t.Errorf("IsValid(%s) = %s, expected resolved path", tmpDir, got)
	}

	_, err = v.IsValid(file)
	var notDir *NotADirectoryError
	if !errors.As(err, &notDir) {
		t.Fatalf("IsValid(file) expected NotADirectoryError, got %v", err)
	}
	if !strings.Contains(err.Error(), "Invalid path") || !strings.Contains(err.Error(), "is not a directory") {
		t.Errorf("unexpected message: %s", err.Error())
	}

	// no execute bit fails access(2) before the type check, even as root
	_, err = v.IsValid(plain)
	var plainErr *AccessError
	if !errors.As(err, &plainErr) {
		t.Fatalf("IsValid(0644 file) expected AccessError, got %v", err)
	}
	if plainErr.Requirement != RequireReadWriteExec {
		t.Errorf("IsValid(0644 file) requirement = %s", plainErr.Requirement)
	}

	_, err = v.IsValid(filepath.Join(tmpDir, "missing"))
	var accessErr *AccessError
	if !errors.As(err, &accessErr) {
		t.Fatalf("IsValid(missing) expected AccessError, got %v", err)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("IsValid(missing) should unwrap to ErrNotExist, got %v", err)
	}
	if !strings.HasPrefix(err.Error(), "Invalid path: ") {
		t.Errorf("unexpected message: %s", err.Error())
	}
}

// TestIsValidResolvesRelative verifies relative input is resolved before checking
func TestIsValidResolvesRelative(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.Mkdir(filepath.Join(tmpDir, "sub"), 0755); err != nil {
		t.Fatalf("Failed to create sub dir: %v", err)
	}

	v := NewValidator(resolve.NewResolverAt(tmpDir), nil, nil)
	got, err := v.IsValid("sub")
	if err != nil {
		t.Fatalf("IsValid(sub) unexpected error: %v", err)
	}
	if got != filepath.Join(tmpDir, "sub") {
		t.Errorf("IsValid(sub) = %s", got)
	}
}

// TestIsFile verifies the regular-file check
func TestIsFile(t *testing.T) {
	tmpDir := t.TempDir()
	file := filepath.Join(tmpDir, "file.txt")
	if err := os.WriteFile(file, []byte("x"), 0644); err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}

	v := newTestValidator(nil)

	if got, err := v.IsFile(file); err != nil || got != file {
		t.Errorf("IsFile(%s) = %s, %v", file, got, err)
	}

	_, err := v.IsFile(tmpDir)
	var notFile *NotAFileError
	if !errors.As(err, &notFile) {
		t.Fatalf("IsFile(dir) expected NotAFileError, got %v", err)
	}
	if !errors.Is(err, ErrNotAFile) {
		t.Errorf("NotAFileError should unwrap to ErrNotAFile")
	}
}

// TestIsExecutableAcceptsAnyNodeType verifies no type requirement is applied
func TestIsExecutableAcceptsAnyNodeType(t *testing.T) {
	tmpDir := t.TempDir()
	script := filepath.Join(tmpDir, "run.sh")
	if err := os.WriteFile(script, []byte("#!/bin/sh\n"), 0755); err != nil {
		t.Fatalf("Failed to create script: %v", err)
	}

	v := newTestValidator(nil)

	for _, p := range []string{tmpDir, script} {
		if _, err := v.IsExecutable(p); err != nil {
			t.Errorf("IsExecutable(%s) unexpected error: %v", p, err)
		}
	}
}

// TestRequirementsPassedToAccess verifies the combined flag sets per check
func TestRequirementsPassedToAccess(t *testing.T) {
	tmpDir := t.TempDir()
	file := filepath.Join(tmpDir, "f")
	if err := os.WriteFile(file, nil, 0644); err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}

	var calls []Requirement
	v := newTestValidator(nil)
	v.access = func(path string, req Requirement) error {
		calls = append(calls, req)
		return nil
	}

	_, _ = v.IsValid(tmpDir)
	_, _ = v.IsFile(file)
	_, _ = v.IsExecutable(file)

	expected := []Requirement{RequireReadWriteExec, RequireReadWrite, RequireReadWriteExec}
	if len(calls) != len(expected) {
		t.Fatalf("expected %d access calls, got %d", len(expected), len(calls))
	}
	for i := range expected {
		if calls[i] != expected[i] {
			t.Errorf("call %d: requirement %s, expected %s", i, calls[i], expected[i])
		}
	}
}

// TestPermissionDenied verifies a directory without write permission is rejected
func TestPermissionDenied(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root bypasses permission bits")
	}
	tmpDir := t.TempDir()
	locked := filepath.Join(tmpDir, "locked")
	if err := os.Mkdir(locked, 0555); err != nil {
		t.Fatalf("Failed to create locked dir: %v", err)
	}

	v := newTestValidator(nil)
	_, err := v.IsValid(locked)
	if !errors.Is(err, fs.ErrPermission) {
		t.Errorf("IsValid(read-only dir) expected permission error, got %v", err)
	}
}

func TestRequirementString(t *testing.T) {
	if RequireReadWriteExec.String() != "rwx" {
		t.Errorf("RequireReadWriteExec = %s", RequireReadWriteExec)
	}
	if RequireReadWrite.String() != "rw-" {
		t.Errorf("RequireReadWrite = %s", RequireReadWrite)
	}
}

// TestProtectedPathBlocking verifies protected paths are blocked
func TestProtectedPathBlocking(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		expected bool
	}{
		{"root slash", "/", true},
		{"etc", "/etc", true},
		{"etc subdir", "/etc/ssh", true},
		{"bin", "/bin", true},
		{"bin file", "/bin/bash", true},
		{"usr", "/usr", true},
		{"usr local", "/usr/local", true},
		{"boot", "/boot", true},
		{"lib64", "/lib64", true},
		{"sbin", "/sbin", true},
		{"proc", "/proc/self", true},
		{"tmp allowed", "/tmp", false},
		{"tmp file", "/tmp/file.txt", false},
		{"var tmp", "/var/tmp", false},
		{"home user", "/home/user", false},
		{"etc lookalike", "/etcetera", false},
	}

	protected := defaultProtected(nil)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := IsProtectedPath(tt.path, protected)
			if result != tt.expected {
				t.Errorf("IsProtectedPath(%s) = %v, expected %v", tt.path, result, tt.expected)
			}
		})
	}
}

// TestAllowedRootEnforcement verifies paths are restricted to allowed roots
func TestAllowedRootEnforcement(t *testing.T) {
	allowed := []string{"/tmp/allowed", "/var/cleanup"}

	tests := []struct {
		name     string
		path     string
		expected bool
	}{
		{"inside allowed tmp", "/tmp/allowed/file.txt", true},
		{"inside allowed var", "/var/cleanup/old.log", true},
		{"allowed root exact", "/tmp/allowed", true},
		{"outside allowed", "/tmp/notallowed/file.txt", false},
		{"parent of allowed", "/tmp", false},
		{"root", "/", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := IsWithinAllowedRoots(tt.path, allowed)
			if result != tt.expected {
				t.Errorf("IsWithinAllowedRoots(%s) = %v, expected %v", tt.path, result, tt.expected)
			}
		})
	}

	if !IsWithinAllowedRoots("/anything/at/all", []string{"/"}) {
		t.Errorf("root allowed root should admit every path")
	}
}

// TestPathNormalization verifies paths are normalized correctly
func TestPathNormalization(t *testing.T) {
	tests := []struct {
		name        string
		path        string
		expectError bool
	}{
		{"absolute path", "/tmp/file.txt", false},
		{"relative path", "file.txt", false},
		{"path with dots", "/tmp/./file.txt", false},
		{"empty path", "", true},
		{"whitespace only", "   ", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := NormalizePath(tt.path)
			if tt.expectError {
				if err == nil {
					t.Errorf("NormalizePath(%s) expected error, got nil", tt.path)
				}
				return
			}
			if err != nil {
				t.Errorf("NormalizePath(%s) unexpected error: %v", tt.path, err)
			}
			if !filepath.IsAbs(result) {
				t.Errorf("NormalizePath(%s) = %s, expected absolute path", tt.path, result)
			}
		})
	}
}

// TestSymlinkEscapeDetection verifies symlinks escaping allowed roots are detected
func TestSymlinkEscapeDetection(t *testing.T) {
	tmpDir := t.TempDir()
	allowedDir := filepath.Join(tmpDir, "allowed")
	outsideDir := filepath.Join(tmpDir, "outside")

	if err := os.MkdirAll(allowedDir, 0755); err != nil {
		t.Fatalf("Failed to create allowed dir: %v", err)
	}
	if err := os.MkdirAll(outsideDir, 0755); err != nil {
		t.Fatalf("Failed to create outside dir: %v", err)
	}

	outsideFile := filepath.Join(outsideDir, "target.txt")
	if err := os.WriteFile(outsideFile, []byte("outside"), 0644); err != nil {
		t.Fatalf("Failed to create outside file: %v", err)
	}
	symlinkPath := filepath.Join(allowedDir, "link_to_outside")
	if err := os.Symlink(outsideFile, symlinkPath); err != nil {
		t.Fatalf("Failed to create symlink: %v", err)
	}

	insideFile := filepath.Join(allowedDir, "inside.txt")
	if err := os.WriteFile(insideFile, []byte("inside"), 0644); err != nil {
		t.Fatalf("Failed to create inside file: %v", err)
	}
	safeSymlink := filepath.Join(allowedDir, "safe_link")
	if err := os.Symlink(insideFile, safeSymlink); err != nil {
		t.Fatalf("Failed to create safe symlink: %v", err)
	}

	allowed := []string{allowedDir}

	tests := []struct {
		name         string
		path         string
		expectEscape bool
		expectError  bool
	}{
		{"symlink escapes", symlinkPath, true, false},
		{"symlink stays inside", safeSymlink, false, false},
		{"regular file inside", insideFile, false, false},
		{"nonexistent path", filepath.Join(allowedDir, "nonexistent"), false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			escaped, err := DetectSymlinkEscape(tt.path, allowed)
			if tt.expectError {
				if err == nil {
					t.Errorf("DetectSymlinkEscape(%s) expected error, got nil", tt.path)
				}
				return
			}
			if err != nil {
				t.Errorf("DetectSymlinkEscape(%s) unexpected error: %v", tt.path, err)
			}
			if escaped != tt.expectEscape {
				t.Errorf("DetectSymlinkEscape(%s) = %v, expected %v", tt.path, escaped, tt.expectEscape)
			}
		})
	}
}

// TestValidateDeleteTarget is the integration test for the removal contract
func TestValidateDeleteTarget(t *testing.T) {
	tmpDir := t.TempDir()
	allowedDir := filepath.Join(tmpDir, "allowed")
	outsideDir := filepath.Join(tmpDir, "outside")

	if err := os.MkdirAll(allowedDir, 0755); err != nil {
		t.Fatalf("Failed to create allowed dir: %v", err)
	}
	if err := os.MkdirAll(outsideDir, 0755); err != nil {
		t.Fatalf("Failed to create outside dir: %v", err)
	}

	insideFile := filepath.Join(allowedDir, "delete_me.txt")
	if err := os.WriteFile(insideFile, []byte("test"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}
	outsideFile := filepath.Join(outsideDir, "keep_me.txt")
	if err := os.WriteFile(outsideFile, []byte("keep"), 0644); err != nil {
		t.Fatalf("Failed to create outside file: %v", err)
	}
	escapingLink := filepath.Join(allowedDir, "escape_link")
	if err := os.Symlink(outsideFile, escapingLink); err != nil {
		t.Fatalf("Failed to create escaping symlink: %v", err)
	}

	validator := newTestValidator([]string{allowedDir})

	tests := []struct {
		name        string
		path        string
		expectError error
	}{
		{"allowed file", insideFile, nil},
		{"not yet existing inside", filepath.Join(allowedDir, "new"), nil},
		{"outside allowed", outsideFile, ErrOutsideAllowed},
		{"dotdot escapes allowed", filepath.Join(allowedDir, "../outside/keep_me.txt"), ErrOutsideAllowed},
		{"protected /etc", "/etc/passwd", ErrProtectedPath},
		{"protected /bin", "/bin/sh", ErrProtectedPath},
		{"protected root", "/", ErrProtectedPath},
		{"escaping symlink", escapingLink, ErrSymlinkEscape},
		{"empty path", "", ErrInvalidPath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.ValidateDeleteTarget(tt.path)
			if tt.expectError == nil {
				if err != nil {
					t.Errorf("ValidateDeleteTarget(%s) unexpected error: %v", tt.path, err)
				}
				return
			}
			if !errors.Is(err, tt.expectError) {
				t.Errorf("ValidateDeleteTarget(%s) = %v, expected %v", tt.path, err, tt.expectError)
			}
			var policyErr *PolicyError
			if !errors.As(err, &policyErr) {
				t.Errorf("ValidateDeleteTarget(%s) should return a PolicyError, got %T", tt.path, err)
			}
		})
	}
}

// TestValidateWriteTargetIgnoresProtected verifies protection only applies to removals
func TestValidateWriteTargetIgnoresProtected(t *testing.T) {
	v := newTestValidator(nil)
	if err := v.ValidateWriteTarget("/etc/new-file"); err != nil {
		t.Errorf("ValidateWriteTarget without roots unexpected error: %v", err)
	}
	if err := v.ValidateDeleteTarget("/etc/new-file"); !errors.Is(err, ErrProtectedPath) {
		t.Errorf("ValidateDeleteTarget(/etc/new-file) = %v, expected protected", err)
	}

	tmpDir := t.TempDir()
	rooted := newTestValidator([]string{tmpDir})
	if err := rooted.ValidateWriteTarget(filepath.Join(tmpDir, "ok")); err != nil {
		t.Errorf("ValidateWriteTarget inside root unexpected error: %v", err)
	}
	if err := rooted.ValidateWriteTarget("/opt/elsewhere"); !errors.Is(err, ErrOutsideAllowed) {
		t.Errorf("ValidateWriteTarget outside root = %v", err)
	}
}

// TestValidateWriteTargetSymlinkedParent verifies a missing target is
// checked where it would actually be created
func TestValidateWriteTargetSymlinkedParent(t *testing.T) {
	tmpDir := t.TempDir()
	allowedDir := filepath.Join(tmpDir, "allowed")
	outsideDir := filepath.Join(tmpDir, "outside")
	insideDir := filepath.Join(allowedDir, "real")

	for _, dir := range []string{insideDir, outsideDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatalf("Failed to create %s: %v", dir, err)
		}
	}

	links := map[string]string{
		"link":        outsideDir,
		"inner_link":  insideDir,
		"dangling":    filepath.Join(outsideDir, "not_yet"),
		"dangling_in": filepath.Join(insideDir, "not_yet"),
		"relative":    "../outside",
	}
	for name, target := range links {
		if err := os.Symlink(target, filepath.Join(allowedDir, name)); err != nil {
			t.Fatalf("Failed to create symlink %s: %v", name, err)
		}
	}

	v := newTestValidator([]string{allowedDir})

	tests := []struct {
		name        string
		path        string
		expectError error
	}{
		{"missing under plain dir", filepath.Join(insideDir, "new"), nil},
		{"missing several levels deep", filepath.Join(insideDir, "a", "b", "c"), nil},
		{"missing under inside link", filepath.Join(allowedDir, "inner_link", "new"), nil},
		{"missing under escaping link", filepath.Join(allowedDir, "link", "new"), ErrSymlinkEscape},
		{"deep under escaping link", filepath.Join(allowedDir, "link", "a", "b"), ErrSymlinkEscape},
		{"missing under relative escaping link", filepath.Join(allowedDir, "relative", "new"), ErrSymlinkEscape},
		{"dangling link pointing outside", filepath.Join(allowedDir, "dangling"), ErrSymlinkEscape},
		{"dangling link pointing inside", filepath.Join(allowedDir, "dangling_in"), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateWriteTarget(tt.path)
			if tt.expectError == nil {
				if err != nil {
					t.Errorf("ValidateWriteTarget(%s) unexpected error: %v", tt.path, err)
				}
				return
			}
			if !errors.Is(err, tt.expectError) {
				t.Errorf("ValidateWriteTarget(%s) = %v, expected %v", tt.path, err, tt.expectError)
			}
		})
	}
}

// TestResolveMissingLinkLoop verifies a symlink cycle is rejected instead of followed forever
func TestResolveMissingLinkLoop(t *testing.T) {
	tmpDir := t.TempDir()
	a := filepath.Join(tmpDir, "a")
	b := filepath.Join(tmpDir, "b")
	if err := os.Symlink(b, a); err != nil {
		t.Fatalf("Failed to create symlink: %v", err)
	}
	if err := os.Symlink(a, b); err != nil {
		t.Fatalf("Failed to create symlink: %v", err)
	}

	v := newTestValidator([]string{tmpDir})
	if err := v.ValidateWriteTarget(filepath.Join(a, "new")); err == nil {
		t.Error("ValidateWriteTarget through a symlink loop expected an error")
	}
}

// TestReplacedProtectedList verifies configured paths replace the built-in list
func TestReplacedProtectedList(t *testing.T) {
	v := NewValidatorWithProtected(resolve.NewResolver(), nil, []string{"/srv/critical"})

	tests := []struct {
		path        string
		expectError error
	}{
		{"/usr/local/tmp/x", nil},
		{"/etc/app.conf", nil},
		{"/srv/critical/data", ErrProtectedPath},
		{"/", ErrProtectedPath},
	}

	for _, tt := range tests {
		err := v.ValidateDeleteTarget(tt.path)
		if tt.expectError == nil {
			if err != nil {
				t.Errorf("ValidateDeleteTarget(%s) unexpected error: %v", tt.path, err)
			}
			continue
		}
		if !errors.Is(err, tt.expectError) {
			t.Errorf("ValidateDeleteTarget(%s) = %v, expected %v", tt.path, err, tt.expectError)
		}
	}

	// the default constructor still extends the built-in list
	if err := NewValidator(resolve.NewResolver(), nil, []string{"/srv/critical"}).ValidateDeleteTarget("/usr/local/tmp/x"); !errors.Is(err, ErrProtectedPath) {
		t.Errorf("default list should protect /usr, got %v", err)
	}
}

// TestHasPathPrefix verifies the path prefix checking logic
func TestHasPathPrefix(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		prefix   string
		expected bool
	}{
		{"exact match", "/tmp/allowed", "/tmp/allowed", true},
		{"subdirectory", "/tmp/allowed/sub", "/tmp/allowed", true},
		{"not a prefix", "/tmp/other", "/tmp/allowed", false},
		{"partial match", "/tmp/allowedother", "/tmp/allowed", false},
		{"root prefix is exact only", "/tmp", "/", false},
		{"root itself", "/", "/", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := hasPathPrefix(tt.path, tt.prefix)
			if result != tt.expected {
				t.Errorf("hasPathPrefix(%s, %s) = %v, expected %v", tt.path, tt.prefix, result, tt.expected)
			}
		})
	}
}
