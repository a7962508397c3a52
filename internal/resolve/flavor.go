package resolve

import (
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strings"
)

// ParsedPath holds the components of a path as returned by Flavor.Parse
type ParsedPath struct {
	Root string `json:"root" yaml:"root"`
	Dir  string `json:"dir" yaml:"dir"`
	Base string `json:"base" yaml:"base"`
	Ext  string `json:"ext" yaml:"ext"`
	Name string `json:"name" yaml:"name"`
}

// Flavor exposes the plain path primitives of one platform convention.
// Implementations only forward to the standard library path packages.
type Flavor interface {
	Sep() string
	Delimiter() string
	Basename(p, suffix string) string
	Dirname(p string) string
	Extname(p string) string
	Join(elem ...string) string
	Normalize(p string) string
	IsAbsolute(p string) bool
	Parse(p string) ParsedPath
	Format(pp ParsedPath) string
	Relative(from, to string) (string, error)
	ToNamespacedPath(p string) string
}

type flavor struct {
	sep       byte
	delimiter string
	clean     func(string) string
	join      func(...string) string
	dir       func(string) string
	isAbs     func(string) bool
	volume    func(string) string
	abs       func(getwd func() (string, error), p string) (string, error)
	rel       func(string, string) (string, error)
	getwd     func() (string, error)
}

var (
	nativeFlavor = &flavor{
		sep:       os.PathSeparator,
		delimiter: string(os.PathListSeparator),
		clean:     filepath.Clean,
		join:      filepath.Join,
		dir:       filepath.Dir,
		isAbs:     filepath.IsAbs,
		volume:    filepath.VolumeName,
		abs:       nativeAbs,
		rel:       filepath.Rel,
		getwd:     os.Getwd,
	}

	posixFlavor = &flavor{
		sep:       '/',
		delimiter: ":",
		clean:     path.Clean,
		join:      path.Join,
		dir:       path.Dir,
		isAbs:     func(p string) bool { return strings.HasPrefix(p, "/") },
		volume:    func(string) string { return "" },
		abs:       posixAbs,
		rel:       posixRel,
		getwd:     os.Getwd,
	}
)

// Native returns the flavor of the running operating system (path/filepath)
func Native() Flavor { return nativeFlavor }

// Posix returns '/'-separated semantics regardless of the running OS (path)
func Posix() Flavor { return posixFlavor }

// CrossPath returns the native flavor on Windows and the POSIX one elsewhere
func CrossPath() Flavor {
	if runtime.GOOS == "windows" {
		return nativeFlavor
	}
	return posixFlavor
}

// WithWorkdir returns a copy of f whose Relative absolutizes against getwd
// instead of the process working directory
func WithWorkdir(f Flavor, getwd func() (string, error)) Flavor {
	base, ok := f.(*flavor)
	if !ok {
		return f
	}
	bound := *base
	bound.getwd = getwd
	return &bound
}

func (f *flavor) Sep() string       { return string(f.sep) }
func (f *flavor) Delimiter() string { return f.delimiter }

func (f *flavor) Join(elem ...string) string { return f.join(elem...) }
func (f *flavor) Normalize(p string) string  { return f.clean(p) }
func (f *flavor) IsAbsolute(p string) bool   { return f.isAbs(p) }

// Basename returns the last element of p, ignoring trailing separators.
// A non-empty suffix is stripped when the element ends with it.
func (f *flavor) Basename(p, suffix string) string {
	trimmed := strings.TrimRight(p[len(f.volume(p)):], string(f.sep))
	i := strings.LastIndexByte(trimmed, f.sep)
	base := trimmed[i+1:]
	if suffix != "" && base != suffix && strings.HasSuffix(base, suffix) {
		base = strings.TrimSuffix(base, suffix)
	}
	return base
}

func (f *flavor) Dirname(p string) string {
	if p == "" {
		return "."
	}
	return f.dir(p)
}

// Extname returns the extension of the last element, from its last dot.
// Elements whose only dot is the leading one (".bashrc") have none.
func (f *flavor) Extname(p string) string {
	return extOf(f.Basename(p, ""))
}

func extOf(base string) string {
	if base == ".." {
		return ""
	}
	i := strings.LastIndexByte(base, '.')
	if i <= 0 {
		return ""
	}
	return base[i:]
}

func (f *flavor) Parse(p string) ParsedPath {
	var pp ParsedPath
	if p == "" {
		return pp
	}

	vol := f.volume(p)
	pp.Root = vol
	if f.isAbs(p) {
		pp.Root = vol + string(f.sep)
	}

	rest := strings.TrimRight(p, string(f.sep))
	if len(rest) <= len(vol) {
		// p is only a root (or volume)
		pp.Dir = pp.Root
		return pp
	}

	i := strings.LastIndexByte(rest, f.sep)
	if i < len(vol) {
		pp.Base = rest[len(vol):]
		pp.Dir = vol
	} else {
		pp.Base = rest[i+1:]
		pp.Dir = rest[:i]
		if len(pp.Dir) <= len(vol) {
			pp.Dir = pp.Root
		}
	}

	pp.Ext = extOf(pp.Base)
	pp.Name = strings.TrimSuffix(pp.Base, pp.Ext)
	return pp
}

// Format is the inverse of Parse. Dir wins over Root and Base wins over
// Name+Ext.
func (f *flavor) Format(pp ParsedPath) string {
	dir := pp.Dir
	if dir == "" {
		dir = pp.Root
	}
	base := pp.Base
	if base == "" {
		base = pp.Name + pp.Ext
	}
	switch {
	case dir == "":
		return base
	case dir == pp.Root:
		return dir + base
	default:
		return dir + string(f.sep) + base
	}
}

// Relative returns the path from `from` to `to` after absolutizing both
// against the working directory. Identical paths yield "".
func (f *flavor) Relative(from, to string) (string, error) {
	a, err := f.abs(f.getwd, from)
	if err != nil {
		return "", err
	}
	b, err := f.abs(f.getwd, to)
	if err != nil {
		return "", err
	}
	if a == b {
		return "", nil
	}
	return f.rel(a, b)
}

// ToNamespacedPath is meaningful on Windows only; elsewhere it returns p.
func (f *flavor) ToNamespacedPath(p string) string {
	if f.sep != '\\' || runtime.GOOS != "windows" || p == "" {
		return p
	}
	if strings.HasPrefix(p, `\\?\`) {
		return p
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return p
	}
	if strings.HasPrefix(abs, `\\`) {
		return `\\?\UNC\` + abs[2:]
	}
	return `\\?\` + abs
}

func nativeAbs(getwd func() (string, error), p string) (string, error) {
	if filepath.IsAbs(p) {
		return filepath.Clean(p), nil
	}
	wd, err := getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(wd, p), nil
}

func posixAbs(getwd func() (string, error), p string) (string, error) {
	if strings.HasPrefix(p, "/") {
		return path.Clean(p), nil
	}
	wd, err := getwd()
	if err != nil {
		return "", err
	}
	return path.Join(filepath.ToSlash(wd), p), nil
}

func posixRel(base, target string) (string, error) {
	bs := splitPosix(base)
	ts := splitPosix(target)

	i := 0
	for i < len(bs) && i < len(ts) && bs[i] == ts[i] {
		i++
	}

	parts := make([]string, 0, len(bs)-i+len(ts)-i)
	for range bs[i:] {
		parts = append(parts, "..")
	}
	parts = append(parts, ts[i:]...)
	return strings.Join(parts, "/"), nil
}

func splitPosix(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}
