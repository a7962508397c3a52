package fsops

import (
	"io/fs"
	"os"
)

// OS implements Ops using real os package calls
type OS struct{}

func (OS) Mkdir(path string, perm fs.FileMode) error {
	return os.Mkdir(path, perm)
}

func (OS) Touch(path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o666)
	if err != nil {
		return err
	}
	return f.Close()
}

func (OS) Remove(path string) error {
	info, err := os.Lstat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return &fs.PathError{Op: "remove", Path: path, Err: ErrIsDirectory}
	}
	return os.Remove(path)
}

func (OS) RemoveAll(path string) error {
	return os.RemoveAll(path)
}
