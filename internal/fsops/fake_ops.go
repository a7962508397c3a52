package fsops

import "io/fs"

// Fake implements Ops for testing
// Records all calls without touching the filesystem
type Fake struct {
	Calls []string
	// Fail maps a recorded call ("touch:/tmp/x") to the error it returns
	Fail map[string]error
}

func (f *Fake) record(call string) error {
	f.Calls = append(f.Calls, call)
	return f.Fail[call]
}

func (f *Fake) Mkdir(path string, _ fs.FileMode) error {
	return f.record("mkdir:" + path)
}

func (f *Fake) Touch(path string) error {
	return f.record("touch:" + path)
}

func (f *Fake) Remove(path string) error {
	return f.record("rm:" + path)
}

func (f *Fake) RemoveAll(path string) error {
	return f.record("rmall:" + path)
}
