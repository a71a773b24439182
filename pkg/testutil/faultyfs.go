package testutil

import (
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// FaultyFS wraps an afero.Fs and fails the configured operations with
// os.ErrPermission. Paths are compared after filepath.Clean.
type FaultyFS struct {
	afero.Fs

	FailRemove    map[string]bool
	FailRemoveAll map[string]bool
	FailRename    bool
}

// NewFaultyFS wraps fsys with no faults configured
func NewFaultyFS(fsys afero.Fs) *FaultyFS {
	return &FaultyFS{
		Fs:            fsys,
		FailRemove:    make(map[string]bool),
		FailRemoveAll: make(map[string]bool),
	}
}

// Remove fails for paths in FailRemove
func (f *FaultyFS) Remove(name string) error {
	if f.FailRemove[filepath.Clean(name)] {
		return &os.PathError{Op: "remove", Path: name, Err: os.ErrPermission}
	}
	return f.Fs.Remove(name)
}

// RemoveAll fails for paths in FailRemoveAll
func (f *FaultyFS) RemoveAll(path string) error {
	if f.FailRemoveAll[filepath.Clean(path)] {
		return &os.PathError{Op: "removeall", Path: path, Err: os.ErrPermission}
	}
	return f.Fs.RemoveAll(path)
}

// Rename fails every call when FailRename is set
func (f *FaultyFS) Rename(oldname, newname string) error {
	if f.FailRename {
		return &os.LinkError{Op: "rename", Old: oldname, New: newname, Err: os.ErrPermission}
	}
	return f.Fs.Rename(oldname, newname)
}
