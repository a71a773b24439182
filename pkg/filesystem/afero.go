package filesystem

import (
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/afero"

	"github.com/arthur-debert/modsync/pkg/errors"
)

// NewOS creates a filesystem backed by the operating system
func NewOS() afero.Fs {
	return afero.NewOsFs()
}

// ListRegularFiles returns the sorted names of the regular files directly
// under dir. Symlinks are followed; directories are skipped.
func ListRegularFiles(fsys afero.Fs, dir string) ([]string, error) {
	entries, err := afero.ReadDir(fsys, dir)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		info, err := fsys.Stat(filepath.Join(dir, entry.Name()))
		if err != nil {
			// Dangling symlink or a file removed underneath us
			continue
		}
		if info.Mode().IsRegular() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// CopyDir copies the tree rooted at src to dst, preserving file modes.
func CopyDir(fsys afero.Fs, src, dst string) error {
	srcInfo, err := fsys.Stat(src)
	if err != nil {
		return err
	}
	if !srcInfo.IsDir() {
		return &os.PathError{Op: "copydir", Path: src, Err: os.ErrInvalid}
	}

	return afero.Walk(fsys, src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		if info.IsDir() {
			return fsys.MkdirAll(target, info.Mode().Perm())
		}
		return CopyFile(fsys, path, target)
	})
}

// CopyFile copies a single file from src to dst, creating or truncating dst
func CopyFile(fsys afero.Fs, src, dst string) error {
	srcFile, err := fsys.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		_ = srcFile.Close()
	}()

	info, err := srcFile.Stat()
	if err != nil {
		return err
	}

	dstFile, err := fsys.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		_ = dstFile.Close()
		return err
	}
	return dstFile.Close()
}

// Move relocates src to dst. When a plain rename is not possible (for
// example across devices) the tree is copied and src removed afterwards.
// If only that removal fails, dst is complete and the error carries
// SOURCE_LEFTOVER.
func Move(fsys afero.Fs, src, dst string) error {
	renameErr := fsys.Rename(src, dst)
	if renameErr == nil {
		return nil
	}

	if err := CopyDir(fsys, src, dst); err != nil {
		_ = fsys.RemoveAll(dst)
		return renameErr
	}
	if err := fsys.RemoveAll(src); err != nil {
		return errors.Wrapf(err, errors.ErrSourceLeftover, "moved %s to %s but could not remove the source", src, dst).
			WithDetail("source", src)
	}
	return nil
}
