// pkg/testutil/environment.go
// DEPENDENCIES: None (base test utilities)
// PURPOSE: Isolated pack directories for sync tests

package testutil

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

// TestEnvironment is a pack directory on the real filesystem, removed when
// the test ends.
type TestEnvironment struct {
	PackDir   string
	ModsDir   string
	BackupDir string
	FS        afero.Fs

	t *testing.T
}

// NewTestEnvironment creates a pack directory with an empty mods directory
func NewTestEnvironment(t *testing.T) *TestEnvironment {
	t.Helper()

	packDir := t.TempDir()
	env := &TestEnvironment{
		PackDir:   packDir,
		ModsDir:   filepath.Join(packDir, "mods"),
		BackupDir: filepath.Join(packDir, "mods_unsynced"),
		FS:        afero.NewOsFs(),
		t:         t,
	}
	require.NoError(t, env.FS.MkdirAll(env.ModsDir, 0755))
	return env
}

// WriteMods writes name -> content pairs into the mods directory
func (e *TestEnvironment) WriteMods(files map[string]string) {
	e.t.Helper()
	WriteFiles(e.t, e.FS, e.ModsDir, files)
}

// ModsContents returns name -> content for every regular file in the mods directory
func (e *TestEnvironment) ModsContents() map[string]string {
	e.t.Helper()
	return DirContents(e.t, e.FS, e.ModsDir)
}

// ModNames returns the sorted regular file names in the mods directory
func (e *TestEnvironment) ModNames() []string {
	e.t.Helper()
	contents := e.ModsContents()
	names := make([]string, 0, len(contents))
	for name := range contents {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// BackupExists reports whether the backup directory is present
func (e *TestEnvironment) BackupExists() bool {
	e.t.Helper()
	exists, err := afero.Exists(e.FS, e.BackupDir)
	require.NoError(e.t, err)
	return exists
}

// WriteFiles writes name -> content pairs under dir. Names may contain
// slashes to create nested files.
func WriteFiles(t *testing.T, fsys afero.Fs, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, fsys.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, afero.WriteFile(fsys, path, []byte(content), 0644))
	}
}

// DirContents returns relative slash path -> content for every file under dir
func DirContents(t *testing.T, fsys afero.Fs, dir string) map[string]string {
	t.Helper()
	contents := make(map[string]string)
	err := afero.Walk(fsys, dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		data, err := afero.ReadFile(fsys, path)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		contents[filepath.ToSlash(rel)] = string(data)
		return nil
	})
	require.NoError(t, err)
	return contents
}
