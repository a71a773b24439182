// Package instance finds the launcher instance a pack is synced into, and
// creates one from the vanilla instance when it does not exist yet.
//
// The instance descriptor is a JSON file owned by the launcher. It is read
// and rewritten with path queries so fields modsync does not know about
// survive untouched.
package instance

import (
	"net/url"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/arthur-debert/modsync/pkg/errors"
	"github.com/arthur-debert/modsync/pkg/filesystem"
	"github.com/arthur-debert/modsync/pkg/logging"
)

// Descriptor keys
const (
	KeyPlatformVersion = "minecraftVersion"
	KeyName            = "name"
	KeyPack            = "pack"
)

// Layout is where a pack lives
type Layout struct {
	// LauncherDir holds the launcher jar and, by default, the instances
	LauncherDir  string
	InstancesDir string
	PackDir      string
	PackName     string
}

// LocateOptions are the inputs to Locate. Empty fields take their defaults.
type LocateOptions struct {
	ManifestURL  string
	Name         string
	LauncherDir  string
	InstancesDir string
	PackDir      string
	// InstancesDirName is the instances directory under LauncherDir
	InstancesDirName string
}

// PackNameFromURL derives a pack name from the manifest host: the label
// before the top-level domain, capitalized. mods.example.com -> Example.
func PackNameFromURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrInvalidInput, "invalid manifest url %s", raw)
	}
	host := u.Hostname()
	if host == "" {
		return "", errors.Newf(errors.ErrInvalidInput, "manifest url %s has no host", raw)
	}

	labels := strings.Split(strings.TrimSuffix(host, "."), ".")
	label := labels[0]
	if len(labels) >= 2 {
		label = labels[len(labels)-2]
	}
	return capitalize(label), nil
}

func capitalize(s string) string {
	runes := []rune(strings.ToLower(s))
	if len(runes) == 0 {
		return s
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

// Locate resolves the pack directory. An explicit PackDir wins; otherwise
// the pack is <InstancesDir>/<name>, where InstancesDir defaults to
// <LauncherDir>/<InstancesDirName> and name defaults to PackNameFromURL.
func Locate(opts LocateOptions) (Layout, error) {
	name := opts.Name
	if name == "" {
		derived, err := PackNameFromURL(opts.ManifestURL)
		if err != nil {
			return Layout{}, err
		}
		name = derived
	}

	instancesDir := opts.InstancesDir
	if instancesDir == "" {
		instancesDir = filepath.Join(opts.LauncherDir, opts.InstancesDirName)
	}

	packDir := opts.PackDir
	if packDir == "" {
		packDir = filepath.Join(instancesDir, name)
	}

	return Layout{
		LauncherDir:  opts.LauncherDir,
		InstancesDir: instancesDir,
		PackDir:      packDir,
		PackName:     name,
	}, nil
}

// Manager reads and creates instances
type Manager struct {
	fs           afero.Fs
	instanceFile string
	vanillaName  string
	logger       zerolog.Logger
}

// NewManager creates an instance manager. instanceFile is the descriptor
// name inside an instance and vanillaName the template instance.
func NewManager(fsys afero.Fs, instanceFile, vanillaName string) *Manager {
	return &Manager{
		fs:           fsys,
		instanceFile: instanceFile,
		vanillaName:  vanillaName,
		logger:       logging.GetLogger("instance"),
	}
}

// VanillaDir returns the template instance for layout
func (m *Manager) VanillaDir(layout Layout) string {
	return filepath.Join(layout.InstancesDir, m.vanillaName)
}

// Exists reports whether the pack directory is present
func (m *Manager) Exists(layout Layout) (bool, error) {
	ok, err := afero.DirExists(m.fs, layout.PackDir)
	if err != nil {
		return false, errors.Wrapf(err, errors.ErrFileAccess, "cannot stat %s", layout.PackDir)
	}
	return ok, nil
}

// CheckVanilla fails with INSTANCE_NOT_FOUND when there is no template
// instance to create the pack from
func (m *Manager) CheckVanilla(layout Layout) error {
	dir := m.VanillaDir(layout)
	ok, err := afero.DirExists(m.fs, dir)
	if err != nil {
		return errors.Wrapf(err, errors.ErrFileAccess, "cannot stat %s", dir)
	}
	if !ok {
		return errors.Newf(errors.ErrInstanceNotFound,
			"could not find a basic Minecraft instance here (%s); install one with the right Minecraft Forge version", layout.InstancesDir).
			WithDetail("vanilla", dir)
	}
	return nil
}

// Create copies the vanilla instance to the pack directory and names it
// after the pack
func (m *Manager) Create(layout Layout) error {
	if err := m.CheckVanilla(layout); err != nil {
		return err
	}

	vanilla := m.VanillaDir(layout)
	m.logger.Info().Str("vanilla", vanilla).Str("pack", layout.PackDir).Msg("Creating instance")

	if err := filesystem.CopyDir(m.fs, vanilla, layout.PackDir); err != nil {
		_ = m.fs.RemoveAll(layout.PackDir)
		return errors.Wrapf(err, errors.ErrDirCreate, "cannot copy %s to %s", vanilla, layout.PackDir)
	}

	path := filepath.Join(layout.PackDir, m.instanceFile)
	data, err := m.readDescriptor(path)
	if err != nil {
		return err
	}

	for _, key := range []string{KeyName, KeyPack} {
		data, err = sjson.SetBytes(data, key, layout.PackName)
		if err != nil {
			return errors.Wrapf(err, errors.ErrInstanceInvalid, "cannot set %s in %s", key, path)
		}
	}

	if err := afero.WriteFile(m.fs, path, data, 0644); err != nil {
		return errors.Wrapf(err, errors.ErrFileWrite, "cannot write %s", path)
	}
	return nil
}

// PlatformVersion returns the platform version recorded in the instance
func (m *Manager) PlatformVersion(layout Layout) (string, error) {
	path := filepath.Join(layout.PackDir, m.instanceFile)
	data, err := m.readDescriptor(path)
	if err != nil {
		return "", err
	}

	version := gjson.GetBytes(data, KeyPlatformVersion)
	if !version.Exists() || version.String() == "" {
		return "", errors.Newf(errors.ErrInstanceInvalid, "%s has no %s", path, KeyPlatformVersion).
			WithDetail("path", path)
	}
	return version.String(), nil
}

func (m *Manager) readDescriptor(path string) ([]byte, error) {
	data, err := afero.ReadFile(m.fs, path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrInstanceInvalid, "cannot read %s", path).
			WithDetail("path", path)
	}
	if !gjson.ValidBytes(data) {
		return nil, errors.Newf(errors.ErrInstanceInvalid, "%s is not valid JSON", path).
			WithDetail("path", path)
	}
	return data, nil
}
