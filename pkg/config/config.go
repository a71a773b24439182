package config

import (
	"path/filepath"
	"time"
)

// AppDirName is the directory under the XDG config home
const AppDirName = "modsync"

// Config is the effective configuration. It is loaded once and passed by
// value; nothing mutates it after Load returns.
type Config struct {
	Sync     Sync     `koanf:"sync"`
	Manifest Manifest `koanf:"manifest"`
	Paths    Paths    `koanf:"paths"`
	Launch   Launch   `koanf:"launch"`
}

// Sync controls the transaction itself
type Sync struct {
	AlwaysYes    bool          `koanf:"always_yes"`
	Overwrite    bool          `koanf:"overwrite"`
	FetchTimeout time.Duration `koanf:"fetch_timeout"`
	UserAgent    string        `koanf:"user_agent"`
}

// Manifest controls manifest validation
type Manifest struct {
	SupportedVersions []int `koanf:"supported_versions"`
}

// Paths names the files and directories modsync works with
type Paths struct {
	ModsDir         string `koanf:"mods_dir"`
	BackupDir       string `koanf:"backup_dir"`
	InstanceFile    string `koanf:"instance_file"`
	InstancesDir    string `koanf:"instances_dir"`
	VanillaInstance string `koanf:"vanilla_instance"`
}

// Launch controls what happens after a successful sync
type Launch struct {
	Disabled    bool   `koanf:"disabled"`
	Command     string `koanf:"command"`
	LauncherJar string `koanf:"launcher_jar"`
	Java        string `koanf:"java"`
}

// ModsPath returns the mods directory inside packDir
func (c Config) ModsPath(packDir string) string {
	return filepath.Join(packDir, c.Paths.ModsDir)
}

// BackupPath returns the backup directory inside packDir
func (c Config) BackupPath(packDir string) string {
	return filepath.Join(packDir, c.Paths.BackupDir)
}

// InstancePath returns the instance descriptor inside packDir
func (c Config) InstancePath(packDir string) string {
	return filepath.Join(packDir, c.Paths.InstanceFile)
}

// toMap flattens the configuration into the nested map shape of the TOML
// file. Durations are rendered as strings so the output loads back.
func (c Config) toMap() map[string]interface{} {
	return map[string]interface{}{
		"sync": map[string]interface{}{
			"always_yes":    c.Sync.AlwaysYes,
			"overwrite":     c.Sync.Overwrite,
			"fetch_timeout": c.Sync.FetchTimeout.String(),
			"user_agent":    c.Sync.UserAgent,
		},
		"manifest": map[string]interface{}{
			"supported_versions": c.Manifest.SupportedVersions,
		},
		"paths": map[string]interface{}{
			"mods_dir":         c.Paths.ModsDir,
			"backup_dir":       c.Paths.BackupDir,
			"instance_file":    c.Paths.InstanceFile,
			"instances_dir":    c.Paths.InstancesDir,
			"vanilla_instance": c.Paths.VanillaInstance,
		},
		"launch": map[string]interface{}{
			"disabled":     c.Launch.Disabled,
			"command":      c.Launch.Command,
			"launcher_jar": c.Launch.LauncherJar,
			"java":         c.Launch.Java,
		},
	}
}
