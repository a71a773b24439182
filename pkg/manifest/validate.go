package manifest

import (
	"github.com/Masterminds/semver/v3"

	"github.com/arthur-debert/modsync/pkg/errors"
)

// SupportedSchemaVersions lists the manifest versions this build understands.
var SupportedSchemaVersions = []int{1}

// Validator rejects manifests that do not match the local installation.
// It has no side effects and must run before any backup is taken.
type Validator struct {
	supported []int
}

// NewValidator creates a validator for the given schema versions. An empty
// list falls back to SupportedSchemaVersions.
func NewValidator(supported []int) *Validator {
	if len(supported) == 0 {
		supported = SupportedSchemaVersions
	}
	return &Validator{supported: supported}
}

// Validate checks the schema version and the platform version.
func (v *Validator) Validate(m *Manifest, localPlatform string) error {
	if !v.supports(m.SchemaVersion) {
		return errors.Newf(errors.ErrIncompatibleSchema,
			"server has incompatible mod data version: %d, expected %v", m.SchemaVersion, v.supported).
			WithDetail("version", m.SchemaVersion)
	}

	if m.PlatformVersion != localPlatform {
		err := errors.Newf(errors.ErrIncompatiblePlatform,
			"server has incompatible minecraft version: %s, you have %s", m.PlatformVersion, localPlatform).
			WithDetail("server", m.PlatformVersion).
			WithDetail("local", localPlatform)
		if direction := compareVersions(m.PlatformVersion, localPlatform); direction != "" {
			err.WithDetail("server_is", direction)
		}
		return err
	}

	return nil
}

func (v *Validator) supports(version int) bool {
	for _, s := range v.supported {
		if s == version {
			return true
		}
	}
	return false
}

// compareVersions reports whether the server version is "newer" or "older"
// than the local one, or "" when either side is not a version number.
func compareVersions(server, local string) string {
	sv, err := semver.NewVersion(server)
	if err != nil {
		return ""
	}
	lv, err := semver.NewVersion(local)
	if err != nil {
		return ""
	}
	switch sv.Compare(lv) {
	case 1:
		return "newer"
	case -1:
		return "older"
	default:
		return ""
	}
}
