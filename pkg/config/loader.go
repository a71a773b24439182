package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	toml2 "github.com/pelletier/go-toml/v2"

	"github.com/arthur-debert/modsync/pkg/errors"
	"github.com/arthur-debert/modsync/pkg/logging"
)

// EnvPrefix prefixes every configuration environment variable
const EnvPrefix = "MODSYNC_"

// LoadOptions selects the optional layers
type LoadOptions struct {
	// ConfigFile must exist when set. When empty the user config file is
	// used if present.
	ConfigFile string
	// Overrides are dotted keys set from the command line, applied last
	Overrides map[string]interface{}
}

// DefaultConfigPath returns $XDG_CONFIG_HOME/modsync/config.toml
func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, AppDirName, "config.toml")
}

// Load builds the configuration: embedded defaults, then the config file,
// then MODSYNC_ environment variables, then overrides.
func Load(opts LoadOptions) (Config, error) {
	logger := logging.GetLogger("config")
	k := koanf.New(".")

	// 1. Embedded defaults
	if err := k.Load(&rawBytesProvider{bytes: defaultConfig}, toml.Parser()); err != nil {
		return Config{}, errors.Wrap(err, errors.ErrConfigParse, "failed to load defaults")
	}

	// 2. Config file
	path, required := opts.ConfigFile, true
	if path == "" {
		path, required = DefaultConfigPath(), false
	}
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return Config{}, errors.Wrapf(err, errors.ErrConfigParse, "failed to load config from %s", path).
				WithDetail("path", path)
		}
		logger.Debug().Str("path", path).Msg("Loaded config file")
	} else if required {
		return Config{}, errors.Wrapf(err, errors.ErrConfigLoad, "config file %s not found", path).
			WithDetail("path", path)
	}

	// 3. Environment, MODSYNC_SYNC__ALWAYS_YES -> sync.always_yes
	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
	}), nil)
	if err != nil {
		return Config{}, errors.Wrap(err, errors.ErrConfigLoad, "failed to load env vars")
	}

	// 4. Command-line overrides
	if len(opts.Overrides) > 0 {
		if err := k.Load(confmap.Provider(opts.Overrides, "."), nil); err != nil {
			return Config{}, errors.Wrap(err, errors.ErrConfigLoad, "failed to load overrides")
		}
	}

	cfg, err := unmarshal(k)
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func unmarshal(k *koanf.Koanf) (Config, error) {
	var cfg Config
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
		},
	}
	if err := k.UnmarshalWithConf("", &cfg, unmarshalConf); err != nil {
		return Config{}, errors.Wrap(err, errors.ErrConfigParse, "failed to unmarshal configuration")
	}
	return cfg, nil
}

// Default returns the embedded defaults alone
func Default() Config {
	k := koanf.New(".")
	if err := k.Load(&rawBytesProvider{bytes: defaultConfig}, toml.Parser()); err != nil {
		panic("embedded defaults are invalid: " + err.Error())
	}
	cfg, err := unmarshal(k)
	if err != nil {
		panic("embedded defaults are invalid: " + err.Error())
	}
	return cfg
}

// Validate rejects configurations no component can work with
func (c Config) Validate() error {
	switch {
	case c.Sync.FetchTimeout < 0:
		return errors.New(errors.ErrConfigValid, "sync.fetch_timeout must not be negative")
	case len(c.Manifest.SupportedVersions) == 0:
		return errors.New(errors.ErrConfigValid, "manifest.supported_versions must not be empty")
	case c.Paths.ModsDir == "" || c.Paths.BackupDir == "":
		return errors.New(errors.ErrConfigValid, "paths.mods_dir and paths.backup_dir must be set")
	case filepath.Clean(c.Paths.ModsDir) == filepath.Clean(c.Paths.BackupDir):
		return errors.New(errors.ErrConfigValid, "paths.mods_dir and paths.backup_dir must differ")
	case c.Paths.InstanceFile == "":
		return errors.New(errors.ErrConfigValid, "paths.instance_file must be set")
	}
	return nil
}

// Dump renders the configuration as TOML
func Dump(cfg Config) ([]byte, error) {
	data, err := toml2.Marshal(cfg.toMap())
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "failed to encode configuration")
	}
	return data, nil
}
