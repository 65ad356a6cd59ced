package config

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/arthur-debert/liboverride/pkg/errors"
	"github.com/arthur-debert/liboverride/pkg/paths"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	gotoml "github.com/pelletier/go-toml/v2"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "LIBOVERRIDE_"

// Config is the merged liboverride configuration
type Config struct {
	Remap    Remap    `koanf:"remap" toml:"remap"`
	Override Override `koanf:"override" toml:"override"`
	Logging  Logging  `koanf:"logging" toml:"logging"`
}

// Remap settings
type Remap struct {
	CheckRefcount bool     `koanf:"check_refcount" toml:"check_refcount"`
	DefaultFlags  []string `koanf:"default_flags" toml:"default_flags"`
}

// Override settings
type Override struct {
	Workers                int    `koanf:"workers" toml:"workers"`
	KeepUserEditedOrphans  bool   `koanf:"keep_user_edited_orphans" toml:"keep_user_edited_orphans"`
	ResidualCollectionName string `koanf:"residual_collection_name" toml:"residual_collection_name"`
	HiddenCollectionName   string `koanf:"hidden_collection_name" toml:"hidden_collection_name"`
	MaxLibraryLevels       int    `koanf:"max_library_levels" toml:"max_library_levels"`
	RestoreSystemOverrides bool   `koanf:"restore_system_overrides" toml:"restore_system_overrides"`
}

// Logging settings
type Logging struct {
	Verbosity     int           `koanf:"verbosity" toml:"verbosity"`
	SlowOperation time.Duration `koanf:"slow_operation" toml:"slow_operation"`
}

// WorkerCount resolves Workers, where 0 means one worker per CPU.
func (o Override) WorkerCount() int {
	if o.Workers <= 0 {
		return runtime.NumCPU()
	}
	return o.Workers
}

// Default returns the embedded defaults only. It panics if the embedded
// file is broken, which is a build defect.
func Default() *Config {
	cfg, err := LoadWith("", nil)
	if err != nil {
		panic(fmt.Sprintf("embedded defaults are invalid: %v", err))
	}
	return cfg
}

// Load reads defaults, the user file and the environment. An empty path
// falls back to the XDG config file, which may be absent.
func Load(path string) (*Config, error) {
	if path == "" {
		path = paths.ConfigFile()
		if _, err := os.Stat(path); err != nil {
			path = ""
		}
	}
	return LoadWith(path, nil)
}

// LoadWith is Load with programmatic overrides, keyed by dotted path.
// The environment layer is always applied.
func LoadWith(path string, overrides map[string]interface{}) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(&rawBytesProvider{bytes: defaultConfig}, toml.Parser()); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigParse, "failed to load defaults")
	}

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, errors.Wrapf(err, errors.ErrConfigLoad, "config file %s", path).
				WithDetail("path", path)
		}
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, errors.Wrapf(err, errors.ErrConfigParse, "failed to load config from %s", path).
				WithDetail("path", path)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load environment")
	}

	if len(overrides) > 0 {
		if err := k.Load(confmap.Provider(overrides, "."), nil); err != nil {
			return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load overrides")
		}
	}

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
		return nil, errors.Wrap(err, errors.ErrConfigParse, "failed to unmarshal configuration")
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envKey maps LIBOVERRIDE_OVERRIDE__WORKERS to override.workers.
func envKey(s string) string {
	s = strings.TrimPrefix(s, EnvPrefix)
	return strings.ReplaceAll(strings.ToLower(s), "__", ".")
}

func (c *Config) validate() error {
	if c.Override.Workers < 0 {
		return errors.Newf(errors.ErrConfigValid, "override.workers must be >= 0, got %d", c.Override.Workers)
	}
	if c.Override.MaxLibraryLevels <= 0 {
		return errors.Newf(errors.ErrConfigValid, "override.max_library_levels must be > 0, got %d", c.Override.MaxLibraryLevels)
	}
	if c.Override.ResidualCollectionName == "" || c.Override.HiddenCollectionName == "" {
		return errors.New(errors.ErrConfigValid, "override collection names must not be empty")
	}
	return nil
}

// TOML renders the effective configuration.
func (c *Config) TOML() (string, error) {
	out := struct {
		Remap    Remap    `toml:"remap"`
		Override Override `toml:"override"`
		Logging  struct {
			Verbosity     int    `toml:"verbosity"`
			SlowOperation string `toml:"slow_operation"`
		} `toml:"logging"`
	}{Remap: c.Remap, Override: c.Override}
	out.Logging.Verbosity = c.Logging.Verbosity
	out.Logging.SlowOperation = c.Logging.SlowOperation.String()

	b, err := gotoml.Marshal(out)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrInternal, "failed to render configuration")
	}
	return string(b), nil
}
