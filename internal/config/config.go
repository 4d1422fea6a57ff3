package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/tsgonest/schemats/internal/convert"
	"github.com/tsgonest/schemats/internal/errors"
)

// EnvPrefix prefixes environment overrides, e.g. SCHEMATS_STRICT=true.
const EnvPrefix = "SCHEMATS"

// FileNames are the recognized project config files, in lookup order.
var FileNames = []string{"schemats.yaml", "schemats.yml", "schemats.json", "schemats.toml"}

// Config represents the schemats configuration.
type Config struct {
	SchemaDirectory     string `mapstructure:"schema_directory"`
	TypeOutputDirectory string `mapstructure:"type_output_directory"`

	SortPropertiesByName bool `mapstructure:"sort_properties_by_name"`
	DefaultToRequired    bool `mapstructure:"default_to_required"`
	IndexAllToRoot       bool `mapstructure:"index_all_to_root"`

	Extensions []string `mapstructure:"extensions"`
	Header     []string `mapstructure:"header"`

	Strict bool `mapstructure:"strict"` // Warnings fail the run
	Cache  bool `mapstructure:"cache"`  // Skip runs with unchanged inputs

	// Path is the config file that was read ("" when none was found).
	Path string `mapstructure:"-"`
	// Dir is where relative directories resolve from: the config file's
	// directory, or the working directory without one.
	Dir string `mapstructure:"-"`
}

// SetDefaults configures default values for all configuration options.
func SetDefaults(v *viper.Viper) {
	d := convert.DefaultOptions()
	v.SetDefault("schema_directory", "")
	v.SetDefault("type_output_directory", "")
	v.SetDefault("sort_properties_by_name", d.SortPropertiesByName)
	v.SetDefault("default_to_required", d.DefaultToRequired)
	v.SetDefault("index_all_to_root", d.IndexAllToRoot)
	v.SetDefault("extensions", d.Extensions)
	v.SetDefault("header", d.Header)
	v.SetDefault("strict", false)
	v.SetDefault("cache", d.Cache)
}

// NewViper returns a viper instance with defaults and environment binding.
// Callers may bind command-line flags to it before Load.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	SetDefaults(v)
	return v
}

// DefaultConfig returns a config holding only the defaults.
func DefaultConfig() Config {
	v := viper.New()
	SetDefaults(v)
	cfg, err := LoadWithViper(v, "")
	if err != nil {
		// Defaults always decode.
		panic(err)
	}
	return *cfg
}

// Discover searches for a project config file by walking up from dir.
// Returns "" when none is found.
func Discover(dir string) string {
	for {
		for _, name := range FileNames {
			p := filepath.Join(dir, name)
			if info, err := os.Stat(p); err == nil && !info.IsDir() {
				return p
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// Load reads configPath, or the discovered project config when configPath is
// empty, into v. No config file is not an error: defaults, environment and
// bound flags still apply. Relative directories are resolved and the result
// is validated.
func Load(v *viper.Viper, configPath, cwd string) (*Config, error) {
	path := configPath
	if path != "" && !filepath.IsAbs(path) {
		path = filepath.Join(cwd, path)
	}
	if path == "" {
		path = Discover(cwd)
	}

	dir := cwd
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "failed to read config file %s", path)
		}
		dir = filepath.Dir(path)
	}

	cfg, err := LoadWithViper(v, dir)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid config in %s", displayPath(path))
	}
	cfg.Path = path
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid config in %s", displayPath(path))
	}
	return cfg, nil
}

// LoadWithViper decodes v without reading files and resolves relative
// directories against dir.
func LoadWithViper(v *viper.Viper, dir string) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	cfg.Dir = dir
	cfg.SchemaDirectory = cfg.resolve(cfg.SchemaDirectory)
	cfg.TypeOutputDirectory = cfg.resolve(cfg.TypeOutputDirectory)
	return &cfg, nil
}

func (c *Config) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || c.Dir == "" {
		return p
	}
	return filepath.Join(c.Dir, p)
}

func displayPath(p string) string {
	if p == "" {
		return "defaults and environment"
	}
	return p
}

// Options converts the config into run options.
func (c *Config) Options() convert.Options {
	return convert.Options{
		SchemaDirectory:      c.SchemaDirectory,
		TypeOutputDirectory:  c.TypeOutputDirectory,
		SortPropertiesByName: c.SortPropertiesByName,
		DefaultToRequired:    c.DefaultToRequired,
		IndexAllToRoot:       c.IndexAllToRoot,
		Extensions:           c.Extensions,
		Header:               c.Header,
		Cache:                c.Cache,
	}
}

// Validate checks the config for logical errors.
func (c *Config) Validate() error {
	result := c.ValidateDetailed()
	if result.IsValid() {
		return nil
	}
	err := errors.New(result.Errors[0])
	for _, msg := range result.Errors[1:] {
		err = errors.WithDetail(err, msg)
	}
	return err
}
