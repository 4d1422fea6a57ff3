package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tsgonest/schemats/internal/config"
	"github.com/tsgonest/schemats/internal/errors"
	"github.com/tsgonest/schemats/internal/logger"
)

// runFlags are the conversion flags shared by generate, watch and dump.
type runFlags struct {
	schemas string
	out     string
	noCache bool
	quiet   bool
}

func addRunFlags(cmd *cobra.Command, f *runFlags) {
	cmd.Flags().StringVar(&f.schemas, "schemas", "", "Schema directory (overrides schema_directory)")
	cmd.Flags().StringVar(&f.out, "out", "", "Type output directory (overrides type_output_directory)")
	cmd.Flags().Bool("strict", false, "Treat warnings as errors")
	cmd.Flags().Bool("sort", false, "Sort properties and declarations by name")
	cmd.Flags().Bool("default-required", false, "Treat fields without an optional marker as required")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "Always regenerate, ignoring the build cache")
	cmd.Flags().BoolVarP(&f.quiet, "quiet", "q", false, "Suppress warnings")
}

// flagKeys maps boolean flags onto config keys.
var flagKeys = map[string]string{
	"strict":           "strict",
	"sort":             "sort_properties_by_name",
	"default-required": "default_to_required",
}

// loadConfig layers flags over environment, config file and defaults.
// Directory flags are relative to the working directory, unlike directories
// in a config file, which are relative to the file.
func loadConfig(cmd *cobra.Command, g *globalFlags, f *runFlags) (*config.Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, errors.Wrap(err, "could not get working directory")
	}

	v := config.NewViper()
	if err := bindRunFlags(v, cmd, f, cwd); err != nil {
		return nil, err
	}

	cfg, err := config.Load(v, g.configPath, cwd)
	if err != nil {
		return nil, err
	}
	log := logger.Named("config")
	if cfg.Path != "" {
		log.Debugw("loaded config", "path", cfg.Path)
	}
	for _, w := range cfg.ValidateDetailed().Warnings {
		log.Warn(w)
	}
	return cfg, nil
}

func bindRunFlags(v *viper.Viper, cmd *cobra.Command, f *runFlags, cwd string) error {
	for name, key := range flagKeys {
		if err := v.BindPFlag(key, cmd.Flags().Lookup(name)); err != nil {
			return errors.Wrapf(err, "binding --%s", name)
		}
	}
	if f.schemas != "" {
		v.Set("schema_directory", absFrom(cwd, f.schemas))
	}
	if f.out != "" {
		v.Set("type_output_directory", absFrom(cwd, f.out))
	}
	if f.noCache {
		v.Set("cache", false)
	}
	return nil
}

func absFrom(cwd, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(cwd, p)
}
