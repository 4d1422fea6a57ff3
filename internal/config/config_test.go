package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsgonest/schemats/internal/errors"
)

func write(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.True(t, cfg.SortPropertiesByName)
	assert.False(t, cfg.DefaultToRequired)
	assert.True(t, cfg.IndexAllToRoot)
	assert.True(t, cfg.Cache)
	assert.False(t, cfg.Strict)
	assert.Equal(t, []string{".yaml", ".yml", ".json"}, cfg.Extensions)
	assert.Len(t, cfg.Header, 2)
	assert.Empty(t, cfg.SchemaDirectory)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFormats(t *testing.T) {
	tests := []struct {
		file    string
		content string
	}{
		{"schemats.yaml", "schema_directory: schemas\ntype_output_directory: types\nsort_properties_by_name: false\nstrict: true\n"},
		{"schemats.json", `{"schema_directory": "schemas", "type_output_directory": "types", "sort_properties_by_name": false, "strict": true}`},
		{"schemats.toml", "schema_directory = \"schemas\"\ntype_output_directory = \"types\"\nsort_properties_by_name = false\nstrict = true\n"},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, tt.file)
			write(t, path, tt.content)

			cfg, err := Load(NewViper(), path, "/elsewhere")
			require.NoError(t, err)
			assert.Equal(t, path, cfg.Path)
			assert.Equal(t, dir, cfg.Dir)
			assert.Equal(t, filepath.Join(dir, "schemas"), cfg.SchemaDirectory, "relative to the config file")
			assert.Equal(t, filepath.Join(dir, "types"), cfg.TypeOutputDirectory)
			assert.False(t, cfg.SortPropertiesByName)
			assert.True(t, cfg.Strict)
			assert.True(t, cfg.IndexAllToRoot, "unset keys keep their defaults")
		})
	}
}

func TestLoadRelativeConfigPath(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "conf", "schemats.yml"), "schema_directory: ../schemas\n")

	cfg, err := Load(NewViper(), "conf/schemats.yml", dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "schemas"), cfg.SchemaDirectory)
}

func TestDiscoverWalksUp(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	assert.Empty(t, Discover(nested))

	write(t, filepath.Join(root, "schemats.json"), `{}`)
	assert.Equal(t, filepath.Join(root, "schemats.json"), Discover(nested))

	write(t, filepath.Join(root, "a", "schemats.yaml"), "")
	assert.Equal(t, filepath.Join(root, "a", "schemats.yaml"), Discover(nested), "nearest file wins")

	write(t, filepath.Join(root, "a", "schemats.yml"), "")
	assert.Equal(t, filepath.Join(root, "a", "schemats.yaml"), Discover(nested), ".yaml is preferred")
}

func TestLoadWithoutConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(NewViper(), "", dir)
	require.NoError(t, err)
	assert.Empty(t, cfg.Path)
	assert.Equal(t, dir, cfg.Dir)
	assert.Error(t, cfg.RequireDirectories())
}

func TestEnvironmentOverrides(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "schemats.yaml"), "schema_directory: schemas\ndefault_to_required: false\n")
	t.Setenv("SCHEMATS_DEFAULT_TO_REQUIRED", "true")
	t.Setenv("SCHEMATS_TYPE_OUTPUT_DIRECTORY", "/abs/types")

	cfg, err := Load(NewViper(), "", dir)
	require.NoError(t, err)
	assert.True(t, cfg.DefaultToRequired)
	assert.Equal(t, "/abs/types", cfg.TypeOutputDirectory)
	assert.NoError(t, cfg.RequireDirectories())
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(NewViper(), filepath.Join(dir, "missing.yaml"), dir)
	assert.Error(t, err)

	bad := filepath.Join(dir, "schemats.json")
	write(t, bad, "not json")
	_, err = Load(NewViper(), bad, dir)
	assert.Error(t, err)

	invalid := filepath.Join(dir, "invalid", "schemats.yaml")
	write(t, invalid, "extensions: [yaml]\n")
	_, err = Load(NewViper(), invalid, dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must start with a dot")
}

func TestOptions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SchemaDirectory = "/s"
	cfg.TypeOutputDirectory = "/t"
	cfg.DefaultToRequired = true

	opts := cfg.Options()
	assert.Equal(t, "/s", opts.SchemaDirectory)
	assert.Equal(t, "/t", opts.TypeOutputDirectory)
	assert.True(t, opts.DefaultToRequired)
	assert.True(t, opts.SortPropertiesByName)
	assert.Equal(t, cfg.Header, opts.Header)
}

func TestValidateDetailed(t *testing.T) {
	tests := []struct {
		name         string
		mutate       func(*Config)
		wantValid    bool
		wantWarnings int
	}{
		{"defaults", func(*Config) {}, true, 0},
		{"no extensions", func(c *Config) { c.Extensions = nil }, false, 0},
		{"extension without dot", func(c *Config) { c.Extensions = []string{"yaml"} }, false, 0},
		{"reads generated output", func(c *Config) { c.Extensions = []string{".ts"} }, false, 0},
		{"no header", func(c *Config) { c.Header = nil }, true, 1},
		{"same directories", func(c *Config) {
			c.SchemaDirectory = "/p/schemas"
			c.TypeOutputDirectory = "/p/schemas/"
		}, true, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			result := cfg.ValidateDetailed()
			assert.Equal(t, tt.wantValid, result.IsValid(), "errors: %v", result.Errors)
			assert.Len(t, result.Warnings, tt.wantWarnings)
		})
	}
}

func TestRequireDirectoriesHint(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.RequireDirectories()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema_directory and type_output_directory")
	assert.NotEmpty(t, errors.GetAllHints(err))
}
