package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/tsgonest/schemats/internal/errors"
)

// ValidationResult holds config validation results.
type ValidationResult struct {
	Errors   []string
	Warnings []string
}

// ValidateDetailed performs thorough config validation with suggestions.
// Missing directories are not errors here: commands that need them check.
func (c *Config) ValidateDetailed() *ValidationResult {
	result := &ValidationResult{}

	if len(c.Extensions) == 0 {
		result.Errors = append(result.Errors, "extensions: at least one schema file extension required")
	}
	for _, ext := range c.Extensions {
		if !strings.HasPrefix(ext, ".") {
			result.Errors = append(result.Errors,
				fmt.Sprintf("extensions: %q must start with a dot, did you mean %q?", ext, "."+ext))
		}
		if strings.EqualFold(ext, ".ts") {
			result.Errors = append(result.Errors, "extensions: .ts would read generated output back as input")
		}
	}

	if c.SchemaDirectory != "" && c.TypeOutputDirectory != "" &&
		filepath.Clean(c.SchemaDirectory) == filepath.Clean(c.TypeOutputDirectory) {
		result.Warnings = append(result.Warnings,
			"type_output_directory: same as schema_directory, generated files will sit next to the schemas")
	}

	if len(c.Header) == 0 {
		result.Warnings = append(result.Warnings,
			"header: empty, generated files will not be marked as generated")
	}

	return result
}

// IsValid returns true if there are no errors.
func (r *ValidationResult) IsValid() bool {
	return len(r.Errors) == 0
}

// RequireDirectories reports a missing schema or output directory.
func (c *Config) RequireDirectories() error {
	var missing []string
	if c.SchemaDirectory == "" {
		missing = append(missing, "schema_directory")
	}
	if c.TypeOutputDirectory == "" {
		missing = append(missing, "type_output_directory")
	}
	if len(missing) == 0 {
		return nil
	}
	return errors.WithHint(
		errors.Newf("%s not configured", strings.Join(missing, " and ")),
		"set them in schemats.yaml, as SCHEMATS_* environment variables or with --schemas and --out")
}
