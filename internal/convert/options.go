// Package convert drives conversions: one in-memory schema, or a directory of
// schema files written out as declaration units.
package convert

import (
	"fmt"
	"strings"

	"github.com/tsgonest/schemats/internal/emit"
	"github.com/tsgonest/schemats/internal/synth"
)

// Options apply uniformly to one conversion run.
type Options struct {
	SchemaDirectory     string
	TypeOutputDirectory string

	// SortPropertiesByName orders object members and the declarations of a
	// unit by name instead of discovery order.
	SortPropertiesByName bool
	// DefaultToRequired treats fields without an explicit presence as required.
	DefaultToRequired bool

	// IndexAllToRoot writes an index barrel re-exporting every unit.
	IndexAllToRoot bool
	// Extensions selects schema files by suffix, e.g. ".yaml".
	Extensions []string
	// Header lines form the generated-file comment.
	Header []string

	// Cache skips runs whose inputs and outputs are unchanged.
	Cache bool
}

// DefaultExtensions are the schema file suffixes read by default.
var DefaultExtensions = []string{".yaml", ".yml", ".json"}

// DefaultOptions returns the run defaults.
func DefaultOptions() Options {
	return Options{
		SortPropertiesByName: true,
		IndexAllToRoot:       true,
		Extensions:           append([]string(nil), DefaultExtensions...),
		Header:               append([]string(nil), emit.DefaultHeader...),
		Cache:                true,
	}
}

func (o Options) synthOptions() synth.Options {
	return synth.Options{
		SortPropertiesByName: o.SortPropertiesByName,
		DefaultToRequired:    o.DefaultToRequired,
	}
}

func (o Options) emitOptions() emit.Options {
	return emit.Options{
		SortDeclarations: o.SortPropertiesByName,
		Header:           o.Header,
	}
}

// fingerprint serializes every option that changes output.
func (o Options) fingerprint() string {
	return fmt.Sprintf("sort=%t;required=%t;index=%t;ext=%s;header=%s",
		o.SortPropertiesByName, o.DefaultToRequired, o.IndexAllToRoot,
		strings.Join(o.Extensions, ","), strings.Join(o.Header, "\n"))
}

func (o Options) matchesExtension(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range o.Extensions {
		if strings.HasSuffix(lower, strings.ToLower(ext)) {
			return true
		}
	}
	return false
}
