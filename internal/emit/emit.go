// Package emit renders a finalized registry into declaration source text.
//
// Declarations are grouped into output units (one per schema file). A unit
// that uses a name declared in another unit gets an import of that name; the
// surface language handles recursion natively, so self and mutual references
// need no special casing.
package emit

import (
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tsgonest/schemats/internal/registry"
)

// Backend renders planned units in one surface language.
type Backend interface {
	// Language returns the name of the target language (e.g. "typescript").
	Language() string

	// FileExtension returns the extension of generated files (e.g. ".ts").
	FileExtension() string

	// RenderDeclarations renders entries without header or imports.
	RenderDeclarations(entries []*registry.Entry) string

	// RenderUnit renders a complete output unit.
	RenderUnit(u *Unit, opts Options) string

	// RenderIndex renders a barrel re-exporting the given units.
	RenderIndex(units []string, opts Options) string
}

// Options control emission for a whole run.
type Options struct {
	// SortDeclarations orders declarations in a unit by name instead of by
	// discovery order.
	SortDeclarations bool
	// Header lines form the generated-file comment of every unit.
	Header []string
}

// DefaultHeader marks generated units.
var DefaultHeader = []string{
	"This file was automatically generated by schemats",
	"Do not modify this file manually",
}

// DefaultOptions returns the run defaults.
func DefaultOptions() Options {
	return Options{SortDeclarations: true, Header: DefaultHeader}
}

// Unit is one output unit.
type Unit struct {
	// Name is the slash-separated unit path without extension.
	Name    string
	Entries []*registry.Entry
	Imports []Import
}

// Import pulls names from another unit.
type Import struct {
	// From is the relative module specifier, e.g. "./Role" or "../shared/Role".
	From  string
	Names []string
}

// Plan finalizes reg and groups its entries into units, sorted by unit name.
func Plan(reg *registry.Registry, opts Options) ([]*Unit, error) {
	if err := reg.Finalize(); err != nil {
		return nil, err
	}

	entries := reg.Entries()
	owner := make(map[string]string, len(entries))
	byUnit := map[string]*Unit{}
	for _, e := range entries {
		owner[e.Name] = e.Unit
		u, ok := byUnit[e.Unit]
		if !ok {
			u = &Unit{Name: e.Unit}
			byUnit[e.Unit] = u
		}
		u.Entries = append(u.Entries, e)
	}

	units := make([]*Unit, 0, len(byUnit))
	for _, u := range byUnit {
		if opts.SortDeclarations {
			sort.SliceStable(u.Entries, func(i, j int) bool { return u.Entries[i].Name < u.Entries[j].Name })
		}
		u.Imports = imports(u, owner)
		units = append(units, u)
	}
	sort.Slice(units, func(i, j int) bool { return units[i].Name < units[j].Name })
	return units, nil
}

func imports(u *Unit, owner map[string]string) []Import {
	names := map[string]map[string]bool{}
	for _, e := range u.Entries {
		for _, ref := range e.Type.Refs() {
			from, ok := owner[ref]
			if !ok || from == u.Name {
				continue
			}
			if names[from] == nil {
				names[from] = map[string]bool{}
			}
			names[from][ref] = true
		}
	}

	out := make([]Import, 0, len(names))
	for from, set := range names {
		imp := Import{From: RelativeModule(u.Name, from)}
		for n := range set {
			imp.Names = append(imp.Names, n)
		}
		sort.Strings(imp.Names)
		out = append(out, imp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].From < out[j].From })
	return out
}

// RelativeModule returns the specifier that reaches unit to from unit from.
func RelativeModule(from, to string) string {
	rel, err := filepath.Rel(filepath.FromSlash(path.Dir(from)), filepath.FromSlash(to))
	if err != nil {
		rel = to
	}
	rel = filepath.ToSlash(rel)
	if !strings.HasPrefix(rel, "../") {
		rel = "./" + rel
	}
	return rel
}

// Render plans reg and renders every unit. Keys are unit names.
func Render(reg *registry.Registry, backend Backend, opts Options) (map[string]string, error) {
	units, err := Plan(reg, opts)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(units))
	for _, u := range units {
		out[u.Name] = backend.RenderUnit(u, opts)
	}
	return out, nil
}
