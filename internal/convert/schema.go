package convert

import (
	"github.com/tsgonest/schemats/internal/diagnostic"
	"github.com/tsgonest/schemats/internal/emit"
	"github.com/tsgonest/schemats/internal/registry"
	"github.com/tsgonest/schemats/internal/schema"
	"github.com/tsgonest/schemats/internal/synth"
)

// Result is the rendering of one in-memory schema.
type Result struct {
	// Name is the root declaration.
	Name string
	// Content holds the root declaration and every declaration it forced
	// into existence (nested named types, referenced enums), without a header.
	Content string
	Entries []*registry.Entry
}

// Schema converts one schema. It returns nil without error when the schema
// has no declared name, since there is nothing to declare it under.
//
// Every name the schema references must be declared inside it; links to
// declarations elsewhere fail with an unresolved reference.
func Schema(opts Options, n *schema.Node, diag *diagnostic.Collector) (*Result, error) {
	if n == nil || n.Name == "" {
		return nil, nil
	}

	reg := registry.New()
	eng := synth.NewEngine(reg, opts.synthOptions(), diag)
	root, err := eng.SynthesizeRoot(n, "")
	if err != nil {
		return nil, err
	}

	units, err := emit.Plan(reg, opts.emitOptions())
	if err != nil {
		return nil, err
	}
	res := &Result{Name: root.Name}
	for _, u := range units {
		res.Entries = append(res.Entries, u.Entries...)
	}
	res.Content = backend.RenderDeclarations(res.Entries)
	return res, nil
}

var backend emit.Backend = emit.TypeScript{}
