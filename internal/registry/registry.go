// Package registry holds the run-scoped table of named declarations.
//
// A Registry is created per conversion run, filled while schemas are
// synthesized and sealed by Finalize before emission. Names may be referenced
// before they are registered; such references are deferred and must all be
// satisfied when the run is finalized.
package registry

import (
	"context"
	"sort"
	"sync"

	"github.com/tsgonest/schemats/internal/errors"
	"github.com/tsgonest/schemats/internal/schema"
	"github.com/tsgonest/schemats/internal/typeexpr"
)

// Entry is one named declaration.
type Entry struct {
	Name        string         `json:"name"`
	Type        *typeexpr.Expr `json:"type"`
	Description string         `json:"description,omitempty"`
	Example     string         `json:"example,omitempty"`
	// EnumLike marks a closed literal union backed by a declared mapping.
	EnumLike bool `json:"enumLike,omitzero"`
	// Unit is the output unit that declares the name.
	Unit     string          `json:"unit"`
	Location schema.Location `json:"-"`
	// Order is the discovery position within the run.
	Order int `json:"order"`
}

func (e *Entry) sameDefinition(o *Entry) bool {
	return e.Description == o.Description &&
		e.Example == o.Example &&
		e.EnumLike == o.EnumLike &&
		typeexpr.Equal(e.Type, o.Type)
}

// Registry maps declared names to their definitions. All methods are safe for
// concurrent use; mutations are serialized.
type Registry struct {
	mu        sync.Mutex
	entries   map[string]*Entry
	order     []string
	uses      map[string][]schema.Location
	waiters   map[string]chan struct{}
	finalized bool
	sealed    chan struct{}
}

// New creates an empty registry for one run.
func New() *Registry {
	return &Registry{
		entries: make(map[string]*Entry),
		uses:    make(map[string][]schema.Location),
		waiters: make(map[string]chan struct{}),
		sealed:  make(chan struct{}),
	}
}

// waiterLocked returns the channel closed when name is registered.
func (r *Registry) waiterLocked(name string) chan struct{} {
	ch, ok := r.waiters[name]
	if !ok {
		ch = make(chan struct{})
		r.waiters[name] = ch
	}
	return ch
}

// Register adds a declaration. Registering a structurally identical
// definition again is a no-op that returns the first entry; a different
// definition under the same name is a DuplicateTypeNameConflict naming both
// locations.
func (r *Registry) Register(e Entry) (*Entry, error) {
	if e.Name == "" {
		return nil, errors.New("registering a declaration without a name")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.finalized {
		return nil, errors.Wrapf(errors.ErrRegistryFinalized, "registering %q", e.Name)
	}
	if prev, ok := r.entries[e.Name]; ok {
		if prev.sameDefinition(&e) {
			return prev, nil
		}
		return nil, errors.NewDuplicateTypeName(e.Name, prev.Location.String(), e.Location.String())
	}

	entry := e
	entry.Order = len(r.order)
	r.entries[e.Name] = &entry
	r.order = append(r.order, e.Name)
	close(r.waiterLocked(e.Name))
	return &entry, nil
}

// Reference records a use of name at loc and returns its handle.
func (r *Registry) Reference(name string, loc schema.Location) *Handle {
	r.mu.Lock()
	r.uses[name] = append(r.uses[name], loc)
	ready := r.waiterLocked(name)
	r.mu.Unlock()
	return &Handle{name: name, reg: r, ready: ready}
}

// Resolve returns a handle for name without recording a use.
func (r *Registry) Resolve(name string) *Handle {
	r.mu.Lock()
	ready := r.waiterLocked(name)
	r.mu.Unlock()
	return &Handle{name: name, reg: r, ready: ready}
}

// Lookup returns the entry registered under name.
func (r *Registry) Lookup(name string) (*Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[name]
	return e, ok
}

// Entries returns all entries in discovery order.
func (r *Registry) Entries() []*Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Entry, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.entries[name])
	}
	return out
}

// Uses returns the recorded reference locations of name.
func (r *Registry) Uses(name string) []schema.Location {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]schema.Location(nil), r.uses[name]...)
}

// Finalize seals the registry. It fails with UnresolvedTypeReference when a
// referenced name was never registered; the first missing name in sort order
// is reported and the rest are attached as details.
func (r *Registry) Finalize() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.finalized {
		r.finalized = true
		close(r.sealed)
	}

	var missing []string
	for name := range r.uses {
		if _, ok := r.entries[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)

	err := r.unresolvedLocked(missing[0])
	for _, name := range missing[1:] {
		err = errors.WithDetailf(err, "also unresolved: %s", r.unresolvedLocked(name))
	}
	return err
}

func (r *Registry) unresolvedLocked(name string) error {
	locs := make([]string, 0, len(r.uses[name]))
	for _, l := range r.uses[name] {
		locs = append(locs, l.String())
	}
	return errors.NewUnresolvedTypeReference(name, locs)
}

// Handle is a possibly deferred reference to a named declaration.
type Handle struct {
	name  string
	reg   *Registry
	ready chan struct{}
}

// Name returns the referenced name.
func (h *Handle) Name() string { return h.name }

// Expr returns the registered definition, or false while still deferred.
func (h *Handle) Expr() (*typeexpr.Expr, bool) {
	e, ok := h.reg.Lookup(h.name)
	if !ok {
		return nil, false
	}
	return e.Type, true
}

// Wait blocks until the name is registered, the registry is finalized
// without it, or ctx ends.
func (h *Handle) Wait(ctx context.Context) (*Entry, error) {
	select {
	case <-h.ready:
	case <-h.reg.sealed:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if e, ok := h.reg.Lookup(h.name); ok {
		return e, nil
	}
	h.reg.mu.Lock()
	defer h.reg.mu.Unlock()
	return nil, h.reg.unresolvedLocked(h.name)
}
