package synth

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tsgonest/schemats/internal/diagnostic"
	"github.com/tsgonest/schemats/internal/errors"
	"github.com/tsgonest/schemats/internal/registry"
	"github.com/tsgonest/schemats/internal/schema"
	"github.com/tsgonest/schemats/internal/typeexpr"
)

// Options apply uniformly to a whole run.
type Options struct {
	// SortPropertiesByName orders object members by case-sensitive key
	// instead of declaration order.
	SortPropertiesByName bool
	// DefaultToRequired treats nodes without an explicit presence as required.
	DefaultToRequired bool
}

// DefaultOptions match the reference tool's defaults.
func DefaultOptions() Options {
	return Options{SortPropertiesByName: true}
}

// Engine synthesizes type expressions and registers named declarations.
// It is not safe for concurrent use; one engine serves one sequential pass
// and may share its registry with others.
type Engine struct {
	reg  *registry.Registry
	opts Options
	diag *diagnostic.Collector
	unit string
}

// NewEngine returns an engine writing to reg. diag may be nil.
func NewEngine(reg *registry.Registry, opts Options, diag *diagnostic.Collector) *Engine {
	return &Engine{reg: reg, opts: opts, diag: diag}
}

// ForUnit returns an engine that attributes new declarations to unit.
func (e *Engine) ForUnit(unit string) *Engine {
	c := *e
	c.unit = unit
	return &c
}

// Options returns the engine's run options.
func (e *Engine) Options() Options { return e.opts }

// Synthesize returns the use-site expression for n. Named nodes, and nodes
// nested below them, are registered as a side effect.
func (e *Engine) Synthesize(n *schema.Node) (*typeexpr.Expr, error) {
	return e.synth(n, n.Required(e.opts.DefaultToRequired))
}

// SynthesizeRoot registers a top-level schema under name and returns its
// entry. name overrides the node's own declared name.
func (e *Engine) SynthesizeRoot(n *schema.Node, name string) (*registry.Entry, error) {
	if name == "" {
		name = n.Name
	}
	if name == "" {
		return nil, errors.Newf("schema at %s has no name", n.Source)
	}
	expr, err := e.shape(n, true)
	if err != nil {
		return nil, err
	}
	return e.register(n, name, expr)
}

func (e *Engine) synth(n *schema.Node, required bool) (*typeexpr.Expr, error) {
	expr, err := e.shape(n, required)
	if err != nil {
		return nil, err
	}
	if n.Name == "" {
		return expr, nil
	}
	if _, err := e.register(n, n.Name, expr); err != nil {
		return nil, err
	}
	use := typeexpr.NewRef(n.Name)
	use.Optional = expr.Optional
	// Interfaces cannot carry null, so objects take it at the use site.
	if expr.IsObject() {
		use.Nullable = expr.Nullable
	}
	return use, nil
}

// register stores the declaration form of expr: never optional, and nullable
// only for non-object aliases.
func (e *Engine) register(n *schema.Node, name string, expr *typeexpr.Expr) (*registry.Entry, error) {
	decl := expr.WithModifiers(false, expr.Nullable && !expr.IsObject())
	return e.reg.Register(registry.Entry{
		Name:        name,
		Type:        decl,
		Description: n.Description,
		Example:     n.Example,
		Unit:        e.unit,
		Location:    n.Source,
	})
}

// shape builds the unhoisted expression of n including its modifiers.
func (e *Engine) shape(n *schema.Node, required bool) (*typeexpr.Expr, error) {
	ls, err := ResolveLiterals(n, required)
	if err != nil {
		return nil, err
	}
	for _, ref := range ls.Refs {
		e.diag.Info(diagnostic.CategoryReferenceConstraint, n.Source.Unit, n.Source.Path,
			fmt.Sprintf("allowed value references field %q; kept as documentation only", ref))
	}

	base, err := e.base(n)
	if err != nil {
		return nil, err
	}

	var expr *typeexpr.Expr
	switch {
	case ls.NullOnly:
		expr = typeexpr.NewPrimitive(typeexpr.PrimitiveNull)
	case len(ls.Literals) == 0:
		expr = base.WithModifiers(false, base.Nullable || ls.Nullable)
	default:
		expr, err = e.literalUnion(n, base, ls)
		if err != nil {
			return nil, err
		}
		expr.Nullable = ls.Nullable
	}
	expr.Optional = ls.Optional
	return expr, nil
}

func (e *Engine) literalUnion(n *schema.Node, base *typeexpr.Expr, ls LiteralSet) (*typeexpr.Expr, error) {
	if n.Enum != nil {
		ref, err := e.enumLike(n, ls)
		if err != nil {
			return nil, err
		}
		if ref != nil {
			return ref, nil
		}
	}
	if ls.KeepBase {
		return typeexpr.NewLiteralUnion(base, ls.Literals), nil
	}
	return typeexpr.NewLiteralUnion(nil, ls.Literals), nil
}

// enumLike resolves the literal set against the node's declared mapping.
// The mapping is registered as an enum-like alias only when this use site
// references it: a closed set holding every member, or an open set holding at
// least one member, whose remaining literals follow the alias. nil keeps the
// literals inline.
func (e *Engine) enumLike(n *schema.Node, ls LiteralSet) (*typeexpr.Expr, error) {
	members := make([]typeexpr.Literal, 0, len(n.Enum.Members))
	inEnum := map[typeexpr.Literal]bool{}
	for _, m := range n.Enum.Members {
		lit := toLiteral(m.Value)
		if !inEnum[lit] {
			inEnum[lit] = true
			members = append(members, lit)
		}
	}
	inside := 0
	var extra []typeexpr.Literal
	for _, lit := range ls.Literals {
		if inEnum[lit] {
			inside++
		} else {
			extra = append(extra, lit)
		}
	}

	switch {
	case ls.Closed && len(extra) > 0:
		e.diag.WarnWithHint(diagnostic.CategoryEnumMismatch, n.Source.Unit, n.Source.Path,
			fmt.Sprintf("value %q is not a member of enum %s; literals are inlined", extra[0].Value, n.Enum.Name),
			"add the value to the enum members or drop the enum mapping")
		return nil, nil
	case ls.Closed && inside != len(members):
		// A subset cannot name the whole mapping.
		return nil, nil
	case !ls.Closed && inside == 0:
		e.diag.WarnWithHint(diagnostic.CategoryEnumMismatch, n.Source.Unit, n.Source.Path,
			fmt.Sprintf("no allowed value is a member of enum %s; literals are inlined", n.Enum.Name),
			"add the values to the enum members or drop the enum mapping")
		return nil, nil
	}

	_, err := e.reg.Register(registry.Entry{
		Name:     n.Enum.Name,
		Type:     typeexpr.NewLiteralUnion(nil, members),
		EnumLike: true,
		Unit:     e.unit,
		Location: n.Source.Child("enum"),
	})
	if err != nil {
		return nil, err
	}
	e.reg.Reference(n.Enum.Name, n.Source)
	ref := typeexpr.NewRef(n.Enum.Name)
	if len(extra) == 0 {
		return ref, nil
	}
	return typeexpr.NewLiteralUnion(ref, extra), nil
}

// base builds the expression of n's kind without allowed values.
func (e *Engine) base(n *schema.Node) (*typeexpr.Expr, error) {
	switch n.Kind {
	case schema.KindString:
		return typeexpr.NewPrimitive(typeexpr.PrimitiveString), nil
	case schema.KindNumber:
		return typeexpr.NewPrimitive(typeexpr.PrimitiveNumber), nil
	case schema.KindBoolean:
		return typeexpr.NewPrimitive(typeexpr.PrimitiveBoolean), nil
	case schema.KindDate:
		return typeexpr.NewPrimitive(typeexpr.PrimitiveDate), nil
	case schema.KindBinary:
		return typeexpr.NewPrimitive(typeexpr.PrimitiveBinary), nil
	case schema.KindObject:
		return e.object(n)
	case schema.KindArray:
		return e.array(n)
	case schema.KindAlternatives:
		return e.alternatives(n)
	case schema.KindLink:
		e.reg.Reference(n.Link, n.Source)
		return typeexpr.NewRef(n.Link), nil
	default:
		return typeexpr.NewPrimitive(typeexpr.PrimitiveAny), nil
	}
}

func (e *Engine) object(n *schema.Node) (*typeexpr.Expr, error) {
	if n.Keys == nil {
		return typeexpr.NewPrimitive(typeexpr.PrimitiveObject), nil
	}
	keys := n.Keys
	if e.opts.SortPropertiesByName {
		keys = append([]schema.Property(nil), n.Keys...)
		sort.SliceStable(keys, func(i, j int) bool { return keys[i].Key < keys[j].Key })
	}
	props := make([]typeexpr.Property, 0, len(keys))
	for _, p := range keys {
		t, err := e.Synthesize(p.Node)
		if err != nil {
			return nil, err
		}
		props = append(props, typeexpr.Property{
			Key:         p.Key,
			Type:        t,
			Description: p.Node.Description,
			Example:     p.Node.Example,
		})
	}
	return typeexpr.NewObject(props), nil
}

func (e *Engine) array(n *schema.Node) (*typeexpr.Expr, error) {
	anyExpr := typeexpr.NewPrimitive(typeexpr.PrimitiveAny)
	if n.Items != nil && n.Ordered != nil {
		shape := &errors.AmbiguousArrayShapeError{Location: n.Source.String()}
		e.diag.WarnWithHint(diagnostic.CategoryAmbiguousArray, n.Source.Unit, n.Source.Path,
			shape.Error()+"; using any[]", "keep either items or ordered")
		return typeexpr.NewArray(anyExpr), nil
	}
	if n.Ordered != nil {
		return e.tuple(n)
	}

	var items []*typeexpr.Expr
	for _, item := range n.Items {
		// Array items are members, not properties: presence does not apply.
		t, err := e.synth(item, true)
		if err != nil {
			return nil, err
		}
		items = appendDistinct(items, t)
	}
	switch len(items) {
	case 0:
		return typeexpr.NewArray(anyExpr), nil
	case 1:
		return typeexpr.NewArray(items[0]), nil
	default:
		return typeexpr.NewArray(typeexpr.NewUnion(items)), nil
	}
}

func (e *Engine) tuple(n *schema.Node) (*typeexpr.Expr, error) {
	elements := make([]*typeexpr.Expr, len(n.Ordered))
	for i, el := range n.Ordered {
		t, err := e.Synthesize(el)
		if err != nil {
			return nil, err
		}
		elements[i] = t
	}

	// An optional element may only be followed by optional elements; earlier
	// ones become explicit undefined arms.
	lastRequired := -1
	for i, el := range elements {
		if !el.Optional {
			lastRequired = i
		}
	}
	var demoted []string
	for i := 0; i < lastRequired; i++ {
		if !elements[i].Optional {
			continue
		}
		elements[i] = typeexpr.NewUnion([]*typeexpr.Expr{
			elements[i].WithModifiers(false, elements[i].Nullable),
			typeexpr.NewPrimitive(typeexpr.PrimitiveUndefined),
		})
		demoted = append(demoted, fmt.Sprint(i))
	}
	if len(demoted) > 0 {
		e.diag.WarnWithHint(diagnostic.CategoryTupleOrder, n.Source.Unit, n.Source.Path,
			fmt.Sprintf("optional tuple element(s) %s precede a required element; rendered as T | undefined", strings.Join(demoted, ", ")),
			"mark trailing elements optional or make earlier elements required")
	}
	return typeexpr.NewTuple(elements), nil
}

func (e *Engine) alternatives(n *schema.Node) (*typeexpr.Expr, error) {
	var members []*typeexpr.Expr
	for _, alt := range n.Alternatives {
		t, err := e.synth(alt, true)
		if err != nil {
			return nil, err
		}
		members = appendDistinct(members, t)
	}
	if len(members) == 1 {
		return members[0], nil
	}
	return typeexpr.NewUnion(members), nil
}

// appendDistinct appends t unless a structurally identical member exists.
func appendDistinct(list []*typeexpr.Expr, t *typeexpr.Expr) []*typeexpr.Expr {
	for _, m := range list {
		if typeexpr.Equal(m, t) {
			return list
		}
	}
	return append(list, t)
}
