// Package typeexpr defines the type expression tree produced by synthesis and
// consumed by the emitter. Expressions are plain data; a named reference
// carries only the name, so recursive declarations never embed themselves.
package typeexpr

// Expr is one type expression.
type Expr struct {
	// Kind identifies the shape of the expression.
	Kind Kind `json:"kind"`

	// Optional marks a property or tuple element that may be absent.
	Optional bool `json:"optional,omitzero"`

	// Nullable adds a null arm.
	Nullable bool `json:"nullable,omitzero"`

	// Primitive names the primitive type. Only set when Kind == KindPrimitive.
	Primitive Primitive `json:"primitive,omitempty"`

	// Base is the widened type of an open literal union; nil for a closed one.
	// Only set when Kind == KindLiteralUnion.
	Base *Expr `json:"base,omitempty"`

	// Literals holds the union members in first-seen order.
	// Only set when Kind == KindLiteralUnion.
	Literals []Literal `json:"literals,omitempty"`

	// Name is the referenced declaration. Only set when Kind == KindRef.
	Name string `json:"name,omitempty"`

	// Properties holds the object members in emission order.
	// Only set when Kind == KindObject.
	Properties []Property `json:"properties,omitempty"`

	// Element is the item type of an array.
	Element *Expr `json:"element,omitempty"`

	// Elements holds the positional tuple members.
	Elements []*Expr `json:"elements,omitempty"`

	// Members holds the branches of a structural union.
	Members []*Expr `json:"members,omitempty"`
}

// Kind represents the shape of an expression.
type Kind string

const (
	KindPrimitive    Kind = "primitive"
	KindLiteralUnion Kind = "literal-union"
	KindRef          Kind = "ref"
	KindObject       Kind = "object"
	KindArray        Kind = "array"
	KindTuple        Kind = "tuple"
	KindUnion        Kind = "union"
)

// Primitive is a built-in type.
type Primitive string

const (
	PrimitiveString  Primitive = "string"
	PrimitiveNumber  Primitive = "number"
	PrimitiveBoolean Primitive = "boolean"
	PrimitiveDate    Primitive = "Date"
	PrimitiveBinary  Primitive = "Buffer"
	PrimitiveAny     Primitive = "any"
	PrimitiveObject  Primitive = "object"
	PrimitiveNull    Primitive = "null"

	// PrimitiveUndefined only appears as an explicit tuple element arm.
	PrimitiveUndefined Primitive = "undefined"
)

// LiteralType is the primitive a literal belongs to.
type LiteralType string

const (
	LiteralString  LiteralType = "string"
	LiteralNumber  LiteralType = "number"
	LiteralBoolean LiteralType = "boolean"
)

// Literal is one member of a literal union. Value is the raw string, the
// canonical number text, or "true"/"false".
type Literal struct {
	Type  LiteralType `json:"type"`
	Value string      `json:"value"`
}

// Property is an object member.
type Property struct {
	Key  string `json:"key"`
	Type *Expr  `json:"type"`
	// Description and Example render as documentation on the member.
	Description string `json:"description,omitempty"`
	Example     string `json:"example,omitempty"`
}

// NewPrimitive returns a primitive expression.
func NewPrimitive(p Primitive) *Expr {
	return &Expr{Kind: KindPrimitive, Primitive: p}
}

// NewRef returns a reference to a named declaration.
func NewRef(name string) *Expr {
	return &Expr{Kind: KindRef, Name: name}
}

// NewLiteralUnion returns a literal union; base is nil for a closed set.
func NewLiteralUnion(base *Expr, literals []Literal) *Expr {
	return &Expr{Kind: KindLiteralUnion, Base: base, Literals: literals}
}

// NewObject returns an inline object type. A nil slice is normalized so an
// object with zero properties stays distinguishable from a missing one.
func NewObject(props []Property) *Expr {
	if props == nil {
		props = []Property{}
	}
	return &Expr{Kind: KindObject, Properties: props}
}

// NewArray returns an array of element.
func NewArray(element *Expr) *Expr {
	return &Expr{Kind: KindArray, Element: element}
}

// NewTuple returns a tuple over elements.
func NewTuple(elements []*Expr) *Expr {
	return &Expr{Kind: KindTuple, Elements: elements}
}

// NewUnion returns a structural union of members.
func NewUnion(members []*Expr) *Expr {
	return &Expr{Kind: KindUnion, Members: members}
}

// IsObject reports whether the expression renders as an interface body.
func (e *Expr) IsObject() bool {
	return e != nil && e.Kind == KindObject
}

// Clone returns a shallow copy whose modifiers can be changed without
// affecting e. Children are shared; expressions are not mutated after
// synthesis.
func (e *Expr) Clone() *Expr {
	if e == nil {
		return nil
	}
	c := *e
	return &c
}

// WithModifiers returns a copy carrying the given modifiers.
func (e *Expr) WithModifiers(optional, nullable bool) *Expr {
	c := e.Clone()
	c.Optional = optional
	c.Nullable = nullable
	return c
}

// Refs returns every referenced declaration name, in first-seen order.
func (e *Expr) Refs() []string {
	seen := map[string]bool{}
	var out []string
	var walk func(*Expr)
	walk = func(x *Expr) {
		if x == nil {
			return
		}
		if x.Kind == KindRef && !seen[x.Name] {
			seen[x.Name] = true
			out = append(out, x.Name)
		}
		walk(x.Base)
		walk(x.Element)
		for _, p := range x.Properties {
			walk(p.Type)
		}
		for _, el := range x.Elements {
			walk(el)
		}
		for _, m := range x.Members {
			walk(m)
		}
	}
	walk(e)
	return out
}
