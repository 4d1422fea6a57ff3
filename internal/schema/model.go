// Package schema defines the normalized schema description tree consumed by
// the synthesis engine, together with the decoders that read it from YAML or
// JSON files.
//
// A description tree is read-only once decoded. Every node remembers where it
// came from (file and JSON pointer) so later stages can report locations.
package schema

import (
	"strings"
)

// Kind identifies the shape a node describes.
type Kind string

const (
	KindAny          Kind = "any"
	KindString       Kind = "string"
	KindNumber       Kind = "number"
	KindBoolean      Kind = "boolean"
	KindDate         Kind = "date"
	KindBinary       Kind = "binary"
	KindObject       Kind = "object"
	KindArray        Kind = "array"
	KindAlternatives Kind = "alternatives"
	KindLink         Kind = "link"
)

var knownKinds = map[Kind]bool{
	KindAny: true, KindString: true, KindNumber: true, KindBoolean: true,
	KindDate: true, KindBinary: true, KindObject: true, KindArray: true,
	KindAlternatives: true, KindLink: true,
}

// Presence is the explicit required/optional flag of a node.
type Presence int

const (
	PresenceUnspecified Presence = iota
	PresenceRequired
	PresenceOptional
)

func (p Presence) String() string {
	switch p {
	case PresenceRequired:
		return "required"
	case PresenceOptional:
		return "optional"
	default:
		return "unspecified"
	}
}

// ValueKind tags an entry of an allowed-value list.
type ValueKind int

const (
	ValueString ValueKind = iota
	ValueNumber
	ValueBool
	ValueNull
	ValueUndefined // optionality marker; never a valid literal
	ValueRef       // reference to a sibling field; documentation only
)

// Value is one allowed value. Text holds the string literal, the canonical
// number text, or the reference target.
type Value struct {
	Kind ValueKind
	Text string
	Bool bool
}

// StringValue, NumberValue and friends build values for tests and adapters.
func StringValue(s string) Value { return Value{Kind: ValueString, Text: s} }
func NumberValue(n string) Value { return Value{Kind: ValueNumber, Text: n} }
func BoolValue(b bool) Value     { return Value{Kind: ValueBool, Bool: b} }
func NullValue() Value           { return Value{Kind: ValueNull} }
func UndefinedValue() Value      { return Value{Kind: ValueUndefined} }
func RefValue(target string) Value {
	return Value{Kind: ValueRef, Text: target}
}

// Key is a stable identity used for de-duplication.
func (v Value) Key() string {
	switch v.Kind {
	case ValueString:
		return "s:" + v.Text
	case ValueNumber:
		return "n:" + v.Text
	case ValueBool:
		if v.Bool {
			return "b:true"
		}
		return "b:false"
	case ValueNull:
		return "null"
	case ValueUndefined:
		return "undefined"
	case ValueRef:
		return "ref:" + v.Text
	}
	return "?"
}

// IsLiteral reports whether the value can appear as a literal union member.
func (v Value) IsLiteral() bool {
	return v.Kind == ValueString || v.Kind == ValueNumber || v.Kind == ValueBool
}

// Property is one object key. Order within Node.Keys is declaration order.
type Property struct {
	Key  string
	Node *Node
}

// EnumMember is one entry of a declared name-to-value mapping.
type EnumMember struct {
	Key   string
	Value Value
}

// Enum is the declared mapping backing an enum-like literal set.
type Enum struct {
	Name    string
	Members []EnumMember
}

// Has reports whether v is one of the mapping's values.
func (e *Enum) Has(v Value) bool {
	for _, m := range e.Members {
		if m.Value.Key() == v.Key() {
			return true
		}
	}
	return false
}

// Location identifies a node: the unit (schema file, slash separated and
// relative to the schema directory) and a JSON pointer inside it.
type Location struct {
	Unit string
	Path string
}

func (l Location) String() string {
	path := l.Path
	if path == "" {
		path = "/"
	}
	if l.Unit == "" {
		return "#" + path
	}
	return l.Unit + "#" + path
}

// Child extends the pointer by escaped reference tokens.
func (l Location) Child(tokens ...string) Location {
	var sb strings.Builder
	sb.WriteString(l.Path)
	for _, t := range tokens {
		sb.WriteByte('/')
		t = strings.ReplaceAll(t, "~", "~0")
		t = strings.ReplaceAll(t, "/", "~1")
		sb.WriteString(t)
	}
	return Location{Unit: l.Unit, Path: sb.String()}
}

// Node is one schema description.
type Node struct {
	Kind     Kind
	Presence Presence

	// Allow is the ordered allowed-value list. Only closes it: when true the
	// values are the complete set, otherwise they widen the base kind.
	Allow []Value
	Only  bool

	// Keys lists object properties. nil means no keys were declared (any
	// object); a non-nil empty slice means an object with zero properties.
	Keys []Property

	// Items holds homogeneous element schemas, Ordered positional ones.
	Items   []*Node
	Ordered []*Node

	Alternatives []*Node

	// Link names the declared type this node stands for (kind link).
	Link string

	// Name is the declared type name; a named node is hoisted.
	Name string

	Description string
	Example     string
	Enum        *Enum

	Source Location
}

// Required resolves the node's presence against the run default.
func (n *Node) Required(defaultToRequired bool) bool {
	switch n.Presence {
	case PresenceRequired:
		return true
	case PresenceOptional:
		return false
	default:
		return defaultToRequired
	}
}

// Property returns the child declared under key, or nil.
func (n *Node) Property(key string) *Node {
	for _, p := range n.Keys {
		if p.Key == key {
			return p.Node
		}
	}
	return nil
}
