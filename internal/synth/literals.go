// Package synth turns schema description nodes into type expressions.
package synth

import (
	"github.com/tsgonest/schemats/internal/errors"
	"github.com/tsgonest/schemats/internal/schema"
	"github.com/tsgonest/schemats/internal/typeexpr"
)

// LiteralSet is the resolved allowed-value set of one node.
type LiteralSet struct {
	// Literals are the union members, de-duplicated in first-seen order.
	Literals []typeexpr.Literal
	// Nullable is set when null is allowed.
	Nullable bool
	// Optional is the use-site optionality, always !required.
	Optional bool
	// Closed is set for valid() sets: only the listed values are legal.
	Closed bool
	// KeepBase reports whether the base type stays as a union arm.
	KeepBase bool
	// NullOnly is a closed set whose only member is null.
	NullOnly bool
	// Refs are sibling-field references; they never reach the union.
	Refs []string
}

// ResolveLiterals computes the union members and modifiers of n's allowed
// values. The undefined marker on a required node is a
// ConflictingOptionalitySpecification; on an optional node it is redundant
// and dropped, unless nothing else would remain of a closed set.
func ResolveLiterals(n *schema.Node, required bool) (LiteralSet, error) {
	ls := LiteralSet{Optional: !required}
	if len(n.Allow) == 0 {
		ls.KeepBase = true
		return ls, nil
	}

	seen := make(map[string]bool, len(n.Allow))
	sawUndefined := false
	for _, v := range n.Allow {
		switch v.Kind {
		case schema.ValueNull:
			ls.Nullable = true
		case schema.ValueUndefined:
			if required {
				return LiteralSet{}, errors.NewConflictingOptionality(
					n.Source.String(), "a required field lists undefined among its allowed values")
			}
			sawUndefined = true
		case schema.ValueRef:
			if !seen[v.Key()] {
				seen[v.Key()] = true
				ls.Refs = append(ls.Refs, v.Text)
			}
		default:
			if seen[v.Key()] {
				continue
			}
			seen[v.Key()] = true
			ls.Literals = append(ls.Literals, toLiteral(v))
		}
	}

	ls.Closed = n.Only
	if ls.Closed && len(ls.Literals) == 0 && !ls.Nullable {
		if sawUndefined {
			return LiteralSet{}, errors.NewConflictingOptionality(
				n.Source.String(), "the only allowed value is undefined")
		}
		// Only references: nothing expressible, the base type stands.
		ls.Closed = false
	}

	// allow('') alone widens nothing a string does not already cover.
	if !ls.Closed && n.Kind == schema.KindString && !ls.Nullable && len(ls.Refs) == 0 && len(ls.Literals) == 1 &&
		ls.Literals[0].Type == typeexpr.LiteralString && ls.Literals[0].Value == "" {
		ls.Literals = nil
	}

	ls.NullOnly = ls.Closed && len(ls.Literals) == 0 && ls.Nullable
	ls.KeepBase = !ls.Closed && (len(ls.Literals) == 0 || widensBase(n.Kind, ls.Literals))
	return ls, nil
}

// widensBase reports whether an open set's literals join the base type
// instead of replacing it. Scalar kinds narrow to their literals; a lone
// empty string stays next to string. Structural kinds and links keep their
// base since a literal can never describe them.
func widensBase(kind schema.Kind, lits []typeexpr.Literal) bool {
	switch kind {
	case schema.KindAny, schema.KindNumber, schema.KindBoolean, schema.KindDate:
		return false
	case schema.KindString:
		return len(lits) == 1 && lits[0].Type == typeexpr.LiteralString && lits[0].Value == ""
	}
	return true
}

func toLiteral(v schema.Value) typeexpr.Literal {
	switch v.Kind {
	case schema.ValueNumber:
		return typeexpr.Literal{Type: typeexpr.LiteralNumber, Value: v.Text}
	case schema.ValueBool:
		if v.Bool {
			return typeexpr.Literal{Type: typeexpr.LiteralBoolean, Value: "true"}
		}
		return typeexpr.Literal{Type: typeexpr.LiteralBoolean, Value: "false"}
	default:
		return typeexpr.Literal{Type: typeexpr.LiteralString, Value: v.Text}
	}
}
