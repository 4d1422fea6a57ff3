package typeexpr

import (
	"testing"
)

func TestEqual(t *testing.T) {
	obj := func(desc string) *Expr {
		return NewObject([]Property{
			{Key: "name", Type: NewPrimitive(PrimitiveString).WithModifiers(true, false), Description: desc},
			{Key: "role", Type: NewRef("Role")},
		})
	}

	tests := []struct {
		name string
		a, b *Expr
		want bool
	}{
		{"identical objects", obj(""), obj(""), true},
		{"description differs", obj("a"), obj("b"), false},
		{"optional differs", NewPrimitive(PrimitiveString), NewPrimitive(PrimitiveString).WithModifiers(true, false), false},
		{"nullable differs", NewRef("A"), NewRef("A").WithModifiers(false, true), false},
		{"open vs closed", NewLiteralUnion(NewPrimitive(PrimitiveString), []Literal{{LiteralString, "a"}}), NewLiteralUnion(nil, []Literal{{LiteralString, "a"}}), false},
		{"literal type matters", NewLiteralUnion(nil, []Literal{{LiteralString, "1"}}), NewLiteralUnion(nil, []Literal{{LiteralNumber, "1"}}), false},
		{"empty object vs none", NewObject(nil), NewObject([]Property{}), true},
		{"tuple order", NewTuple([]*Expr{NewPrimitive(PrimitiveNumber), NewPrimitive(PrimitiveString)}), NewTuple([]*Expr{NewPrimitive(PrimitiveString), NewPrimitive(PrimitiveNumber)}), false},
		{"key quoting is unambiguous", NewObject([]Property{{Key: `a":b`, Type: NewRef("X")}}), NewObject([]Property{{Key: "a", Type: NewRef(`":bX`)}}), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Equal(tt.a, tt.b); got != tt.want {
				t.Errorf("Equal() = %v, want %v\n a=%s\n b=%s", got, tt.want, Canonical(tt.a), Canonical(tt.b))
			}
			if got := Fingerprint(tt.a) == Fingerprint(tt.b); got != tt.want {
				t.Errorf("fingerprints equal = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWithModifiersDoesNotMutate(t *testing.T) {
	base := NewRef("Child")
	opt := base.WithModifiers(true, true)
	if base.Optional || base.Nullable {
		t.Fatal("WithModifiers mutated the receiver")
	}
	if !opt.Optional || !opt.Nullable || opt.Name != "Child" {
		t.Fatalf("unexpected copy %+v", opt)
	}
}

func TestRefs(t *testing.T) {
	e := NewObject([]Property{
		{Key: "a", Type: NewRef("A")},
		{Key: "b", Type: NewArray(NewRef("B"))},
		{Key: "c", Type: NewTuple([]*Expr{NewRef("A"), NewUnion([]*Expr{NewRef("C"), NewPrimitive(PrimitiveNull)})})},
		{Key: "d", Type: NewLiteralUnion(NewRef("D"), []Literal{{LiteralString, "x"}})},
	})
	got := e.Refs()
	want := []string{"A", "B", "C", "D"}
	if len(got) != len(want) {
		t.Fatalf("Refs() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Refs() = %v, want %v", got, want)
		}
	}
}
