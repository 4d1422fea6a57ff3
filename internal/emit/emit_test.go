package emit

import (
	"strings"
	"testing"

	"github.com/tsgonest/schemats/internal/registry"
	"github.com/tsgonest/schemats/internal/schema"
	"github.com/tsgonest/schemats/internal/typeexpr"
)

func prim(p typeexpr.Primitive) *typeexpr.Expr { return typeexpr.NewPrimitive(p) }

func lit(v string) typeexpr.Literal {
	return typeexpr.Literal{Type: typeexpr.LiteralString, Value: v}
}

func optional(e *typeexpr.Expr) *typeexpr.Expr { return e.WithModifiers(true, e.Nullable) }
func nullable(e *typeexpr.Expr) *typeexpr.Expr { return e.WithModifiers(e.Optional, true) }

func TestTypeText(t *testing.T) {
	str := prim(typeexpr.PrimitiveString)
	num := prim(typeexpr.PrimitiveNumber)

	tests := []struct {
		name string
		expr *typeexpr.Expr
		want string
	}{
		{"primitive", str, "string"},
		{"nullable primitive", nullable(str), "string | null"},
		{"optional marker is not part of the type", optional(str), "string"},
		{"closed literals", typeexpr.NewLiteralUnion(nil, []typeexpr.Literal{lit("a"), lit("b")}), "'a' | 'b'"},
		{"closed literals with null", nullable(typeexpr.NewLiteralUnion(nil, []typeexpr.Literal{lit("a")})), "'a' | null"},
		{"open literals with null", nullable(typeexpr.NewLiteralUnion(str, []typeexpr.Literal{lit("")})), "string | null | ''"},
		{"number and boolean literals", typeexpr.NewLiteralUnion(nil, []typeexpr.Literal{
			{Type: typeexpr.LiteralNumber, Value: "1"},
			{Type: typeexpr.LiteralBoolean, Value: "true"},
		}), "1 | true"},
		{"escaped literal", typeexpr.NewLiteralUnion(nil, []typeexpr.Literal{lit(`it's a \ path`)}), `'it\'s a \\ path'`},
		{"ref", nullable(typeexpr.NewRef("Child")), "Child | null"},
		{"array", typeexpr.NewArray(str), "string[]"},
		{"array of union", typeexpr.NewArray(typeexpr.NewUnion([]*typeexpr.Expr{str, num})), "(string | number)[]"},
		{"array of nullable", typeexpr.NewArray(nullable(str)), "(string | null)[]"},
		{"nullable array", nullable(typeexpr.NewArray(str)), "string[] | null"},
		{"tuple", typeexpr.NewTuple([]*typeexpr.Expr{num, str, optional(typeexpr.NewRef("Item"))}), "[number, string, Item?]"},
		{"tuple with optional union", nullable(typeexpr.NewTuple([]*typeexpr.Expr{
			optional(typeexpr.NewUnion([]*typeexpr.Expr{num, str})),
		})), "[(number | string)?] | null"},
		{"empty object", typeexpr.NewObject(nil), "{}"},
		{"nullable members share one null", typeexpr.NewUnion([]*typeexpr.Expr{nullable(str), nullable(num)}), "string | number | null"},
		{"nullable union of nullable members", nullable(typeexpr.NewUnion([]*typeexpr.Expr{nullable(str), num})), "string | number | null"},
		{"array of union with a nullable member", typeexpr.NewArray(typeexpr.NewUnion([]*typeexpr.Expr{str, nullable(num)})), "(string | number | null)[]"},
		{"undefined arm", typeexpr.NewUnion([]*typeexpr.Expr{str, prim(typeexpr.PrimitiveUndefined)}), "string | undefined"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := typeText(tt.expr, ""); got != tt.want {
				t.Errorf("typeText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPropertyKey(t *testing.T) {
	tests := []struct{ key, want string }{
		{"name", "name"},
		{"_id", "_id"},
		{"$ref", "$ref"},
		{"x.y", "'x.y'"},
		{"first-name", "'first-name'"},
		{"1st", "'1st'"},
		{"it's", `'it\'s'`},
	}
	for _, tt := range tests {
		if got := propertyKey(tt.key); got != tt.want {
			t.Errorf("propertyKey(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}

func TestJSDoc(t *testing.T) {
	tests := []struct {
		name        string
		description string
		example     string
		indent      string
		want        string
	}{
		{"empty", "", "", "", ""},
		{"description", "A user.", "", "", "/**\n * A user.\n */\n"},
		{"example", "", "bob", "  ", "  /**\n   * @example bob\n   */\n"},
		{"both multi-line", "First\n\nSecond", "{\n  \"a\": 1\n}", "", "/**\n * First\n *\n * Second\n * @example {\n *   \"a\": 1\n * }\n */\n"},
		{"closing marker escaped", "ends */ here", "", "", "/**\n * ends *\\/ here\n */\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := jsDoc(tt.description, tt.example, tt.indent); got != tt.want {
				t.Errorf("jsDoc() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDeclaration(t *testing.T) {
	inner := typeexpr.NewObject([]typeexpr.Property{
		{Key: "x.y", Type: optional(prim(typeexpr.PrimitiveString)), Description: "Dotted."},
	})
	obj := typeexpr.NewObject([]typeexpr.Property{
		{Key: "nested", Type: inner, Example: "{}"},
		{Key: "when", Type: nullable(prim(typeexpr.PrimitiveDate))},
	})
	got := declaration(&registry.Entry{Name: "Outer", Type: obj, Description: "Outer type."})
	want := `/**
 * Outer type.
 */
export interface Outer {
  /**
   * @example {}
   */
  nested: {
    /**
     * Dotted.
     */
    'x.y'?: string;
  };
  when: Date | null;
}`
	if got != want {
		t.Errorf("declaration() =\n%s\nwant\n%s", got, want)
	}

	alias := declaration(&registry.Entry{Name: "Empty", Type: typeexpr.NewObject(nil)})
	if alias != "export interface Empty {}" {
		t.Errorf("empty object = %q", alias)
	}
	bin := declaration(&registry.Entry{Name: "Blob", Type: nullable(prim(typeexpr.PrimitiveBinary))})
	if bin != "export type Blob = Buffer | null;" {
		t.Errorf("alias = %q", bin)
	}
}

func loc(unit string) schema.Location { return schema.Location{Unit: unit + ".yaml"} }

func TestPlanImports(t *testing.T) {
	reg := registry.New()
	role := typeexpr.NewLiteralUnion(nil, []typeexpr.Literal{lit("Admin")})
	user := typeexpr.NewObject([]typeexpr.Property{
		{Key: "role", Type: typeexpr.NewRef("Role")},
		{Key: "self", Type: optional(typeexpr.NewRef("User"))},
		{Key: "team", Type: typeexpr.NewArray(typeexpr.NewRef("Team"))},
	})
	team := typeexpr.NewObject([]typeexpr.Property{{Key: "lead", Type: typeexpr.NewRef("User")}})

	mustRegister(t, reg, registry.Entry{Name: "User", Type: user, Unit: "people/user", Location: loc("people/user")})
	mustRegister(t, reg, registry.Entry{Name: "Team", Type: team, Unit: "people/user", Location: loc("people/user")})
	mustRegister(t, reg, registry.Entry{Name: "Role", Type: role, Unit: "shared/role", Location: loc("shared/role")})
	reg.Reference("Role", loc("people/user"))

	units, err := Plan(reg, DefaultOptions())
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if len(units) != 2 || units[0].Name != "people/user" || units[1].Name != "shared/role" {
		t.Fatalf("unexpected units: %+v", units)
	}
	people := units[0]
	if people.Entries[0].Name != "Team" || people.Entries[1].Name != "User" {
		t.Errorf("declarations not sorted: %s, %s", people.Entries[0].Name, people.Entries[1].Name)
	}
	if len(people.Imports) != 1 || people.Imports[0].From != "../shared/role" ||
		strings.Join(people.Imports[0].Names, ",") != "Role" {
		t.Errorf("unexpected imports: %+v", people.Imports)
	}
	if len(units[1].Imports) != 0 {
		t.Errorf("role unit should import nothing, got %+v", units[1].Imports)
	}

	text := TypeScript{}.RenderUnit(people, Options{})
	if !strings.HasPrefix(text, "import { Role } from '../shared/role';\n\nexport interface Team {") {
		t.Errorf("unexpected unit text: %q", text)
	}
	if !strings.HasSuffix(text, "}\n") || strings.HasSuffix(text, "\n\n") {
		t.Errorf("unit must end with exactly one newline: %q", text)
	}
}

func TestPlanDiscoveryOrder(t *testing.T) {
	reg := registry.New()
	mustRegister(t, reg, registry.Entry{Name: "Zed", Type: prim(typeexpr.PrimitiveString), Unit: "a"})
	mustRegister(t, reg, registry.Entry{Name: "Alpha", Type: prim(typeexpr.PrimitiveNumber), Unit: "a"})

	units, err := Plan(reg, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if units[0].Entries[0].Name != "Zed" {
		t.Errorf("expected discovery order, got %s first", units[0].Entries[0].Name)
	}
	got := TypeScript{}.RenderDeclarations(units[0].Entries)
	if got != "export type Zed = string;\n\nexport type Alpha = number;" {
		t.Errorf("RenderDeclarations() = %q", got)
	}
}

func TestPlanUnresolved(t *testing.T) {
	reg := registry.New()
	reg.Reference("Missing", loc("a"))
	if _, err := Plan(reg, DefaultOptions()); err == nil {
		t.Fatal("expected an unresolved reference error")
	}
}

func TestRenderIndexAndHeader(t *testing.T) {
	got := TypeScript{}.RenderIndex([]string{"role", "users/user"}, DefaultOptions())
	want := "/**\n * This file was automatically generated by schemats\n * Do not modify this file manually\n */\n\n" +
		"export * from './role';\nexport * from './users/user';\n"
	if got != want {
		t.Errorf("RenderIndex() = %q, want %q", got, want)
	}
}

func TestRelativeModule(t *testing.T) {
	tests := []struct{ from, to, want string }{
		{"user", "role", "./role"},
		{"a/user", "a/role", "./role"},
		{"a/user", "b/role", "../b/role"},
		{"a/b/user", "role", "../../role"},
		{"user", "shared/role", "./shared/role"},
	}
	for _, tt := range tests {
		if got := RelativeModule(tt.from, tt.to); got != tt.want {
			t.Errorf("RelativeModule(%q, %q) = %q, want %q", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestRenderIsDeterministic(t *testing.T) {
	build := func() map[string]string {
		reg := registry.New()
		for _, name := range []string{"C", "A", "B"} {
			mustRegister(t, reg, registry.Entry{Name: name, Type: typeexpr.NewRef("A"), Unit: strings.ToLower(name)})
		}
		out, err := Render(reg, TypeScript{}, DefaultOptions())
		if err != nil {
			t.Fatal(err)
		}
		return out
	}
	first, second := build(), build()
	for unit, text := range first {
		if second[unit] != text {
			t.Errorf("unit %s differs between runs", unit)
		}
	}
	if !strings.Contains(first["b"], "import { A } from './a';") {
		t.Errorf("unit b = %q", first["b"])
	}
}

func mustRegister(t *testing.T, reg *registry.Registry, e registry.Entry) {
	t.Helper()
	if _, err := reg.Register(e); err != nil {
		t.Fatalf("Register(%s): %v", e.Name, err)
	}
}
