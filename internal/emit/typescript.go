package emit

import (
	"fmt"
	"strings"

	"github.com/tsgonest/schemats/internal/registry"
	"github.com/tsgonest/schemats/internal/schema"
	"github.com/tsgonest/schemats/internal/typeexpr"
)

const indentUnit = "  "

// TypeScript renders declarations as TypeScript interfaces and type aliases.
type TypeScript struct{}

func (TypeScript) Language() string      { return "typescript" }
func (TypeScript) FileExtension() string { return ".ts" }

func (ts TypeScript) RenderUnit(u *Unit, opts Options) string {
	var sb strings.Builder
	writeHeader(&sb, opts.Header)
	for _, imp := range u.Imports {
		fmt.Fprintf(&sb, "import { %s } from '%s';\n", strings.Join(imp.Names, ", "), imp.From)
	}
	if len(u.Imports) > 0 {
		sb.WriteString("\n")
	}
	sb.WriteString(ts.RenderDeclarations(u.Entries))
	sb.WriteString("\n")
	return sb.String()
}

func (TypeScript) RenderIndex(units []string, opts Options) string {
	var sb strings.Builder
	writeHeader(&sb, opts.Header)
	for _, u := range units {
		fmt.Fprintf(&sb, "export * from '%s';\n", RelativeModule("index", u))
	}
	return sb.String()
}

func (TypeScript) RenderDeclarations(entries []*registry.Entry) string {
	blocks := make([]string, 0, len(entries))
	for _, e := range entries {
		blocks = append(blocks, declaration(e))
	}
	return strings.Join(blocks, "\n\n")
}

func writeHeader(sb *strings.Builder, header []string) {
	if len(header) == 0 {
		return
	}
	sb.WriteString("/**\n")
	for _, line := range header {
		writeDocLine(sb, "", line)
	}
	sb.WriteString(" */\n\n")
}

func declaration(e *registry.Entry) string {
	var sb strings.Builder
	sb.WriteString(jsDoc(e.Description, e.Example, ""))
	if e.Type.IsObject() {
		fmt.Fprintf(&sb, "export interface %s %s", e.Name, objectBody(e.Type, ""))
		return sb.String()
	}
	fmt.Fprintf(&sb, "export type %s = %s;", e.Name, typeText(e.Type, ""))
	return sb.String()
}

// jsDoc renders a documentation block, or "" when there is nothing to say.
func jsDoc(description, example, indent string) string {
	description = strings.TrimSpace(description)
	example = strings.TrimSpace(example)
	if description == "" && example == "" {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(indent + "/**\n")
	if description != "" {
		for _, line := range strings.Split(description, "\n") {
			writeDocLine(&sb, indent, line)
		}
	}
	if example != "" {
		lines := strings.Split(example, "\n")
		writeDocLine(&sb, indent, "@example "+lines[0])
		for _, line := range lines[1:] {
			writeDocLine(&sb, indent, line)
		}
	}
	sb.WriteString(indent + " */\n")
	return sb.String()
}

func writeDocLine(sb *strings.Builder, indent, line string) {
	line = strings.ReplaceAll(strings.TrimRight(line, " \t\r"), "*/", "*\\/")
	if line == "" {
		sb.WriteString(indent + " *\n")
		return
	}
	sb.WriteString(indent + " * " + line + "\n")
}

func objectBody(e *typeexpr.Expr, indent string) string {
	if len(e.Properties) == 0 {
		return "{}"
	}
	inner := indent + indentUnit
	var sb strings.Builder
	sb.WriteString("{\n")
	for _, p := range e.Properties {
		sb.WriteString(jsDoc(p.Description, p.Example, inner))
		opt := ""
		if p.Type.Optional {
			opt = "?"
		}
		fmt.Fprintf(&sb, "%s%s%s: %s;\n", inner, propertyKey(p.Key), opt, typeText(p.Type, inner))
	}
	sb.WriteString(indent + "}")
	return sb.String()
}

func propertyKey(key string) string {
	if schema.IsIdentifier(key) {
		return key
	}
	return quoteString(key)
}

// quoteString renders a single-quoted string literal.
func quoteString(s string) string {
	var sb strings.Builder
	sb.WriteByte('\'')
	for _, r := range s {
		switch r {
		case '\\':
			sb.WriteString(`\\`)
		case '\'':
			sb.WriteString(`\'`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			sb.WriteRune(r)
		}
	}
	sb.WriteByte('\'')
	return sb.String()
}

func literalText(l typeexpr.Literal) string {
	if l.Type == typeexpr.LiteralString {
		return quoteString(l.Value)
	}
	return l.Value
}

// typeText renders e without its optional marker, which belongs to the
// enclosing property or tuple slot.
func typeText(e *typeexpr.Expr, indent string) string {
	arms := make([]string, 0, 4)
	switch e.Kind {
	case typeexpr.KindLiteralUnion:
		if e.Base != nil {
			arms = append(arms, typeText(e.Base.WithModifiers(false, false), indent))
			if e.Nullable {
				arms = append(arms, "null")
			}
			for _, l := range e.Literals {
				arms = append(arms, literalText(l))
			}
		} else {
			for _, l := range e.Literals {
				arms = append(arms, literalText(l))
			}
			if e.Nullable {
				arms = append(arms, "null")
			}
		}
		return strings.Join(arms, " | ")
	case typeexpr.KindUnion:
		// Nullable members share one trailing null arm.
		nullable := e.Nullable
		for _, m := range e.Members {
			nullable = nullable || m.Nullable
			arms = append(arms, typeText(m.WithModifiers(false, false), indent))
		}
		if nullable {
			arms = append(arms, "null")
		}
		return strings.Join(arms, " | ")
	default:
		arms = append(arms, coreText(e, indent))
	}
	if e.Nullable {
		arms = append(arms, "null")
	}
	return strings.Join(arms, " | ")
}

func coreText(e *typeexpr.Expr, indent string) string {
	switch e.Kind {
	case typeexpr.KindPrimitive:
		return string(e.Primitive)
	case typeexpr.KindRef:
		return e.Name
	case typeexpr.KindObject:
		return objectBody(e, indent)
	case typeexpr.KindArray:
		el := typeText(e.Element, indent)
		if isMultiArm(e.Element) {
			el = "(" + el + ")"
		}
		return el + "[]"
	case typeexpr.KindTuple:
		parts := make([]string, 0, len(e.Elements))
		for _, el := range e.Elements {
			t := typeText(el, indent)
			if el.Optional {
				if isMultiArm(el) {
					t = "(" + t + ")"
				}
				t += "?"
			}
			parts = append(parts, t)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	}
	return "any"
}

// isMultiArm reports whether e renders as a top-level union.
func isMultiArm(e *typeexpr.Expr) bool {
	n := 0
	switch e.Kind {
	case typeexpr.KindLiteralUnion:
		n = len(e.Literals)
		if e.Base != nil {
			n++
		}
	case typeexpr.KindUnion:
		n = len(e.Members)
		if n == 1 {
			return isMultiArm(e.Members[0]) || e.Nullable
		}
		for _, m := range e.Members {
			if m.Nullable {
				n++
				break
			}
		}
	default:
		n = 1
	}
	if e.Nullable {
		n++
	}
	return n > 1
}
