package typeexpr

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/zeebo/xxh3"
)

// Canonical writes a deterministic encoding of e. Two expressions are
// structurally identical exactly when their encodings are equal; member
// documentation is part of the encoding.
func Canonical(e *Expr) string {
	var sb strings.Builder
	writeCanonical(&sb, e)
	return sb.String()
}

func writeCanonical(sb *strings.Builder, e *Expr) {
	if e == nil {
		sb.WriteString("_")
		return
	}
	sb.WriteString(string(e.Kind))
	if e.Optional {
		sb.WriteString("?")
	}
	if e.Nullable {
		sb.WriteString("!n")
	}
	sb.WriteByte('(')
	switch e.Kind {
	case KindPrimitive:
		sb.WriteString(string(e.Primitive))
	case KindRef:
		quote(sb, e.Name)
	case KindLiteralUnion:
		writeCanonical(sb, e.Base)
		for _, l := range e.Literals {
			sb.WriteByte(',')
			sb.WriteString(string(l.Type))
			sb.WriteByte(':')
			quote(sb, l.Value)
		}
	case KindObject:
		for i, p := range e.Properties {
			if i > 0 {
				sb.WriteByte(',')
			}
			quote(sb, p.Key)
			sb.WriteByte(':')
			writeCanonical(sb, p.Type)
			if p.Description != "" || p.Example != "" {
				sb.WriteString("#")
				quote(sb, p.Description)
				quote(sb, p.Example)
			}
		}
	case KindArray:
		writeCanonical(sb, e.Element)
	case KindTuple:
		for i, el := range e.Elements {
			if i > 0 {
				sb.WriteByte(',')
			}
			writeCanonical(sb, el)
		}
	case KindUnion:
		for i, m := range e.Members {
			if i > 0 {
				sb.WriteByte(',')
			}
			writeCanonical(sb, m)
		}
	}
	sb.WriteByte(')')
}

func quote(sb *strings.Builder, s string) {
	sb.WriteString(strconv.Quote(s))
}

// Fingerprint hashes the canonical encoding.
func Fingerprint(e *Expr) string {
	sum := xxh3.Hash128([]byte(Canonical(e)))
	return fmt.Sprintf("%016x%016x", sum.Hi, sum.Lo)
}

// Equal reports structural identity.
func Equal(a, b *Expr) bool {
	return Canonical(a) == Canonical(b)
}
