package schema

import (
	"path"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DeriveTypeName turns a schema file name into a declaration name:
// "user-profile.schema.yaml" -> "UserProfile", "orderSchema.json" -> "Order".
// The result is empty when the stem holds no letters or digits.
func DeriveTypeName(file string) string {
	stem := path.Base(strings.ReplaceAll(file, "\\", "/"))
	if i := strings.IndexByte(stem, '.'); i > 0 {
		stem = stem[:i]
	}

	words := strings.FieldsFunc(stem, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	// Casers keep state; one per call.
	caser := cases.Title(language.Und, cases.NoLower)
	var sb strings.Builder
	for _, w := range words {
		sb.WriteString(caser.String(w))
	}
	name := sb.String()

	if trimmed := strings.TrimSuffix(name, "Schema"); trimmed != "" {
		name = trimmed
	}
	if name != "" && unicode.IsDigit([]rune(name)[0]) {
		name = "T" + name
	}
	return name
}

// IsIdentifier reports whether s can be written as a bare property key or
// type name.
func IsIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || r == '$' || unicode.IsLetter(r):
		case i > 0 && unicode.IsDigit(r):
		default:
			return false
		}
	}
	return true
}
