// Package naming converts between the identifier conventions used across
// generated artifacts: free text, PascalCase entity names, snake_case
// identifiers and Title Case labels. Conversion is best-effort and never
// fails; input it cannot normalize is passed through unchanged, since the
// output feeds generated source and must not abort the pipeline.
package naming

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// capitalize uppercases the first rune. Safe for multi-byte leading runes.
func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError && size <= 1 {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// ToPascalCase converts free text or a snake_case identifier to PascalCase.
// Words are split on whitespace, underscores and hyphens.
func ToPascalCase(s string) string {
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == '_' || r == '-' || unicode.IsSpace(r)
	})
	if len(parts) == 0 {
		return s
	}
	var b strings.Builder
	for _, p := range parts {
		b.WriteString(capitalize(p))
	}
	return b.String()
}

// ToSnakeCase converts PascalCase or mixed-case input to snake_case by
// inserting an underscore before each interior uppercase letter and
// lowercasing the result. Idempotent: snake_case input comes back unchanged.
func ToSnakeCase(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 4)
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ToTitleCase converts a snake_case identifier to a "Title Case" display
// label.
func ToTitleCase(s string) string {
	parts := strings.Split(s, "_")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		out = append(out, capitalize(p))
	}
	if len(out) == 0 {
		return s
	}
	return strings.Join(out, " ")
}
