package synth

import (
	"fmt"
	"strings"

	"appforge/internal/naming"
	"appforge/internal/schema"
)

// buildModelPrompt asks the model for the generated project's model.go. The
// prompt pins down package, struct and column names exactly, because the
// deterministic api.go artifact compiles against them.
func buildModelPrompt(def schema.SchemaDefinition) string {
	var fields strings.Builder
	for _, f := range def.Fields {
		mapping, _ := schema.MapType(f.Type)
		fmt.Fprintf(&fields, "- column %q, Go field %s %s, storage type %s, required=%t\n",
			f.Name, naming.ToPascalCase(f.Name), mapping.Go, mapping.Storage, f.Required)
	}

	var b strings.Builder
	b.WriteString("Write valid Go code for the data model of a small CRUD application.\n\n")
	fmt.Fprintf(&b, "Entity: %s\n", def.EntityName)
	fmt.Fprintf(&b, "Fields:\n%s\n", fields.String())
	fmt.Fprintf(&b, `Requirements:
- Package main, file model.go
- Define type %[1]s struct with exactly the Go field names above, each tagged `+"`json:\"<column>\"`"+`
- Define const createTableSQL with CREATE TABLE IF NOT EXISTS %[2]s, one column per field
  using the storage types above, id INTEGER PRIMARY KEY AUTOINCREMENT, NOT NULL per required
- No other declarations, no init function, no imports unless needed

Return ONLY the Go code, no markdown.`, def.EntityName, naming.ToSnakeCase(def.EntityName))
	return b.String()
}

// sanitizeModelCode strips a markdown code fence from a model reply and
// guarantees a package clause. The reply is otherwise taken as-is.
func sanitizeModelCode(raw string) string {
	code := extractGoCode(raw)
	if !strings.HasPrefix(code, "package ") {
		code = "package main\n\n" + code
	}
	if !strings.HasSuffix(code, "\n") {
		code += "\n"
	}
	return code
}

// extractGoCode extracts a fenced code block from a markdown-style reply,
// falling back to the whole trimmed text when no fence is present.
func extractGoCode(text string) string {
	patterns := []string{"```go\n", "```go\r\n", "```\n"}
	for _, pattern := range patterns {
		if idx := strings.Index(text, pattern); idx != -1 {
			start := idx + len(pattern)
			end := strings.Index(text[start:], "```")
			if end != -1 {
				return strings.TrimSpace(text[start : start+end])
			}
		}
	}
	return strings.TrimSpace(text)
}
