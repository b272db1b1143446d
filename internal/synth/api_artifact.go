package synth

import (
	"fmt"
	"strings"

	"appforge/internal/naming"
	"appforge/internal/schema"
)

// goKeywords guards generated local variable names against the few column
// names that are also Go keywords.
var goKeywords = map[string]bool{
	"break": true, "case": true, "chan": true, "const": true, "continue": true,
	"default": true, "defer": true, "else": true, "fallthrough": true,
	"for": true, "func": true, "go": true, "goto": true, "if": true,
	"import": true, "interface": true, "map": true, "package": true,
	"range": true, "return": true, "select": true, "struct": true,
	"switch": true, "type": true, "var": true,
}

func localName(column string) string {
	if goKeywords[column] {
		return column + "_"
	}
	return column
}

// buildAPIArtifact composes the generated project's api.go from per-handler
// builder functions. No model call is involved: the output is a pure function
// of the schema, so re-synthesis is deterministic.
func buildAPIArtifact(def schema.SchemaDefinition) string {
	entity := def.EntityName
	route := naming.ToSnakeCase(entity)
	data := def.DataFields()

	var handlers strings.Builder
	if def.OperationEnabled(schema.OpCreate) {
		handlers.WriteString(buildCreateHandler(def, route))
	}
	if def.OperationEnabled(schema.OpRead) {
		handlers.WriteString(buildListHandler(def, route))
		handlers.WriteString(buildGetHandler(def, route))
	}
	if def.OperationEnabled(schema.OpUpdate) && len(data) > 0 {
		// an id-only schema has nothing to set, so no update route
		handlers.WriteString(buildUpdateHandler(def, route))
	}
	if def.OperationEnabled(schema.OpDelete) {
		handlers.WriteString(buildDeleteHandler(def, route))
	}

	var b strings.Builder
	b.WriteString("package main\n\n")
	b.WriteString("import (\n")
	b.WriteString("\t\"database/sql\"\n")
	b.WriteString("\t\"log\"\n")
	b.WriteString("\t\"net/http\"\n")
	if needsStrconv(def, data) {
		b.WriteString("\t\"strconv\"\n")
	}
	b.WriteString("\n\t\"github.com/gin-gonic/gin\"\n")
	b.WriteString("\t_ \"modernc.org/sqlite\"\n")
	b.WriteString(")\n\n")

	b.WriteString("func main() {\n")
	b.WriteString("\tdb, err := sql.Open(\"sqlite\", \"app.db\")\n")
	b.WriteString("\tif err != nil {\n\t\tlog.Fatal(err)\n\t}\n")
	b.WriteString("\tif _, err := db.Exec(createTableSQL); err != nil {\n\t\tlog.Fatal(err)\n\t}\n\n")
	b.WriteString("\tr := gin.Default()\n")
	b.WriteString("\tr.LoadHTMLGlob(\"templates/*\")\n")
	fmt.Fprintf(&b, "\tr.GET(\"/\", func(c *gin.Context) {\n\t\tc.HTML(http.StatusOK, \"index.html\", gin.H{\"title\": %q})\n\t})\n", entity)
	fmt.Fprintf(&b, "\tregister%sRoutes(r, db)\n\n", entity)
	b.WriteString("\tlog.Fatal(r.Run(\":8000\"))\n")
	b.WriteString("}\n\n")

	fmt.Fprintf(&b, "func register%sRoutes(r *gin.Engine, db *sql.DB) {\n", entity)
	b.WriteString(handlers.String())
	b.WriteString("}\n")
	return b.String()
}

func needsStrconv(def schema.SchemaDefinition, data []schema.FieldDefinition) bool {
	if def.OperationEnabled(schema.OpRead) || def.OperationEnabled(schema.OpDelete) {
		return true
	}
	if def.OperationEnabled(schema.OpUpdate) && len(data) > 0 {
		return true
	}
	if def.OperationEnabled(schema.OpCreate) {
		for _, f := range data {
			if m, _ := schema.MapType(f.Type); m.Go == "int" {
				return true
			}
		}
	}
	return false
}

// formParamLines emits typed parsing of one form parameter per data field.
// Required string-like fields reject empty values; required numbers reject
// unparseable values; checkboxes accept "on" and "true".
func formParamLines(data []schema.FieldDefinition, indent string) string {
	var b strings.Builder
	for _, f := range data {
		mapping, _ := schema.MapType(f.Type)
		local := localName(f.Name)
		switch mapping.Go {
		case "int":
			if f.Required {
				fmt.Fprintf(&b, "%s%s, err := strconv.Atoi(c.PostForm(%q))\n", indent, local, f.Name)
				fmt.Fprintf(&b, "%sif err != nil {\n", indent)
				fmt.Fprintf(&b, "%s\tc.JSON(http.StatusBadRequest, gin.H{\"error\": \"%s must be a number\"})\n", indent, f.Name)
				fmt.Fprintf(&b, "%s\treturn\n%s}\n", indent, indent)
			} else {
				fmt.Fprintf(&b, "%s%s, _ := strconv.Atoi(c.PostForm(%q))\n", indent, local, f.Name)
			}
		case "bool":
			fmt.Fprintf(&b, "%s%s := c.PostForm(%q) == \"on\" || c.PostForm(%q) == \"true\"\n", indent, local, f.Name, f.Name)
		default:
			fmt.Fprintf(&b, "%s%s := c.PostForm(%q)\n", indent, local, f.Name)
			if f.Required {
				fmt.Fprintf(&b, "%sif %s == \"\" {\n", indent, local)
				fmt.Fprintf(&b, "%s\tc.JSON(http.StatusBadRequest, gin.H{\"error\": \"%s is required\"})\n", indent, f.Name)
				fmt.Fprintf(&b, "%s\treturn\n%s}\n", indent, indent)
			}
		}
	}
	return b.String()
}

func columnList(data []schema.FieldDefinition) string {
	names := make([]string, len(data))
	for i, f := range data {
		names[i] = f.Name
	}
	return strings.Join(names, ", ")
}

func placeholderList(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func localList(data []schema.FieldDefinition) string {
	names := make([]string, len(data))
	for i, f := range data {
		names[i] = localName(f.Name)
	}
	return strings.Join(names, ", ")
}

func scanArgs(def schema.SchemaDefinition) string {
	args := make([]string, len(def.Fields))
	for i, f := range def.Fields {
		args[i] = "&item." + naming.ToPascalCase(f.Name)
	}
	return strings.Join(args, ", ")
}

func selectColumns(def schema.SchemaDefinition) string {
	names := make([]string, len(def.Fields))
	for i, f := range def.Fields {
		names[i] = f.Name
	}
	return strings.Join(names, ", ")
}

func buildCreateHandler(def schema.SchemaDefinition, route string) string {
	data := def.DataFields()
	table := naming.ToSnakeCase(def.EntityName)

	var b strings.Builder
	fmt.Fprintf(&b, "\tr.POST(\"/%s/\", func(c *gin.Context) {\n", route)
	b.WriteString(formParamLines(data, "\t\t"))
	b.WriteString("\n\t\ttx, err := db.Begin()\n")
	b.WriteString("\t\tif err != nil {\n\t\t\tc.JSON(http.StatusBadRequest, gin.H{\"error\": err.Error()})\n\t\t\treturn\n\t\t}\n")
	if len(data) == 0 {
		fmt.Fprintf(&b, "\t\tres, err := tx.Exec(\"INSERT INTO %s DEFAULT VALUES\")\n", table)
	} else {
		fmt.Fprintf(&b, "\t\tres, err := tx.Exec(\"INSERT INTO %s (%s) VALUES (%s)\", %s)\n",
			table, columnList(data), placeholderList(len(data)), localList(data))
	}
	b.WriteString("\t\tif err != nil {\n\t\t\ttx.Rollback()\n\t\t\tc.JSON(http.StatusBadRequest, gin.H{\"error\": err.Error()})\n\t\t\treturn\n\t\t}\n")
	b.WriteString("\t\tid, _ := res.LastInsertId()\n")
	b.WriteString("\t\tif err := tx.Commit(); err != nil {\n\t\t\tc.JSON(http.StatusBadRequest, gin.H{\"error\": err.Error()})\n\t\t\treturn\n\t\t}\n")
	b.WriteString("\t\tc.JSON(http.StatusCreated, gin.H{\"id\": id})\n")
	b.WriteString("\t})\n\n")
	return b.String()
}

func buildListHandler(def schema.SchemaDefinition, route string) string {
	table := naming.ToSnakeCase(def.EntityName)

	var b strings.Builder
	fmt.Fprintf(&b, "\tr.GET(\"/%s/\", func(c *gin.Context) {\n", route)
	fmt.Fprintf(&b, "\t\trows, err := db.Query(\"SELECT %s FROM %s ORDER BY id\")\n", selectColumns(def), table)
	b.WriteString("\t\tif err != nil {\n\t\t\tc.JSON(http.StatusInternalServerError, gin.H{\"error\": err.Error()})\n\t\t\treturn\n\t\t}\n")
	b.WriteString("\t\tdefer rows.Close()\n\n")
	fmt.Fprintf(&b, "\t\titems := []%s{}\n", def.EntityName)
	b.WriteString("\t\tfor rows.Next() {\n")
	fmt.Fprintf(&b, "\t\t\tvar item %s\n", def.EntityName)
	fmt.Fprintf(&b, "\t\t\tif err := rows.Scan(%s); err != nil {\n", scanArgs(def))
	b.WriteString("\t\t\t\tc.JSON(http.StatusInternalServerError, gin.H{\"error\": err.Error()})\n\t\t\t\treturn\n\t\t\t}\n")
	b.WriteString("\t\t\titems = append(items, item)\n")
	b.WriteString("\t\t}\n")
	b.WriteString("\t\tc.JSON(http.StatusOK, items)\n")
	b.WriteString("\t})\n\n")
	return b.String()
}

func buildGetHandler(def schema.SchemaDefinition, route string) string {
	table := naming.ToSnakeCase(def.EntityName)

	var b strings.Builder
	fmt.Fprintf(&b, "\tr.GET(\"/%s/:id\", func(c *gin.Context) {\n", route)
	b.WriteString(idParseLines())
	fmt.Fprintf(&b, "\t\tvar item %s\n", def.EntityName)
	fmt.Fprintf(&b, "\t\terr = db.QueryRow(\"SELECT %s FROM %s WHERE id = ?\", id).Scan(%s)\n",
		selectColumns(def), table, scanArgs(def))
	b.WriteString("\t\tif err == sql.ErrNoRows {\n\t\t\tc.JSON(http.StatusNotFound, gin.H{\"error\": \"not found\"})\n\t\t\treturn\n\t\t}\n")
	b.WriteString("\t\tif err != nil {\n\t\t\tc.JSON(http.StatusInternalServerError, gin.H{\"error\": err.Error()})\n\t\t\treturn\n\t\t}\n")
	b.WriteString("\t\tc.JSON(http.StatusOK, item)\n")
	b.WriteString("\t})\n\n")
	return b.String()
}

func buildUpdateHandler(def schema.SchemaDefinition, route string) string {
	data := def.DataFields()
	table := naming.ToSnakeCase(def.EntityName)

	assigns := make([]string, len(data))
	for i, f := range data {
		assigns[i] = f.Name + " = ?"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\tr.PUT(\"/%s/:id\", func(c *gin.Context) {\n", route)
	b.WriteString(idParseLines())
	b.WriteString(formParamLines(data, "\t\t"))
	b.WriteString("\n\t\ttx, err := db.Begin()\n")
	b.WriteString("\t\tif err != nil {\n\t\t\tc.JSON(http.StatusBadRequest, gin.H{\"error\": err.Error()})\n\t\t\treturn\n\t\t}\n")
	fmt.Fprintf(&b, "\t\tres, err := tx.Exec(\"UPDATE %s SET %s WHERE id = ?\", %s, id)\n",
		table, strings.Join(assigns, ", "), localList(data))
	b.WriteString("\t\tif err != nil {\n\t\t\ttx.Rollback()\n\t\t\tc.JSON(http.StatusBadRequest, gin.H{\"error\": err.Error()})\n\t\t\treturn\n\t\t}\n")
	b.WriteString("\t\tn, _ := res.RowsAffected()\n")
	b.WriteString("\t\tif n == 0 {\n\t\t\ttx.Rollback()\n\t\t\tc.JSON(http.StatusNotFound, gin.H{\"error\": \"not found\"})\n\t\t\treturn\n\t\t}\n")
	b.WriteString("\t\tif err := tx.Commit(); err != nil {\n\t\t\tc.JSON(http.StatusBadRequest, gin.H{\"error\": err.Error()})\n\t\t\treturn\n\t\t}\n")
	b.WriteString("\t\tc.JSON(http.StatusOK, gin.H{\"message\": \"Updated\"})\n")
	b.WriteString("\t})\n\n")
	return b.String()
}

func buildDeleteHandler(def schema.SchemaDefinition, route string) string {
	table := naming.ToSnakeCase(def.EntityName)

	var b strings.Builder
	fmt.Fprintf(&b, "\tr.DELETE(\"/%s/:id\", func(c *gin.Context) {\n", route)
	b.WriteString(idParseLines())
	b.WriteString("\t\ttx, err := db.Begin()\n")
	b.WriteString("\t\tif err != nil {\n\t\t\tc.JSON(http.StatusBadRequest, gin.H{\"error\": err.Error()})\n\t\t\treturn\n\t\t}\n")
	fmt.Fprintf(&b, "\t\tres, err := tx.Exec(\"DELETE FROM %s WHERE id = ?\", id)\n", table)
	b.WriteString("\t\tif err != nil {\n\t\t\ttx.Rollback()\n\t\t\tc.JSON(http.StatusBadRequest, gin.H{\"error\": err.Error()})\n\t\t\treturn\n\t\t}\n")
	b.WriteString("\t\tn, _ := res.RowsAffected()\n")
	b.WriteString("\t\tif n == 0 {\n\t\t\ttx.Rollback()\n\t\t\tc.JSON(http.StatusNotFound, gin.H{\"error\": \"not found\"})\n\t\t\treturn\n\t\t}\n")
	b.WriteString("\t\tif err := tx.Commit(); err != nil {\n\t\t\tc.JSON(http.StatusBadRequest, gin.H{\"error\": err.Error()})\n\t\t\treturn\n\t\t}\n")
	b.WriteString("\t\tc.JSON(http.StatusOK, gin.H{\"message\": \"Deleted\"})\n")
	b.WriteString("\t})\n\n")
	return b.String()
}

func idParseLines() string {
	var b strings.Builder
	b.WriteString("\t\tid, err := strconv.Atoi(c.Param(\"id\"))\n")
	b.WriteString("\t\tif err != nil {\n\t\t\tc.JSON(http.StatusBadRequest, gin.H{\"error\": \"id must be a number\"})\n\t\t\treturn\n\t\t}\n")
	return b.String()
}
