package synth

import (
	"go/parser"
	"go/token"
	"strings"
	"testing"

	"appforge/internal/schema"
)

func bookSchema(ops ...string) schema.SchemaDefinition {
	operations := map[string]bool{}
	if len(ops) == 0 {
		ops = schema.AllOperations()
	}
	for _, op := range ops {
		operations[op] = true
	}
	return schema.SchemaDefinition{
		EntityName: "Book",
		Fields: schema.EnsureIDField([]schema.FieldDefinition{
			{Name: "title", Label: "Title", Type: schema.TypeString, Required: true},
			{Name: "page_count", Label: "Page Count", Type: schema.TypeNumber, Required: false},
			{Name: "available", Label: "Available", Type: schema.TypeBoolean, Required: false},
			{Name: "summary", Label: "Summary", Type: schema.TypeText, Required: false},
		}),
		Operations: operations,
	}
}

func TestBuildAPIArtifactRoutes(t *testing.T) {
	code := buildAPIArtifact(bookSchema())

	for _, want := range []string{
		`r.POST("/book/"`,
		`r.GET("/book/"`,
		`r.GET("/book/:id"`,
		`r.PUT("/book/:id"`,
		`r.DELETE("/book/:id"`,
		"registerBookRoutes(r, db)",
	} {
		if !strings.Contains(code, want) {
			t.Errorf("api artifact missing %q", want)
		}
	}
}

func TestBuildAPIArtifactTypedParams(t *testing.T) {
	code := buildAPIArtifact(bookSchema())

	for _, want := range []string{
		`title := c.PostForm("title")`,
		`c.JSON(http.StatusBadRequest, gin.H{"error": "title is required"})`,
		`page_count, _ := strconv.Atoi(c.PostForm("page_count"))`,
		`available := c.PostForm("available") == "on" || c.PostForm("available") == "true"`,
	} {
		if !strings.Contains(code, want) {
			t.Errorf("api artifact missing %q", want)
		}
	}
	if strings.Contains(code, `c.PostForm("id")`) {
		t.Error("api artifact reads an id form param")
	}
}

func TestBuildAPIArtifactTransactionsAnd404(t *testing.T) {
	code := buildAPIArtifact(bookSchema())

	if !strings.Contains(code, "db.Begin()") || !strings.Contains(code, "tx.Commit()") || !strings.Contains(code, "tx.Rollback()") {
		t.Error("mutations are not transaction-wrapped")
	}
	if !strings.Contains(code, `c.JSON(http.StatusNotFound, gin.H{"error": "not found"})`) {
		t.Error("missing 404 path for absent records")
	}
	if !strings.Contains(code, `INSERT INTO book (title, page_count, available, summary) VALUES (?, ?, ?, ?)`) {
		t.Error("insert statement does not cover all data columns")
	}
}

func TestBuildAPIArtifactHonorsOperations(t *testing.T) {
	code := buildAPIArtifact(bookSchema(schema.OpCreate, schema.OpRead))

	if strings.Contains(code, "r.PUT(") {
		t.Error("update handler emitted although update is disabled")
	}
	if strings.Contains(code, "r.DELETE(") {
		t.Error("delete handler emitted although delete is disabled")
	}
	if !strings.Contains(code, "r.POST(") || !strings.Contains(code, "r.GET(") {
		t.Error("enabled handlers missing")
	}
}

func TestBuildAPIArtifactIDOnlySchema(t *testing.T) {
	def := schema.SchemaDefinition{
		EntityName: "Entity",
		Fields:     schema.EnsureIDField(nil),
		Operations: map[string]bool{
			schema.OpCreate: true, schema.OpRead: true, schema.OpUpdate: true, schema.OpDelete: true,
		},
	}
	code := buildAPIArtifact(def)

	if _, err := parser.ParseFile(token.NewFileSet(), "api.go", code, 0); err != nil {
		t.Fatalf("generated api.go does not parse: %v", err)
	}
	if !strings.Contains(code, `INSERT INTO entity DEFAULT VALUES`) {
		t.Error("create handler does not insert default values")
	}
	if strings.Contains(code, "r.PUT(") {
		t.Error("update route emitted although there is nothing to set")
	}
	for _, want := range []string{`r.POST("/entity/"`, `r.GET("/entity/"`, `r.DELETE("/entity/:id"`} {
		if !strings.Contains(code, want) {
			t.Errorf("api artifact missing %q", want)
		}
	}
}

func TestBuildAPIArtifactParses(t *testing.T) {
	for _, def := range []schema.SchemaDefinition{
		bookSchema(),
		bookSchema(schema.OpCreate),
		bookSchema(schema.OpUpdate),
	} {
		code := buildAPIArtifact(def)
		if _, err := parser.ParseFile(token.NewFileSet(), "api.go", code, 0); err != nil {
			t.Errorf("generated api.go does not parse for ops %v: %v", def.Operations, err)
		}
	}
}

func TestBuildAPIArtifactDeterministic(t *testing.T) {
	def := bookSchema()
	if buildAPIArtifact(def) != buildAPIArtifact(def) {
		t.Error("api artifact is not deterministic")
	}
}

func TestBuildIndexHTML(t *testing.T) {
	html := buildIndexHTML(bookSchema())

	for _, want := range []string{
		"<title>Book Manager</title>",
		`<input type="text" id="title" name="title" required>`,
		`<input type="number" id="page_count" name="page_count">`,
		`<input type="checkbox" id="available" name="available">`,
		`<textarea id="summary" name="summary"></textarea>`,
		`id="error-banner"`,
		"confirm('Delete this item?')",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("ui artifact missing %q", want)
		}
	}
	if strings.Contains(html, `name="id"`) {
		t.Error("create form exposes an id input")
	}

	idCol := strings.Index(html, "<th>ID</th>")
	titleCol := strings.Index(html, "<th>Title</th>")
	if idCol == -1 || titleCol == -1 || idCol > titleCol {
		t.Errorf("id column is not first: id at %d, title at %d", idCol, titleCol)
	}
}

func TestBuildIndexHTMLWithoutDelete(t *testing.T) {
	html := buildIndexHTML(bookSchema(schema.OpCreate, schema.OpRead))
	if strings.Contains(html, "confirm(") {
		t.Error("delete control emitted although delete is disabled")
	}
}

func TestBuildGoMod(t *testing.T) {
	mod := buildGoMod(bookSchema())
	for _, want := range []string{"module bookapp", "github.com/gin-gonic/gin", "modernc.org/sqlite"} {
		if !strings.Contains(mod, want) {
			t.Errorf("manifest missing %q", want)
		}
	}
}

func TestBuildReadmeListsEndpoints(t *testing.T) {
	readme := buildReadme(bookSchema())
	for _, want := range []string{"# Book Application", "POST /book/", "PUT /book/:id", "DELETE /book/:id"} {
		if !strings.Contains(readme, want) {
			t.Errorf("readme missing %q", want)
		}
	}
}

func TestDeployInstructions(t *testing.T) {
	inst := DeployInstructions("abc12345", "Book")
	for _, target := range []string{"railway", "render", "docker"} {
		if inst[target] == "" {
			t.Errorf("missing %s instructions", target)
		}
	}
	if !strings.Contains(inst["docker"], "docker build -t book-app .") {
		t.Errorf("docker image tag not lowercased: %q", inst["docker"])
	}
	if !strings.Contains(inst["railway"], "generated/abc12345") {
		t.Errorf("railway instructions missing project dir: %q", inst["railway"])
	}
}

func TestSanitizeModelCode(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"fenced", "```go\npackage main\n\ntype Book struct{}\n```", "package main\n\ntype Book struct{}\n"},
		{"bare", "package main\n\ntype Book struct{}", "package main\n\ntype Book struct{}\n"},
		{"missing package clause", "type Book struct{}", "package main\n\ntype Book struct{}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitizeModelCode(tt.in); got != tt.want {
				t.Errorf("sanitizeModelCode = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildModelPromptPinsContract(t *testing.T) {
	prompt := buildModelPrompt(bookSchema())
	for _, want := range []string{"type Book struct", "CREATE TABLE IF NOT EXISTS book", "VARCHAR(255)", "INTEGER", "BOOLEAN", "TEXT", "PageCount"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("model prompt missing %q", want)
		}
	}
}
