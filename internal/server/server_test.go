package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"appforge/internal/artifact"
	"appforge/internal/inference"
	"appforge/internal/llm"
	"appforge/internal/registry"
	"appforge/internal/schema"
	"appforge/internal/synth"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const schemaReply = `{"entityName":"Book","fields":[
	{"name":"title","label":"Title","type":"string","required":true},
	{"name":"author","label":"Author","type":"string","required":true}
]}`

const modelReply = "```go\npackage main\n\ntype Book struct {\n\tId int `json:\"id\"`\n\tTitle string `json:\"title\"`\n\tAuthor string `json:\"author\"`\n}\n\nconst createTableSQL = `CREATE TABLE IF NOT EXISTS book (id INTEGER PRIMARY KEY AUTOINCREMENT, title VARCHAR(255) NOT NULL, author VARCHAR(255) NOT NULL)`\n```"

// replyByPrompt routes stub replies: schema JSON for inference prompts, Go
// code for model artifact prompts.
func replyByPrompt() llm.TextGenerator {
	return llm.GeneratorFunc(func(ctx context.Context, req llm.Request) (string, error) {
		if strings.Contains(req.User, "Write valid Go code") {
			return modelReply, nil
		}
		return schemaReply, nil
	})
}

func newTestServer(t *testing.T, gen llm.TextGenerator) *Server {
	t.Helper()
	dir := t.TempDir()
	store, err := artifact.NewStore(filepath.Join(dir, "generated"))
	require.NoError(t, err)
	reg, err := registry.Open(filepath.Join(dir, "projects.db"))
	require.NoError(t, err)
	t.Cleanup(func() { reg.Close() })

	engine := inference.NewEngine(gen, nil)
	synthesizer := synth.NewSynthesizer(gen, store, reg, nil)
	return New(engine, synthesizer, store, reg, nil, Options{DefaultModel: "gpt-4o-mini"})
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	r := newTestServer(t, replyByPrompt()).Router()
	w := doJSON(t, r, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"status":"healthy"}`, w.Body.String())
}

func TestGenerateSchema(t *testing.T) {
	r := newTestServer(t, replyByPrompt()).Router()
	w := doJSON(t, r, http.MethodPost, "/api/generate-schema", gin.H{
		"prompt": "an app to track my books",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var def schema.SchemaDefinition
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &def))
	require.Equal(t, "Book", def.EntityName)
	require.Len(t, def.Fields, 3)
	require.Equal(t, schema.IDFieldName, def.Fields[0].Name)
	for _, op := range schema.AllOperations() {
		require.True(t, def.Operations[op])
	}
}

func TestGenerateSchemaMissingPrompt(t *testing.T) {
	r := newTestServer(t, replyByPrompt()).Router()
	w := doJSON(t, r, http.MethodPost, "/api/generate-schema", gin.H{})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGenerateSchemaFailure(t *testing.T) {
	gen := llm.GeneratorFunc(func(ctx context.Context, req llm.Request) (string, error) {
		return "", errors.New("provider down")
	})
	r := newTestServer(t, gen).Router()
	w := doJSON(t, r, http.MethodPost, "/api/generate-schema", gin.H{"prompt": "x"})
	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.Contains(t, w.Body.String(), "provider down")
}

func TestRefineSchemaPreservesOperations(t *testing.T) {
	r := newTestServer(t, replyByPrompt()).Router()

	current := schema.SchemaDefinition{
		EntityName: "Book",
		Fields: schema.EnsureIDField([]schema.FieldDefinition{
			{Name: "title", Label: "Title", Type: schema.TypeString, Required: true},
		}),
		Operations: map[string]bool{schema.OpCreate: true, schema.OpRead: true},
	}
	w := doJSON(t, r, http.MethodPost, "/api/refine-schema", gin.H{
		"currentSchema": current,
		"feedback":      "add an author field",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var def schema.SchemaDefinition
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &def))
	require.Equal(t, current.Operations, def.Operations)
	require.Equal(t, schema.IDFieldName, def.Fields[0].Name)
}

func TestGenerateAppAndProjectLifecycle(t *testing.T) {
	srv := newTestServer(t, replyByPrompt())
	r := srv.Router()

	def := schema.SchemaDefinition{
		EntityName: "Book",
		Fields: schema.EnsureIDField([]schema.FieldDefinition{
			{Name: "title", Label: "Title", Type: schema.TypeString, Required: true},
		}),
		Operations: map[string]bool{
			schema.OpCreate: true, schema.OpRead: true, schema.OpUpdate: true, schema.OpDelete: true,
		},
	}

	w := doJSON(t, r, http.MethodPost, "/api/generate-app", gin.H{"schema": def})
	require.Equal(t, http.StatusOK, w.Code)

	var res synth.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	require.True(t, res.Success)
	require.Len(t, res.ProjectID, 8)

	w = doJSON(t, r, http.MethodGet, "/api/projects", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), res.ProjectID)

	w = doJSON(t, r, http.MethodGet, "/api/projects/"+res.ProjectID+"/files", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "model.go")

	w = doJSON(t, r, http.MethodGet, "/api/projects/"+res.ProjectID+"/files/api.go", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "registerBookRoutes")

	w = doJSON(t, r, http.MethodGet, "/api/projects/"+res.ProjectID+"/download", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Header().Get("Content-Disposition"), res.ProjectID+".zip")

	w = doJSON(t, r, http.MethodPost, "/api/projects/"+res.ProjectID+"/deploy", nil)
	require.Equal(t, http.StatusOK, w.Code)
	for _, target := range []string{"railway", "render", "docker"} {
		require.Contains(t, w.Body.String(), target)
	}
}

func TestProjectNotFound(t *testing.T) {
	r := newTestServer(t, replyByPrompt()).Router()

	for _, path := range []string{
		"/api/projects/missing0/files",
		"/api/projects/missing0/files/model.go",
		"/api/projects/missing0/download",
	} {
		w := doJSON(t, r, http.MethodGet, path, nil)
		require.Equal(t, http.StatusNotFound, w.Code, "path %s", path)
	}
	w := doJSON(t, r, http.MethodPost, "/api/projects/missing0/deploy", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestListProjectsEmpty(t *testing.T) {
	r := newTestServer(t, replyByPrompt()).Router()
	w := doJSON(t, r, http.MethodGet, "/api/projects", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"projects":[]}`, w.Body.String())
}

func TestCORSPreflight(t *testing.T) {
	r := newTestServer(t, replyByPrompt()).Router()

	req := httptest.NewRequest(http.MethodOptions, "/api/projects", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusNoContent, w.Code)
	require.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
