package synth

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"appforge/internal/artifact"
	"appforge/internal/llm"
	"appforge/internal/registry"
	"appforge/internal/schema"
)

const stubModelReply = "```go\npackage main\n\ntype Book struct {\n\tId int `json:\"id\"`\n\tTitle string `json:\"title\"`\n}\n\nconst createTableSQL = `CREATE TABLE IF NOT EXISTS book (id INTEGER PRIMARY KEY AUTOINCREMENT, title VARCHAR(255) NOT NULL)`\n```"

func newTestSynthesizer(t *testing.T, gen llm.TextGenerator) (*Synthesizer, *artifact.Store, *registry.Registry) {
	t.Helper()
	dir := t.TempDir()
	store, err := artifact.NewStore(filepath.Join(dir, "generated"))
	require.NoError(t, err)
	reg, err := registry.Open(filepath.Join(dir, "projects.db"))
	require.NoError(t, err)
	t.Cleanup(func() { reg.Close() })
	return NewSynthesizer(gen, store, reg, nil), store, reg
}

func stubGenerator(reply string) llm.TextGenerator {
	return llm.GeneratorFunc(func(ctx context.Context, req llm.Request) (string, error) {
		return reply, nil
	})
}

func TestSynthesizeWritesAllArtifacts(t *testing.T) {
	s, store, reg := newTestSynthesizer(t, stubGenerator(stubModelReply))

	res, err := s.Synthesize(context.Background(), bookSchema(), Options{Model: "gpt-4o-mini"})
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Empty(t, res.Errors)
	require.Len(t, res.ProjectID, 8)

	for _, kind := range []string{"model", "api", "templates", "manifest", "readme"} {
		path, ok := res.GeneratedFiles[kind]
		require.True(t, ok, "missing %s in GeneratedFiles", kind)
		_, err := os.Stat(path)
		require.NoError(t, err, "artifact %s not on disk", kind)
	}

	model, err := store.ReadArtifact(res.ProjectID, "model.go")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(model), "package main"))
	require.NotContains(t, string(model), "```")

	rec, err := reg.Get(res.ProjectID)
	require.NoError(t, err)
	require.Equal(t, "Book", rec.EntityName)
	require.Equal(t, "generated", rec.Status)
	require.Contains(t, rec.Schema, `"entityName":"Book"`)
}

func TestSynthesizePreviewsTruncated(t *testing.T) {
	s, _, _ := newTestSynthesizer(t, stubGenerator(stubModelReply))

	res, err := s.Synthesize(context.Background(), bookSchema(), Options{Model: "gpt-4o-mini"})
	require.NoError(t, err)
	require.NotEmpty(t, res.CodePreview["model"])
	require.NotEmpty(t, res.CodePreview["api"])
	require.LessOrEqual(t, len(res.CodePreview["model"]), previewLimit)
	require.LessOrEqual(t, len(res.CodePreview["api"]), previewLimit)
}

func TestSynthesizeWarnsOnManyFields(t *testing.T) {
	def := bookSchema()
	for i := 0; len(def.Fields) <= fieldCountWarnAt; i++ {
		def.Fields = append(def.Fields, schema.FieldDefinition{
			Name:  "extra_" + string(rune('a'+i)),
			Label: "Extra",
			Type:  schema.TypeString,
		})
	}
	def.Fields = schema.EnsureIDField(def.Fields)

	s, _, _ := newTestSynthesizer(t, stubGenerator(stubModelReply))
	res, err := s.Synthesize(context.Background(), def, Options{Model: "gpt-4o-mini"})
	require.NoError(t, err)
	require.True(t, res.Success, "many fields must warn, not fail")
	require.Contains(t, res.Warnings, "Large number of fields may impact performance")
}

func TestSynthesizeWarnsOnUnknownType(t *testing.T) {
	def := bookSchema()
	def.Fields = append(def.Fields, schema.FieldDefinition{Name: "extra", Label: "Extra", Type: "varchar"})
	def.Fields = schema.EnsureIDField(def.Fields)

	s, _, _ := newTestSynthesizer(t, stubGenerator(stubModelReply))
	res, err := s.Synthesize(context.Background(), def, Options{Model: "gpt-4o-mini"})
	require.NoError(t, err)
	require.True(t, res.Success)
	found := false
	for _, w := range res.Warnings {
		if strings.Contains(w, `"varchar"`) {
			found = true
		}
	}
	require.True(t, found, "no warning for unknown type: %v", res.Warnings)
}

func TestSynthesizeModelFailureAbortsAll(t *testing.T) {
	boom := errors.New("provider down")
	gen := llm.GeneratorFunc(func(ctx context.Context, req llm.Request) (string, error) {
		return "", boom
	})
	s, _, reg := newTestSynthesizer(t, gen)

	_, err := s.Synthesize(context.Background(), bookSchema(), Options{Model: "gpt-4o-mini"})
	var serr *SynthesisError
	require.True(t, errors.As(err, &serr), "err = %v", err)
	require.True(t, errors.Is(err, boom))

	records, err := reg.List()
	require.NoError(t, err)
	require.Empty(t, records, "failed synthesis must register nothing")
}

func TestSynthesizeInvalidSchema(t *testing.T) {
	s, _, _ := newTestSynthesizer(t, stubGenerator(stubModelReply))

	def := bookSchema()
	def.Fields = def.Fields[1:]
	_, err := s.Synthesize(context.Background(), def, Options{Model: "gpt-4o-mini"})
	var serr *SynthesisError
	require.True(t, errors.As(err, &serr), "err = %v", err)
}

func TestSynthesizeIdempotentUnderFixedID(t *testing.T) {
	s, store, reg := newTestSynthesizer(t, stubGenerator(stubModelReply))

	first, err := s.Synthesize(context.Background(), bookSchema(), Options{Model: "gpt-4o-mini", ProjectID: "fixed123"})
	require.NoError(t, err)
	second, err := s.Synthesize(context.Background(), bookSchema(), Options{Model: "gpt-4o-mini", ProjectID: "fixed123"})
	require.NoError(t, err)

	require.Equal(t, first.GeneratedFiles, second.GeneratedFiles)
	require.Equal(t, first.CodePreview["api"], second.CodePreview["api"])

	files, err := store.ListArtifacts("fixed123")
	require.NoError(t, err)
	require.Len(t, files, 5)

	records, err := reg.List()
	require.NoError(t, err)
	require.Len(t, records, 1)
}
