// Package synth turns a schema definition into a complete runnable project:
// an LLM-generated data model plus deterministically composed API, UI,
// manifest and README artifacts, persisted through the artifact store and
// registered in the project registry.
package synth

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"appforge/internal/artifact"
	"appforge/internal/llm"
	"appforge/internal/registry"
	"appforge/internal/schema"
)

const (
	previewLimit      = 500
	fieldCountWarnAt  = 10
	manyFieldsWarning = "Large number of fields may impact performance"
	modelTemperature  = 0.2
	statusGenerated   = "generated"
)

// Result reports one synthesis. Immutable once returned.
type Result struct {
	Success        bool              `json:"success"`
	Errors         []string          `json:"errors"`
	Warnings       []string          `json:"warnings"`
	GeneratedFiles map[string]string `json:"generatedFiles"`
	CodePreview    map[string]string `json:"codePreview"`
	ProjectID      string            `json:"projectId"`
}

// Options tunes one synthesis run.
type Options struct {
	Model string
	// ProjectID forces a specific project ID; empty means a fresh one.
	// Re-synthesizing under the same ID overwrites the previous artifacts.
	ProjectID string
}

// Synthesizer generates applications from schemas.
type Synthesizer struct {
	gen   llm.TextGenerator
	store *artifact.Store
	reg   *registry.Registry
	log   *zap.Logger
}

// NewSynthesizer wires a Synthesizer. A nil logger is replaced with a no-op
// one.
func NewSynthesizer(gen llm.TextGenerator, store *artifact.Store, reg *registry.Registry, log *zap.Logger) *Synthesizer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Synthesizer{gen: gen, store: store, reg: reg, log: log}
}

// Synthesize generates all project artifacts for the schema. The model.go
// artifact needs one text-generation call; everything else is a pure function
// of the schema and is written concurrently. Any failure aborts the whole
// run with a SynthesisError and nothing is registered; the registry upsert
// is the terminal success step.
func (s *Synthesizer) Synthesize(ctx context.Context, def schema.SchemaDefinition, opts Options) (*Result, error) {
	if err := def.Validate(); err != nil {
		return nil, &SynthesisError{Stage: "validate", Err: err}
	}

	projectID := opts.ProjectID
	if projectID == "" {
		projectID = uuid.NewString()[:8]
	}
	s.log.Info("synthesizing application",
		zap.String("project", projectID),
		zap.String("entity", def.EntityName),
		zap.String("model", opts.Model))

	warnings := collectWarnings(def)

	raw, err := s.gen.Generate(ctx, llm.Request{
		Model:       opts.Model,
		User:        buildModelPrompt(def),
		Temperature: llm.Temp(modelTemperature),
	})
	if err != nil {
		return nil, &SynthesisError{ProjectID: projectID, Stage: "model", Err: err}
	}
	modelCode := sanitizeModelCode(raw)

	apiCode := buildAPIArtifact(def)

	artifacts := []struct {
		kind    string
		relPath string
		content string
	}{
		{"model", "model.go", modelCode},
		{"api", "api.go", apiCode},
		{"templates", "templates/index.html", buildIndexHTML(def)},
		{"manifest", "go.mod", buildGoMod(def)},
		{"readme", "README.md", buildReadme(def)},
	}

	var mu sync.Mutex
	files := make(map[string]string, len(artifacts))
	g, _ := errgroup.WithContext(ctx)
	for _, a := range artifacts {
		g.Go(func() error {
			path, err := s.store.WriteArtifact(projectID, a.relPath, []byte(a.content))
			if err != nil {
				return fmt.Errorf("%s artifact: %w", a.kind, err)
			}
			mu.Lock()
			files[a.kind] = path
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, &SynthesisError{ProjectID: projectID, Stage: "write", Err: err}
	}

	schemaJSON, err := json.Marshal(def)
	if err != nil {
		return nil, &SynthesisError{ProjectID: projectID, Stage: "register", Err: err}
	}
	if err := s.reg.Upsert(registry.ProjectRecord{
		ID:         projectID,
		EntityName: def.EntityName,
		Status:     statusGenerated,
		Schema:     string(schemaJSON),
		Path:       s.store.ProjectDir(projectID),
	}); err != nil {
		return nil, &SynthesisError{ProjectID: projectID, Stage: "register", Err: err}
	}

	s.log.Info("application synthesized",
		zap.String("project", projectID),
		zap.Int("warnings", len(warnings)))

	return &Result{
		Success:        true,
		Errors:         []string{},
		Warnings:       warnings,
		GeneratedFiles: files,
		CodePreview: map[string]string{
			"model": truncate(modelCode, previewLimit),
			"api":   truncate(apiCode, previewLimit),
		},
		ProjectID: projectID,
	}, nil
}

func collectWarnings(def schema.SchemaDefinition) []string {
	warnings := []string{}
	if len(def.Fields) > fieldCountWarnAt {
		warnings = append(warnings, manyFieldsWarning)
	}
	for _, f := range def.Fields {
		if _, known := schema.MapType(f.Type); !known {
			warnings = append(warnings,
				fmt.Sprintf("unknown type %q on field %q, using string", f.Type, f.Name))
		}
	}
	return warnings
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
