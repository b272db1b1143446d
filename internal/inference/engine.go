// Package inference turns free-form application descriptions and free-form
// feedback into structured schema definitions by driving a text-generation
// call and defensively parsing its reply. The reply is never fully trusted:
// code fences are stripped, a strict JSON parse is retried on the first
// balanced brace span, and a missing synthetic id field is re-inserted so
// the engine always hands a minimally valid schema downstream.
package inference

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"appforge/internal/llm"
	"appforge/internal/schema"
)

// defaultTemperature matches the service's historical sampling setting for
// schema work.
const defaultTemperature float32 = 0.4

// Engine drives schema inference and refinement.
type Engine struct {
	gen llm.TextGenerator
	log *zap.Logger
}

// NewEngine creates an Engine. A nil logger is replaced with a no-op one.
func NewEngine(gen llm.TextGenerator, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{gen: gen, log: log}
}

// InferRequest carries the inputs of one schema inference.
type InferRequest struct {
	Prompt     string
	EntityName string
	Operations []string
	Model      string
}

// Infer generates an initial schema from a free-form description. Every
// requested operation is enabled on the result; an empty operation list
// enables all of them. Failures surface as one SchemaGenerationError
// carrying the underlying cause; the call is never retried here.
func (e *Engine) Infer(ctx context.Context, req InferRequest) (*schema.SchemaDefinition, error) {
	e.log.Info("inferring schema", zap.String("model", req.Model))

	raw, err := e.gen.Generate(ctx, llm.Request{
		Model:       req.Model,
		User:        buildInferPrompt(req),
		Temperature: llm.Temp(defaultTemperature),
	})
	if err != nil {
		return nil, &SchemaGenerationError{Err: err}
	}

	reply, err := parseSchemaReply(raw)
	if err != nil {
		return nil, &SchemaGenerationError{Err: err}
	}

	fields := schema.EnsureIDField(convertFields(reply.fieldsOrEmpty()))

	entityName := reply.EntityName
	if entityName == "" {
		entityName = req.EntityName
	}
	if entityName == "" {
		entityName = "Entity"
	}

	ops := req.Operations
	if len(ops) == 0 {
		ops = schema.AllOperations()
	}
	operations := make(map[string]bool, len(ops))
	for _, op := range ops {
		operations[op] = true
	}

	def := &schema.SchemaDefinition{
		EntityName: entityName,
		Fields:     fields,
		Operations: operations,
	}
	e.log.Info("schema inferred",
		zap.String("entity", def.EntityName),
		zap.Int("fields", len(def.Fields)))
	return def, nil
}

// Refine produces an updated schema from the current one plus free-form
// feedback. Operations are copied verbatim from the input: refinement never
// changes which operations are enabled. A reply without a fields key is a
// hard parse failure, not a fallback to the previous field list. The
// synthetic-id guarantee is re-applied, so a reply that dropped the id field
// still yields a valid schema.
func (e *Engine) Refine(ctx context.Context, current schema.SchemaDefinition, feedback, model string) (*schema.SchemaDefinition, error) {
	e.log.Info("refining schema",
		zap.String("entity", current.EntityName),
		zap.String("model", model))

	prompt, err := buildRefinePrompt(current, feedback)
	if err != nil {
		return nil, &SchemaRefinementError{Err: err}
	}

	raw, err := e.gen.Generate(ctx, llm.Request{
		Model:       model,
		User:        prompt,
		Temperature: llm.Temp(defaultTemperature),
	})
	if err != nil {
		return nil, &SchemaRefinementError{Err: err}
	}

	reply, err := parseSchemaReply(raw)
	if err != nil {
		return nil, &SchemaRefinementError{Err: err}
	}
	replyFields, err := reply.requireFields()
	if err != nil {
		return nil, &SchemaRefinementError{Err: err}
	}

	entityName := reply.EntityName
	if entityName == "" {
		entityName = current.EntityName
	}

	operations := make(map[string]bool, len(current.Operations))
	for op, enabled := range current.Operations {
		operations[op] = enabled
	}

	def := &schema.SchemaDefinition{
		EntityName: entityName,
		Fields:     schema.EnsureIDField(convertFields(replyFields)),
		Operations: operations,
	}
	e.log.Info("schema refined",
		zap.String("entity", def.EntityName),
		zap.Int("fields", len(def.Fields)))
	return def, nil
}

func convertFields(replies []fieldReply) []schema.FieldDefinition {
	out := make([]schema.FieldDefinition, 0, len(replies))
	for _, f := range replies {
		out = append(out, schema.FieldDefinition{
			Name:         f.Name,
			Label:        f.Label,
			Type:         schema.FieldType(f.Type),
			Required:     f.Required,
			DefaultValue: f.DefaultValue,
		})
	}
	return out
}

func buildInferPrompt(req InferRequest) string {
	hint := req.EntityName
	if hint == "" {
		hint = "auto-detect"
	}

	var b strings.Builder
	b.WriteString("Analyze this application description and identify the main entity, its fields, and data types.\n\n")
	fmt.Fprintf(&b, "User description: %s\n", req.Prompt)
	fmt.Fprintf(&b, "Entity name hint: %s\n\n", hint)
	b.WriteString(`Return a JSON object with:
- entityName: string (singular, PascalCase)
- fields: array of objects with name (snake_case), label (Title Case), type (string/number/boolean/date/email/text), required (boolean)

Example:
{
  "entityName": "Book",
  "fields": [
    {"name": "title", "label": "Title", "type": "string", "required": true},
    {"name": "author", "label": "Author", "type": "string", "required": true},
    {"name": "publication_year", "label": "Publication Year", "type": "number", "required": false}
  ]
}

Return ONLY valid JSON, no markdown or explanations.`)
	return b.String()
}

func buildRefinePrompt(current schema.SchemaDefinition, feedback string) (string, error) {
	type promptField struct {
		Name         string  `json:"name"`
		Label        string  `json:"label"`
		Type         string  `json:"type"`
		Required     bool    `json:"required"`
		DefaultValue *string `json:"defaultValue"`
	}
	fields := make([]promptField, 0, len(current.Fields))
	for _, f := range current.Fields {
		fields = append(fields, promptField{
			Name:         f.Name,
			Label:        f.Label,
			Type:         string(f.Type),
			Required:     f.Required,
			DefaultValue: f.DefaultValue,
		})
	}
	fieldsJSON, err := json.MarshalIndent(fields, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to serialize current fields: %w", err)
	}

	var b strings.Builder
	b.WriteString("Modify this database schema based on user feedback.\n\n")
	b.WriteString("Current schema:\n")
	fmt.Fprintf(&b, "Entity: %s\n", current.EntityName)
	fmt.Fprintf(&b, "Fields: %s\n\n", fieldsJSON)
	fmt.Fprintf(&b, "User feedback: %s\n\n", feedback)
	b.WriteString(`Return the updated schema as JSON with the same structure:
{
  "entityName": "...",
  "fields": [...]
}

Apply the requested changes while maintaining data integrity.
Return ONLY valid JSON, no markdown or explanations.`)
	return b.String(), nil
}
