// Package llm provides the outbound text-generation call behind a single
// narrow interface so the schema engines can be tested against deterministic
// stubs. Clients exist for OpenAI-compatible APIs, Anthropic, and Google
// Gemini; a router picks the client from the requested model identifier.
package llm

import (
	"context"
	"time"
)

// Request is one text-generation call. Temperature is optional: some model
// identifiers reject the parameter entirely, and clients retry without it
// rather than failing the call.
type Request struct {
	Model       string
	System      string
	User        string
	Temperature *float32
}

// TextGenerator is the single outbound dependency of the schema inference,
// refinement, and synthesis engines.
type TextGenerator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// GeneratorFunc adapts a plain function to the TextGenerator interface.
type GeneratorFunc func(ctx context.Context, req Request) (string, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

// Temp returns a pointer to the given temperature, for building requests.
func Temp(t float32) *float32 {
	return &t
}

const (
	defaultTimeout   = 120 * time.Second
	defaultMaxTokens = 4096
)

// DefaultSystemPrompt is used when a request carries no system instruction.
const DefaultSystemPrompt = "You are an expert database and application architect. Return structured, valid responses."
