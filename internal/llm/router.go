package llm

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"
)

// Router implements TextGenerator by dispatching each request to a provider
// client based on the requested model identifier, the way the original
// service let every request name its own model. Providers without a
// configured credential are left nil and produce an error only when a
// request actually routes to them.
type Router struct {
	openai    TextGenerator
	anthropic TextGenerator
	gemini    TextGenerator
}

// RouterConfig carries the per-provider credentials. A zero Timeout keeps
// the default per-call timeout.
type RouterConfig struct {
	OpenAIKey     string
	OpenAIBaseURL string
	AnthropicKey  string
	GeminiKey     string
	Timeout       time.Duration
}

// NewRouter builds a Router from the given credentials.
func NewRouter(cfg RouterConfig) (*Router, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	r := &Router{}
	if cfg.OpenAIKey != "" {
		oc := DefaultOpenAIConfig(cfg.OpenAIKey)
		oc.Timeout = timeout
		if cfg.OpenAIBaseURL != "" {
			oc.BaseURL = cfg.OpenAIBaseURL
		}
		r.openai = NewOpenAIClientWithConfig(oc)
	}
	if cfg.AnthropicKey != "" {
		ac := DefaultAnthropicConfig(cfg.AnthropicKey)
		ac.Timeout = timeout
		r.anthropic = NewAnthropicClientWithConfig(ac)
	}
	if cfg.GeminiKey != "" {
		gemini, err := NewGeminiClientWithConfig(GeminiConfig{APIKey: cfg.GeminiKey, Timeout: timeout})
		if err != nil {
			return nil, err
		}
		r.gemini = gemini
	}
	return r, nil
}

// NewRouterFromEnv builds a Router from OPENAI_API_KEY, ANTHROPIC_API_KEY
// and GEMINI_API_KEY. At least one must be set.
func NewRouterFromEnv() (*Router, error) {
	cfg := RouterConfig{
		OpenAIKey:    os.Getenv("OPENAI_API_KEY"),
		AnthropicKey: os.Getenv("ANTHROPIC_API_KEY"),
		GeminiKey:    os.Getenv("GEMINI_API_KEY"),
	}
	if cfg.OpenAIKey == "" && cfg.AnthropicKey == "" && cfg.GeminiKey == "" {
		return nil, fmt.Errorf("no API key found; set one of: OPENAI_API_KEY, ANTHROPIC_API_KEY, GEMINI_API_KEY")
	}
	return NewRouter(cfg)
}

// Generate routes the request by model identifier prefix: claude-* to
// Anthropic, gemini-* to Gemini, everything else to the OpenAI-compatible
// client.
func (r *Router) Generate(ctx context.Context, req Request) (string, error) {
	target, name := r.route(req.Model)
	if target == nil {
		return "", fmt.Errorf("no %s credential configured for model %q", name, req.Model)
	}
	return target.Generate(ctx, req)
}

func (r *Router) route(model string) (TextGenerator, string) {
	lower := strings.ToLower(model)
	switch {
	case strings.HasPrefix(lower, "claude"):
		return r.anthropic, "anthropic"
	case strings.HasPrefix(lower, "gemini"):
		return r.gemini, "gemini"
	default:
		return r.openai, "openai"
	}
}
