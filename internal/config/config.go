// Package config holds the service configuration: defaults, an optional
// YAML file, and environment overrides, applied in that order.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all appforge configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	LLM     LLMConfig     `yaml:"llm"`
	Storage StorageConfig `yaml:"storage"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// LLMConfig configures the outbound text-generation clients.
type LLMConfig struct {
	DefaultModel  string        `yaml:"default_model"`
	OpenAIKey     string        `yaml:"openai_api_key"`
	OpenAIBaseURL string        `yaml:"openai_base_url"`
	AnthropicKey  string        `yaml:"anthropic_api_key"`
	GeminiKey     string        `yaml:"gemini_api_key"`
	Timeout       time.Duration `yaml:"timeout"`
}

// UnmarshalYAML decodes the llm section, accepting timeout values like
// "30s". Absent keys keep their current values so defaults survive partial
// files.
func (c *LLMConfig) UnmarshalYAML(value *yaml.Node) error {
	type llmYAML struct {
		DefaultModel  string `yaml:"default_model"`
		OpenAIKey     string `yaml:"openai_api_key"`
		OpenAIBaseURL string `yaml:"openai_base_url"`
		AnthropicKey  string `yaml:"anthropic_api_key"`
		GeminiKey     string `yaml:"gemini_api_key"`
		Timeout       string `yaml:"timeout"`
	}
	raw := llmYAML{
		DefaultModel:  c.DefaultModel,
		OpenAIKey:     c.OpenAIKey,
		OpenAIBaseURL: c.OpenAIBaseURL,
		AnthropicKey:  c.AnthropicKey,
		GeminiKey:     c.GeminiKey,
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	c.DefaultModel = raw.DefaultModel
	c.OpenAIKey = raw.OpenAIKey
	c.OpenAIBaseURL = raw.OpenAIBaseURL
	c.AnthropicKey = raw.AnthropicKey
	c.GeminiKey = raw.GeminiKey
	if raw.Timeout != "" {
		d, err := time.ParseDuration(raw.Timeout)
		if err != nil {
			return fmt.Errorf("invalid llm timeout %q: %w", raw.Timeout, err)
		}
		c.Timeout = d
	}
	return nil
}

// StorageConfig configures where generated projects and the registry live.
type StorageConfig struct {
	GeneratedDir string `yaml:"generated_dir"`
	RegistryPath string `yaml:"registry_path"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:           ":8080",
			AllowedOrigins: []string{"*"},
		},
		LLM: LLMConfig{
			DefaultModel: "gpt-4o-mini",
			Timeout:      120 * time.Second,
		},
		Storage: StorageConfig{
			GeneratedDir: "generated",
			RegistryPath: "data/projects.db",
		},
	}
}

// Load builds the configuration from defaults, then the YAML file at path if
// it exists, then environment variables. An empty path skips the file stage.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

// applyEnv overrides fields from the environment. Provider keys use the
// conventional variable names; everything else is FORGE_-prefixed.
func (c *Config) applyEnv() {
	setString(&c.Server.Addr, "FORGE_ADDR")
	if v := os.Getenv("FORGE_ALLOWED_ORIGINS"); v != "" {
		c.Server.AllowedOrigins = splitList(v)
	}
	setString(&c.LLM.DefaultModel, "FORGE_DEFAULT_MODEL")
	setString(&c.LLM.OpenAIKey, "OPENAI_API_KEY")
	setString(&c.LLM.OpenAIBaseURL, "OPENAI_BASE_URL")
	setString(&c.LLM.AnthropicKey, "ANTHROPIC_API_KEY")
	setString(&c.LLM.GeminiKey, "GEMINI_API_KEY")
	setString(&c.Storage.GeneratedDir, "FORGE_GENERATED_DIR")
	setString(&c.Storage.RegistryPath, "FORGE_REGISTRY_PATH")
	if v := os.Getenv("FORGE_LLM_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.LLM.Timeout = d
		}
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
