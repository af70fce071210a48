package llm

import (
	"context"

	"scholarbrief/internal/model"
)

// Client defines the interface for completion providers
type Client interface {
	// Name returns the provider name
	Name() string

	// Complete runs one completion request and returns the raw response
	// text. Callers parse and validate; a provider never interprets the
	// payload.
	Complete(ctx context.Context, req Request) (string, error)

	// IsAvailable checks if the provider is properly configured and
	// reachable
	IsAvailable(ctx context.Context) bool
}

// Request is the input for a completion call. Extraction, classification
// and synthesis all request JSON output at low temperature so repeated runs
// stay close to deterministic.
type Request struct {
	// System is the system prompt framing the task
	System string

	// User is the task prompt with the formatted context
	User string

	// Temperature controls sampling randomness; pipeline stages keep this
	// at or below 0.3
	Temperature float64

	// MaxTokens limits the response length (0 = provider default)
	MaxTokens int

	// JSON requests a JSON-object response where the provider supports it
	JSON bool
}

// Config holds completion provider configuration
type Config struct {
	// Provider name: "openai", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for hosted providers
	APIKey string

	// BaseURL for custom endpoints (e.g., a local Ollama)
	BaseURL string

	// Timeout for API requests, in seconds
	Timeout int

	// MaxTokens default for response generation
	MaxTokens int
}

// ConfigFromModel converts model.LLMConfig to llm.Config
func ConfigFromModel(cfg model.LLMConfig) Config {
	return Config{
		Provider:  cfg.Provider,
		Model:     cfg.Model,
		APIKey:    cfg.APIKey,
		BaseURL:   cfg.BaseURL,
		Timeout:   cfg.Timeout,
		MaxTokens: cfg.MaxTokens,
	}
}
