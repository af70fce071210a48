package llm

import (
	"fmt"
	"strings"
)

// NewClient creates a completion client based on configuration
func NewClient(config Config) (Client, error) {
	switch strings.ToLower(config.Provider) {
	case "openai":
		return NewOpenAIClient(config)

	case "ollama":
		return NewOllamaClient(config)

	case "":
		// No provider configured; pipeline stages run their rule-based
		// fallbacks.
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: openai, ollama)", config.Provider)
	}
}
