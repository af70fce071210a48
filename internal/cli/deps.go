package cli

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"scholarbrief/internal/cache"
	"scholarbrief/internal/embed"
	"scholarbrief/internal/index"
	"scholarbrief/internal/llm"
	"scholarbrief/internal/model"
	"scholarbrief/internal/pipeline"
	"scholarbrief/internal/store"
	"scholarbrief/internal/worker"
)

// loadConfig resolves configuration: defaults, then the config file, then
// environment. Flag overrides are applied by each command afterward.
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()

	if path := viper.ConfigFileUsed(); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	// API keys come from the environment only
	cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
	cfg.Embedding.APIKey = os.Getenv("OPENAI_API_KEY")
	if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" && cfg.LLM.Provider == "ollama" {
		cfg.LLM.BaseURL = baseURL
	}

	cfg.Output.Verbose = verbose
	return cfg, nil
}

// buildPipeline wires storage, the vector index, the embedding gateway
// and the completion client into a pipeline.
func buildPipeline(cfg *model.Config) (*pipeline.Pipeline, error) {
	st, err := store.NewFileStore(cfg.Store.Dir)
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}

	limiter := worker.NewLimiter(cfg.Embedding.RateLimit, cfg.Embedding.RateBurst)

	gateway, err := embed.NewOpenAIGateway(cfg.Embedding, limiter)
	if err != nil {
		return nil, fmt.Errorf("embedding gateway: %w", err)
	}

	var embedder embed.Gateway = gateway
	if cfg.Cache.Enabled {
		layered := cache.NewLayeredCache(cfg.Cache.TTL, cfg.Cache.Dir, cfg.Cache.TTL)
		embedder = embed.NewCachedGateway(gateway, layered, cfg.Embedding.Model)
	}

	client, err := llm.NewClient(llm.ConfigFromModel(cfg.LLM))
	if err != nil {
		return nil, fmt.Errorf("LLM client: %w", err)
	}

	return pipeline.NewPipeline(cfg, st, index.NewMemoryIndex(), embedder, client), nil
}
