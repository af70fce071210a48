package model

import "time"

// Config is the complete application configuration
type Config struct {
	LLM         LLMConfig         `yaml:"llm"`
	Embedding   EmbeddingConfig   `yaml:"embedding"`
	Ingest      IngestConfig      `yaml:"ingest"`
	Retrieval   RetrievalConfig   `yaml:"retrieval"`
	Claims      ClaimsConfig      `yaml:"claims"`
	Store       StoreConfig       `yaml:"store"`
	Cache       CacheConfig       `yaml:"cache"`
	HTTP        HTTPConfig        `yaml:"http"`
	Concurrency ConcurrencyConfig `yaml:"concurrency"`
	Output      OutputConfig      `yaml:"output"`
}

// LLMConfig configures the completion provider
type LLMConfig struct {
	Provider    string  `yaml:"provider"` // openai, ollama
	Model       string  `yaml:"model"`
	APIKey      string  `yaml:"-"` // from environment only, never persisted
	BaseURL     string  `yaml:"base_url"`
	Timeout     int     `yaml:"timeout"` // seconds
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
}

// EmbeddingConfig configures the embedding gateway
type EmbeddingConfig struct {
	Model     string  `yaml:"model"`
	APIKey    string  `yaml:"-"`
	BaseURL   string  `yaml:"base_url"`
	Timeout   int     `yaml:"timeout"` // seconds
	Dimension int     `yaml:"dimension"`
	RateLimit float64 `yaml:"rate_limit"` // requests per second
	RateBurst int     `yaml:"rate_burst"`
}

// IngestConfig tunes document chunking
type IngestConfig struct {
	ChunkSize    int `yaml:"chunk_size"`    // characters per chunk
	ChunkOverlap int `yaml:"chunk_overlap"` // overlap characters between chunks
}

// RetrievalConfig tunes the rerank/diversify stage
type RetrievalConfig struct {
	TopK          int  `yaml:"top_k"`
	MaxPerSource  int  `yaml:"max_per_source"`
	ExpandQueries bool `yaml:"expand_queries"`
}

// ClaimsConfig tunes deduplication and clustering
type ClaimsConfig struct {
	DedupThreshold   float64 `yaml:"dedup_threshold"`
	ClusterThreshold float64 `yaml:"cluster_threshold"`
	ClusterMinClaims int     `yaml:"cluster_min_claims"`
}

// StoreConfig configures session persistence
type StoreConfig struct {
	Dir string `yaml:"dir"`
}

// CacheConfig configures the embedding cache
type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	Dir     string        `yaml:"dir"`
	TTL     time.Duration `yaml:"ttl"`
}

// HTTPConfig configures URL ingestion
type HTTPConfig struct {
	Timeout      time.Duration `yaml:"timeout"`
	UserAgent    string        `yaml:"user_agent"`
	MaxBodyBytes int64         `yaml:"max_body_bytes"`
}

// ConcurrencyConfig bounds parallel work
type ConcurrencyConfig struct {
	IngestWorkers int `yaml:"ingest_workers"`
}

// OutputConfig controls CLI output behavior
type OutputConfig struct {
	Verbose bool `yaml:"verbose"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:    "openai",
			Model:       "gpt-4o-mini",
			Timeout:     60,
			MaxTokens:   4000,
			Temperature: 0.2,
		},
		Embedding: EmbeddingConfig{
			Model:     "text-embedding-3-small",
			Timeout:   30,
			RateLimit: 5,
			RateBurst: 10,
		},
		Ingest: IngestConfig{
			ChunkSize:    512,
			ChunkOverlap: 50,
		},
		Retrieval: RetrievalConfig{
			TopK:          10,
			MaxPerSource:  4,
			ExpandQueries: false,
		},
		Claims: ClaimsConfig{
			DedupThreshold:   0.9,
			ClusterThreshold: 0.75,
			ClusterMinClaims: 10,
		},
		Store: StoreConfig{
			Dir: "./data/sessions",
		},
		Cache: CacheConfig{
			Enabled: true,
			Dir:     "./data/cache",
			TTL:     7 * 24 * time.Hour,
		},
		HTTP: HTTPConfig{
			Timeout:      30 * time.Second,
			UserAgent:    "ScholarBrief/0.1 (research assistant)",
			MaxBodyBytes: 2_000_000,
		},
		Concurrency: ConcurrencyConfig{
			IngestWorkers: 4,
		},
		Output: OutputConfig{
			Verbose: false,
		},
	}
}
