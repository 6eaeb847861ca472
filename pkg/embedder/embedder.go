package embedder

import (
	"context"
	"errors"
	"fmt"
)

// Provider names accepted by New.
const (
	ProviderEmbedEverything = "embedeverything"
	ProviderOpenAI          = "openai"
	ProviderOllama          = "ollama"
)

// Defaults used when Config leaves a field empty.
const (
	DefaultLocalModel      = "sentence-transformers/all-MiniLM-L6-v2"
	DefaultLocalDimensions = 384
	DefaultOpenAIModel     = "text-embedding-3-small"
	DefaultOpenAIDims      = 1536
	DefaultOllamaModel     = "nomic-embed-text"
	DefaultOllamaDims      = 768
	DefaultBatchSize       = 32
)

var (
	ErrEmptyInput      = errors.New("no texts to embed")
	ErrNoEmbeddings    = errors.New("no embeddings returned")
	ErrUnknownProvider = errors.New("unknown embedding provider")
)

// Client generates vector representations of text.
type Client interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedSingle(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
	Close() error
}

// Config holds the settings shared by all embedding providers.
type Config struct {
	Provider   string `mapstructure:"provider" json:"provider"`
	Model      string `mapstructure:"model" json:"model"`
	BaseURL    string `mapstructure:"base_url" json:"base_url,omitempty"`
	APIKey     string `mapstructure:"api_key" json:"-"`
	Dimensions int    `mapstructure:"dimensions" json:"dimensions"`
	BatchSize  int    `mapstructure:"batch_size" json:"batch_size"`
}

// New builds the client named by cfg.Provider.
func New(cfg Config) (Client, error) {
	switch cfg.Provider {
	case "", ProviderEmbedEverything:
		return NewEmbedEverythingClient(&EmbedEverythingConfig{Config: &cfg})
	case ProviderOpenAI:
		return NewOpenAIEmbedder(cfg.APIKey, cfg)
	case ProviderOllama:
		return NewOllamaEmbedder(cfg)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)
	}
}

// batches splits texts into consecutive slices of at most size elements.
func batches(texts []string, size int) [][]string {
	if size <= 0 {
		size = DefaultBatchSize
	}
	out := make([][]string, 0, (len(texts)+size-1)/size)
	for start := 0; start < len(texts); start += size {
		end := min(start+size, len(texts))
		out = append(out, texts[start:end])
	}
	return out
}

// single returns the first embedding of a one-text batch.
func single(embeddings [][]float32, err error) ([]float32, error) {
	if err != nil {
		return nil, err
	}
	if len(embeddings) == 0 {
		return nil, ErrNoEmbeddings
	}
	return embeddings[0], nil
}
