package embedder

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/ollama/ollama/api"
	"github.com/soundprediction/hybridrag/pkg/types"
)

const (
	ollamaComponent      = "ollama embeddings"
	DefaultOllamaBaseURL = "http://localhost:11434"
	ollamaEmbedTimeout   = 30 * time.Second
)

// OllamaEmbedder implements Client against the Ollama /api/embed endpoint.
type OllamaEmbedder struct {
	client *api.Client
	config Config
}

// NewOllamaEmbedder creates an embedder for the Ollama server at config.BaseURL.
func NewOllamaEmbedder(config Config) (*OllamaEmbedder, error) {
	if config.BaseURL == "" {
		config.BaseURL = DefaultOllamaBaseURL
	}
	if config.Model == "" {
		config.Model = DefaultOllamaModel
	}
	if config.Dimensions == 0 {
		config.Dimensions = DefaultOllamaDims
	}

	base, err := url.Parse(config.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("invalid base URL: scheme must be http or https, got %q", base.Scheme)
	}

	return &OllamaEmbedder{
		client: api.NewClient(base, &http.Client{Timeout: ollamaEmbedTimeout}),
		config: config,
	}, nil
}

// Embed generates embeddings for the given texts.
func (o *OllamaEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, ErrEmptyInput
	}

	out := make([][]float32, 0, len(texts))
	for _, batch := range batches(texts, o.config.BatchSize) {
		resp, err := o.client.Embed(ctx, &api.EmbedRequest{
			Model: o.config.Model,
			Input: batch,
		})
		if err != nil {
			return nil, types.NewConnectivityError(ollamaComponent, err)
		}
		if len(resp.Embeddings) != len(batch) {
			return nil, fmt.Errorf("%w: expected %d embeddings, got %d", ErrNoEmbeddings, len(batch), len(resp.Embeddings))
		}
		out = append(out, resp.Embeddings...)
	}
	return out, nil
}

// EmbedSingle generates an embedding for a single text.
func (o *OllamaEmbedder) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	return single(o.Embed(ctx, []string{text}))
}

// Dimensions returns the configured embedding size.
func (o *OllamaEmbedder) Dimensions() int {
	return o.config.Dimensions
}

// Close is a no-op.
func (o *OllamaEmbedder) Close() error {
	return nil
}
