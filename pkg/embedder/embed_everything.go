package embedder

import (
	"context"
	"fmt"
	"sync"

	"github.com/soundprediction/go-embedeverything/pkg/embedder"
	"github.com/soundprediction/hybridrag/pkg/types"
)

const embedEverythingComponent = "embedeverything"

// EmbedEverythingClient implements the Client interface for EmbedEverything.
type EmbedEverythingClient struct {
	client *embedder.Embedder
	config *EmbedEverythingConfig
	mu     sync.Mutex
}

// EmbedEverythingConfig extends Config with EmbedEverything-specific settings.
type EmbedEverythingConfig struct {
	*Config
}

// NewEmbedEverythingClient loads the configured model. Loading downloads the
// weights on first use, so construction can be slow.
func NewEmbedEverythingClient(config *EmbedEverythingConfig) (*EmbedEverythingClient, error) {
	if config == nil || config.Config == nil {
		config = &EmbedEverythingConfig{Config: &Config{}}
	}
	if config.Model == "" {
		config.Model = DefaultLocalModel
	}
	if config.Dimensions == 0 {
		config.Dimensions = DefaultLocalDimensions
	}

	client, err := embedder.NewEmbedder(config.Model)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	return &EmbedEverythingClient{
		client: client,
		config: config,
	}, nil
}

// Embed generates embeddings for the given texts.
func (e *EmbedEverythingClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, ErrEmptyInput
	}

	// go-embedeverything does not support context yet
	if err := ctx.Err(); err != nil {
		return nil, types.NewConnectivityError(embedEverythingComponent, err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([][]float32, 0, len(texts))
	for _, batch := range batches(texts, e.config.BatchSize) {
		embeddings, err := e.client.Embed(batch)
		if err != nil {
			return nil, types.NewConnectivityError(embedEverythingComponent, fmt.Errorf("failed to generate embeddings: %w", err))
		}
		out = append(out, embeddings...)
	}
	return out, nil
}

// EmbedSingle generates an embedding for a single text.
func (e *EmbedEverythingClient) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	return single(e.Embed(ctx, []string{text}))
}

// Dimensions returns the number of dimensions in the embeddings.
func (e *EmbedEverythingClient) Dimensions() int {
	return e.config.Dimensions
}

// Close releases the model.
func (e *EmbedEverythingClient) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.client.Close()
	return nil
}
