package embedder

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/soundprediction/hybridrag/pkg/types"
)

const openAIComponent = "openai embeddings"

// OpenAIEmbedder implements Client against the OpenAI embeddings API or any
// compatible service reachable through BaseURL.
type OpenAIEmbedder struct {
	client *openai.Client
	config Config
}

// NewOpenAIEmbedder creates a new OpenAI embedder.
func NewOpenAIEmbedder(apiKey string, config Config) (*OpenAIEmbedder, error) {
	if config.Model == "" {
		config.Model = DefaultOpenAIModel
	}
	if config.Dimensions == 0 {
		config.Dimensions = DefaultOpenAIDims
	}

	var client *openai.Client
	if config.BaseURL != "" {
		// Some compatible services accept any key
		if apiKey == "" {
			apiKey = "dummy-key"
		}
		clientConfig := openai.DefaultConfig(apiKey)
		clientConfig.BaseURL = strings.TrimRight(config.BaseURL, "/")
		if !strings.HasSuffix(clientConfig.BaseURL, "/v1") {
			clientConfig.BaseURL += "/v1"
		}
		client = openai.NewClientWithConfig(clientConfig)
	} else {
		client = openai.NewClient(apiKey)
	}

	return &OpenAIEmbedder{client: client, config: config}, nil
}

// Embed generates embeddings for the given texts, preserving input order.
func (o *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, ErrEmptyInput
	}

	out := make([][]float32, 0, len(texts))
	for _, batch := range batches(texts, o.config.BatchSize) {
		req := openai.EmbeddingRequest{
			Input: batch,
			Model: openai.EmbeddingModel(o.config.Model),
		}
		if strings.HasPrefix(o.config.Model, "text-embedding-3") {
			req.Dimensions = o.config.Dimensions
		}

		resp, err := o.client.CreateEmbeddings(ctx, req)
		if err != nil {
			return nil, types.NewConnectivityError(openAIComponent, err)
		}
		if len(resp.Data) != len(batch) {
			return nil, fmt.Errorf("%w: expected %d embeddings, got %d", ErrNoEmbeddings, len(batch), len(resp.Data))
		}

		sort.Slice(resp.Data, func(i, j int) bool { return resp.Data[i].Index < resp.Data[j].Index })
		for _, d := range resp.Data {
			out = append(out, d.Embedding)
		}
	}
	return out, nil
}

// EmbedSingle generates an embedding for a single text.
func (o *OpenAIEmbedder) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	return single(o.Embed(ctx, []string{text}))
}

// Dimensions returns the configured embedding size.
func (o *OpenAIEmbedder) Dimensions() int {
	return o.config.Dimensions
}

// Close is a no-op.
func (o *OpenAIEmbedder) Close() error {
	return nil
}
