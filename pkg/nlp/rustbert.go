package nlp

import (
	"context"
	"fmt"
	"sync"

	"github.com/soundprediction/go-rust-bert/pkg/rustbert"
	"github.com/soundprediction/hybridrag/pkg/types"
)

const rustBertProvider = "RustBert"

// RustBertClient generates answers with a local go-rust-bert text generation
// model. The model is loaded on first use and calls are serialized.
type RustBertClient struct {
	model *rustbert.TextGenerationModel
	mu    sync.Mutex
	load  func() (*rustbert.TextGenerationModel, error)
}

// NewRustBertClient creates a client; the model is not loaded until the first Chat.
func NewRustBertClient() *RustBertClient {
	return &RustBertClient{load: rustbert.NewTextGenerationModel}
}

// Chat generates a continuation of the flattened prompt.
func (c *RustBertClient) Chat(ctx context.Context, messages []types.Message) (*types.Response, error) {
	prompt := JoinPrompt(messages)
	if prompt == "" {
		return nil, ErrEmptyPrompt
	}

	// go-rust-bert does not support context
	if err := ctx.Err(); err != nil {
		return nil, types.NewGenerationError(rustBertProvider, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.model == nil {
		m, err := c.load()
		if err != nil {
			return nil, types.NewGenerationError(rustBertProvider, fmt.Errorf("failed to create text generation model: %w", err))
		}
		c.model = m
	}

	text, err := c.model.Generate(prompt, "")
	if err != nil {
		return nil, types.NewGenerationError(rustBertProvider, fmt.Errorf("text generation failed: %w", err))
	}
	if text == "" {
		text = DefaultNoResponse
	}

	return &types.Response{Content: text, Model: "rust-bert"}, nil
}

// Close drops the loaded model.
func (c *RustBertClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.model = nil
	return nil
}
