package nlp

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"
	"github.com/soundprediction/hybridrag/pkg/types"
)

const ollamaProvider = "Ollama"

// OllamaClient implements Client against the Ollama /api/generate endpoint.
// Messages are flattened into a single prompt and the response is not streamed.
type OllamaClient struct {
	client *api.Client
	config Config
}

// NewOllamaClient creates a client for the Ollama server at config.BaseURL.
func NewOllamaClient(config Config) (*OllamaClient, error) {
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:11434"
	}
	if err := validateBaseURL(config.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if config.Model == "" {
		return nil, fmt.Errorf("ollama model is required")
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}

	base, _ := url.Parse(strings.TrimRight(config.BaseURL, "/"))
	return &OllamaClient{
		client: api.NewClient(base, &http.Client{Timeout: config.Timeout}),
		config: config,
	}, nil
}

// Chat sends the flattened prompt to /api/generate.
func (c *OllamaClient) Chat(ctx context.Context, messages []types.Message) (*types.Response, error) {
	prompt := JoinPrompt(messages)
	if prompt == "" {
		return nil, ErrEmptyPrompt
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	stream := false
	req := &api.GenerateRequest{
		Model:   c.config.Model,
		Prompt:  prompt,
		Stream:  &stream,
		Options: c.options(),
	}

	var out *types.Response
	err := c.client.Generate(ctx, req, func(resp api.GenerateResponse) error {
		out = &types.Response{
			Content:      resp.Response,
			Model:        resp.Model,
			FinishReason: resp.DoneReason,
		}
		if resp.PromptEvalCount > 0 || resp.EvalCount > 0 {
			out.TokensUsed = &types.TokenUsage{
				PromptTokens:     resp.PromptEvalCount,
				CompletionTokens: resp.EvalCount,
				TotalTokens:      resp.PromptEvalCount + resp.EvalCount,
			}
		}
		return nil
	})
	if err != nil {
		return nil, types.NewGenerationError(ollamaProvider, err)
	}

	if out == nil {
		out = &types.Response{Model: c.config.Model}
	}
	if out.Content == "" {
		out.Content = DefaultNoResponse
	}
	return out, nil
}

func (c *OllamaClient) options() map[string]any {
	opts := map[string]any{}
	if c.config.Temperature != nil {
		opts["temperature"] = *c.config.Temperature
	}
	if c.config.MaxTokens != nil {
		opts["num_predict"] = *c.config.MaxTokens
	}
	if c.config.TopK != nil {
		opts["top_k"] = *c.config.TopK
	}
	if c.config.TopP != nil {
		opts["top_p"] = *c.config.TopP
	}
	if len(c.config.Stop) > 0 {
		opts["stop"] = c.config.Stop
	}
	return opts
}

// Close is a no-op.
func (c *OllamaClient) Close() error {
	return nil
}
