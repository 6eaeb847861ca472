package nlp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/sashabaranov/go-openai"
	"github.com/soundprediction/hybridrag/pkg/types"
)

const openAIProvider = "OpenAI"

// OpenAIClient implements the Client interface for OpenAI's language models.
type OpenAIClient struct {
	client *openai.Client
	config Config
}

// NewOpenAIClient creates a new OpenAI client.
// Supports OpenAI-compatible services through custom BaseURL configuration.
func NewOpenAIClient(apiKey string, config Config) (*OpenAIClient, error) {
	var client *openai.Client

	if config.BaseURL != "" {
		if err := validateBaseURL(config.BaseURL); err != nil {
			return nil, fmt.Errorf("invalid base URL: %w", err)
		}

		// Use dummy API key if none provided (some services don't require authentication)
		if apiKey == "" {
			apiKey = "dummy-key"
		}

		clientConfig := openai.DefaultConfig(apiKey)
		clientConfig.BaseURL = config.BaseURL
		if !hasAPIPath(config.BaseURL) {
			clientConfig.BaseURL = config.BaseURL + "/v1"
		}
		if config.Timeout > 0 {
			clientConfig.HTTPClient = &http.Client{Timeout: config.Timeout}
		}

		client = openai.NewClientWithConfig(clientConfig)
	} else {
		client = openai.NewClient(apiKey)
	}

	if config.Model == "" {
		config.Model = openai.GPT4oMini
	}

	return &OpenAIClient{
		client: client,
		config: config,
	}, nil
}

// Chat sends a chat completion request to OpenAI or OpenAI-compatible service.
func (c *OpenAIClient) Chat(ctx context.Context, messages []types.Message) (*types.Response, error) {
	if len(messages) == 0 {
		return nil, ErrEmptyPrompt
	}

	resp, err := c.client.CreateChatCompletion(ctx, c.buildChatRequest(messages))
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusTooManyRequests {
			return nil, types.NewGenerationError(openAIProvider, NewRateLimitError(apiErr.Message))
		}
		return nil, types.NewGenerationError(openAIProvider, err)
	}

	if len(resp.Choices) == 0 {
		return nil, types.NewGenerationError(openAIProvider, ErrEmptyResponse)
	}

	choice := resp.Choices[0]
	response := &types.Response{
		Content:      choice.Message.Content,
		FinishReason: string(choice.FinishReason),
		Model:        resp.Model,
	}
	if response.Content == "" {
		response.Content = DefaultNoResponse
	}

	// Some OpenAI-compatible services omit usage
	if resp.Usage.TotalTokens > 0 {
		response.TokensUsed = &types.TokenUsage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		}
	}

	return response, nil
}

// Close cleans up resources (no-op for OpenAI client).
func (c *OpenAIClient) Close() error {
	return nil
}

func (c *OpenAIClient) buildChatRequest(messages []types.Message) openai.ChatCompletionRequest {
	openaiMessages := make([]openai.ChatCompletionMessage, len(messages))
	for i, msg := range messages {
		openaiMessages[i] = openai.ChatCompletionMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		}
	}

	req := openai.ChatCompletionRequest{
		Model:    c.config.Model,
		Messages: openaiMessages,
	}

	if c.config.Temperature != nil {
		req.Temperature = *c.config.Temperature
	}
	if c.config.MaxTokens != nil {
		req.MaxTokens = *c.config.MaxTokens
	}
	if c.config.TopP != nil {
		req.TopP = *c.config.TopP
	}
	if len(c.config.Stop) > 0 {
		req.Stop = c.config.Stop
	}

	return req
}

// validateBaseURL validates the base URL format.
func validateBaseURL(baseURL string) error {
	if baseURL == "" {
		return fmt.Errorf("baseURL cannot be empty")
	}

	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return fmt.Errorf("invalid baseURL format: %w", err)
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("baseURL must use http:// or https:// scheme")
	}

	if parsedURL.Host == "" {
		return fmt.Errorf("baseURL must include a host")
	}

	return nil
}

// hasAPIPath checks if the base URL already includes a common API path.
func hasAPIPath(baseURL string) bool {
	commonPaths := []string{"/v1", "/api", "/v1/", "/api/"}
	for _, path := range commonPaths {
		if len(baseURL) >= len(path) && baseURL[len(baseURL)-len(path):] == path {
			return true
		}
	}
	return false
}
