package nlp

import (
	"context"
	"strings"
	"time"

	"github.com/soundprediction/hybridrag/pkg/types"
)

// Client defines the interface for language model operations.
type Client interface {
	// Chat sends a chat completion request and returns the response.
	Chat(ctx context.Context, messages []types.Message) (*types.Response, error)

	// Close cleans up any resources.
	Close() error
}

const (
	// RoleSystem represents a system message.
	RoleSystem types.Role = "system"
	// RoleUser represents a user message.
	RoleUser types.Role = "user"
	// RoleAssistant represents an assistant message.
	RoleAssistant types.Role = "assistant"
)

// Sampling defaults used for answer generation.
const (
	DefaultTemperature float32 = 0.3
	DefaultMaxTokens           = 1000
	DefaultTopK                = 40
	DefaultTopP        float32 = 0.9
	DefaultTimeout             = 120 * time.Second

	// DefaultNoResponse is returned when the backend answers with empty text.
	DefaultNoResponse = "No response generated"
)

// Config holds configuration for generation clients.
type Config struct {
	Model       string        `json:"model"`
	Temperature *float32      `json:"temperature,omitempty"`
	MaxTokens   *int          `json:"max_tokens,omitempty"`
	TopP        *float32      `json:"top_p,omitempty"`
	TopK        *int          `json:"top_k,omitempty"`
	Stop        []string      `json:"stop,omitempty"`
	BaseURL     string        `json:"base_url,omitempty"` // Custom base URL for OpenAI-compatible services
	Timeout     time.Duration `json:"timeout,omitempty"`
}

// DefaultConfig returns the sampling settings used for grounded answers.
func DefaultConfig(model string) Config {
	return Config{
		Model:       model,
		Temperature: ptr(DefaultTemperature),
		MaxTokens:   ptr(DefaultMaxTokens),
		TopK:        ptr(DefaultTopK),
		TopP:        ptr(DefaultTopP),
		Timeout:     DefaultTimeout,
	}
}

func ptr[T any](v T) *T { return &v }

// NewMessage creates a new message with the specified role and content.
func NewMessage(role types.Role, content string) types.Message {
	return types.Message{
		Role:    role,
		Content: content,
	}
}

// NewSystemMessage creates a new system message.
func NewSystemMessage(content string) types.Message {
	return NewMessage(RoleSystem, content)
}

// NewUserMessage creates a new user message.
func NewUserMessage(content string) types.Message {
	return NewMessage(RoleUser, content)
}

// NewAssistantMessage creates a new assistant message.
func NewAssistantMessage(content string) types.Message {
	return NewMessage(RoleAssistant, content)
}

// JoinPrompt flattens messages into a single completion prompt, separating
// turns with a blank line. Used by backends without a chat format.
func JoinPrompt(messages []types.Message) string {
	parts := make([]string, 0, len(messages))
	for _, msg := range messages {
		if msg.Content == "" {
			continue
		}
		parts = append(parts, msg.Content)
	}
	return strings.Join(parts, "\n\n")
}
