package types

// Role identifies the author of a message sent to a generation service.
type Role string

// Message is a single turn of a generation request.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// TokenUsage reports the token counts of a generation call, when the backend provides them.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is the output of a generation call.
type Response struct {
	Content      string      `json:"content"`
	Model        string      `json:"model,omitempty"`
	FinishReason string      `json:"finish_reason,omitempty"`
	TokensUsed   *TokenUsage `json:"tokens_used,omitempty"`
}
