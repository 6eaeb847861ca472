package nlp

import "errors"

// Common generation client errors
var (
	// ErrEmptyResponse indicates the backend returned no choices
	ErrEmptyResponse = errors.New("the LLM returned an empty response")

	// ErrEmptyPrompt indicates there was nothing to send
	ErrEmptyPrompt = errors.New("prompt cannot be empty")

	// ErrUnknownProvider indicates an unsupported generation provider
	ErrUnknownProvider = errors.New("unknown generation provider")
)

// RateLimitError represents a rate limit error with optional custom message
type RateLimitError struct {
	Message string
}

func (e *RateLimitError) Error() string {
	if e.Message == "" {
		return "rate limit exceeded. Please try again later"
	}
	return e.Message
}

// Is implements errors.Is support for RateLimitError.
func (e *RateLimitError) Is(target error) bool {
	_, ok := target.(*RateLimitError)
	return ok
}

// NewRateLimitError creates a new rate limit error with optional custom message
func NewRateLimitError(message ...string) *RateLimitError {
	err := &RateLimitError{}
	if len(message) > 0 {
		err.Message = message[0]
	}
	return err
}
