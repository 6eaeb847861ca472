package dto

// Result represents a generic API result
type Result struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// NewError builds a failed response.
func NewError(err, message string) ErrorResponse {
	return ErrorResponse{Success: false, Error: err, Message: message}
}
