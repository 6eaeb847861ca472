package types

// ContextKey is the type of request-scoped values placed on a context.
type ContextKey string

const (
	ContextKeyUserID        ContextKey = "user_id"
	ContextKeySessionID     ContextKey = "session_id"
	ContextKeyRequestSource ContextKey = "request_source"
)
