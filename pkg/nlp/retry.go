package nlp

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/soundprediction/hybridrag/pkg/types"
)

// RetryConfig holds configuration for retry behavior
type RetryConfig struct {
	// MaxRetries is the number of attempts after the first one
	MaxRetries int
	// InitialDelay is the delay before the first retry
	InitialDelay time.Duration
	// MaxDelay caps the delay between retries
	MaxDelay time.Duration
	// BackoffMultiplier grows the delay after each attempt
	BackoffMultiplier float64
}

// DefaultRetryConfig returns the default retry configuration
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries:        3,
		InitialDelay:      1 * time.Second,
		MaxDelay:          30 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// RetryClient retries transient generation failures with exponential backoff.
// After the last attempt it returns the final error unchanged, so the
// answer text produced from it is the same as without retries.
type RetryClient struct {
	client Client
	config *RetryConfig
	logger *slog.Logger
}

// NewRetryClient creates a new retry client wrapper
func NewRetryClient(client Client, config *RetryConfig, logger *slog.Logger) *RetryClient {
	if config == nil {
		config = DefaultRetryConfig()
	}
	if config.MaxRetries < 0 {
		config.MaxRetries = 0
	}
	if config.InitialDelay <= 0 {
		config.InitialDelay = 1 * time.Second
	}
	if config.MaxDelay <= 0 {
		config.MaxDelay = 30 * time.Second
	}
	if config.BackoffMultiplier <= 0 {
		config.BackoffMultiplier = 2.0
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &RetryClient{
		client: client,
		config: config,
		logger: logger,
	}
}

// Chat implements the Client interface with retry logic
func (r *RetryClient) Chat(ctx context.Context, messages []types.Message) (*types.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= r.config.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := r.calculateDelay(attempt)
			r.logger.Warn("retrying generation request",
				"attempt", attempt,
				"max_retries", r.config.MaxRetries,
				"delay", delay,
				"error", lastErr)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, lastErr
			}
		}

		resp, err := r.client.Chat(ctx, messages)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if !isRetryableError(err) {
			return nil, err
		}
	}

	return nil, lastErr
}

// Close implements the Client interface
func (r *RetryClient) Close() error {
	return r.client.Close()
}

// calculateDelay returns InitialDelay * BackoffMultiplier^(attempt-1), capped at MaxDelay.
func (r *RetryClient) calculateDelay(attempt int) time.Duration {
	delay := float64(r.config.InitialDelay) * math.Pow(r.config.BackoffMultiplier, float64(attempt-1))
	if delay > float64(r.config.MaxDelay) {
		delay = float64(r.config.MaxDelay)
	}
	return time.Duration(delay)
}

// isRetryableError reports whether a failed call may succeed when repeated.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var rateLimitErr *RateLimitError
	if errors.As(err, &rateLimitErr) {
		return true
	}

	type httpErrorWithStatusCode interface {
		HTTPStatusCode() int
	}
	var httpErr httpErrorWithStatusCode
	if errors.As(err, &httpErr) {
		statusCode := httpErr.HTTPStatusCode()
		return statusCode >= 500 || statusCode == http.StatusTooManyRequests
	}

	errMsg := strings.ToLower(err.Error())
	retryablePatterns := []string{
		"500", "internal server error",
		"502", "bad gateway",
		"503", "service unavailable",
		"504", "gateway timeout",
		"connection reset",
		"temporary failure",
		"rate limit",
		"too many requests",
		"429",
	}
	for _, pattern := range retryablePatterns {
		if strings.Contains(errMsg, pattern) {
			return true
		}
	}

	return false
}
