package nlp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundprediction/hybridrag/pkg/types"
)

// flakyClient fails until failUntilCall calls have been made.
type flakyClient struct {
	callCount     int
	failUntilCall int
	errorToReturn error
	closed        bool
}

func (m *flakyClient) Chat(ctx context.Context, messages []types.Message) (*types.Response, error) {
	m.callCount++
	if m.callCount <= m.failUntilCall {
		return nil, m.errorToReturn
	}
	return &types.Response{Content: "success"}, nil
}

func (m *flakyClient) Close() error {
	m.closed = true
	return nil
}

func fastRetryConfig(maxRetries int) *RetryConfig {
	return &RetryConfig{
		MaxRetries:        maxRetries,
		InitialDelay:      time.Millisecond,
		MaxDelay:          5 * time.Millisecond,
		BackoffMultiplier: 2.0,
	}
}

func TestRetryClient_Chat(t *testing.T) {
	msgs := []types.Message{NewUserMessage("test")}

	tests := []struct {
		name       string
		failUntil  int
		err        error
		maxRetries int
		wantErr    bool
		wantCalls  int
	}{
		{name: "success on first attempt", failUntil: 0, maxRetries: 3, wantCalls: 1},
		{name: "success after server errors", failUntil: 2, err: errors.New("500 internal server error"), maxRetries: 3, wantCalls: 3},
		{name: "rate limit is retried", failUntil: 1, err: types.NewGenerationError("OpenAI", NewRateLimitError()), maxRetries: 3, wantCalls: 2},
		{name: "retries exhausted", failUntil: 10, err: errors.New("503 service unavailable"), maxRetries: 2, wantErr: true, wantCalls: 3},
		{name: "non-retryable fails immediately", failUntil: 10, err: errors.New("invalid api key"), maxRetries: 3, wantErr: true, wantCalls: 1},
		{name: "zero retries", failUntil: 10, err: errors.New("502 bad gateway"), maxRetries: 0, wantErr: true, wantCalls: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &flakyClient{failUntilCall: tt.failUntil, errorToReturn: tt.err}
			client := NewRetryClient(mock, fastRetryConfig(tt.maxRetries), nil)

			resp, err := client.Chat(context.Background(), msgs)
			if tt.wantErr {
				require.Error(t, err)
				assert.Same(t, tt.err, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, "success", resp.Content)
			}
			assert.Equal(t, tt.wantCalls, mock.callCount)
		})
	}
}

func TestRetryClient_KeepsGenerationErrorText(t *testing.T) {
	genErr := types.NewGenerationError("Ollama", errors.New("503 service unavailable"))
	mock := &flakyClient{failUntilCall: 10, errorToReturn: genErr}

	_, err := NewRetryClient(mock, fastRetryConfig(1), nil).Chat(context.Background(), nil)
	require.Error(t, err)
	assert.Equal(t, "Error communicating with Ollama: 503 service unavailable", err.Error())
}

func TestRetryClient_ContextCancelledDuringBackoff(t *testing.T) {
	mock := &flakyClient{failUntilCall: 10, errorToReturn: errors.New("429 too many requests")}
	cfg := &RetryConfig{MaxRetries: 3, InitialDelay: time.Hour, MaxDelay: time.Hour, BackoffMultiplier: 2}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewRetryClient(mock, cfg, nil).Chat(ctx, nil)
	require.Error(t, err)
	assert.Equal(t, 1, mock.callCount)
}

func TestRetryClient_CalculateDelay(t *testing.T) {
	client := NewRetryClient(&flakyClient{}, &RetryConfig{
		MaxRetries:        5,
		InitialDelay:      100 * time.Millisecond,
		MaxDelay:          500 * time.Millisecond,
		BackoffMultiplier: 2.0,
	}, nil)

	assert.Equal(t, 100*time.Millisecond, client.calculateDelay(1))
	assert.Equal(t, 200*time.Millisecond, client.calculateDelay(2))
	assert.Equal(t, 400*time.Millisecond, client.calculateDelay(3))
	assert.Equal(t, 500*time.Millisecond, client.calculateDelay(4))
}

func TestNewRetryClient_Defaults(t *testing.T) {
	client := NewRetryClient(&flakyClient{}, &RetryConfig{MaxRetries: -1}, nil)
	assert.Equal(t, 0, client.config.MaxRetries)
	assert.Equal(t, time.Second, client.config.InitialDelay)
	assert.Equal(t, 30*time.Second, client.config.MaxDelay)
	assert.Equal(t, 2.0, client.config.BackoffMultiplier)

	mock := &flakyClient{}
	require.NoError(t, NewRetryClient(mock, nil, nil).Close())
	assert.True(t, mock.closed)
}

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("connection reset by peer"), true},
		{errors.New("status 429"), true},
		{NewRateLimitError("slow down"), true},
		{context.Canceled, false},
		{context.DeadlineExceeded, false},
		{errors.New("model not found"), false},
	}
	for _, tt := range tests {
		name := "nil"
		if tt.err != nil {
			name = tt.err.Error()
		}
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.want, isRetryableError(tt.err))
		})
	}
}
