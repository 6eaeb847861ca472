package nlp

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/soundprediction/hybridrag/pkg/config"
	"github.com/soundprediction/hybridrag/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubClient struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (s *stubClient) Chat(ctx context.Context, messages []types.Message) (*types.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &types.Response{Content: "ok", Model: "stub", TokensUsed: &types.TokenUsage{PromptTokens: 1, CompletionTokens: 2, TotalTokens: 3}}, nil
}

func (s *stubClient) Close() error { return nil }

type recordingAlerter struct {
	subjects []string
}

func (r *recordingAlerter) Alert(subject, message string) error {
	r.subjects = append(r.subjects, subject)
	return nil
}

func TestCircuitBreakerClientTrips(t *testing.T) {
	stub := &stubClient{err: types.NewGenerationError("Ollama", errors.New("connection refused"))}
	alerter := &recordingAlerter{}
	cfg := config.CircuitBreakerConfig{
		Enabled:          true,
		MaxRequests:      1,
		Interval:         60,
		Timeout:          60,
		ReadyToTripRatio: 0.5,
	}
	client := NewCircuitBreakerClient(stub, cfg, alerter, "ollama", nil)

	msgs := []types.Message{NewUserMessage("q")}
	for i := 0; i < 3; i++ {
		_, err := client.Chat(context.Background(), msgs)
		require.Error(t, err)
	}
	assert.Equal(t, "open", client.State())
	require.Len(t, alerter.subjects, 1)
	assert.Contains(t, alerter.subjects[0], "Circuit Breaker Tripped - ollama")

	_, err := client.Chat(context.Background(), msgs)
	require.Error(t, err)
	assert.Equal(t, types.FailureGeneration, types.KindOf(err))
	assert.Equal(t, 3, stub.calls, "open breaker must not reach the backend")
}

func TestCircuitBreakerClientPassesThrough(t *testing.T) {
	client := NewCircuitBreakerClient(&stubClient{}, config.CircuitBreakerConfig{ReadyToTripRatio: 0.5}, nil, "ollama", nil)

	resp, err := client.Chat(context.Background(), []types.Message{NewUserMessage("q")})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Content)
	assert.Equal(t, "closed", client.State())
	assert.NoError(t, client.Close())
}
