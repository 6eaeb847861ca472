package nlp_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/soundprediction/hybridrag/pkg/nlp"
	"github.com/soundprediction/hybridrag/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAIClientChat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)

		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Equal(t, "user", req.Messages[1].Role)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"model":  req.Model,
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": "Hyenas scavenge."},
				"finish_reason": "stop",
			}},
			"usage": map[string]any{"prompt_tokens": 10, "completion_tokens": 3, "total_tokens": 13},
		})
	}))
	defer server.Close()

	cfg := nlp.DefaultConfig("gpt-4o-mini")
	cfg.BaseURL = server.URL
	client, err := nlp.NewOpenAIClient("", cfg)
	require.NoError(t, err)

	resp, err := client.Chat(context.Background(), []types.Message{
		nlp.NewSystemMessage("system"),
		nlp.NewUserMessage("user"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Hyenas scavenge.", resp.Content)
	assert.Equal(t, "stop", resp.FinishReason)
	require.NotNil(t, resp.TokensUsed)
	assert.Equal(t, 13, resp.TokensUsed.TotalTokens)
}

func TestOpenAIClientRateLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"slow down","type":"rate_limit_exceeded"}}`))
	}))
	defer server.Close()

	cfg := nlp.DefaultConfig("gpt-4o-mini")
	cfg.BaseURL = server.URL
	client, err := nlp.NewOpenAIClient("key", cfg)
	require.NoError(t, err)

	_, err = client.Chat(context.Background(), []types.Message{nlp.NewUserMessage("q")})
	require.Error(t, err)
	assert.True(t, errors.Is(err, &nlp.RateLimitError{}))
	assert.Equal(t, types.FailureGeneration, types.KindOf(err))
}

func TestNewOpenAIClientRejectsBadBaseURL(t *testing.T) {
	tests := []string{"localhost:8080", "ftp://example.com", "http://"}
	for _, baseURL := range tests {
		t.Run(baseURL, func(t *testing.T) {
			_, err := nlp.NewOpenAIClient("", nlp.Config{BaseURL: baseURL})
			assert.Error(t, err)
		})
	}
}
