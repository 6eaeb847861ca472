package nlp

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/parquet-go/parquet-go"
	"github.com/soundprediction/hybridrag/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParquetTokenTracker(t *testing.T) {
	tokenDir := filepath.Join(t.TempDir(), "tokens")

	tracker, err := NewTokenTracker(tokenDir, 1)
	require.NoError(t, err)

	ctx := context.Background()
	ctx = context.WithValue(ctx, types.ContextKeyUserID, "test-user")
	ctx = context.WithValue(ctx, types.ContextKeySessionID, "test-session")
	ctx = context.WithValue(ctx, types.ContextKeyRequestSource, "api")

	usage := &types.TokenUsage{PromptTokens: 10, CompletionTokens: 20, TotalTokens: 30}
	require.NoError(t, tracker.AddUsage(ctx, usage, "llama3.1:8b"))

	entries, err := os.ReadDir(tokenDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasPrefix(entries[0].Name(), "token_usage_"))
	assert.True(t, strings.HasSuffix(entries[0].Name(), ".parquet"))

	rows, err := parquet.ReadFile[TokenUsageRecord](filepath.Join(tokenDir, entries[0].Name()))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "test-session", rows[0].SessionID)
	assert.Equal(t, "api", rows[0].RequestSource)
	assert.Equal(t, 30, rows[0].TotalTokens)
}

func TestTokenTrackingClientFlushesOnClose(t *testing.T) {
	dir := t.TempDir()
	tracker, err := NewTokenTracker(dir, 10)
	require.NoError(t, err)

	client := NewTokenTrackingClient(&stubClient{}, tracker, nil)
	_, err = client.Chat(context.Background(), []types.Message{NewUserMessage("q")})
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "below batch size nothing is written yet")

	require.NoError(t, client.Close())
	entries, err = os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestAddUsageNil(t *testing.T) {
	tracker, err := NewTokenTracker(t.TempDir(), 1)
	require.NoError(t, err)
	assert.NoError(t, tracker.AddUsage(context.Background(), nil, "m"))
}
