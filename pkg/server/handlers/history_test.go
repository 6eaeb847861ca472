package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundprediction/hybridrag/pkg/history"
	"github.com/soundprediction/hybridrag/pkg/server/dto"
	"github.com/soundprediction/hybridrag/pkg/types"
)

func get(t *testing.T, register func(r *gin.Engine), path string) *httptest.ResponseRecorder {
	t.Helper()
	r := gin.New()
	register(r)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestGetHistory(t *testing.T) {
	hist := history.NewMemoryStore(10)
	require.NoError(t, hist.Append(context.Background(), "s-1", history.Exchange{Question: "q1", Answer: "a1"}))
	require.NoError(t, hist.Append(context.Background(), "s-1", history.Exchange{Question: "q2", Answer: "a2"}))
	handler := NewHistoryHandler(hist, &stubRAG{})
	register := func(r *gin.Engine) { r.GET("/api/history/:session_id", handler.GetHistory) }

	w := get(t, register, "/api/history/s-1")
	require.Equal(t, http.StatusOK, w.Code)
	var resp dto.HistoryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "s-1", resp.SessionID)
	assert.Equal(t, 2, resp.Count)
	assert.Equal(t, "q2", resp.History[1].Question)

	w = get(t, register, "/api/history/unknown")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.Count)
	assert.NotNil(t, resp.History)
}

func TestGetStats(t *testing.T) {
	hist := history.NewMemoryStore(10)
	require.NoError(t, hist.Append(context.Background(), "a", history.Exchange{Question: "q"}))
	require.NoError(t, hist.Append(context.Background(), "b", history.Exchange{Question: "q"}))
	rag := &stubRAG{stats: &types.GraphStats{KnowledgeBases: 2, Entries: 40, Concepts: 12, Relationships: 300}}
	handler := NewHistoryHandler(hist, rag)
	register := func(r *gin.Engine) { r.GET("/api/stats", handler.GetStats) }

	w := get(t, register, "/api/stats")
	require.Equal(t, http.StatusOK, w.Code)
	var resp dto.StatsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, dto.Stats{KnowledgeBases: 2, Entries: 40, Concepts: 12, Relationships: 300, TotalSessions: 2}, resp.Stats)

	rag.statsErr = types.NewConnectivityError("neo4j", errors.New("down"))
	w = get(t, register, "/api/stats")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	rag.statsErr = errors.New("unexpected")
	w = get(t, register, "/api/stats")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
