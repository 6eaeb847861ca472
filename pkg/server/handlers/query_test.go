package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundprediction/hybridrag"
	"github.com/soundprediction/hybridrag/pkg/history"
	"github.com/soundprediction/hybridrag/pkg/server/dto"
	"github.com/soundprediction/hybridrag/pkg/types"
)

type stubRAG struct {
	result   *types.QueryResult
	err      error
	hits     []types.ScoredHit
	stats    *types.GraphStats
	statsErr error

	question string
	opts     *hybridrag.QueryOptions
	session  any
}

func (s *stubRAG) Query(ctx context.Context, question string, opts *hybridrag.QueryOptions) (*types.QueryResult, error) {
	s.question = question
	s.opts = opts
	s.session = ctx.Value(types.ContextKeySessionID)
	return s.result, s.err
}

func (s *stubRAG) Search(ctx context.Context, question string, topK int) ([]types.ScoredHit, error) {
	s.question = question
	return s.hits, s.err
}

func (s *stubRAG) Stats(ctx context.Context) (*types.GraphStats, error) {
	return s.stats, s.statsErr
}

func (s *stubRAG) Ping(ctx context.Context) error { return nil }

func lionResult() *types.QueryResult {
	return &types.QueryResult{
		Answer:  "Lions eat zebras.",
		Sources: []types.Source{{KnowledgeBase: "Mammals", EntryTitle: "Lion", Category: "Big cat", RelevanceScore: 1.65}},
		Context: "[Source 1] Knowledge Base: Mammals\n",
		Status:  types.StatusOK,
	}
}

func postJSON(t *testing.T, h gin.HandlerFunc, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	r := gin.New()
	r.POST(path, h)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestQueryAnswersAndRecordsHistory(t *testing.T) {
	rag := &stubRAG{result: lionResult()}
	hist := history.NewMemoryStore(10)
	handler := NewQueryHandler(rag, hist, nil)

	w := postJSON(t, handler.Query, "/api/query", `{"question": "  What do lions eat? ", "session_id": "s-1", "top_k": 3}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp dto.QueryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "Lions eat zebras.", resp.Answer)
	assert.Equal(t, "s-1", resp.SessionID)
	assert.Equal(t, types.StatusOK, resp.Status)
	require.Len(t, resp.Sources, 1)
	assert.Equal(t, "Lion", resp.Sources[0].EntryTitle)
	assert.Empty(t, resp.Context, "context is only returned on request")

	assert.Equal(t, "What do lions eat?", rag.question)
	assert.Equal(t, 3, rag.opts.TopK)
	assert.Equal(t, "s-1", rag.session)

	exchanges, err := hist.Get(context.Background(), "s-1")
	require.NoError(t, err)
	require.Len(t, exchanges, 1)
	assert.Equal(t, "What do lions eat?", exchanges[0].Question)
	assert.Equal(t, "Lions eat zebras.", exchanges[0].Answer)
}

func TestQueryGeneratesSessionID(t *testing.T) {
	handler := NewQueryHandler(&stubRAG{result: lionResult()}, history.NewMemoryStore(10), nil)

	w := postJSON(t, handler.Query, "/api/query", `{"question": "lions", "include_context": true}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp dto.QueryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	_, err := uuid.Parse(resp.SessionID)
	assert.NoError(t, err)
	assert.NotEmpty(t, resp.Context)
}

func TestQueryBadRequests(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{name: "empty question", body: `{"question": ""}`, wantErr: "Question is required"},
		{name: "blank question", body: `{"question": "   "}`, wantErr: "Question is required"},
		{name: "missing question", body: `{}`, wantErr: "Question is required"},
		{name: "malformed body", body: `{"question":`, wantErr: "invalid_request"},
		{name: "top_k too large", body: `{"question": "q", "top_k": 500}`, wantErr: "invalid_request"},
		{name: "session id with slash", body: `{"question": "q", "session_id": "a/b"}`, wantErr: "invalid_request"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rag := &stubRAG{result: lionResult()}
			handler := NewQueryHandler(rag, history.NewMemoryStore(10), nil)

			w := postJSON(t, handler.Query, "/api/query", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)

			var resp dto.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.False(t, resp.Success)
			assert.Equal(t, tt.wantErr, resp.Error)
			assert.Empty(t, rag.question, "pipeline must not run")
		})
	}
}

func TestQueryRetrievalFailureIs503(t *testing.T) {
	cause := types.NewConnectivityError("neo4j", errors.New("dial tcp"))
	rag := &stubRAG{
		result: &types.QueryResult{Status: types.StatusFailed, Failure: types.FailureFrom(cause)},
		err:    cause,
	}
	hist := history.NewMemoryStore(10)
	handler := NewQueryHandler(rag, hist, nil)

	w := postJSON(t, handler.Query, "/api/query", `{"question": "lions", "session_id": "s"}`)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	var resp dto.QueryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, types.StatusFailed, resp.Status)
	require.NotNil(t, resp.Failure)
	assert.Equal(t, types.FailureConnectivity, resp.Failure.Kind)

	count, err := hist.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count, "failed queries are not recorded")
}

func TestQueryDegradedAndNotFoundAre200(t *testing.T) {
	tests := []struct {
		name   string
		result *types.QueryResult
	}{
		{
			name: "degraded",
			result: &types.QueryResult{
				Answer:  "Error communicating with Ollama: timeout",
				Sources: []types.Source{{EntryTitle: "Lion"}},
				Status:  types.StatusDegraded,
				Failure: &types.Failure{Kind: types.FailureGeneration, Message: "timeout"},
			},
		},
		{
			name:   "not found",
			result: &types.QueryResult{Answer: "I couldn't find relevant information", Sources: []types.Source{}, Status: types.StatusNotFound},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewQueryHandler(&stubRAG{result: tt.result}, history.NewMemoryStore(10), nil)

			w := postJSON(t, handler.Query, "/api/query", `{"question": "q"}`)
			require.Equal(t, http.StatusOK, w.Code)

			var resp dto.QueryResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.True(t, resp.Success)
			assert.Equal(t, tt.result.Status, resp.Status)
			assert.Equal(t, tt.result.Answer, resp.Answer)
		})
	}
}

func TestSearch(t *testing.T) {
	rag := &stubRAG{hits: []types.ScoredHit{{ID: "Mammals:Entry:Lion", Title: "Lion", Combined: 1.65}}}
	handler := NewSearchHandler(rag)

	w := postJSON(t, handler.Search, "/api/search", `{"question": "lions"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp dto.SearchResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Total)
	assert.Equal(t, "Lion", resp.Results[0].Title)

	rag = &stubRAG{err: types.NewQueryError("fulltext search", errors.New("bad syntax"))}
	w = postJSON(t, NewSearchHandler(rag).Search, "/api/search", `{"question": "lions"}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = postJSON(t, NewSearchHandler(&stubRAG{}).Search, "/api/search", `{"question": ""}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
