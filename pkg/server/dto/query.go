package dto

import (
	"errors"
	"strings"

	"github.com/soundprediction/hybridrag/pkg/history"
	"github.com/soundprediction/hybridrag/pkg/types"
)

// MaxTopK bounds the number of sources a caller may request.
const MaxTopK = 50

var (
	ErrQuestionRequired = errors.New("question is required")
	ErrInvalidSessionID = errors.New("session_id must not contain '/'")
)

// QueryRequest is the body of POST /api/query.
type QueryRequest struct {
	Question       string `json:"question"`
	SessionID      string `json:"session_id,omitempty"`
	TopK           int    `json:"top_k,omitempty" binding:"omitempty,min=1,max=50"`
	IncludeContext bool   `json:"include_context,omitempty"`
}

// Validate trims the question and rejects an empty one.
func (r *QueryRequest) Validate() error {
	r.Question = strings.TrimSpace(r.Question)
	if r.Question == "" {
		return ErrQuestionRequired
	}
	r.SessionID = strings.TrimSpace(r.SessionID)
	if strings.Contains(r.SessionID, "/") {
		return ErrInvalidSessionID
	}
	return nil
}

// QueryResponse is the body returned by POST /api/query.
type QueryResponse struct {
	Success   bool           `json:"success"`
	Answer    string         `json:"answer"`
	Sources   []types.Source `json:"sources"`
	SessionID string         `json:"session_id"`
	Status    types.Status   `json:"status"`
	Failure   *types.Failure `json:"failure,omitempty"`
	Context   string         `json:"context,omitempty"`
}

// SearchRequest is the body of POST /api/search.
type SearchRequest struct {
	Question string `json:"question"`
	TopK     int    `json:"top_k,omitempty" binding:"omitempty,min=1,max=50"`
}

// SearchResponse lists fused entries with their per-channel scores.
type SearchResponse struct {
	Success bool              `json:"success"`
	Results []types.ScoredHit `json:"results"`
	Total   int               `json:"total"`
}

// HistoryResponse is the body returned by GET /api/history/:session_id.
type HistoryResponse struct {
	SessionID string             `json:"session_id"`
	History   []history.Exchange `json:"history"`
	Count     int                `json:"count"`
}

// Stats holds graph counts plus the number of sessions with history.
type Stats struct {
	KnowledgeBases int64 `json:"knowledge_bases"`
	Entries        int64 `json:"entries"`
	Concepts       int64 `json:"concepts"`
	Relationships  int64 `json:"relationships"`
	TotalSessions  int   `json:"total_sessions"`
}

// StatsResponse is the body returned by GET /api/stats.
type StatsResponse struct {
	Success bool  `json:"success"`
	Stats   Stats `json:"stats"`
}

// Validate trims the question and rejects an empty one.
func (r *SearchRequest) Validate() error {
	r.Question = strings.TrimSpace(r.Question)
	if r.Question == "" {
		return ErrQuestionRequired
	}
	return nil
}
