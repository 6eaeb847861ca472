package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/soundprediction/hybridrag"
	"github.com/soundprediction/hybridrag/pkg/history"
	"github.com/soundprediction/hybridrag/pkg/server/dto"
	"github.com/soundprediction/hybridrag/pkg/types"
)

// QueryHandler answers questions and records them in session history.
type QueryHandler struct {
	rag     hybridrag.Querier
	history history.Store
	logger  *slog.Logger
}

// NewQueryHandler creates a new query handler
func NewQueryHandler(rag hybridrag.Querier, hist history.Store, logger *slog.Logger) *QueryHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &QueryHandler{rag: rag, history: hist, logger: logger}
}

// Query handles POST /api/query
func (h *QueryHandler) Query(c *gin.Context) {
	var req dto.QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewError("invalid_request", err.Error()))
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, validationError(err))
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = history.NewSessionID()
	}
	ctx := context.WithValue(c.Request.Context(), types.ContextKeySessionID, sessionID)

	result, err := h.rag.Query(ctx, req.Question, &hybridrag.QueryOptions{TopK: req.TopK})
	if err != nil {
		switch {
		case errors.Is(err, hybridrag.ErrEmptyQuestion):
			c.JSON(http.StatusBadRequest, validationError(dto.ErrQuestionRequired))
		case result != nil && result.Status == types.StatusFailed:
			h.logger.ErrorContext(ctx, "query failed", "error", err, "kind", result.Failure.Kind)
			c.JSON(http.StatusServiceUnavailable, dto.QueryResponse{
				Success:   false,
				Sources:   []types.Source{},
				SessionID: sessionID,
				Status:    result.Status,
				Failure:   result.Failure,
			})
		default:
			h.logger.ErrorContext(ctx, "query failed", "error", err)
			c.JSON(http.StatusInternalServerError, dto.NewError("query_failed", err.Error()))
		}
		return
	}

	if h.history != nil {
		exchange := history.Exchange{
			Question:  req.Question,
			Answer:    result.Answer,
			Sources:   result.Sources,
			Timestamp: time.Now().UTC(),
		}
		if err := h.history.Append(ctx, sessionID, exchange); err != nil {
			h.logger.WarnContext(ctx, "failed to record history", "error", err)
		}
	}

	resp := dto.QueryResponse{
		Success:   true,
		Answer:    result.Answer,
		Sources:   result.Sources,
		SessionID: sessionID,
		Status:    result.Status,
		Failure:   result.Failure,
	}
	if req.IncludeContext {
		resp.Context = result.Context
	}
	c.JSON(http.StatusOK, resp)
}

// SearchHandler exposes fused retrieval without generation.
type SearchHandler struct {
	searcher hybridrag.Searcher
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(s hybridrag.Searcher) *SearchHandler {
	return &SearchHandler{searcher: s}
}

// Search handles POST /api/search
func (h *SearchHandler) Search(c *gin.Context) {
	var req dto.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewError("invalid_request", err.Error()))
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, validationError(err))
		return
	}

	hits, err := h.searcher.Search(c.Request.Context(), req.Question, req.TopK)
	if err != nil {
		c.JSON(statusForError(err), dto.NewError("search_failed", err.Error()))
		return
	}
	if hits == nil {
		hits = []types.ScoredHit{}
	}
	c.JSON(http.StatusOK, dto.SearchResponse{Success: true, Results: hits, Total: len(hits)})
}

// validationError renders request validation failures. An empty question
// keeps the wording clients already match on.
func validationError(err error) dto.ErrorResponse {
	if errors.Is(err, dto.ErrQuestionRequired) {
		return dto.NewError("Question is required", "")
	}
	return dto.NewError("invalid_request", err.Error())
}

// statusForError maps retrieval failures to 503 and everything else to 500.
func statusForError(err error) int {
	switch types.KindOf(err) {
	case types.FailureConnectivity, types.FailureQuery:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
