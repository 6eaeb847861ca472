package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/soundprediction/hybridrag"
	"github.com/soundprediction/hybridrag/pkg/history"
	"github.com/soundprediction/hybridrag/pkg/server/dto"
)

// HistoryHandler serves session history and graph statistics.
type HistoryHandler struct {
	history history.Store
	stats   hybridrag.StatsReader
}

// NewHistoryHandler creates a new history handler
func NewHistoryHandler(hist history.Store, stats hybridrag.StatsReader) *HistoryHandler {
	return &HistoryHandler{history: hist, stats: stats}
}

// GetHistory handles GET /api/history/:session_id
func (h *HistoryHandler) GetHistory(c *gin.Context) {
	sessionID := c.Param("session_id")

	exchanges, err := h.history.Get(c.Request.Context(), sessionID)
	if err != nil {
		if errors.Is(err, history.ErrInvalidSessionID) {
			c.JSON(http.StatusBadRequest, dto.NewError("invalid_request", err.Error()))
			return
		}
		c.JSON(http.StatusInternalServerError, dto.NewError("history_failed", err.Error()))
		return
	}

	c.JSON(http.StatusOK, dto.HistoryResponse{
		SessionID: sessionID,
		History:   exchanges,
		Count:     len(exchanges),
	})
}

// GetStats handles GET /api/stats
func (h *HistoryHandler) GetStats(c *gin.Context) {
	ctx := c.Request.Context()

	stats, err := h.stats.Stats(ctx)
	if err != nil {
		c.JSON(statusForError(err), dto.NewError("stats_failed", err.Error()))
		return
	}
	sessions, err := h.history.Count(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.NewError("stats_failed", err.Error()))
		return
	}

	c.JSON(http.StatusOK, dto.StatsResponse{
		Success: true,
		Stats: dto.Stats{
			KnowledgeBases: stats.KnowledgeBases,
			Entries:        stats.Entries,
			Concepts:       stats.Concepts,
			Relationships:  stats.Relationships,
			TotalSessions:  sessions,
		},
	})
}
