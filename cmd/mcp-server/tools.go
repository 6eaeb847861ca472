package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/firebase/genkit/go/ai"

	"github.com/soundprediction/hybridrag"
	"github.com/soundprediction/hybridrag/pkg/types"
)

// Tool request/response types

// QuestionRequest represents the parameters for ask_question
type QuestionRequest struct {
	Question       string `json:"question"`
	TopK           int    `json:"top_k,omitempty"`
	IncludeContext bool   `json:"include_context,omitempty"`
}

// SearchRequest represents search parameters
type SearchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
}

// StatsRequest takes no parameters.
type StatsRequest struct{}

// ToolResponse is a generic response wrapper
type ToolResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// AskQuestionTool answers a question with hybrid retrieval and generation.
func (s *MCPServer) AskQuestionTool(ctx *ai.ToolContext, input *QuestionRequest) (*ToolResponse, error) {
	return s.askQuestion(ctx, input)
}

func (s *MCPServer) askQuestion(ctx context.Context, input *QuestionRequest) (*ToolResponse, error) {
	if strings.TrimSpace(input.Question) == "" {
		return &ToolResponse{
			Success: false,
			Error:   "Question is required",
		}, nil
	}

	result, err := s.rag.Query(ctx, input.Question, &hybridrag.QueryOptions{TopK: input.TopK})
	if err != nil {
		s.logger.Error("Failed to answer question", "error", err)
		return &ToolResponse{
			Success: false,
			Error:   fmt.Sprintf("Failed to answer question: %v", err),
			Data:    result,
		}, nil
	}

	if !input.IncludeContext {
		result.Context = ""
	}

	return &ToolResponse{
		Success: true,
		Message: fmt.Sprintf("Answered with %d sources (%s)", len(result.Sources), result.Status),
		Data:    result,
	}, nil
}

// SearchKnowledgeTool returns fused retrieval hits without generation.
func (s *MCPServer) SearchKnowledgeTool(ctx *ai.ToolContext, input *SearchRequest) (*ToolResponse, error) {
	return s.searchKnowledge(ctx, input)
}

func (s *MCPServer) searchKnowledge(ctx context.Context, input *SearchRequest) (*ToolResponse, error) {
	if strings.TrimSpace(input.Query) == "" {
		return &ToolResponse{
			Success: false,
			Error:   "Query is required",
		}, nil
	}

	limit := input.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	hits, err := s.rag.Search(ctx, input.Query, limit)
	if err != nil {
		s.logger.Error("Failed to search knowledge", "error", err)
		return &ToolResponse{
			Success: false,
			Error:   fmt.Sprintf("Failed to search knowledge: %v", err),
		}, nil
	}
	if len(hits) == 0 {
		return &ToolResponse{
			Success: true,
			Message: "No relevant entries found",
			Data:    []types.ScoredHit{},
		}, nil
	}

	return &ToolResponse{
		Success: true,
		Message: fmt.Sprintf("Found %d entries", len(hits)),
		Data:    hits,
	}, nil
}

// GraphStatsTool reports graph counts.
func (s *MCPServer) GraphStatsTool(ctx *ai.ToolContext, input *StatsRequest) (*ToolResponse, error) {
	return s.graphStats(ctx)
}

func (s *MCPServer) graphStats(ctx context.Context) (*ToolResponse, error) {
	stats, err := s.rag.Stats(ctx)
	if err != nil {
		s.logger.Error("Failed to read graph stats", "error", err)
		return &ToolResponse{
			Success: false,
			Error:   fmt.Sprintf("Failed to read graph stats: %v", err),
		}, nil
	}

	return &ToolResponse{
		Success: true,
		Message: fmt.Sprintf("%d entries across %d knowledge bases", stats.Entries, stats.KnowledgeBases),
		Data:    stats,
	}, nil
}
