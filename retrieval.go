package hybridrag

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/soundprediction/hybridrag/pkg/prompts"
	"github.com/soundprediction/hybridrag/pkg/search"
	"github.com/soundprediction/hybridrag/pkg/types"
	"github.com/soundprediction/hybridrag/pkg/utils"
)

// generationComponent names the backend in inline errors when the
// generation client returned an untyped error.
const generationComponent = "generation service"

// Query answers a question from the knowledge graph.
//
// The returned error is non-nil only for an empty question or a retrieval
// failure; in the latter case the result is still returned with StatusFailed
// and the failure kind. A generation failure yields StatusDegraded with the
// error text as the answer and a nil error.
func (c *Client) Query(ctx context.Context, question string, opts *QueryOptions) (*types.QueryResult, error) {
	if strings.TrimSpace(question) == "" {
		return nil, ErrEmptyQuestion
	}

	topK := c.config.TopK
	if opts != nil && opts.TopK > 0 {
		topK = opts.TopK
	}

	c.logger.InfoContext(ctx, "processing query", "question", question, "top_k", topK)

	ranked, err := c.Search(ctx, question, topK)
	if err != nil {
		c.logger.ErrorContext(ctx, "retrieval failed", "error", err, "kind", types.KindOf(err))
		return &types.QueryResult{
			Sources: []types.Source{},
			Status:  types.StatusFailed,
			Failure: types.FailureFrom(err),
		}, err
	}

	if len(ranked) == 0 {
		c.logger.InfoContext(ctx, "no relevant entries found")
		return &types.QueryResult{
			Answer:  prompts.NotFoundAnswer,
			Sources: []types.Source{},
			Status:  types.StatusNotFound,
		}, nil
	}

	contextText := c.assembler.Assemble(ranked)
	result := &types.QueryResult{
		Sources: types.SourcesFrom(ranked),
		Context: contextText,
		Status:  types.StatusOK,
	}

	resp, err := c.generator.Chat(ctx, prompts.Answer(question, contextText, c.logger))
	if err != nil {
		if types.KindOf(err) != types.FailureGeneration {
			err = types.NewGenerationError(generationComponent, err)
		}
		c.logger.WarnContext(ctx, "generation failed", "error", err)
		result.Answer = err.Error()
		result.Status = types.StatusDegraded
		result.Failure = &types.Failure{Kind: types.FailureGeneration, Message: err.Error()}
		return result, nil
	}

	result.Answer = resp.Content
	return result, nil
}

// Search runs the three retrieval channels and returns at most topK fused
// entries. Semantic and keyword retrieval run concurrently; the relational
// expansion waits for the top semantic hit and is skipped when there is none.
func (c *Client) Search(ctx context.Context, question string, topK int) ([]types.ScoredHit, error) {
	if strings.TrimSpace(question) == "" {
		return nil, ErrEmptyQuestion
	}
	if topK <= 0 {
		topK = c.config.TopK
	}

	var semanticHits, keywordHits []types.Hit
	g, gctx := errgroup.WithContext(ctx)
	utils.Go(g, func() error {
		hits, err := c.semantic.Search(gctx, search.ChannelQuery{Text: question, TopK: c.config.SemanticTopK})
		if err != nil {
			return fmt.Errorf("%s search: %w", c.semantic.Name(), err)
		}
		semanticHits = hits
		return nil
	})
	utils.Go(g, func() error {
		hits, err := c.keyword.Search(gctx, search.ChannelQuery{Text: question, TopK: c.config.KeywordTopK})
		if err != nil {
			return fmt.Errorf("%s search: %w", c.keyword.Name(), err)
		}
		keywordHits = hits
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	results := []search.ChannelResult{
		{Channel: c.semantic.Name(), Hits: semanticHits},
		{Channel: c.keyword.Name(), Hits: keywordHits},
	}

	if len(semanticHits) > 0 {
		relatedHits, err := c.relational.Search(ctx, search.ChannelQuery{
			SeedID:   semanticHits[0].ID,
			MaxDepth: c.config.RelatedDepth,
			TopK:     c.config.RelatedLimit,
		})
		if err != nil {
			return nil, fmt.Errorf("%s search: %w", c.relational.Name(), err)
		}
		results = append(results, search.ChannelResult{Channel: c.relational.Name(), Hits: relatedHits})
	}

	c.logger.DebugContext(ctx, "retrieval complete",
		"semantic", len(semanticHits),
		"keyword", len(keywordHits),
		"related", relatedCount(results))

	return c.fusion.Fuse(results, topK), nil
}

// Stats returns node and relationship counts of the graph.
func (c *Client) Stats(ctx context.Context) (*types.GraphStats, error) {
	return c.store.Stats(ctx)
}

func relatedCount(results []search.ChannelResult) int {
	if len(results) < 3 {
		return 0
	}
	return len(results[2].Hits)
}
