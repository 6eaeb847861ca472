package search

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/soundprediction/hybridrag/pkg/driver"
	"github.com/soundprediction/hybridrag/pkg/embedder"
	"github.com/soundprediction/hybridrag/pkg/types"
)

// DefaultTopK is the per-channel result count when a query leaves TopK unset.
const DefaultTopK = 5

const embedderComponent = "embedder"

// ChannelQuery carries the inputs of any channel. Text feeds the semantic and
// keyword channels; SeedID and MaxDepth feed the relational channel.
type ChannelQuery struct {
	Text     string
	SeedID   string
	TopK     int
	MaxDepth int
}

// Channel is a single retrieval strategy producing scored hits.
type Channel interface {
	Name() string
	Search(ctx context.Context, q ChannelQuery) ([]types.Hit, error)
}

// withTimeout bounds a channel call; a zero timeout leaves ctx unchanged.
func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

func topKOrDefault(k int) int {
	if k <= 0 {
		return DefaultTopK
	}
	return k
}

// SemanticChannel ranks entries by cosine similarity between the embedded
// query and entry embeddings.
type SemanticChannel struct {
	store    driver.VectorSearcher
	embedder embedder.Client
	index    string
	timeout  time.Duration
}

// NewSemanticChannel creates a semantic channel over the entry embedding index.
func NewSemanticChannel(store driver.VectorSearcher, emb embedder.Client, timeout time.Duration) *SemanticChannel {
	return &SemanticChannel{
		store:    store,
		embedder: emb,
		index:    driver.EntryEmbeddingIndex,
		timeout:  timeout,
	}
}

func (c *SemanticChannel) Name() string { return types.ChannelSemantic }

// Search embeds q.Text and returns up to q.TopK hits by descending similarity.
func (c *SemanticChannel) Search(ctx context.Context, q ChannelQuery) ([]types.Hit, error) {
	if strings.TrimSpace(q.Text) == "" {
		return nil, nil
	}

	ctx, cancel := withTimeout(ctx, c.timeout)
	defer cancel()

	vector, err := c.embedder.EmbedSingle(ctx, q.Text)
	if err != nil {
		if types.KindOf(err) == types.FailureInternal {
			err = types.NewConnectivityError(embedderComponent, err)
		}
		return nil, err
	}

	return c.store.VectorSearch(ctx, driver.VectorQuery{
		Index:  c.index,
		TopK:   topKOrDefault(q.TopK),
		Vector: vector,
	})
}

// KeywordChannel ranks entries by full-text relevance of their content.
// Scores are engine-defined and unbounded.
type KeywordChannel struct {
	store   driver.FulltextSearcher
	index   string
	timeout time.Duration
}

// NewKeywordChannel creates a keyword channel over the entry content index.
func NewKeywordChannel(store driver.FulltextSearcher, timeout time.Duration) *KeywordChannel {
	return &KeywordChannel{
		store:   store,
		index:   driver.EntryContentIndex,
		timeout: timeout,
	}
}

func (c *KeywordChannel) Name() string { return types.ChannelKeyword }

// Search returns up to q.TopK hits by descending relevance.
func (c *KeywordChannel) Search(ctx context.Context, q ChannelQuery) ([]types.Hit, error) {
	if strings.TrimSpace(q.Text) == "" {
		return nil, nil
	}

	ctx, cancel := withTimeout(ctx, c.timeout)
	defer cancel()

	return c.store.FulltextSearch(ctx, driver.FulltextQuery{
		Index: c.index,
		Text:  q.Text,
		TopK:  topKOrDefault(q.TopK),
	})
}

// RelationalChannel expands from a seed entry along similarity and
// relatedness edges. Each reachable entry appears once at its shortest
// distance and scores 1/distance.
type RelationalChannel struct {
	store    driver.Traverser
	relTypes []string
	limit    int
	timeout  time.Duration
	logger   *slog.Logger
}

// NewRelationalChannel creates a relational channel returning at most
// driver.DefaultTraversalLimit entries per expansion.
func NewRelationalChannel(store driver.Traverser, timeout time.Duration, logger *slog.Logger) *RelationalChannel {
	if logger == nil {
		logger = slog.Default()
	}
	return &RelationalChannel{
		store:    store,
		relTypes: types.ExpansionRelTypes,
		limit:    driver.DefaultTraversalLimit,
		timeout:  timeout,
		logger:   logger,
	}
}

func (c *RelationalChannel) Name() string { return types.ChannelRelated }

// Search walks up to q.MaxDepth hops (default 1) from q.SeedID. The result is
// ordered by ascending distance and capped at the channel limit whatever the depth.
func (c *RelationalChannel) Search(ctx context.Context, q ChannelQuery) ([]types.Hit, error) {
	if strings.TrimSpace(q.SeedID) == "" {
		return nil, driver.ErrEmptySeed
	}
	depth := q.MaxDepth
	if depth <= 0 {
		depth = 1
	}
	limit := c.limit
	if q.TopK > 0 && q.TopK < limit {
		limit = q.TopK
	}

	ctx, cancel := withTimeout(ctx, c.timeout)
	defer cancel()

	hits, err := c.store.Traverse(ctx, driver.TraversalQuery{
		SeedID:   q.SeedID,
		RelTypes: c.relTypes,
		MaxDepth: depth,
		Limit:    limit,
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Distance != hits[j].Distance {
			return hits[i].Distance < hits[j].Distance
		}
		return hits[i].ID < hits[j].ID
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}

	for i := range hits {
		if hits[i].Distance <= 0 {
			c.logger.WarnContext(ctx, "relational hit at distance zero", "entry_id", hits[i].ID, "seed_id", q.SeedID)
		}
		hits[i].Score = DistanceScore(hits[i].Distance)
	}
	return hits, nil
}

// DistanceScore converts a hop distance into a relatedness score: 1/distance,
// or 0 for a non-positive distance.
func DistanceScore(distance int) float64 {
	if distance <= 0 {
		return 0
	}
	return 1 / float64(distance)
}
