package hybridrag

import (
	"context"

	"github.com/soundprediction/hybridrag/pkg/driver"
	"github.com/soundprediction/hybridrag/pkg/types"
)

// Consumers should depend on the smallest interface that meets their needs.

// Store is the subset of driver.GraphStore the orchestrator reads from.
type Store interface {
	driver.VectorSearcher
	driver.FulltextSearcher
	driver.Traverser
	driver.SchemaManager
	driver.StatsProvider

	VerifyConnectivity(ctx context.Context) error
	Close() error
}

// Querier answers questions.
type Querier interface {
	Query(ctx context.Context, question string, opts *QueryOptions) (*types.QueryResult, error)
}

// Searcher runs hybrid retrieval without generation.
type Searcher interface {
	Search(ctx context.Context, question string, topK int) ([]types.ScoredHit, error)
}

// StatsReader reports graph counts.
type StatsReader interface {
	Stats(ctx context.Context) (*types.GraphStats, error)
	Ping(ctx context.Context) error
}

// HybridRAG is everything the HTTP and MCP surfaces need.
type HybridRAG interface {
	Querier
	Searcher
	StatsReader
}

var _ HybridRAG = (*Client)(nil)
var _ Store = (driver.GraphStore)(nil)
