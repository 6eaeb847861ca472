package driver

import (
	"context"

	"github.com/soundprediction/hybridrag/pkg/types"
)

// Consumers should depend on the smallest interface that meets their needs.

// VectorSearcher runs approximate nearest neighbour queries over entry embeddings.
type VectorSearcher interface {
	// VectorSearch returns up to q.TopK entries ordered by descending similarity,
	// each joined to its owning knowledge base.
	VectorSearch(ctx context.Context, q VectorQuery) ([]types.Hit, error)
}

// FulltextSearcher runs relevance-ranked text queries over entry content.
type FulltextSearcher interface {
	// FulltextSearch returns up to q.TopK entries ordered by descending relevance.
	FulltextSearch(ctx context.Context, q FulltextQuery) ([]types.Hit, error)
}

// Traverser walks typed relationships outward from a seed entry.
type Traverser interface {
	// Traverse returns distinct reachable entries with their shortest hop
	// distance, ascending by distance, at most q.Limit results.
	Traverse(ctx context.Context, q TraversalQuery) ([]types.Hit, error)
}

// SchemaManager creates constraints and indexes.
type SchemaManager interface {
	// CreateIndices creates uniqueness constraints, the fulltext indexes and the
	// vector index sized to the given embedding dimensions.
	CreateIndices(ctx context.Context, embeddingDims int) error
}

// GraphWriter persists ingested records.
type GraphWriter interface {
	UpsertKnowledgeBase(ctx context.Context, kb *types.KnowledgeBase) error

	// UpsertEntry stores the entry and links it to its knowledge base with CONTAINS.
	UpsertEntry(ctx context.Context, kbName string, entry *types.Entry) error

	// UpsertFacts stores facts and links them to the entry with HAS_FACT.
	UpsertFacts(ctx context.Context, entryID string, facts []types.Fact) error

	// LinkConcepts links the entry to the named concepts with RELATES_TO.
	LinkConcepts(ctx context.Context, entryID string, concepts []string) error

	// LinkEntries creates a typed edge between two existing entries and
	// reports whether both endpoints were found.
	LinkEntries(ctx context.Context, fromID, toID, relType string) (bool, error)
}

// StatsProvider reports aggregate graph counts.
type StatsProvider interface {
	Stats(ctx context.Context) (*types.GraphStats, error)
}

// GraphStore is the full set of operations hybridrag needs from a graph database.
type GraphStore interface {
	VectorSearcher
	FulltextSearcher
	Traverser
	SchemaManager
	GraphWriter
	StatsProvider

	// VerifyConnectivity checks that the database is reachable.
	VerifyConnectivity(ctx context.Context) error

	// Provider returns the type of graph database provider.
	Provider() GraphProvider

	// Close releases all resources held by the store.
	Close() error
}
