package driver

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/config"
	"github.com/soundprediction/hybridrag/pkg/types"
)

const neo4jComponent = "graph store"

// Neo4jStore implements the GraphStore interface for Neo4j databases.
type Neo4jStore struct {
	client   neo4j.DriverWithContext
	database string
}

// NewNeo4jStore creates a new Neo4j store instance.
func NewNeo4jStore(uri, username, password, database string) (*Neo4jStore, error) {
	// Managed transactions are not retried; failures surface to the caller.
	client, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""), func(c *config.Config) {
		c.MaxTransactionRetryTime = 0
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}

	if database == "" {
		database = "neo4j"
	}

	return &Neo4jStore{
		client:   client,
		database: database,
	}, nil
}

// VectorSearch queries the vector index and joins each hit to its knowledge base.
func (n *Neo4jStore) VectorSearch(ctx context.Context, q VectorQuery) ([]types.Hit, error) {
	if err := q.Validate(); err != nil {
		return nil, types.NewQueryError("vector search", err)
	}
	if q.Index == "" {
		q.Index = EntryEmbeddingIndex
	}

	return n.readHits(ctx, "vector search", neo4jVectorSearchQuery, map[string]any{
		"index":           q.Index,
		"top_k":           q.TopK,
		"query_embedding": toFloat64s(q.Vector),
	})
}

// FulltextSearch queries the fulltext index. Blank text returns no hits.
func (n *Neo4jStore) FulltextSearch(ctx context.Context, q FulltextQuery) ([]types.Hit, error) {
	if err := q.Validate(); err != nil {
		return nil, types.NewQueryError("fulltext search", err)
	}
	text := escapeLucene(q.Text)
	if text == "" {
		return []types.Hit{}, nil
	}
	if q.Index == "" {
		q.Index = EntryContentIndex
	}

	return n.readHits(ctx, "fulltext search", neo4jFulltextSearchQuery, map[string]any{
		"index": q.Index,
		"query": text,
		"top_k": q.TopK,
	})
}

// Traverse walks the given relationship types outward from the seed entry.
func (n *Neo4jStore) Traverse(ctx context.Context, q TraversalQuery) ([]types.Hit, error) {
	if err := q.Validate(); err != nil {
		return nil, types.NewQueryError("traversal", err)
	}

	return n.readHits(ctx, "traversal", neo4jTraversalQuery(q.RelTypes, q.MaxDepth), map[string]any{
		"entry_id": q.SeedID,
		"limit":    q.Limit,
	})
}

func (n *Neo4jStore) readHits(ctx context.Context, op, query string, params map[string]any) ([]types.Hit, error) {
	session := n.client.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: n.database,
		AccessMode:   neo4j.AccessModeRead,
	})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, classifyNeo4jError(op, err)
	}

	records, err := MustRecordSlice(result, op)
	if err != nil {
		return nil, types.NewQueryError(op, err)
	}

	hits := make([]types.Hit, 0, len(records))
	for _, record := range records {
		hits = append(hits, hitFromRow(recordGetter(record)))
	}
	return hits, nil
}

// CreateIndices creates constraints, fulltext indexes and the vector index.
// Existing indexes are left in place.
func (n *Neo4jStore) CreateIndices(ctx context.Context, embeddingDims int) error {
	session := n.client.NewSession(ctx, neo4j.SessionConfig{DatabaseName: n.database})
	defer session.Close(ctx)

	statements := append([]string{}, neo4jSchemaStatements...)
	if embeddingDims > 0 {
		statements = append(statements, neo4jVectorIndexStatement(embeddingDims))
	}

	for _, stmt := range statements {
		res, err := session.Run(ctx, stmt, nil)
		if err == nil {
			_, err = res.Consume(ctx)
		}
		if err != nil {
			if strings.Contains(err.Error(), "already exists") || strings.Contains(err.Error(), "An equivalent") {
				continue
			}
			return classifyNeo4jError("create indices", err)
		}
	}

	return nil
}

// UpsertKnowledgeBase creates or updates a knowledge base node.
func (n *Neo4jStore) UpsertKnowledgeBase(ctx context.Context, kb *types.KnowledgeBase) error {
	if kb == nil {
		return types.NewQueryError("upsert knowledge base", errors.New("cannot upsert nil knowledge base"))
	}
	return n.write(ctx, "upsert knowledge base", neo4jUpsertKnowledgeBaseQuery, map[string]any{
		"name":        kb.Name,
		"description": kb.Description,
	})
}

// UpsertEntry creates or updates an entry and its CONTAINS edge.
func (n *Neo4jStore) UpsertEntry(ctx context.Context, kbName string, entry *types.Entry) error {
	if entry == nil {
		return types.NewQueryError("upsert entry", errors.New("cannot upsert nil entry"))
	}
	id := entry.ID
	if id == "" {
		id = types.EntryID(kbName, entry.Title)
	}
	return n.write(ctx, "upsert entry", neo4jUpsertEntryQuery, map[string]any{
		"kb_name":   kbName,
		"id":        id,
		"title":     entry.Title,
		"category":  entry.Category,
		"habitat":   entry.Habitat,
		"diet":      entry.Diet,
		"content":   entry.Content,
		"embedding": toFloat64s(entry.Embedding),
	})
}

// UpsertFacts creates or updates fact nodes and their HAS_FACT edges.
func (n *Neo4jStore) UpsertFacts(ctx context.Context, entryID string, facts []types.Fact) error {
	if len(facts) == 0 {
		return nil
	}
	rows := make([]map[string]any, 0, len(facts))
	for _, f := range facts {
		rows = append(rows, map[string]any{"id": f.ID, "text": f.Text})
	}
	return n.write(ctx, "upsert facts", neo4jUpsertFactsQuery, map[string]any{
		"entry_id": entryID,
		"facts":    rows,
	})
}

// LinkConcepts merges concept nodes and RELATES_TO edges.
func (n *Neo4jStore) LinkConcepts(ctx context.Context, entryID string, concepts []string) error {
	if len(concepts) == 0 {
		return nil
	}
	return n.write(ctx, "link concepts", neo4jLinkConceptsQuery, map[string]any{
		"entry_id": entryID,
		"concepts": concepts,
	})
}

// LinkEntries merges a typed edge between two entries. Missing endpoints are a
// no-op and report false.
func (n *Neo4jStore) LinkEntries(ctx context.Context, fromID, toID, relType string) (bool, error) {
	if !ValidRelType(relType) {
		return false, types.NewQueryError("link entries", fmt.Errorf("%w: %q", ErrInvalidRelType, relType))
	}

	session := n.client.NewSession(ctx, neo4j.SessionConfig{DatabaseName: n.database})
	defer session.Close(ctx)

	linked, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, neo4jLinkEntriesQuery(relType), map[string]any{
			"from_id": fromID,
			"to_id":   toID,
		})
		if err != nil {
			return nil, err
		}
		record, err := res.Single(ctx)
		if err != nil {
			return nil, err
		}
		v, _ := record.Get("linked")
		return MustInt64(v, "linked")
	})
	if err != nil {
		return false, classifyNeo4jError("link entries", err)
	}
	return linked.(int64) > 0, nil
}

func (n *Neo4jStore) write(ctx context.Context, op, query string, params map[string]any) error {
	session := n.client.NewSession(ctx, neo4j.SessionConfig{DatabaseName: n.database})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		return res.Consume(ctx)
	})
	if err != nil {
		return classifyNeo4jError(op, err)
	}
	return nil
}

// Stats counts knowledge bases, entries, concepts and relationships.
func (n *Neo4jStore) Stats(ctx context.Context) (*types.GraphStats, error) {
	session := n.client.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: n.database,
		AccessMode:   neo4j.AccessModeRead,
	})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		counts := make(map[string]int64, len(statsQueries))
		for name, query := range statsQueries {
			res, err := tx.Run(ctx, query, nil)
			if err != nil {
				return nil, err
			}
			record, err := res.Single(ctx)
			if err != nil {
				return nil, err
			}
			v, _ := record.Get("count")
			count, err := MustInt64(v, name)
			if err != nil {
				return nil, err
			}
			counts[name] = count
		}
		return counts, nil
	})
	if err != nil {
		return nil, classifyNeo4jError("stats", err)
	}

	return statsFromCounts(result.(map[string]int64)), nil
}

// VerifyConnectivity checks if the driver can connect to the database.
func (n *Neo4jStore) VerifyConnectivity(ctx context.Context) error {
	if err := n.client.VerifyConnectivity(ctx); err != nil {
		return types.NewConnectivityError(neo4jComponent, err)
	}
	return nil
}

// Provider returns GraphProviderNeo4j.
func (n *Neo4jStore) Provider() GraphProvider {
	return GraphProviderNeo4j
}

// Close closes the Neo4j driver.
func (n *Neo4jStore) Close() error {
	return n.client.Close(context.Background())
}

// classifyNeo4jError maps driver failures onto the connectivity/query taxonomy.
func classifyNeo4jError(op string, err error) error {
	if err == nil {
		return nil
	}
	if neo4j.IsConnectivityError(err) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return types.NewConnectivityError(neo4jComponent, fmt.Errorf("%s: %w", op, err))
	}
	var neoErr *neo4j.Neo4jError
	if errors.As(err, &neoErr) && strings.HasPrefix(neoErr.Code, "Neo.TransientError") {
		return types.NewConnectivityError(neo4jComponent, fmt.Errorf("%s: %w", op, err))
	}
	return types.NewQueryError(op, err)
}

func statsFromCounts(counts map[string]int64) *types.GraphStats {
	return &types.GraphStats{
		KnowledgeBases: counts["knowledge_bases"],
		Entries:        counts["entries"],
		Concepts:       counts["concepts"],
		Relationships:  counts["relationships"],
	}
}

func toFloat64s(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, f := range v {
		out[i] = float64(f)
	}
	return out
}

// luceneSpecial lists characters with meaning in the fulltext query syntax.
const luceneSpecial = `+-&|!(){}[]^"~*?:\/`

// escapeLucene escapes query syntax so free text is matched as terms.
func escapeLucene(s string) string {
	s = strings.TrimSpace(s)
	var b strings.Builder
	for _, r := range s {
		if strings.ContainsRune(luceneSpecial, r) {
			b.WriteRune('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
