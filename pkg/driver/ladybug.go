//go:build cgo

package driver

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	ladybug "github.com/LadybugDB/go-ladybug"
	"github.com/soundprediction/hybridrag/pkg/types"
)

// ladybugSchemaQueries declares the node and relationship tables.
// Ladybug requires an explicit schema; primary keys provide the uniqueness constraints.
var ladybugSchemaQueries = []string{
	`CREATE NODE TABLE IF NOT EXISTS KnowledgeBase (
		name STRING PRIMARY KEY,
		description STRING
	)`,
	`CREATE NODE TABLE IF NOT EXISTS Entry (
		id STRING PRIMARY KEY,
		title STRING,
		category STRING,
		habitat STRING,
		diet STRING,
		content STRING,
		embedding FLOAT[]
	)`,
	`CREATE NODE TABLE IF NOT EXISTS Fact (
		id STRING PRIMARY KEY,
		text STRING
	)`,
	`CREATE NODE TABLE IF NOT EXISTS Concept (
		name STRING PRIMARY KEY
	)`,
	`CREATE REL TABLE IF NOT EXISTS CONTAINS (FROM KnowledgeBase TO Entry)`,
	`CREATE REL TABLE IF NOT EXISTS HAS_FACT (FROM Entry TO Fact)`,
	`CREATE REL TABLE IF NOT EXISTS RELATES_TO (FROM Entry TO Concept)`,
	`CREATE REL TABLE IF NOT EXISTS RELATED_TO (FROM Entry TO Entry)`,
	`CREATE REL TABLE IF NOT EXISTS SIMILAR_TO (FROM Entry TO Entry)`,
}

var ladybugFulltextIndexQueries = []string{
	"CALL CREATE_FTS_INDEX('Entry', '" + EntryContentIndex + "', ['content'])",
	"CALL CREATE_FTS_INDEX('Fact', '" + FactContentIndex + "', ['text'])",
}

const ladybugHitColumns = `
	node.id AS id,
	node.title AS title,
	node.category AS category,
	node.content AS content,
	kb.name AS knowledge_base_name`

// LadybugConfig holds configuration options for LadybugStore.
type LadybugConfig struct {
	// Database path (":memory:" for an in-memory database)
	DBPath string

	// Buffer pool size in bytes
	BufferPoolSize uint64

	// Maximum number of threads used by a query
	MaxNumThreads uint64

	EnableCompression bool
}

// DefaultLadybugConfig returns a LadybugConfig with sensible defaults.
func DefaultLadybugConfig() *LadybugConfig {
	return &LadybugConfig{
		DBPath:            ":memory:",
		BufferPoolSize:    512 * 1024 * 1024,
		MaxNumThreads:     4,
		EnableCompression: true,
	}
}

// LadybugStore implements the GraphStore interface on the embedded Ladybug database.
// Queries are serialized on a single connection.
type LadybugStore struct {
	db     *ladybug.Database
	conn   *ladybug.Connection
	mu     sync.Mutex
	logger *slog.Logger
}

// NewLadybugStore opens (or creates) a Ladybug database and declares the schema.
func NewLadybugStore(cfg *LadybugConfig, logger *slog.Logger) (*LadybugStore, error) {
	if cfg == nil {
		cfg = DefaultLadybugConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}

	database, err := ladybug.OpenDatabase(cfg.DBPath, ladybug.SystemConfig{
		BufferPoolSize:    cfg.BufferPoolSize,
		MaxNumThreads:     cfg.MaxNumThreads,
		EnableCompression: cfg.EnableCompression,
	})
	if err != nil {
		return nil, types.NewConnectivityError("ladybug", fmt.Errorf("failed to open database %s: %w", cfg.DBPath, err))
	}

	conn, err := ladybug.OpenConnection(database)
	if err != nil {
		database.Close()
		return nil, types.NewConnectivityError("ladybug", fmt.Errorf("failed to open connection: %w", err))
	}

	s := &LadybugStore{db: database, conn: conn, logger: logger}

	// The FTS extension must be installed once and loaded on every connection.
	if _, err := s.query("INSTALL FTS", nil); err != nil && !strings.Contains(err.Error(), "already installed") {
		logger.Warn("FTS extension install failed", "error", err)
	}
	if _, err := s.query("LOAD EXTENSION FTS", nil); err != nil && !strings.Contains(err.Error(), "already loaded") {
		logger.Warn("FTS extension load failed", "error", err)
	}

	for _, stmt := range ladybugSchemaQueries {
		if _, err := s.query(stmt, nil); err != nil {
			s.Close()
			return nil, types.NewQueryError("create schema", err)
		}
	}

	return s, nil
}

// query executes a statement, using a prepared statement when parameters are given,
// and returns each row as a column-name keyed map.
func (s *LadybugStore) query(stmt string, params map[string]any) ([]map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result *ladybug.QueryResult
	var err error
	if len(params) > 0 {
		prepared, perr := s.conn.Prepare(stmt)
		if perr != nil {
			return nil, perr
		}
		result, err = s.conn.Execute(prepared, params)
	} else {
		result, err = s.conn.Query(stmt)
	}
	if err != nil {
		return nil, err
	}
	defer result.Close()

	columns := result.GetColumnNames()
	rows := make([]map[string]any, 0)
	for result.HasNext() {
		tuple, err := result.Next()
		if err != nil {
			return nil, err
		}
		values, err := tuple.GetAsSlice()
		if err != nil {
			return nil, err
		}
		row := make(map[string]any, len(values))
		for i, v := range values {
			if i < len(columns) {
				row[columns[i]] = v
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (s *LadybugStore) readHits(ctx context.Context, op, stmt string, params map[string]any) ([]types.Hit, error) {
	if err := ctx.Err(); err != nil {
		return nil, types.NewConnectivityError("ladybug", fmt.Errorf("%s: %w", op, err))
	}
	rows, err := s.query(stmt, params)
	if err != nil {
		return nil, types.NewQueryError(op, err)
	}
	hits := make([]types.Hit, 0, len(rows))
	for _, row := range rows {
		hits = append(hits, hitFromRow(mapGetter(row)))
	}
	return hits, nil
}

// VectorSearch scores every entry embedding with cosine similarity.
// The index name is ignored; Ladybug evaluates the similarity exhaustively.
func (s *LadybugStore) VectorSearch(ctx context.Context, q VectorQuery) ([]types.Hit, error) {
	if err := q.Validate(); err != nil {
		return nil, types.NewQueryError("vector search", err)
	}

	stmt := fmt.Sprintf(`
		MATCH (kb:KnowledgeBase)-[:CONTAINS]->(node:Entry)
		WHERE size(node.embedding) = %d
		WITH node, kb, array_cosine_similarity(node.embedding, CAST($query_embedding AS FLOAT[%d])) AS score
		RETURN`+ladybugHitColumns+`,
		score
		ORDER BY score DESC, id ASC
		LIMIT $top_k`, len(q.Vector), len(q.Vector))

	return s.readHits(ctx, "vector search", stmt, map[string]any{
		"query_embedding": toFloat64s(q.Vector),
		"top_k":           int64(q.TopK),
	})
}

// FulltextSearch runs a BM25 query through the FTS extension.
func (s *LadybugStore) FulltextSearch(ctx context.Context, q FulltextQuery) ([]types.Hit, error) {
	if err := q.Validate(); err != nil {
		return nil, types.NewQueryError("fulltext search", err)
	}
	text := strings.TrimSpace(q.Text)
	if text == "" {
		return []types.Hit{}, nil
	}
	index := q.Index
	if index == "" {
		index = EntryContentIndex
	}

	stmt := fmt.Sprintf(`
		CALL QUERY_FTS_INDEX('Entry', '%s', cast($query AS STRING), TOP := $top_k)
		WITH node, score
		MATCH (kb:KnowledgeBase)-[:CONTAINS]->(node)
		RETURN`+ladybugHitColumns+`,
		score
		ORDER BY score DESC, id ASC`, strings.ReplaceAll(index, "'", ""))

	return s.readHits(ctx, "fulltext search", stmt, map[string]any{
		"query": text,
		"top_k": int64(q.TopK),
	})
}

// Traverse walks the relationship types from the seed and keeps the shortest distance per entry.
func (s *LadybugStore) Traverse(ctx context.Context, q TraversalQuery) ([]types.Hit, error) {
	if err := q.Validate(); err != nil {
		return nil, types.NewQueryError("traversal", err)
	}

	stmt := fmt.Sprintf(`
		MATCH (e:Entry {id: $entry_id})-[r:%s*1..%d]->(node:Entry)
		WITH node, min(length(r)) AS distance
		MATCH (kb:KnowledgeBase)-[:CONTAINS]->(node)
		RETURN`+ladybugHitColumns+`,
		distance
		ORDER BY distance ASC, id ASC
		LIMIT $limit`, relPattern(q.RelTypes), q.MaxDepth)

	return s.readHits(ctx, "traversal", stmt, map[string]any{
		"entry_id": q.SeedID,
		"limit":    int64(q.Limit),
	})
}

// CreateIndices creates the fulltext indexes. Uniqueness comes from the table
// primary keys and vector similarity needs no index.
func (s *LadybugStore) CreateIndices(ctx context.Context, embeddingDims int) error {
	for _, stmt := range ladybugFulltextIndexQueries {
		if _, err := s.query(stmt, nil); err != nil {
			if strings.Contains(err.Error(), "already exists") {
				continue
			}
			return types.NewQueryError("create indices", err)
		}
	}
	return nil
}

// UpsertKnowledgeBase creates or updates a knowledge base node.
func (s *LadybugStore) UpsertKnowledgeBase(ctx context.Context, kb *types.KnowledgeBase) error {
	if kb == nil {
		return types.NewQueryError("upsert knowledge base", fmt.Errorf("cannot upsert nil knowledge base"))
	}
	return s.write("upsert knowledge base", `
		MERGE (kb:KnowledgeBase {name: $name})
		SET kb.description = $description`, map[string]any{
		"name":        kb.Name,
		"description": kb.Description,
	})
}

// UpsertEntry creates or updates an entry and its CONTAINS edge.
func (s *LadybugStore) UpsertEntry(ctx context.Context, kbName string, entry *types.Entry) error {
	if entry == nil {
		return types.NewQueryError("upsert entry", fmt.Errorf("cannot upsert nil entry"))
	}
	id := entry.ID
	if id == "" {
		id = types.EntryID(kbName, entry.Title)
	}
	if err := s.write("upsert entry", `
		MERGE (e:Entry {id: $id})
		SET e.title = $title,
			e.category = $category,
			e.habitat = $habitat,
			e.diet = $diet,
			e.content = $content,
			e.embedding = $embedding`, map[string]any{
		"id":        id,
		"title":     entry.Title,
		"category":  entry.Category,
		"habitat":   entry.Habitat,
		"diet":      entry.Diet,
		"content":   entry.Content,
		"embedding": toFloat64s(entry.Embedding),
	}); err != nil {
		return err
	}
	return s.write("upsert entry", `
		MATCH (kb:KnowledgeBase {name: $kb_name}), (e:Entry {id: $id})
		MERGE (kb)-[:CONTAINS]->(e)`, map[string]any{
		"kb_name": kbName,
		"id":      id,
	})
}

// UpsertFacts creates or updates fact nodes and their HAS_FACT edges.
func (s *LadybugStore) UpsertFacts(ctx context.Context, entryID string, facts []types.Fact) error {
	for _, f := range facts {
		if err := s.write("upsert facts", `
			MATCH (e:Entry {id: $entry_id})
			MERGE (f:Fact {id: $id})
			SET f.text = $text
			MERGE (e)-[:HAS_FACT]->(f)`, map[string]any{
			"entry_id": entryID,
			"id":       f.ID,
			"text":     f.Text,
		}); err != nil {
			return err
		}
	}
	return nil
}

// LinkConcepts merges concept nodes and RELATES_TO edges.
func (s *LadybugStore) LinkConcepts(ctx context.Context, entryID string, concepts []string) error {
	for _, name := range concepts {
		if err := s.write("link concepts", `
			MATCH (e:Entry {id: $entry_id})
			MERGE (c:Concept {name: $name})
			MERGE (e)-[:RELATES_TO]->(c)`, map[string]any{
			"entry_id": entryID,
			"name":     name,
		}); err != nil {
			return err
		}
	}
	return nil
}

// LinkEntries merges a typed edge between two entries and reports whether
// both endpoints exist.
func (s *LadybugStore) LinkEntries(ctx context.Context, fromID, toID, relType string) (bool, error) {
	if !ValidRelType(relType) {
		return false, types.NewQueryError("link entries", fmt.Errorf("%w: %q", ErrInvalidRelType, relType))
	}
	rows, err := s.query(fmt.Sprintf(`
		MATCH (a:Entry {id: $from_id}), (b:Entry {id: $to_id})
		MERGE (a)-[:%s]->(b)
		RETURN count(*) AS linked`, relType), map[string]any{
		"from_id": fromID,
		"to_id":   toID,
	})
	if err != nil {
		return false, types.NewQueryError("link entries", err)
	}
	if len(rows) == 0 {
		return false, nil
	}
	linked, err := MustInt64(rows[0]["linked"], "linked")
	if err != nil {
		return false, types.NewQueryError("link entries", err)
	}
	return linked > 0, nil
}

func (s *LadybugStore) write(op, stmt string, params map[string]any) error {
	if _, err := s.query(stmt, params); err != nil {
		return types.NewQueryError(op, err)
	}
	return nil
}

// Stats counts knowledge bases, entries, concepts and relationships.
func (s *LadybugStore) Stats(ctx context.Context) (*types.GraphStats, error) {
	counts := make(map[string]int64, len(statsQueries))
	for name, stmt := range statsQueries {
		rows, err := s.query(stmt, nil)
		if err != nil {
			return nil, types.NewQueryError("stats", err)
		}
		if len(rows) == 0 {
			continue
		}
		count, err := MustInt64(rows[0]["count"], name)
		if err != nil {
			return nil, types.NewQueryError("stats", err)
		}
		counts[name] = count
	}
	return statsFromCounts(counts), nil
}

// VerifyConnectivity runs a trivial statement on the connection.
func (s *LadybugStore) VerifyConnectivity(ctx context.Context) error {
	if _, err := s.query("RETURN 1 AS ok", nil); err != nil {
		return types.NewConnectivityError("ladybug", err)
	}
	return nil
}

// Provider returns GraphProviderLadybug.
func (s *LadybugStore) Provider() GraphProvider {
	return GraphProviderLadybug
}

// Close closes the connection and the database.
func (s *LadybugStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
	if s.db != nil {
		s.db.Close()
		s.db = nil
	}
	return nil
}
