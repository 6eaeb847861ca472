package driver

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// GraphProvider represents the type of graph database provider
type GraphProvider string

const (
	GraphProviderNeo4j   GraphProvider = "neo4j"
	GraphProviderLadybug GraphProvider = "ladybug"
)

// Index names created by CreateIndices.
const (
	EntryEmbeddingIndex = "entry_embeddings"
	EntryContentIndex   = "entry_content"
	FactContentIndex    = "fact_content"
)

// MaxTraversalDepth bounds variable-length traversals.
const MaxTraversalDepth = 5

// DefaultTraversalLimit is the number of related entries returned regardless of depth.
const DefaultTraversalLimit = 5

var (
	ErrInvalidTopK    = errors.New("top_k must be positive")
	ErrInvalidDepth   = fmt.Errorf("max_depth must be between 1 and %d", MaxTraversalDepth)
	ErrEmptyVector    = errors.New("query vector cannot be empty")
	ErrInvalidRelType = errors.New("invalid relationship type")
	ErrEmptySeed      = errors.New("seed entry id cannot be empty")
	ErrStoreRequired  = errors.New("graph store is required")
	relTypePattern    = regexp.MustCompile(`^[A-Z][A-Z0-9_]*$`)
)

// VectorQuery is a nearest-neighbour query against an embedding index.
type VectorQuery struct {
	Index  string
	TopK   int
	Vector []float32
}

// Validate checks the query parameters.
func (q VectorQuery) Validate() error {
	if q.TopK <= 0 {
		return ErrInvalidTopK
	}
	if len(q.Vector) == 0 {
		return ErrEmptyVector
	}
	return nil
}

// FulltextQuery is a relevance query against a fulltext index.
type FulltextQuery struct {
	Index string
	Text  string
	TopK  int
}

// Validate checks the query parameters.
func (q FulltextQuery) Validate() error {
	if q.TopK <= 0 {
		return ErrInvalidTopK
	}
	return nil
}

// TraversalQuery is a bounded variable-length walk from a seed entry.
type TraversalQuery struct {
	SeedID   string
	RelTypes []string
	MaxDepth int
	Limit    int
}

// Validate checks the query parameters. Relationship types are interpolated
// into the statement, so only upper-case identifiers are accepted.
func (q TraversalQuery) Validate() error {
	if strings.TrimSpace(q.SeedID) == "" {
		return ErrEmptySeed
	}
	if q.MaxDepth < 1 || q.MaxDepth > MaxTraversalDepth {
		return ErrInvalidDepth
	}
	if q.Limit <= 0 {
		return ErrInvalidTopK
	}
	if len(q.RelTypes) == 0 {
		return ErrInvalidRelType
	}
	for _, rt := range q.RelTypes {
		if !ValidRelType(rt) {
			return fmt.Errorf("%w: %q", ErrInvalidRelType, rt)
		}
	}
	return nil
}

// ValidRelType reports whether a relationship type is safe to interpolate.
func ValidRelType(relType string) bool {
	return relTypePattern.MatchString(relType)
}

// relPattern renders a relationship type alternation such as SIMILAR_TO|RELATED_TO.
func relPattern(relTypes []string) string {
	return strings.Join(relTypes, "|")
}
