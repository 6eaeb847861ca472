package search

import (
	"context"
	"sync"

	"github.com/soundprediction/hybridrag/pkg/driver"
	"github.com/soundprediction/hybridrag/pkg/types"
)

type fakeStore struct {
	mu sync.Mutex

	vectorHits   []types.Hit
	fulltextHits []types.Hit
	traverseHits []types.Hit
	err          error

	vectorQueries    []driver.VectorQuery
	fulltextQueries  []driver.FulltextQuery
	traversalQueries []driver.TraversalQuery
}

func (s *fakeStore) VectorSearch(ctx context.Context, q driver.VectorQuery) ([]types.Hit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vectorQueries = append(s.vectorQueries, q)
	if s.err != nil {
		return nil, s.err
	}
	return limitHits(s.vectorHits, q.TopK), nil
}

func (s *fakeStore) FulltextSearch(ctx context.Context, q driver.FulltextQuery) ([]types.Hit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fulltextQueries = append(s.fulltextQueries, q)
	if s.err != nil {
		return nil, s.err
	}
	return limitHits(s.fulltextHits, q.TopK), nil
}

func (s *fakeStore) Traverse(ctx context.Context, q driver.TraversalQuery) ([]types.Hit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.traversalQueries = append(s.traversalQueries, q)
	if s.err != nil {
		return nil, s.err
	}
	out := make([]types.Hit, len(s.traverseHits))
	copy(out, s.traverseHits)
	return out, nil
}

func limitHits(hits []types.Hit, k int) []types.Hit {
	if len(hits) > k {
		hits = hits[:k]
	}
	out := make([]types.Hit, len(hits))
	copy(out, hits)
	return out
}

type fakeEmbedder struct {
	vector []float32
	err    error
	texts  []string
}

func (e *fakeEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	e.texts = append(e.texts, texts...)
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = e.vector
	}
	return out, nil
}

func (e *fakeEmbedder) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (e *fakeEmbedder) Dimensions() int { return len(e.vector) }
func (e *fakeEmbedder) Close() error    { return nil }

func hit(id string, score float64) types.Hit {
	return types.Hit{ID: id, Title: id, Category: "cat", Content: "content of " + id, KnowledgeBaseName: "kb", Score: score}
}

func ids(hits []types.ScoredHit) []string {
	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.ID
	}
	return out
}
