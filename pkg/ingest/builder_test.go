package ingest

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundprediction/hybridrag/pkg/types"
	"github.com/soundprediction/hybridrag/pkg/utils"
)

type link struct {
	from, to, rel string
}

type fakeStore struct {
	mu       sync.Mutex
	dims     int
	kbs      []string
	entries  map[string]types.Entry
	facts    map[string][]types.Fact
	concepts map[string][]string
	links    []link
	entryErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		entries:  make(map[string]types.Entry),
		facts:    make(map[string][]types.Fact),
		concepts: make(map[string][]string),
	}
}

func (s *fakeStore) CreateIndices(ctx context.Context, dims int) error {
	s.dims = dims
	return nil
}

func (s *fakeStore) UpsertKnowledgeBase(ctx context.Context, kb *types.KnowledgeBase) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.kbs = append(s.kbs, kb.Name)
	return nil
}

func (s *fakeStore) UpsertEntry(ctx context.Context, kbName string, entry *types.Entry) error {
	if s.entryErr != nil {
		return s.entryErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.ID] = *entry
	return nil
}

func (s *fakeStore) UpsertFacts(ctx context.Context, entryID string, facts []types.Fact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.facts[entryID] = facts
	return nil
}

func (s *fakeStore) LinkConcepts(ctx context.Context, entryID string, concepts []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.concepts[entryID] = concepts
	return nil
}

func (s *fakeStore) LinkEntries(ctx context.Context, fromID, toID, relType string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	// Edges are only created once both endpoints exist.
	if _, ok := s.entries[fromID]; !ok {
		return false, errors.New("missing source entry " + fromID)
	}
	if _, ok := s.entries[toID]; !ok {
		return false, nil
	}
	s.links = append(s.links, link{fromID, toID, relType})
	return true, nil
}

type fakeEmbedder struct {
	mu    sync.Mutex
	texts []string
}

func (e *fakeEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		v, _ := e.EmbedSingle(ctx, text)
		out[i] = v
	}
	return out, nil
}

func (e *fakeEmbedder) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.texts = append(e.texts, text)
	return []float32{float32(len(text)), 1}, nil
}

func (e *fakeEmbedder) Dimensions() int { return 2 }
func (e *fakeEmbedder) Close() error    { return nil }

func mammals() *types.KnowledgeBase {
	return &types.KnowledgeBase{
		Name: "Mammals",
		Entries: []types.Entry{
			{
				Title:          "Lion",
				Category:       "Big cat",
				Facts:          []string{"Lions live in a pride.", "Lions are carnivores."},
				RelatedAnimals: []string{"Hyena", ""},
			},
			{Title: "Hyena", Category: "Scavenger", Facts: []string{"Hyenas scavenge on the savanna."}},
			{Title: "Whale", Content: "Whales use echolocation."},
		},
	}
}

func TestBuilderIngest(t *testing.T) {
	store := newFakeStore()
	emb := &fakeEmbedder{}
	builder, err := NewBuilder(store, emb, WithWorkers(2))
	require.NoError(t, err)

	require.NoError(t, builder.CreateIndices(context.Background()))
	assert.Equal(t, 2, store.dims)

	summary, err := builder.Ingest(context.Background(), mammals())
	require.NoError(t, err)
	assert.Equal(t, &Summary{KnowledgeBases: 1, Entries: 3, Facts: 3, ConceptLinks: 5, RelatedLinks: 1}, summary)

	assert.Equal(t, []string{"Mammals"}, store.kbs)

	lion := store.entries["Mammals:Entry:Lion"]
	assert.Equal(t, "Lions live in a pride. Lions are carnivores.", lion.Content)
	assert.Equal(t, []float32{float32(len(lion.Content)), 1}, lion.Embedding)
	assert.Equal(t, "Big cat", lion.Category)

	whale := store.entries["Mammals:Entry:Whale"]
	assert.Equal(t, "Whales use echolocation.", whale.Content)

	assert.Equal(t, []types.Fact{
		{ID: "Mammals:Entry:Lion:Fact:0", Text: "Lions live in a pride."},
		{ID: "Mammals:Entry:Lion:Fact:1", Text: "Lions are carnivores."},
	}, store.facts["Mammals:Entry:Lion"])

	assert.Equal(t, []string{"carnivore", "pride"}, store.concepts["Mammals:Entry:Lion"])
	assert.Equal(t, []string{"savanna"}, store.concepts["Mammals:Entry:Hyena"])
	assert.Equal(t, []string{"echolocation"}, store.concepts["Mammals:Entry:Whale"])

	assert.Equal(t, []link{{"Mammals:Entry:Lion", "Mammals:Entry:Hyena", types.RelRelatedTo}}, store.links)

	sort.Strings(emb.texts)
	assert.Len(t, emb.texts, 3)
}

func TestBuilderIngestSkipsMissingRelatedEntries(t *testing.T) {
	store := newFakeStore()
	builder, err := NewBuilder(store, &fakeEmbedder{})
	require.NoError(t, err)

	kb := mammals()
	kb.Entries[0].RelatedAnimals = []string{"Hyena", "Zebra"}

	summary, err := builder.Ingest(context.Background(), kb)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.RelatedLinks)
	assert.Equal(t, []link{{"Mammals:Entry:Lion", "Mammals:Entry:Hyena", types.RelRelatedTo}}, store.links)
}

func TestBuilderIngestCustomTagger(t *testing.T) {
	store := newFakeStore()
	builder, err := NewBuilder(store, &fakeEmbedder{}, WithTagger(NewKeywordTagger([]string{"scavenge"})))
	require.NoError(t, err)

	_, err = builder.Ingest(context.Background(), mammals())
	require.NoError(t, err)
	assert.Equal(t, []string{"scavenge"}, store.concepts["Mammals:Entry:Hyena"])
	assert.Empty(t, store.concepts["Mammals:Entry:Lion"])
}

func TestBuilderIngestErrors(t *testing.T) {
	store := newFakeStore()
	store.entryErr = types.NewConnectivityError("neo4j", errors.New("down"))
	builder, err := NewBuilder(store, &fakeEmbedder{})
	require.NoError(t, err)

	_, err = builder.Ingest(context.Background(), mammals())
	require.Error(t, err)
	assert.Equal(t, types.FailureConnectivity, types.KindOf(err))
	assert.True(t, strings.Contains(err.Error(), `knowledge base "Mammals"`))
	assert.Empty(t, store.links)

	_, err = builder.Ingest(context.Background(), &types.KnowledgeBase{})
	assert.ErrorIs(t, err, types.ErrEmptyName)
}

type panicTagger struct{}

func (panicTagger) Tag(ctx context.Context, text string) ([]string, error) {
	panic("tagger crashed")
}

func TestBuilderIngestRecoversWorkerPanic(t *testing.T) {
	builder, err := NewBuilder(newFakeStore(), &fakeEmbedder{}, WithTagger(panicTagger{}))
	require.NoError(t, err)

	_, err = builder.Ingest(context.Background(), mammals())
	var panicErr *utils.PanicError
	require.ErrorAs(t, err, &panicErr)
	assert.Equal(t, "tagger crashed", panicErr.Value)
}

func TestNewBuilderRequiresCollaborators(t *testing.T) {
	_, err := NewBuilder(nil, &fakeEmbedder{})
	assert.Error(t, err)
	_, err = NewBuilder(newFakeStore(), nil)
	assert.Error(t, err)
}
