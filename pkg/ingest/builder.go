package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/soundprediction/hybridrag/pkg/driver"
	"github.com/soundprediction/hybridrag/pkg/embedder"
	"github.com/soundprediction/hybridrag/pkg/types"
	"github.com/soundprediction/hybridrag/pkg/utils"
)

// DefaultWorkers is the number of entries processed concurrently.
const DefaultWorkers = 4

// Store is what the builder writes to.
type Store interface {
	driver.SchemaManager
	driver.GraphWriter
}

// Summary counts what one ingestion run wrote.
type Summary struct {
	KnowledgeBases int `json:"knowledge_bases"`
	Entries        int `json:"entries"`
	Facts          int `json:"facts"`
	ConceptLinks   int `json:"concept_links"`
	RelatedLinks   int `json:"related_links"`
}

// Builder writes knowledge bases into the graph store.
type Builder struct {
	store    Store
	embedder embedder.Client
	tagger   Tagger
	workers  int
	logger   *slog.Logger
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithTagger replaces the default keyword tagger.
func WithTagger(t Tagger) BuilderOption {
	return func(b *Builder) { b.tagger = t }
}

// WithWorkers sets the number of entries processed concurrently.
func WithWorkers(n int) BuilderOption {
	return func(b *Builder) {
		if n > 0 {
			b.workers = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) BuilderOption {
	return func(b *Builder) {
		if l != nil {
			b.logger = l
		}
	}
}

// NewBuilder creates a builder.
func NewBuilder(store Store, emb embedder.Client, opts ...BuilderOption) (*Builder, error) {
	if store == nil {
		return nil, driver.ErrStoreRequired
	}
	if emb == nil {
		return nil, errors.New("embedder is required")
	}
	b := &Builder{
		store:    store,
		embedder: emb,
		tagger:   NewKeywordTagger(nil),
		workers:  DefaultWorkers,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// CreateIndices creates constraints and indexes, sizing the vector index to the embedder.
func (b *Builder) CreateIndices(ctx context.Context) error {
	if err := b.store.CreateIndices(ctx, b.embedder.Dimensions()); err != nil {
		return fmt.Errorf("create indices: %w", err)
	}
	b.logger.InfoContext(ctx, "created constraints and indexes", "dimensions", b.embedder.Dimensions())
	return nil
}

// Ingest writes each knowledge base in order. Within a knowledge base,
// entries are processed concurrently; RELATED_TO edges are created only after
// every entry of that knowledge base exists.
func (b *Builder) Ingest(ctx context.Context, kbs ...*types.KnowledgeBase) (*Summary, error) {
	total := &Summary{}
	for _, kb := range kbs {
		s, err := b.ingestOne(ctx, kb)
		if err != nil {
			return total, fmt.Errorf("knowledge base %q: %w", kb.Name, err)
		}
		total.KnowledgeBases++
		total.Entries += s.Entries
		total.Facts += s.Facts
		total.ConceptLinks += s.ConceptLinks
		total.RelatedLinks += s.RelatedLinks
		b.logger.InfoContext(ctx, "completed ingestion", "knowledge_base", kb.Name, "entries", s.Entries)
	}
	return total, nil
}

type entryResult struct {
	facts    int
	concepts int
}

func (b *Builder) ingestOne(ctx context.Context, kb *types.KnowledgeBase) (*Summary, error) {
	if err := kb.Validate(); err != nil {
		return nil, err
	}
	if err := b.store.UpsertKnowledgeBase(ctx, kb); err != nil {
		return nil, err
	}

	results := make([]entryResult, len(kb.Entries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)
	for i := range kb.Entries {
		entry := kb.Entries[i]
		utils.Go(g, func() error {
			r, err := b.processEntry(gctx, kb.Name, entry)
			if err != nil {
				return fmt.Errorf("entry %q: %w", entry.Title, err)
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s := &Summary{KnowledgeBases: 1, Entries: len(kb.Entries)}
	for _, r := range results {
		s.Facts += r.facts
		s.ConceptLinks += r.concepts
	}

	for _, entry := range kb.Entries {
		from := types.EntryID(kb.Name, entry.Title)
		for _, related := range entry.RelatedAnimals {
			if strings.TrimSpace(related) == "" {
				continue
			}
			linked, err := b.store.LinkEntries(ctx, from, types.EntryID(kb.Name, related), types.RelRelatedTo)
			if err != nil {
				return nil, fmt.Errorf("link %q to %q: %w", entry.Title, related, err)
			}
			if !linked {
				b.logger.Warn("related entry not found", "knowledge_base", kb.Name, "entry", entry.Title, "related", related)
				continue
			}
			s.RelatedLinks++
		}
	}
	return s, nil
}

// processEntry stores one entry with its embedding, concepts and facts.
func (b *Builder) processEntry(ctx context.Context, kbName string, entry types.Entry) (entryResult, error) {
	entry.ID = types.EntryID(kbName, entry.Title)
	if len(entry.Facts) > 0 {
		entry.Content = strings.Join(entry.Facts, " ")
	}

	if strings.TrimSpace(entry.Content) != "" {
		vec, err := b.embedder.EmbedSingle(ctx, entry.Content)
		if err != nil {
			return entryResult{}, fmt.Errorf("embed: %w", err)
		}
		entry.Embedding = vec
	}

	concepts, err := b.tagger.Tag(ctx, entry.Content)
	if err != nil {
		return entryResult{}, fmt.Errorf("tag: %w", err)
	}

	if err := b.store.UpsertEntry(ctx, kbName, &entry); err != nil {
		return entryResult{}, err
	}
	if err := b.store.LinkConcepts(ctx, entry.ID, concepts); err != nil {
		return entryResult{}, err
	}

	facts := make([]types.Fact, 0, len(entry.Facts))
	for i, text := range entry.Facts {
		facts = append(facts, types.Fact{ID: types.FactID(entry.ID, i), Text: text})
	}
	if err := b.store.UpsertFacts(ctx, entry.ID, facts); err != nil {
		return entryResult{}, err
	}

	b.logger.DebugContext(ctx, "ingested entry", "entry_id", entry.ID, "facts", len(facts), "concepts", len(concepts))
	return entryResult{facts: len(facts), concepts: len(concepts)}, nil
}
