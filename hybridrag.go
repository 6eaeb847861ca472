package hybridrag

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/soundprediction/hybridrag/pkg/config"
	"github.com/soundprediction/hybridrag/pkg/driver"
	"github.com/soundprediction/hybridrag/pkg/embedder"
	"github.com/soundprediction/hybridrag/pkg/nlp"
	"github.com/soundprediction/hybridrag/pkg/search"
	"github.com/soundprediction/hybridrag/pkg/types"
)

var (
	// ErrEmptyQuestion is returned when a query has no text.
	ErrEmptyQuestion = errors.New("question cannot be empty")
	// ErrEmbedderRequired is returned when NewClient is given no embedder.
	ErrEmbedderRequired = errors.New("embedder is required")
	// ErrGeneratorRequired is returned when NewClient is given no generation client.
	ErrGeneratorRequired = errors.New("generation client is required")
	// ErrInvalidConfig is returned by NewClient for settings no query could satisfy.
	ErrInvalidConfig = errors.New("invalid client configuration")
)

// Client is the query orchestrator. It is safe for concurrent use; all
// per-query state lives on the call stack.
type Client struct {
	store     Store
	embedder  embedder.Client
	generator nlp.Client

	semantic   search.Channel
	keyword    search.Channel
	relational search.Channel
	fusion     *search.Fusion
	assembler  *search.ContextAssembler

	config *Config
	logger *slog.Logger
}

// Config holds the retrieval and fusion settings of a Client.
type Config struct {
	// SemanticTopK is the number of vector hits fed to fusion.
	SemanticTopK int
	// KeywordTopK is the number of fulltext hits fed to fusion.
	KeywordTopK int
	// RelatedDepth is the traversal depth of the relational expansion.
	RelatedDepth int
	// RelatedLimit caps relational hits regardless of depth.
	RelatedLimit int
	// TopK is the number of fused entries used for context when the caller does not choose.
	TopK int
	// MaxContextLength bounds the assembled context in characters.
	MaxContextLength int
	// RetrievalTimeout bounds each embedding and graph call.
	RetrievalTimeout time.Duration
	// Weights are the per-channel fusion weights.
	Weights search.Weights
	// Normalizer rescales channel scores before weighting.
	Normalizer search.Normalizer
}

// DefaultConfig returns semantic 20, keyword 5, depth 1, related 5, top 5,
// context 4000 and raw-score fusion with weights 0.5/0.4/0.1.
func DefaultConfig() *Config {
	return &Config{
		SemanticTopK:     20,
		KeywordTopK:      5,
		RelatedDepth:     1,
		RelatedLimit:     driver.DefaultTraversalLimit,
		TopK:             5,
		MaxContextLength: search.DefaultMaxContextLength,
		RetrievalTimeout: 30 * time.Second,
		Weights:          search.DefaultWeights(),
		Normalizer:       search.NoopNormalizer{},
	}
}

// ConfigFromSettings maps loaded application settings onto a client Config.
func ConfigFromSettings(cfg *config.Config) (*Config, error) {
	normalizer, err := search.NormalizerByName(cfg.Search.Normalization)
	if err != nil {
		return nil, err
	}
	return &Config{
		SemanticTopK:     cfg.Retrieval.SemanticTopK,
		KeywordTopK:      cfg.Retrieval.KeywordTopK,
		RelatedDepth:     cfg.Retrieval.RelatedDepth,
		RelatedLimit:     cfg.Retrieval.RelatedLimit,
		TopK:             cfg.Retrieval.TopK,
		MaxContextLength: cfg.Retrieval.MaxContextLength,
		RetrievalTimeout: cfg.Retrieval.Timeout,
		Weights: search.Weights{
			types.ChannelSemantic: cfg.Search.Weights.Semantic,
			types.ChannelKeyword:  cfg.Search.Weights.Keyword,
			types.ChannelRelated:  cfg.Search.Weights.Related,
		},
		Normalizer: normalizer,
	}, nil
}

// withDefaults fills zero fields from DefaultConfig.
func (c *Config) withDefaults() *Config {
	d := DefaultConfig()
	if c == nil {
		return d
	}
	out := *c
	if out.SemanticTopK <= 0 {
		out.SemanticTopK = d.SemanticTopK
	}
	if out.KeywordTopK <= 0 {
		out.KeywordTopK = d.KeywordTopK
	}
	if out.RetrievalTimeout <= 0 {
		out.RetrievalTimeout = d.RetrievalTimeout
	}
	if out.RelatedDepth <= 0 {
		out.RelatedDepth = d.RelatedDepth
	}
	if out.RelatedLimit <= 0 {
		out.RelatedLimit = d.RelatedLimit
	}
	if out.TopK <= 0 {
		out.TopK = d.TopK
	}
	if out.MaxContextLength <= 0 {
		out.MaxContextLength = d.MaxContextLength
	}
	if out.Weights == nil {
		out.Weights = d.Weights
	}
	if out.Normalizer == nil {
		out.Normalizer = d.Normalizer
	}
	return &out
}

// validate rejects relational settings beyond what the traversal supports.
func (c *Config) validate() error {
	if c.RelatedDepth > driver.MaxTraversalDepth {
		return fmt.Errorf("%w: related depth %d exceeds %d", ErrInvalidConfig, c.RelatedDepth, driver.MaxTraversalDepth)
	}
	if c.RelatedLimit > driver.DefaultTraversalLimit {
		return fmt.Errorf("%w: related limit %d exceeds %d", ErrInvalidConfig, c.RelatedLimit, driver.DefaultTraversalLimit)
	}
	return nil
}

// QueryOptions holds per-call overrides.
type QueryOptions struct {
	// TopK overrides Config.TopK when positive.
	TopK int
}

// NewClient creates a Client from its collaborators.
func NewClient(store Store, embedderClient embedder.Client, generator nlp.Client, cfg *Config, logger *slog.Logger) (*Client, error) {
	if store == nil {
		return nil, driver.ErrStoreRequired
	}
	if embedderClient == nil {
		return nil, ErrEmbedderRequired
	}
	if generator == nil {
		return nil, ErrGeneratorRequired
	}
	if logger == nil {
		logger = slog.Default()
	}
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &Client{
		store:      store,
		embedder:   embedderClient,
		generator:  generator,
		semantic:   search.NewSemanticChannel(store, embedderClient, cfg.RetrievalTimeout),
		keyword:    search.NewKeywordChannel(store, cfg.RetrievalTimeout),
		relational: search.NewRelationalChannel(store, cfg.RetrievalTimeout, logger),
		fusion:     search.NewFusion(cfg.Weights, search.WithNormalizer(cfg.Normalizer)),
		assembler:  search.NewContextAssembler(cfg.MaxContextLength),
		config:     cfg,
		logger:     logger,
	}, nil
}

// GetStore returns the underlying graph store
func (c *Client) GetStore() Store {
	return c.store
}

// GetEmbedder returns the embedder client
func (c *Client) GetEmbedder() embedder.Client {
	return c.embedder
}

// Config returns the effective configuration.
func (c *Client) Config() Config {
	return *c.config
}

// CreateIndices creates constraints and indexes, sizing the vector index to the embedder.
func (c *Client) CreateIndices(ctx context.Context) error {
	return c.store.CreateIndices(ctx, c.embedder.Dimensions())
}

// Ping checks that the graph store is reachable.
func (c *Client) Ping(ctx context.Context) error {
	return c.store.VerifyConnectivity(ctx)
}

// Close releases the store, embedder and generation client.
func (c *Client) Close() error {
	var errs []error
	if err := c.generator.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close generator: %w", err))
	}
	if err := c.embedder.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close embedder: %w", err))
	}
	if err := c.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close store: %w", err))
	}
	return errors.Join(errs...)
}

// NewClientFromConfig opens the configured graph store, embedder and
// generation client and wires them into a Client. Everything opened so far
// is closed again when a later step fails.
func NewClientFromConfig(cfg *config.Config, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	clientCfg, err := ConfigFromSettings(cfg)
	if err != nil {
		return nil, err
	}

	store, err := driver.New(cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open graph store: %w", err)
	}

	emb, err := NewEmbedder(cfg)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	gen, err := nlp.New(cfg, logger)
	if err != nil {
		_ = emb.Close()
		_ = store.Close()
		return nil, fmt.Errorf("failed to create generation client: %w", err)
	}

	logger.Info("hybridrag client initialized",
		"driver", cfg.Database.Driver,
		"embedding_provider", cfg.Embedding.Provider,
		"generation_provider", cfg.Generation.Provider,
		"generation_model", cfg.Generation.Model)

	return NewClient(store, emb, gen, clientCfg, logger)
}

// NewEmbedder creates the configured embedding client.
func NewEmbedder(cfg *config.Config) (embedder.Client, error) {
	return embedder.New(embedder.Config{
		Provider:   cfg.Embedding.Provider,
		Model:      cfg.Embedding.Model,
		BaseURL:    cfg.Embedding.BaseURL,
		APIKey:     cfg.Embedding.APIKey,
		Dimensions: cfg.Embedding.Dimensions,
		BatchSize:  cfg.Embedding.BatchSize,
	})
}
