package hybridrag

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/soundprediction/hybridrag"
	"github.com/soundprediction/hybridrag/pkg/driver"
	"github.com/soundprediction/hybridrag/pkg/ingest"
	"github.com/soundprediction/hybridrag/pkg/types"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Load knowledge base files into the graph",
	Long: `Load knowledge base files into the graph database.

Files are read from the manifest (a JSON array of paths) in the data directory,
or from a single --file. Each entry is embedded, tagged with concepts and
written along with its facts and relatedness edges.`,
	RunE: runIngest,
}

var (
	ingestDataDir     string
	ingestManifest    string
	ingestFile        string
	ingestTagger      string
	ingestSkipIndices bool
	ingestTimeout     time.Duration
)

func init() {
	rootCmd.AddCommand(ingestCmd)

	ingestCmd.Flags().StringVar(&ingestDataDir, "data-dir", "", "Directory holding the manifest and knowledge base files")
	ingestCmd.Flags().StringVar(&ingestManifest, "manifest", "", "Manifest file name, relative to the data directory")
	ingestCmd.Flags().StringVar(&ingestFile, "file", "", "Ingest a single knowledge base file instead of the manifest")
	ingestCmd.Flags().StringVar(&ingestTagger, "tagger", "", "Concept tagger (keyword, gliner)")
	ingestCmd.Flags().BoolVar(&ingestSkipIndices, "skip-indices", false, "Do not create constraints and indexes before loading")
	ingestCmd.Flags().DurationVar(&ingestTimeout, "timeout", 30*time.Minute, "Overall ingestion timeout")

	addBackendFlags(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if ingestDataDir != "" {
		cfg.Ingest.DataDir = ingestDataDir
	}
	if ingestManifest != "" {
		cfg.Ingest.Manifest = ingestManifest
	}
	if ingestTagger != "" {
		cfg.Ingest.Tagger = ingestTagger
	}

	logger, closer := newLogger(cfg)
	defer closer.Close()

	loader := ingest.NewLoader(afero.NewOsFs(), logger)
	var kbs []*types.KnowledgeBase
	if ingestFile != "" {
		kb, err := loader.LoadFile(ingestFile)
		if err != nil {
			return err
		}
		kbs = append(kbs, kb)
	} else {
		kbs, err = loader.LoadManifest(filepath.Join(cfg.Ingest.DataDir, cfg.Ingest.Manifest))
		if err != nil {
			return err
		}
	}

	store, err := driver.New(cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to open graph store: %w", err)
	}
	defer store.Close()

	emb, err := hybridrag.NewEmbedder(cfg)
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}
	defer emb.Close()

	tagger, err := newTagger(cfg.Ingest.Tagger, cfg.Ingest.GlinerModel, cfg.Ingest.Keywords, cfg.Ingest.Threshold)
	if err != nil {
		return err
	}
	if c, ok := tagger.(io.Closer); ok {
		defer c.Close()
	}

	builder, err := ingest.NewBuilder(store, emb,
		ingest.WithTagger(tagger),
		ingest.WithWorkers(cfg.Ingest.Workers),
		ingest.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), ingestTimeout)
	defer cancel()

	if !ingestSkipIndices {
		if err := builder.CreateIndices(ctx); err != nil {
			return fmt.Errorf("failed to create indices: %w", err)
		}
	}

	start := time.Now()
	summary, err := builder.Ingest(ctx, kbs...)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Ingested %d knowledge bases: %d entries, %d facts, %d concept links, %d related links (%s)\n",
		summary.KnowledgeBases, summary.Entries, summary.Facts, summary.ConceptLinks, summary.RelatedLinks,
		time.Since(start).Round(time.Millisecond))
	return nil
}

func newTagger(kind, model string, keywords []string, threshold float32) (ingest.Tagger, error) {
	switch kind {
	case "gliner":
		t, err := ingest.NewGlinerTagger(model, keywords, threshold)
		if err != nil {
			return nil, fmt.Errorf("failed to load gliner model %q: %w", model, err)
		}
		return t, nil
	case "", "keyword":
		return ingest.NewKeywordTagger(keywords), nil
	default:
		return nil, fmt.Errorf("unknown tagger %q", kind)
	}
}
