package hybridrag

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/soundprediction/hybridrag/pkg/driver"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print node and relationship counts of the graph",
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
	addBackendFlags(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger, closer := newLogger(cfg)
	defer closer.Close()

	store, err := driver.New(cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to open graph store: %w", err)
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	stats, err := store.Stats(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Knowledge bases: %d\n", stats.KnowledgeBases)
	fmt.Fprintf(out, "Entries:         %d\n", stats.Entries)
	fmt.Fprintf(out, "Concepts:        %d\n", stats.Concepts)
	fmt.Fprintf(out, "Relationships:   %d\n", stats.Relationships)
	return nil
}
