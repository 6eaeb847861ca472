package hybridrag

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/soundprediction/hybridrag"
	"github.com/soundprediction/hybridrag/pkg/types"
)

var queryCmd = &cobra.Command{
	Use:   "query [question]",
	Short: "Answer a single question from the command line",
	Args:  cobra.ExactArgs(1),
	RunE:  runQuery,
}

var (
	queryTopK        int
	queryJSON        bool
	queryShowContext bool
)

func init() {
	rootCmd.AddCommand(queryCmd)

	queryCmd.Flags().IntVar(&queryTopK, "top-k", 0, "Number of fused entries used as context (default from config)")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "Print the full result as JSON")
	queryCmd.Flags().BoolVar(&queryShowContext, "show-context", false, "Print the assembled context")

	addBackendFlags(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger, closer := newLogger(cfg)
	defer closer.Close()

	client, err := hybridrag.NewClientFromConfig(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize hybridrag: %w", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Retrieval.Timeout+cfg.Generation.Timeout)
	defer cancel()

	start := time.Now()
	result, err := client.Query(ctx, args[0], &hybridrag.QueryOptions{TopK: queryTopK})
	if err != nil && result == nil {
		return err
	}

	out := cmd.OutOrStdout()
	if queryJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if encErr := enc.Encode(result); encErr != nil {
			return encErr
		}
		return err
	}

	printResult(out, result, queryShowContext)
	fmt.Fprintf(out, "\n(%s, %s)\n", result.Status, time.Since(start).Round(time.Millisecond))
	return err
}

func printResult(w io.Writer, r *types.QueryResult, showContext bool) {
	heading := color.New(color.Bold)
	switch r.Status {
	case types.StatusFailed:
		color.New(color.FgRed).Fprintln(w, r.Failure.Message)
		return
	case types.StatusDegraded:
		color.New(color.FgYellow).Fprintln(w, r.Answer)
	default:
		fmt.Fprintln(w, r.Answer)
	}

	if len(r.Sources) > 0 {
		fmt.Fprintln(w)
		heading.Fprintln(w, "Sources:")
		for i, s := range r.Sources {
			fmt.Fprintf(w, "  %d. %s (%s / %s) %.3f\n", i+1, s.EntryTitle, s.KnowledgeBase, s.Category, s.RelevanceScore)
		}
	}

	if showContext && r.Context != "" {
		fmt.Fprintln(w)
		heading.Fprintln(w, "Context:")
		fmt.Fprintln(w, r.Context)
	}
}
