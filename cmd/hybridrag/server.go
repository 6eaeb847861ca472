package hybridrag

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/soundprediction/hybridrag"
	"github.com/soundprediction/hybridrag/pkg/config"
	"github.com/soundprediction/hybridrag/pkg/history"
	"github.com/soundprediction/hybridrag/pkg/server"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the hybridrag HTTP server",
	Long: `Start the HTTP server answering questions over the knowledge graph.

The server provides endpoints for:
- Answering questions (POST /api/query)
- Fused retrieval without generation (POST /api/search)
- Session history (GET /api/history/:session_id)
- Graph statistics (GET /api/stats)
- Health checks (/health, /ready, /live)

Configuration can be provided through config files, environment variables, or command-line flags.`,
	RunE: runServer,
}

var (
	serverHost string
	serverPort int
	serverMode string
)

func init() {
	rootCmd.AddCommand(serverCmd)

	serverCmd.Flags().StringVar(&serverHost, "host", "0.0.0.0", "Server host")
	serverCmd.Flags().IntVar(&serverPort, "port", 5000, "Server port")
	serverCmd.Flags().StringVar(&serverMode, "mode", "release", "Server mode (debug, release, test)")

	addBackendFlags(serverCmd)

	serverCmd.Flags().String("history-backend", "memory", "Session history backend (memory, badger)")
	serverCmd.Flags().String("history-path", "", "Directory of the badger history database")
	serverCmd.Flags().String("telemetry-parquet-path", "", "Directory for error telemetry parquet files")
}

// addBackendFlags registers the database, embedding and generation flags shared by commands.
func addBackendFlags(cmd *cobra.Command) {
	cmd.Flags().String("db-driver", "neo4j", "Database driver (neo4j, ladybug)")
	cmd.Flags().String("db-uri", "bolt://localhost:7687", "Database URI, or path for ladybug")
	cmd.Flags().String("db-username", "", "Database username (not used for ladybug)")
	cmd.Flags().String("db-password", "", "Database password (not used for ladybug)")

	cmd.Flags().String("embedding-provider", "embedeverything", "Embedding provider (embedeverything, openai, ollama)")
	cmd.Flags().String("embedding-model", "", "Embedding model")

	cmd.Flags().String("generation-provider", "ollama", "Generation provider (ollama, openai, rustbert)")
	cmd.Flags().String("generation-model", "", "Generation model")
	cmd.Flags().String("generation-base-url", "", "Generation service base URL")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("host") {
		cfg.Server.Host = serverHost
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = serverPort
	}
	if cmd.Flags().Changed("mode") {
		cfg.Server.Mode = serverMode
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}

	logger, closer := newLogger(cfg)
	defer closer.Close()

	client, err := hybridrag.NewClientFromConfig(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize hybridrag: %w", err)
	}
	defer client.Close()

	hist, err := history.New(cfg.History)
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}

	srv := server.New(cfg, client, hist, logger)
	srv.Setup()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrChan <- err
		}
	}()

	select {
	case err := <-serverErrChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		logger.Info("received signal", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Stop(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		logger.Info("server stopped gracefully")
		return nil
	}
}

// loadConfig loads configuration and applies the flags the command defines.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	overrideConfigWithFlags(cmd, cfg)
	return cfg, nil
}

func overrideConfigWithFlags(cmd *cobra.Command, cfg *config.Config) {
	setString := func(flag string, dst *string) {
		if f := cmd.Flags().Lookup(flag); f != nil && f.Changed {
			*dst = f.Value.String()
		}
	}

	setString("db-driver", &cfg.Database.Driver)
	setString("db-uri", &cfg.Database.URI)
	setString("db-username", &cfg.Database.Username)
	setString("db-password", &cfg.Database.Password)

	setString("embedding-provider", &cfg.Embedding.Provider)
	setString("embedding-model", &cfg.Embedding.Model)

	setString("generation-provider", &cfg.Generation.Provider)
	setString("generation-model", &cfg.Generation.Model)
	setString("generation-base-url", &cfg.Generation.BaseURL)

	setString("history-backend", &cfg.History.Backend)
	setString("history-path", &cfg.History.Path)

	if f := cmd.Flags().Lookup("telemetry-parquet-path"); f != nil && f.Changed {
		cfg.Telemetry.ParquetPath = f.Value.String()
		cfg.Telemetry.Enabled = true
	}
}
