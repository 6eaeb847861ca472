package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/mcp"

	"github.com/soundprediction/hybridrag"
	"github.com/soundprediction/hybridrag/pkg/config"
	hybridragLogger "github.com/soundprediction/hybridrag/pkg/logger"
)

// serverName identifies this server to MCP clients.
const serverName = "hybridrag"

// DefaultSearchLimit bounds search_knowledge results when the caller gives no limit.
const DefaultSearchLimit = 10

// MCPServer exposes hybrid retrieval as Genkit tools.
type MCPServer struct {
	config *config.Config
	rag    hybridrag.HybridRAG
	logger *slog.Logger
}

// NewMCPServer creates a new MCP server over an initialized client.
func NewMCPServer(cfg *config.Config, rag hybridrag.HybridRAG, logger *slog.Logger) *MCPServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &MCPServer{config: cfg, rag: rag, logger: logger}
}

// Initialize checks that the graph database answers before tools are offered.
func (s *MCPServer) Initialize(ctx context.Context) error {
	s.logger.Info("Initializing hybridrag MCP server...")

	if s.rag == nil {
		return fmt.Errorf("hybridrag client not initialized")
	}
	if err := s.rag.Ping(ctx); err != nil {
		s.logger.Error("Graph database is not reachable", "error", err)
		return fmt.Errorf("graph database not reachable: %w", err)
	}

	s.logger.Info("MCP server configuration",
		"db_driver", s.config.Database.Driver,
		"generation_provider", s.config.Generation.Provider,
		"generation_model", s.config.Generation.Model,
		"top_k", s.config.Retrieval.TopK,
	)
	return nil
}

// RegisterTools registers all MCP tools with Genkit
func (s *MCPServer) RegisterTools(g *genkit.Genkit) {
	genkit.DefineTool(g, "ask_question",
		"Answer a question from the knowledge graph, citing the entries used as sources.",
		s.AskQuestionTool)

	genkit.DefineTool(g, "search_knowledge",
		"Rank knowledge graph entries for a query without generating an answer.",
		s.SearchKnowledgeTool)

	genkit.DefineTool(g, "graph_stats",
		"Report knowledge base, entry, concept and relationship counts.",
		s.GraphStatsTool)
}

// NewToolServer registers the tools on g and wraps them in an MCP server.
func (s *MCPServer) NewToolServer(g *genkit.Genkit) *mcp.GenkitMCPServer {
	s.RegisterTools(g)
	return mcp.NewMCPServer(g, mcp.MCPServerOptions{Name: serverName})
}

// Run serves the tools over stdio until the client disconnects or ctx is done.
func (s *MCPServer) Run(ctx context.Context) error {
	s.logger.Info("Starting Genkit MCP server")

	g := genkit.Init(ctx)
	srv := s.NewToolServer(g)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ServeStdio()
	}()

	s.logger.Info("MCP server is ready to accept requests", "transport", "stdio")

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("serve stdio: %w", err)
		}
		return nil
	case <-ctx.Done():
		_ = srv.Close()
		return ctx.Err()
	}
}

func main() {
	var (
		dbDriver = flag.String("db-driver", "", "Database driver (neo4j, ladybug)")
		dbURI    = flag.String("db-uri", "", "Database URI, or path for ladybug")
		provider = flag.String("generation-provider", "", "Generation provider (ollama, openai, rustbert)")
		model    = flag.String("model", "", "Generation model name")
		topK     = flag.Int("top-k", 0, "Number of fused entries used as context")
		logLevel = flag.String("log-level", "", "Log level (debug, info, warn, error)")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if *dbDriver != "" {
		cfg.Database.Driver = *dbDriver
	}
	if *dbURI != "" {
		cfg.Database.URI = *dbURI
	}
	if *provider != "" {
		cfg.Generation.Provider = *provider
	}
	if *model != "" {
		cfg.Generation.Model = *model
	}
	if *topK > 0 {
		cfg.Retrieval.TopK = *topK
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}

	if err := config.Validate(cfg); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// stdout carries the MCP transport; logs go to stderr.
	logger := hybridragLogger.New(cfg.Log, os.Stderr)

	client, err := hybridrag.NewClientFromConfig(cfg, logger)
	if err != nil {
		log.Fatalf("Failed to create hybridrag client: %v", err)
	}
	defer client.Close()

	server := NewMCPServer(cfg, client, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Initialize(ctx); err != nil {
		log.Fatalf("Failed to initialize MCP server: %v", err)
	}

	if err := server.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatalf("MCP server error: %v", err)
	}
}
