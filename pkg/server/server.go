// Package server exposes the query pipeline over HTTP with gin.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/soundprediction/hybridrag"
	"github.com/soundprediction/hybridrag/pkg/config"
	"github.com/soundprediction/hybridrag/pkg/history"
	"github.com/soundprediction/hybridrag/pkg/server/dto"
	"github.com/soundprediction/hybridrag/pkg/server/handlers"
	"github.com/soundprediction/hybridrag/pkg/types"
)

// Server represents the HTTP server
type Server struct {
	config  *config.Config
	router  *gin.Engine
	rag     hybridrag.HybridRAG
	history history.Store
	logger  *slog.Logger
	server  *http.Server
}

// New creates a new server instance
func New(cfg *config.Config, rag hybridrag.HybridRAG, hist history.Store, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if hist == nil {
		hist = history.NewMemoryStore(cfg.History.MaxEntries)
	}
	return &Server{
		config:  cfg,
		rag:     rag,
		history: hist,
		logger:  logger,
	}
}

// Setup sets up the server routes and middleware
func (s *Server) Setup() {
	if s.config.Server.Mode != "" {
		gin.SetMode(s.config.Server.Mode)
	}

	s.router = gin.New()
	s.router.Use(requestLogger(s.logger))
	s.router.Use(gin.CustomRecovery(recoveryHandler(s.logger)))
	s.router.Use(corsMiddleware())
	s.router.Use(contextMiddleware())

	s.setupRoutes()

	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// setupRoutes sets up all the routes
func (s *Server) setupRoutes() {
	var pinger handlers.Pinger
	if s.rag != nil {
		pinger = s.rag
	}
	healthHandler := handlers.NewHealthHandler(pinger)

	s.router.GET("/health", healthHandler.HealthCheck)
	s.router.GET("/ready", healthHandler.ReadinessCheck)
	s.router.GET("/live", healthHandler.LivenessCheck)
	s.router.GET("/health/detailed", healthHandler.DetailedHealthCheck)

	if s.rag != nil {
		queryHandler := handlers.NewQueryHandler(s.rag, s.history, s.logger)
		searchHandler := handlers.NewSearchHandler(s.rag)
		historyHandler := handlers.NewHistoryHandler(s.history, s.rag)

		api := s.router.Group("/api")
		{
			api.POST("/query", queryHandler.Query)
			api.POST("/search", searchHandler.Search)
			api.GET("/history/:session_id", historyHandler.GetHistory)
			api.GET("/stats", historyHandler.GetStats)
		}
	}

	s.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, dto.NewError("Endpoint not found", ""))
	})
}

// Handler returns the configured router. Setup must be called first.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the server
func (s *Server) Start() error {
	s.logger.Info("starting server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Stop stops the server gracefully and closes the history store.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("stopping server")
	err := s.server.Shutdown(ctx)
	if cerr := s.history.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

// requestLogger logs one line per request.
func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		level := slog.LevelInfo
		if c.Writer.Status() >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		logger.Log(c.Request.Context(), level, "request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}

func recoveryHandler(logger *slog.Logger) gin.RecoveryFunc {
	return func(c *gin.Context, recovered any) {
		logger.ErrorContext(c.Request.Context(), "panic recovered", "panic", recovered, "path", c.Request.URL.Path)
		c.AbortWithStatusJSON(http.StatusInternalServerError, dto.NewError("Internal server error", ""))
	}
}

// corsMiddleware adds CORS headers
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-User-ID, X-Session-ID")
		c.Header("Access-Control-Allow-Methods", "POST, OPTIONS, GET")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// contextMiddleware extracts context information from headers
func contextMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		if userID := c.GetHeader("X-User-ID"); userID != "" {
			ctx = context.WithValue(ctx, types.ContextKeyUserID, userID)
		}
		if sessionID := c.GetHeader("X-Session-ID"); sessionID != "" {
			ctx = context.WithValue(ctx, types.ContextKeySessionID, sessionID)
		}
		ctx = context.WithValue(ctx, types.ContextKeyRequestSource, "server")

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
