// Package httpapi exposes the ingestion and chat pipeline over HTTP.
//
// # Import Rules
//
//   - MAY import: internal/core/domain, internal/core/ports/driving,
//     internal/core/ports/driven, internal/logger
//   - MUST NOT import: internal/adapters/driven (adapters are wired by
//     the CLI layer and arrive here behind ports)
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/custodia-labs/ragd/internal/core/ports/driven"
	"github.com/custodia-labs/ragd/internal/core/ports/driving"
	"github.com/custodia-labs/ragd/internal/logger"
)

// DefaultAddr is the listen address when none is configured.
const DefaultAddr = ":8080"

// Config holds configuration for the HTTP server.
type Config struct {
	// Addr is the listen address (default: :8080).
	Addr string

	// DefaultCollection is used when a request names no collection.
	DefaultCollection string

	// ReadTimeout bounds request header and body reads (default: 30s).
	ReadTimeout time.Duration
}

// Dependencies holds the driving-port implementations the server
// exposes. IngestLog is optional.
type Dependencies struct {
	Ingestor  driving.Ingestor
	Retriever driving.Retriever
	Chat      driving.ChatStreamer
	IngestLog driven.IngestionLog
}

// Server serves the REST API.
type Server struct {
	config Config
	deps   Dependencies
	router *gin.Engine
	server *http.Server
}

// New creates a new API server.
func New(config Config, deps Dependencies) *Server {
	if config.Addr == "" {
		config.Addr = DefaultAddr
	}
	if config.ReadTimeout == 0 {
		config.ReadTimeout = 30 * time.Second
	}
	if !logger.IsVerbose() {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		config: config,
		deps:   deps,
		router: gin.New(),
	}
	s.router.Use(gin.Recovery(), requestLogger())
	s.setupRoutes()

	s.server = &http.Server{
		Addr:        config.Addr,
		Handler:     s.router,
		ReadTimeout: config.ReadTimeout,
		// No WriteTimeout: chat responses stream for as long as the
		// model generates.
	}
	return s
}

// setupRoutes registers all API routes.
func (s *Server) setupRoutes() {
	s.router.GET("/healthz", s.handleHealth)

	api := s.router.Group("/api")
	{
		api.POST("/upload", s.handleUpload)
		api.POST("/rag-chat", s.handleChat)
		api.POST("/search", s.handleSearch)
		api.GET("/collections", s.handleCollections)
	}
}

// Handler returns the underlying HTTP handler, used by tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run starts the server and blocks until it stops.
func (s *Server) Run() error {
	logger.Info("HTTP API listening on %s", s.config.Addr)
	err := s.server.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// requestLogger logs each request through the shared logger.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("%s %s -> %d (%s)",
			c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}
