// Package server provides the HTTP API for Redline.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/redlinehq/redline/internal/config"
	"github.com/redlinehq/redline/internal/pipeline"
	"github.com/redlinehq/redline/internal/reference"
	"github.com/redlinehq/redline/internal/retriever"
	"github.com/redlinehq/redline/internal/storage"
	"github.com/redlinehq/redline/internal/vector"
)

// Server is the HTTP server for the Redline API.
type Server struct {
	pipeline    *pipeline.Pipeline
	retriever   *retriever.Retriever
	ingester    *reference.Ingester
	vectorStore *vector.Store
	storage     storage.Storage
	config      *config.Config
	logger      *zap.Logger
	server      *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(
	pl *pipeline.Pipeline,
	ret *retriever.Retriever,
	ing *reference.Ingester,
	vectorStore *vector.Store,
	store storage.Storage,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	return &Server{
		pipeline:    pl,
		retriever:   ret,
		ingester:    ing,
		vectorStore: vectorStore,
		storage:     store,
		config:      cfg,
		logger:      logger,
	}
}

// Router builds the chi router with all API routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(5 * time.Minute))
	r.Use(middleware.Compress(5))

	r.Post("/api/v1/tasks", s.handleCreateTask)
	r.Get("/api/v1/reports/{id}", s.handleGetReport)
	r.Post("/api/v1/references/rebuild", s.handleRebuildReferences)
	r.Post("/api/v1/query", s.handleQuery)
	r.Get("/api/v1/status", s.handleStatus)
	r.Get("/health", s.handleHealth)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Router(),
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
