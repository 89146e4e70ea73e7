// Package server exposes the cataloging pipeline over a JSON REST API.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/memoria-cultural/memoria/internal/catalog"
	"github.com/memoria-cultural/memoria/internal/common"
	"github.com/memoria-cultural/memoria/internal/persist"
	"github.com/memoria-cultural/memoria/internal/pipeline"
	"github.com/memoria-cultural/memoria/internal/repository"
)

// DocumentProcessor runs the recover-then-extract pipeline for one document.
type DocumentProcessor interface {
	Process(ctx context.Context, path string, schema *catalog.Schema) (*pipeline.Result, error)
}

// SchemaLoader resolves ontology identifiers and lists available files.
type SchemaLoader interface {
	Load(identifier string) (*catalog.Schema, error)
	Available(extensions []string) []string
}

// Submitter is the persistence queue surface the handlers need.
type Submitter interface {
	Submit(ctx context.Context, items []catalog.CandidateItem, repo repository.RepoConfig) (string, error)
	Status(ctx context.Context, taskID string) (*persist.Task, error)
}

// RepositoryLister enumerates the datasets the gateway exposes.
type RepositoryLister interface {
	ListRepositories(ctx context.Context) []repository.Binding
}

// TaskExporter renders a task's results as a downloadable workbook.
type TaskExporter interface {
	ExportTaskXLSX(ctx context.Context, taskID string) ([]byte, error)
}

// Server holds the state for the REST API server. The active schema is the
// only mutable piece; it is swapped atomically under the lock so an in-flight
// document keeps the schema it started with.
type Server struct {
	cfg       common.ServerConfig
	processor DocumentProcessor
	loader    SchemaLoader
	queue     Submitter
	gateway   RepositoryLister
	exporter  TaskExporter
	logger    *slog.Logger
	router    *gin.Engine

	tripleStoreURL string

	mu         sync.RWMutex
	schema     *catalog.Schema
	identifier string
}

func New(cfg common.ServerConfig, tripleStoreURL string,
	processor DocumentProcessor, loader SchemaLoader, queue Submitter,
	gateway RepositoryLister, exporter TaskExporter, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:            cfg,
		processor:      processor,
		loader:         loader,
		queue:          queue,
		gateway:        gateway,
		exporter:       exporter,
		logger:         logger,
		router:         gin.Default(),
		tripleStoreURL: tripleStoreURL,
		schema:         catalog.DefaultSchema(),
		identifier:     "default",
	}
	s.setupRoutes()
	return s
}

// Run starts the server on the specified address.
func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}

// Handler exposes the router for embedding into an http.Server or tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	s.router.Use(requestID())

	v1 := s.router.Group("/api/v1")
	v1.GET("/health", s.healthCheck)

	v1.GET("/config/ontology", s.handleGetOntology)
	v1.PUT("/config/ontology", s.handleSetOntology)
	v1.GET("/config/ontologies/available", s.handleAvailableOntologies)
	v1.POST("/config/ontologies/upload", s.handleUploadOntology)

	v1.POST("/documents/process", s.handleProcessDocument)

	v1.GET("/repositories", s.handleRepositories)
	v1.POST("/persistence/save", s.handleSave)
	v1.GET("/persistence/status/:task_id", s.handlePersistenceStatus)
	v1.GET("/tasks/:task_id/export", s.handleExportTask)
}

// Health check
func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "MemoriA API está operacional"})
}

// activeSchema returns the schema and identifier current at call time.
func (s *Server) activeSchema() (*catalog.Schema, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.schema, s.identifier
}

func (s *Server) setActiveSchema(schema *catalog.Schema, identifier string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schema = schema
	s.identifier = identifier
}

// requestID tags every request context so downstream log lines can be
// correlated. Echoed back in the X-Request-ID header.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader("X-Request-ID")
		if rid == "" {
			rid = uuid.New().String()
		}
		c.Request = c.Request.WithContext(common.WithRequestID(c.Request.Context(), rid))
		c.Header("X-Request-ID", rid)
		c.Next()
	}
}

func handleError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, common.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, common.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, common.ErrUnauthorized):
		status = http.StatusUnauthorized
	}

	var appErr *common.AppError
	if errors.As(err, &appErr) {
		c.JSON(status, gin.H{"error": appErr.Message})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
