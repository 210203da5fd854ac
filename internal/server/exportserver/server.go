// Package exportserver exposes the export-service HTTP surface: book
// catalog browsing, export job submission, job/DLQ inspection, and
// raw/metadata/embeddings downloads, built over net/http.ServeMux with
// a registerRoutes method wiring one handler per route.
package exportserver

import (
	"log/slog"
	"net/http"

	"github.com/maktaba/corpus/internal/catalog"
	"github.com/maktaba/corpus/internal/httpkit"
	"github.com/maktaba/corpus/internal/jobs"
	"github.com/maktaba/corpus/internal/objectstore"
	"github.com/maktaba/corpus/internal/relstore"
	"github.com/maktaba/corpus/internal/vectorstore"
)

// JSON and Error are thin aliases over httpkit so every handler in this
// package uses one response envelope without repeating the import.
var (
	JSON  = httpkit.JSON
	Error = httpkit.Error
)

// Server holds every dependency the export-service's handlers need.
type Server struct {
	Catalog    *catalog.Store
	Objects    *objectstore.Store
	Relational *relstore.Store
	Vectors    *vectorstore.Store
	Jobs       *jobs.Manager
	Partition  string
	Logger     *slog.Logger

	mux http.Handler
}

// New builds a Server and registers its routes.
func New(s Server) *Server {
	if s.Logger == nil {
		s.Logger = slog.Default()
	}
	mux := http.NewServeMux()
	s.registerRoutes(mux)
	s.mux = mux
	return &s
}

// Handler returns the root http.Handler, wrapped with request-id,
// logging, and panic-recovery middleware in that order.
func (s *Server) Handler() http.Handler {
	return httpkit.Chain(s.mux,
		httpkit.RequestIDMiddleware,
		httpkit.LoggingMiddleware(s.Logger),
		httpkit.RecoverMiddleware(s.Logger),
	)
}
