// Package gatewayserver exposes the RAG gateway's HTTP surface: a
// single /query endpoint that answers questions over the corpus,
// either as one JSON response or as a streamed NDJSON body, built the
// way the export-service's own server builds its route table.
package gatewayserver

import (
	"log/slog"
	"net/http"

	"github.com/maktaba/corpus/internal/gateway"
	"github.com/maktaba/corpus/internal/httpkit"
)

// JSON and Error are thin aliases over httpkit so every handler in
// this package shares one response envelope.
var (
	JSON  = httpkit.JSON
	Error = httpkit.Error
)

// Server holds the gateway and its logger.
type Server struct {
	Gateway *gateway.Gateway
	Logger  *slog.Logger

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
