package exportserver

import "net/http"

// registerRoutes wires the export-service's HTTP surface onto mux,
// using Go 1.22+ pattern routing for method-and-path matching.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /ready", s.handleReady)

	mux.HandleFunc("GET /authors", s.handleListAuthors)
	mux.HandleFunc("GET /categories", s.handleListCategories)

	mux.HandleFunc("GET /books", s.handleListBooks)
	mux.HandleFunc("GET /books/{id}", s.handleGetBook)
	mux.HandleFunc("DELETE /books/{id}", s.handleDeleteBook)
	mux.HandleFunc("DELETE /books", s.handleDeleteBooks)

	mux.HandleFunc("POST /export/books/{id}", s.handleExportOneBook)
	mux.HandleFunc("POST /export/books", s.handleExportBooks)

	mux.HandleFunc("GET /jobs", s.handleListJobs)
	mux.HandleFunc("GET /jobs/{id}", s.handleGetJob)
	mux.HandleFunc("GET /jobs/dlq", s.handleListDLQ)
	mux.HandleFunc("POST /jobs/dlq/{index}/retry", s.handleRetryDLQEntry)
	mux.HandleFunc("DELETE /jobs/dlq", s.handleClearDLQ)

	mux.HandleFunc("GET /books/{id}/download/raw", s.handleDownloadRaw)
	mux.HandleFunc("GET /books/{id}/download/metadata", s.handleDownloadMetadata)
	mux.HandleFunc("GET /books/{id}/download/embeddings", s.handleDownloadEmbeddings)
}
