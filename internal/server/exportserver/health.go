package exportserver

import (
	"net/http"

	"github.com/maktaba/corpus/internal/catalog"
)

// HealthResponse is the response body for both /health and /ready.
type HealthResponse struct {
	Status string `json:"status"`
}

// handleHealth reports liveness unconditionally; it never touches a
// collaborator.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// handleReady reports readiness by pinging the catalog, the one
// collaborator every other route depends on.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if _, _, err := s.Catalog.ListBookIDs(r.Context(), catalog.Filter{Limit: 1}); err != nil {
		JSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "degraded"})
		return
	}
	JSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}
