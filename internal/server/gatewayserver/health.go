package gatewayserver

import "net/http"

// HealthResponse is the response body for both /health and /ready.
type HealthResponse struct {
	Status string `json:"status"`
}

// handleHealth reports liveness unconditionally.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// handleReady reports readiness: the gateway has no dependency it can
// cheaply probe without spending an upstream call, so readiness and
// liveness coincide here.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}
