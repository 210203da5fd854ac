package gatewayserver

import "net/http"

// registerRoutes wires the gateway-service's HTTP surface onto mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /ready", s.handleReady)
	mux.HandleFunc("POST /query", s.handleQuery)
}
