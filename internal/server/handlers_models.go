package server

import (
	"net/http"
)

func (s *Server) handleListModels(w http.ResponseWriter, r *http.Request) {
	list, err := s.client.ListModels(r.Context())
	if err != nil {
		s.httpError(w, "Failed to list models: "+err.Error(), http.StatusBadGateway)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"models":  list,
		"current": s.client.Model(),
	})
}
