package server

import (
	"log"
	"net/http"

	"vibecode/internal/models"
)

func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFromPath(w, r)
	if !ok {
		return
	}

	names := sess.Agent.Files()
	infos := make([]models.FileInfo, 0, len(names))
	for _, name := range names {
		infos = append(infos, models.FileInfo{Path: name, Name: name})
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"files": infos})
}

func (s *Server) handleGetFile(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFromPath(w, r)
	if !ok {
		return
	}

	name := r.PathValue("path")
	content, ok := sess.Agent.FetchFile(r.Context(), name)
	if !ok {
		s.httpError(w, "File not found", http.StatusNotFound)
		return
	}
	s.writeJSON(w, http.StatusOK, models.FileContent{Path: name, Content: content})
}

// handleUpdateFile applies a direct edit to one workspace file and
// redeploys so the preview serves the new content.
func (s *Server) handleUpdateFile(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFromPath(w, r)
	if !ok {
		return
	}

	name := r.PathValue("path")
	var req models.UpdateFileRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	if err := sess.Agent.UpdateFile(r.Context(), name, req.Content); err != nil {
		s.httpError(w, "Update failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if _, err := sess.Agent.DeployAndPreview(r.Context()); err != nil {
		log.Printf("Server: redeploy after edit failed for session %s: %v", sess.ID, err)
	}
	s.writeJSON(w, http.StatusOK, models.FileContent{Path: name, Content: req.Content})
}
