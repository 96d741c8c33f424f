package server

import (
	"net/http"

	"vibecode/internal/models"
)

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req models.CreateSessionRequest
	if r.ContentLength > 0 && !s.decodeJSON(w, r, &req) {
		return
	}

	sess := s.registry.Create(req.Model)
	s.writeJSON(w, http.StatusCreated, models.SessionResponse{
		SessionID: sess.ID,
		Status:    string(sess.Status()),
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFromPath(w, r)
	if !ok {
		return
	}

	resp := models.SessionResponse{
		SessionID: sess.ID,
		Status:    string(sess.Status()),
		Files:     sess.Agent.Files(),
	}
	if desc, err := sess.Agent.PreviewURL(r.Context()); err == nil {
		resp.PreviewURL = desc.URL
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !s.registry.Destroy(r.Context(), id) {
		s.httpError(w, "Session not found", http.StatusNotFound)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "destroyed"})
}

func (s *Server) handleSetModel(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFromPath(w, r)
	if !ok {
		return
	}

	var req models.SetModelRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if req.Model == "" {
		s.httpError(w, "Model is required", http.StatusBadRequest)
		return
	}

	sess.Agent.SetModel(req.Model)
	s.writeJSON(w, http.StatusOK, models.StreamEvent{
		Type:    models.EventModelChanged,
		Content: req.Model,
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFromPath(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"session_id": sess.ID,
		"history":    sess.Agent.History(),
	})
}
