package server

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"vibecode/internal/models"
	"vibecode/internal/views"
)

// handleChat runs one batch generation turn and returns the full result in
// a single JSON response.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if req.Prompt == "" {
		s.httpError(w, "Prompt is required", http.StatusBadRequest)
		return
	}

	sess, ok := s.registry.Get(req.SessionID)
	if !ok {
		s.httpError(w, "Session not found", http.StatusNotFound)
		return
	}

	result, err := sess.Agent.GenerateWeb(r.Context(), req.Prompt)
	if err != nil {
		s.httpError(w, "Generation failed: "+err.Error(), http.StatusBadGateway)
		return
	}

	resp := models.ChatResponse{
		Message:     result.Message,
		MessageHTML: views.RenderMarkdown(result.Message),
		Code:        result.Code,
		Files:       sess.Agent.Files(),
	}
	if desc, err := sess.Agent.DeployAndPreview(r.Context()); err != nil {
		log.Printf("Server: preview unavailable for session %s: %v", sess.ID, err)
	} else {
		resp.PreviewURL = desc.URL
	}

	s.writeJSON(w, http.StatusOK, resp)
}

// handleChatStream runs one generation turn as Server-Sent Events. Session
// and prompt arrive as query parameters so EventSource clients can connect
// with a plain GET.
func (s *Server) handleChatStream(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	prompt := r.URL.Query().Get("prompt")
	if prompt == "" {
		s.httpError(w, "Prompt is required", http.StatusBadRequest)
		return
	}

	sess, ok := s.registry.Get(sessionID)
	if !ok {
		s.httpError(w, "Session not found", http.StatusNotFound)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		s.httpError(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	for ev := range sess.Agent.StreamGenerate(r.Context(), prompt) {
		if err := writeSSE(w, ev); err != nil {
			log.Printf("Server: SSE write failed for session %s: %v", sess.ID, err)
			return
		}
		flusher.Flush()
	}
}

// writeSSE serializes one event in SSE wire format: the event type on its
// own line, the JSON-encoded payload on the data line.
func writeSSE(w http.ResponseWriter, ev models.StreamEvent) error {
	data, err := json.Marshal(ev.Content)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", ev.Type, err)
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, data)
	return err
}

// handleRun generates a program, executes it in the sandbox, and auto-fixes
// on errors unless the request disables it.
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	var req models.RunRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if req.Prompt == "" {
		s.httpError(w, "Prompt is required", http.StatusBadRequest)
		return
	}

	sess, ok := s.registry.Get(req.SessionID)
	if !ok {
		s.httpError(w, "Session not found", http.StatusNotFound)
		return
	}

	language := req.Language
	if language == "" {
		language = "python"
	}
	autoFix := true
	if req.AutoFix != nil {
		autoFix = *req.AutoFix
	}

	result, err := sess.Agent.Run(r.Context(), req.Prompt, language, autoFix)
	if err != nil {
		s.httpError(w, "Run failed: "+err.Error(), http.StatusBadGateway)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}
