// Package server exposes the generation pipeline over HTTP: JSON endpoints
// for sessions, chat, files and preview, an SSE endpoint for streaming
// generation, and a reverse proxy for the sandbox preview.
package server

import (
	"encoding/json"
	"log"
	"net/http"

	"vibecode/internal/llm"
	"vibecode/internal/session"
)

// Server is the main application server. The registry is passed in at
// construction; handlers never reach for global state.
type Server struct {
	registry *session.Registry
	client   llm.Client
}

// NewServer creates a Server. client is the provider-level LLM client used
// for requests that are not tied to a session, such as model listing.
func NewServer(registry *session.Registry, client llm.Client) *Server {
	return &Server{registry: registry, client: client}
}

// writeJSON sends a JSON response with the given status.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("writeJSON: encode error: %v", err)
	}
}

// httpError logs and sends a JSON error response.
func (s *Server) httpError(w http.ResponseWriter, message string, code int) {
	log.Printf("HTTP %d: %s", code, message)
	s.writeJSON(w, code, map[string]string{"detail": message})
}

// decodeJSON reads the request body into v.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.httpError(w, "Invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

// sessionFromPath resolves the {id} path value to a live session.
func (s *Server) sessionFromPath(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	id := r.PathValue("id")
	sess, ok := s.registry.Get(id)
	if !ok {
		s.httpError(w, "Session not found", http.StatusNotFound)
		return nil, false
	}
	return sess, true
}
