package server

import (
	"net/http"

	"vibecode/internal/middleware"
)

// RegisterRoutes creates and configures the HTTP mux with Go 1.22+ method
// routing.
func (s *Server) RegisterRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// Models
	mux.HandleFunc("GET /api/models", s.handleListModels)

	// Sessions
	mux.HandleFunc("POST /api/sessions", s.handleCreateSession)
	mux.HandleFunc("GET /api/sessions/{id}", s.handleGetSession)
	mux.HandleFunc("DELETE /api/sessions/{id}", s.handleDeleteSession)
	mux.HandleFunc("POST /api/sessions/{id}/model", s.handleSetModel)
	mux.HandleFunc("GET /api/sessions/{id}/history", s.handleHistory)

	// Generation
	mux.HandleFunc("POST /api/chat", s.handleChat)
	mux.HandleFunc("GET /api/chat/stream", s.handleChatStream)
	mux.HandleFunc("POST /api/run", s.handleRun)

	// Workspace files
	mux.HandleFunc("GET /api/files/{id}", s.handleListFiles)
	mux.HandleFunc("GET /api/files/{id}/{path...}", s.handleGetFile)
	mux.HandleFunc("PUT /api/files/{id}/{path...}", s.handleUpdateFile)

	// Preview
	mux.HandleFunc("GET /api/preview/{id}", s.handleGetPreview)
	mux.HandleFunc("GET /proxy/{id}/{path...}", s.handlePreviewProxy)
	mux.HandleFunc("GET /proxy/{id}", s.handlePreviewProxy)

	return mux
}

// WrapWithMiddleware applies standard middleware to the mux.
func (s *Server) WrapWithMiddleware(mux *http.ServeMux) http.Handler {
	return middleware.Chain(mux, middleware.Logging)
}
