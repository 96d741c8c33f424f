package server

import (
	"fmt"
	"log"
	"net/http"
	"net/http/httputil"
	"net/url"

	"vibecode/internal/models"
)

// handleGetPreview returns the session's preview descriptor. Before the
// sandbox or preview server exists it degrades to an empty descriptor
// rather than an error: the client polls this until a URL appears.
func (s *Server) handleGetPreview(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFromPath(w, r)
	if !ok {
		return
	}

	if _, err := sess.Agent.PreviewURL(r.Context()); err != nil {
		log.Printf("Server: preview unavailable for session %s: %v", sess.ID, err)
		s.writeJSON(w, http.StatusOK, models.PreviewDescriptor{})
		return
	}
	// The browser goes through the proxy so the preview token never leaves
	// the server.
	s.writeJSON(w, http.StatusOK, models.PreviewDescriptor{URL: "/proxy/" + sess.ID + "/"})
}

// handlePreviewProxy forwards the request to the session's in-sandbox
// preview server. The preview token never reaches the browser: the proxy
// injects it here. The `v` query parameter is a client-side cache buster
// and is stripped before forwarding.
func (s *Server) handlePreviewProxy(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFromPath(w, r)
	if !ok {
		return
	}

	desc, err := sess.Agent.PreviewURL(r.Context())
	if err != nil {
		http.Error(w, "Preview not available", http.StatusServiceUnavailable)
		return
	}

	target, err := url.Parse(desc.URL)
	if err != nil {
		log.Printf("Server: bad preview URL for session %s: %v", sess.ID, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	rest := r.PathValue("path")

	proxy := httputil.NewSingleHostReverseProxy(target)
	proxy.Director = func(req *http.Request) {
		req.URL.Scheme = target.Scheme
		req.URL.Host = target.Host
		req.Host = target.Host
		req.URL.Path = "/" + rest

		query := r.URL.Query()
		query.Del("v")
		req.URL.RawQuery = query.Encode()

		if desc.Token != "" {
			req.Header.Set("x-preview-token", desc.Token)
		}
	}
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		log.Printf("Server: preview proxy error for session %s: %v", sess.ID, err)
		http.Error(w, fmt.Sprintf("Preview proxy error: %v", err), http.StatusBadGateway)
	}

	proxy.ServeHTTP(w, r)
}
