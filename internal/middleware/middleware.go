package middleware

import (
	"log"
	"net/http"
	"strings"
)

// Middleware represents a standard HTTP middleware following the next pattern.
type Middleware func(http.Handler) http.Handler

// Chain applies middlewares in the order provided around a handler.
// The first middleware in the slice is the outermost wrapper.
func Chain(handler http.Handler, middlewares ...Middleware) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}
	return handler
}

// statusWriter wraps http.ResponseWriter to capture the response status.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Flush implements http.Flusher for streaming responses.
func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Logging logs every request with its response status. SSE streams are
// logged at open and close instead of per response.
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/chat/stream") {
			log.Printf("SSE connection started: %s %s", r.Method, r.URL.Path)
			next.ServeHTTP(w, r)
			log.Printf("SSE connection ended: %s %s", r.Method, r.URL.Path)
			return
		}

		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		log.Printf("%s %s [%d]", r.Method, r.URL.Path, sw.status)
	})
}
