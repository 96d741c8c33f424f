package session

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"vibecode/internal/agent"
	"vibecode/internal/llm"
	"vibecode/internal/sandbox"
)

// ClientFactory builds an LLM client for a new session. An empty model
// selects the factory's default.
type ClientFactory func(model string) llm.Client

// Registry holds all live sessions. Sessions are independent and proceed
// fully in parallel; each owns its own sandbox handle and file store.
type Registry struct {
	newClient   ClientFactory
	provisioner sandbox.Provisioner
	maxIdle     time.Duration

	mu       sync.RWMutex
	sessions map[string]*Session

	stopOnce sync.Once
	stop     chan struct{}
}

func NewRegistry(newClient ClientFactory, provisioner sandbox.Provisioner, maxIdle time.Duration) *Registry {
	return &Registry{
		newClient:   newClient,
		provisioner: provisioner,
		maxIdle:     maxIdle,
		sessions:    make(map[string]*Session),
		stop:        make(chan struct{}),
	}
}

// Create makes a new session. The sandbox is not provisioned here: it is
// created lazily on the first generate or execute that needs one.
func (r *Registry) Create(model string) *Session {
	id := uuid.NewString()[:8]
	s := newSession(id, agent.NewWebAgent(r.newClient(model), r.provisioner))

	r.mu.Lock()
	r.sessions[id] = s
	r.mu.Unlock()

	log.Printf("Registry: Created session %s", id)
	return s
}

// Get returns the session and marks it active.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if ok {
		s.touch()
	}
	return s, ok
}

// Destroy removes the session and releases its sandbox. Returns false when
// no such session exists. Remote cleanup failures never prevent removal.
func (r *Registry) Destroy(ctx context.Context, id string) bool {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if !ok {
		return false
	}
	s.destroy(ctx)
	log.Printf("Registry: Destroyed session %s", id)
	return true
}

// Count returns the number of live sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// CleanupInactive destroys every session idle past the registry's max idle
// age.
func (r *Registry) CleanupInactive(ctx context.Context) {
	cutoff := time.Now().Add(-r.maxIdle)

	r.mu.RLock()
	var stale []string
	for id, s := range r.sessions {
		if s.LastActivity().Before(cutoff) {
			stale = append(stale, id)
		}
	}
	r.mu.RUnlock()

	for _, id := range stale {
		log.Printf("Registry: Reaping inactive session %s", id)
		r.Destroy(ctx, id)
	}
}

// DestroyAll tears down every session, typically at shutdown.
func (r *Registry) DestroyAll(ctx context.Context) {
	r.mu.Lock()
	all := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		all = append(all, s)
	}
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	for _, s := range all {
		s.destroy(ctx)
	}
	if len(all) > 0 {
		log.Printf("Registry: Destroyed %d sessions", len(all))
	}
}

// StartJanitor launches the background loop that reaps inactive sessions
// every interval until Close is called.
func (r *Registry) StartJanitor(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				r.CleanupInactive(ctx)
			case <-r.stop:
				return
			}
		}
	}()
}

// Close stops the janitor. Safe to call more than once.
func (r *Registry) Close() {
	r.stopOnce.Do(func() { close(r.stop) })
}
