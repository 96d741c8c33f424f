// Package session ties one sandbox-backed web agent to an ID and manages
// session lifecycle through an explicitly constructed registry that is
// passed to handlers, never reached through a hidden global.
package session

import (
	"context"
	"log"
	"sync"
	"time"

	"vibecode/internal/agent"
)

// Status is a session's lifecycle state.
type Status string

const (
	StatusActive    Status = "active"
	StatusDestroyed Status = "destroyed"
)

// Session owns one web agent, and through it one sandbox handle and one
// file store. The sandbox and file store share the session's lifetime:
// destroying the session destroys both.
type Session struct {
	ID    string
	Agent *agent.WebAgent

	mu           sync.Mutex
	status       Status
	createdAt    time.Time
	lastActivity time.Time
}

func newSession(id string, a *agent.WebAgent) *Session {
	now := time.Now()
	return &Session{
		ID:           id,
		Agent:        a,
		status:       StatusActive,
		createdAt:    now,
		lastActivity: now,
	}
}

func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Session) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}

// touch records activity so the janitor does not reap a live session.
func (s *Session) touch() {
	s.mu.Lock()
	s.lastActivity = time.Now()
	s.mu.Unlock()
}

// destroy releases the session's sandbox. Cleanup errors are logged and
// swallowed: a session must always be removable even when remote teardown
// partially fails.
func (s *Session) destroy(ctx context.Context) {
	s.mu.Lock()
	if s.status == StatusDestroyed {
		s.mu.Unlock()
		return
	}
	s.status = StatusDestroyed
	s.mu.Unlock()

	if err := s.Agent.Destroy(ctx); err != nil {
		log.Printf("Session %s: cleanup error (ignored): %v", s.ID, err)
	}
}
