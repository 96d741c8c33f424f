package sandbox

import (
	"context"
	"fmt"
	"sync"

	"vibecode/internal/models"
)

// StubSandbox is a lightweight in-memory Sandbox implementation for tests.
// Uploaded files land in a map; executed commands are recorded and answered
// by ExecFunc when set.
type StubSandbox struct {
	Name       string
	ExecFunc   func(command string) (*models.ExecResult, error)
	UploadErr  error
	PreviewErr error
	DestroyErr error

	mu           sync.Mutex
	files        map[string][]byte
	commands     []string
	destroyCalls int
}

func NewStubSandbox() *StubSandbox {
	return &StubSandbox{Name: "stub-sandbox", files: make(map[string][]byte)}
}

func (s *StubSandbox) ID() string { return s.Name }

func (s *StubSandbox) UploadFile(_ context.Context, path string, content []byte) error {
	if s.UploadErr != nil {
		return s.UploadErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[path] = append([]byte(nil), content...)
	return nil
}

func (s *StubSandbox) DownloadFile(_ context.Context, path string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	content, ok := s.files[path]
	if !ok {
		return nil, fmt.Errorf("no file at %s", path)
	}
	return append([]byte(nil), content...), nil
}

func (s *StubSandbox) Exec(_ context.Context, command string) (*models.ExecResult, error) {
	s.mu.Lock()
	s.commands = append(s.commands, command)
	s.mu.Unlock()
	if s.ExecFunc != nil {
		return s.ExecFunc(command)
	}
	return &models.ExecResult{}, nil
}

func (s *StubSandbox) PreviewLink(_ context.Context, port int) (*models.PreviewDescriptor, error) {
	if s.PreviewErr != nil {
		return nil, s.PreviewErr
	}
	return &models.PreviewDescriptor{
		URL:   fmt.Sprintf("http://stub.preview:%d", port),
		Token: "stub-token",
	}, nil
}

func (s *StubSandbox) Destroy(context.Context) error {
	s.mu.Lock()
	s.destroyCalls++
	s.mu.Unlock()
	return s.DestroyErr
}

// Commands returns all commands executed so far, in order.
func (s *StubSandbox) Commands() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.commands))
	copy(out, s.commands)
	return out
}

// File returns the uploaded content at path, if any.
func (s *StubSandbox) File(path string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	content, ok := s.files[path]
	return content, ok
}

// DestroyCalls returns how many times Destroy was invoked.
func (s *StubSandbox) DestroyCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.destroyCalls
}

// StubProvisioner hands out a fixed sandbox, or an error.
type StubProvisioner struct {
	Sandbox Sandbox
	Err     error

	mu      sync.Mutex
	created int
}

func (p *StubProvisioner) Create(context.Context) (Sandbox, error) {
	p.mu.Lock()
	p.created++
	p.mu.Unlock()
	if p.Err != nil {
		return nil, p.Err
	}
	if p.Sandbox == nil {
		return NewStubSandbox(), nil
	}
	return p.Sandbox, nil
}

// Created returns how many sandboxes were requested.
func (p *StubProvisioner) Created() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.created
}
