package agent

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"vibecode/internal/models"
	"vibecode/internal/sandbox"
)

func readyWebAgent(t *testing.T, stub *sandbox.StubSandbox) *WebAgent {
	t.Helper()
	w := NewWebAgent(&fakeLLM{}, &sandbox.StubProvisioner{Sandbox: stub})
	if _, err := w.ensureSandbox(context.Background()); err != nil {
		t.Fatalf("ensureSandbox: %v", err)
	}
	return w
}

func TestEnsureRunningStartsServerOnce(t *testing.T) {
	stub := sandbox.NewStubSandbox()
	w := readyWebAgent(t, stub)

	if err := w.EnsureRunning(context.Background()); err != nil {
		t.Fatalf("EnsureRunning: %v", err)
	}
	first := len(stub.Commands())

	// kill, start, and at least one readiness probe.
	if first < 3 {
		t.Fatalf("first call ran %d commands: %v", first, stub.Commands())
	}
	commands := stub.Commands()
	if !strings.Contains(commands[0], "pkill") {
		t.Errorf("first command should kill stale servers: %q", commands[0])
	}
	if !strings.Contains(commands[1], "http.server") {
		t.Errorf("second command should start the server: %q", commands[1])
	}

	if err := w.EnsureRunning(context.Background()); err != nil {
		t.Fatalf("second EnsureRunning: %v", err)
	}
	if got := len(stub.Commands()); got != first {
		t.Errorf("second call ran %d extra commands", got-first)
	}
}

func TestEnsureRunningWithoutSandbox(t *testing.T) {
	w := NewWebAgent(&fakeLLM{}, &sandbox.StubProvisioner{})
	if err := w.EnsureRunning(context.Background()); !errors.Is(err, ErrNoSandbox) {
		t.Errorf("err = %v, want ErrNoSandbox", err)
	}
}

func TestEnsureRunningRetriesAfterTimeout(t *testing.T) {
	stub := sandbox.NewStubSandbox()
	ready := false
	stub.ExecFunc = func(cmd string) (*models.ExecResult, error) {
		if strings.Contains(cmd, "urllib") && !ready {
			return &models.ExecResult{ExitCode: 1}, nil
		}
		return &models.ExecResult{}, nil
	}
	w := readyWebAgent(t, stub)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	if err := w.EnsureRunning(ctx); err == nil {
		t.Fatal("expected readiness failure while the port stays closed")
	}

	// The failed start must not be latched: once the port opens, a fresh
	// call succeeds.
	ready = true
	if err := w.EnsureRunning(context.Background()); err != nil {
		t.Fatalf("EnsureRunning after recovery: %v", err)
	}
}

func TestPreviewURLCachedAfterFirstResolve(t *testing.T) {
	stub := sandbox.NewStubSandbox()
	w := readyWebAgent(t, stub)

	first, err := w.PreviewURL(context.Background())
	if err != nil {
		t.Fatalf("PreviewURL: %v", err)
	}
	if first.URL == "" || first.Token == "" {
		t.Fatalf("descriptor = %+v", first)
	}

	// Provider failures after the first resolve are invisible.
	stub.PreviewErr = errors.New("provider down")
	second, err := w.PreviewURL(context.Background())
	if err != nil {
		t.Fatalf("cached PreviewURL: %v", err)
	}
	if second.URL != first.URL {
		t.Errorf("cached URL = %q, want %q", second.URL, first.URL)
	}
}

func TestPreviewURLWithoutSandbox(t *testing.T) {
	w := NewWebAgent(&fakeLLM{}, &sandbox.StubProvisioner{})
	if _, err := w.PreviewURL(context.Background()); !errors.Is(err, ErrNoSandbox) {
		t.Errorf("err = %v, want ErrNoSandbox", err)
	}
}
