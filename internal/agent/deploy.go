package agent

import (
	"context"
	"fmt"
	"log"
	"time"

	"vibecode/internal/models"
	"vibecode/internal/sandbox"
)

const (
	previewReadyTimeout  = 5 * time.Second
	previewReadyInterval = 100 * time.Millisecond
)

// startServerCmd launches the preview file server in the background, rooted
// at the workspace directory on the well-known port.
var startServerCmd = fmt.Sprintf(
	"cd %s && nohup python3 -m http.server %d > /dev/null 2>&1 &",
	sandbox.WorkspaceDir, sandbox.PreviewPort)

// killServerCmd terminates any stale preview server bound to the port.
const killServerCmd = "pkill -f 'python3 -m http.server' 2>/dev/null || true"

// probeCmd exits zero once the preview port accepts connections.
var probeCmd = fmt.Sprintf(
	`python3 -c "import urllib.request; urllib.request.urlopen('http://127.0.0.1:%d/', timeout=1)"`,
	sandbox.PreviewPort)

// EnsureRunning makes sure exactly one preview server process is serving
// the workspace. Idempotent: once the server is known to be running,
// repeated calls are no-ops. A fresh start kills any stale process on the
// port, launches a new one, and polls readiness up to a bounded timeout; on
// timeout the server is not marked running, so the next call retries.
func (w *WebAgent) EnsureRunning(ctx context.Context) error {
	w.previewMu.Lock()
	defer w.previewMu.Unlock()

	if w.serverRunning {
		return nil
	}

	sb, ok := w.currentSandbox()
	if !ok {
		return ErrNoSandbox
	}

	if _, err := sb.Exec(ctx, killServerCmd); err != nil {
		return fmt.Errorf("stop stale preview server: %w", err)
	}
	if _, err := sb.Exec(ctx, startServerCmd); err != nil {
		return fmt.Errorf("start preview server: %w", err)
	}

	if err := w.waitForServer(ctx, sb); err != nil {
		return err
	}

	w.serverRunning = true
	log.Printf("WebAgent: Preview server running on port %d", sandbox.PreviewPort)
	return nil
}

// waitForServer polls the preview port from inside the sandbox until it
// accepts a connection or the budget runs out.
func (w *WebAgent) waitForServer(ctx context.Context, sb sandbox.Sandbox) error {
	deadline := time.Now().Add(previewReadyTimeout)
	for time.Now().Before(deadline) {
		result, err := sb.Exec(ctx, probeCmd)
		if err != nil {
			return fmt.Errorf("probe preview server: %w", err)
		}
		if result.ExitCode == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(previewReadyInterval):
		}
	}
	return fmt.Errorf("preview server on port %d not ready after %v", sandbox.PreviewPort, previewReadyTimeout)
}

// PreviewURL resolves the signed preview descriptor for the workspace
// server, cached on the session after the first derivation. Returns
// ErrNoSandbox while the sandbox has not been created yet; callers degrade
// to "preview unavailable" rather than failing the turn.
func (w *WebAgent) PreviewURL(ctx context.Context) (*models.PreviewDescriptor, error) {
	w.previewMu.Lock()
	defer w.previewMu.Unlock()

	if w.previewDesc != nil {
		return w.previewDesc, nil
	}

	sb, ok := w.currentSandbox()
	if !ok {
		return nil, ErrNoSandbox
	}

	desc, err := sb.PreviewLink(ctx, sandbox.PreviewPort)
	if err != nil {
		return nil, fmt.Errorf("resolve preview link: %w", err)
	}
	w.previewDesc = desc
	return desc, nil
}

// DeployAndPreview ensures the preview server is running and resolves its
// preview descriptor.
func (w *WebAgent) DeployAndPreview(ctx context.Context) (*models.PreviewDescriptor, error) {
	if err := w.EnsureRunning(ctx); err != nil {
		return nil, err
	}
	return w.PreviewURL(ctx)
}
