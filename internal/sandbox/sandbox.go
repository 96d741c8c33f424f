// Package sandbox provides isolated remote execution environments: file
// upload/download, command execution, and port exposure as a preview URL.
package sandbox

import (
	"context"
	"fmt"

	"vibecode/internal/models"
)

// WorkspaceDir is the well-known absolute path of the project workspace
// inside every sandbox filesystem. The preview server is always rooted here.
const WorkspaceDir = "/workspace/project"

// PreviewPort is the well-known port the preview server binds inside the
// sandbox.
const PreviewPort = 8000

// Sandbox is one isolated remote execution environment. A sandbox is
// exclusively owned by one session at a time and must be destroyed exactly
// once; implementations tolerate repeated Destroy calls.
type Sandbox interface {
	// ID returns the environment's identifier.
	ID() string

	// UploadFile writes content to path inside the sandbox, creating parent
	// directories as needed.
	UploadFile(ctx context.Context, path string, content []byte) error

	// DownloadFile reads the file at path from the sandbox.
	DownloadFile(ctx context.Context, path string) ([]byte, error)

	// Exec runs a shell command in the sandbox and returns its output and
	// exit code. A non-zero exit code is not an error.
	Exec(ctx context.Context, command string) (*models.ExecResult, error)

	// PreviewLink derives a preview URL (and signing token, if the provider
	// uses one) for the given sandbox port.
	PreviewLink(ctx context.Context, port int) (*models.PreviewDescriptor, error)

	// Destroy releases the environment. Safe to call more than once.
	Destroy(ctx context.Context) error
}

// Provisioner creates sandboxes. Sessions create their sandbox lazily, on
// the first operation that needs one.
type Provisioner interface {
	Create(ctx context.Context) (Sandbox, error)
}

// RunCode uploads a program to the sandbox and runs it with the interpreter
// for its language. Bash code runs directly as a command.
func RunCode(ctx context.Context, sb Sandbox, code, language string) (*models.ExecResult, error) {
	switch language {
	case "python":
		return runScript(ctx, sb, code, "/tmp/script.py", "python3")
	case "javascript":
		return runScript(ctx, sb, code, "/tmp/script.js", "node")
	case "bash":
		return sb.Exec(ctx, code)
	default:
		return nil, fmt.Errorf("unsupported language: %s", language)
	}
}

func runScript(ctx context.Context, sb Sandbox, code, path, interpreter string) (*models.ExecResult, error) {
	if err := sb.UploadFile(ctx, path, []byte(code)); err != nil {
		return nil, fmt.Errorf("upload script: %w", err)
	}
	return sb.Exec(ctx, fmt.Sprintf("%s %s", interpreter, path))
}
