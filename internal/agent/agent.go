// Package agent drives generation turns end to end: prompt assembly with
// bounded history, LLM invocation, code extraction, sandbox execution, and
// the deploy/preview pipeline for web generation.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"vibecode/internal/llm"
	"vibecode/internal/models"
	"vibecode/internal/sandbox"
	"vibecode/internal/webcode"
)

// webHistoryWindow bounds how many recent turns are replayed into LLM
// context for web generation. Older turns stay in history for display only.
const webHistoryWindow = 3

// ErrNoSandbox reports that an operation needs a sandbox but none has been
// created for this agent yet.
var ErrNoSandbox = errors.New("sandbox not created")

// sandboxState is the explicit ownership state of the agent's sandbox
// handle.
type sandboxState int

const (
	sandboxNotCreated sandboxState = iota
	sandboxCreating
	sandboxReady
	sandboxDestroyed
)

// Agent generates and executes code through an LLM and a lazily created
// sandbox. The sandbox is provisioned on the first operation that needs one
// and memoized for the rest of the agent's life.
type Agent struct {
	llm         llm.Client
	provisioner sandbox.Provisioner

	mu      sync.Mutex
	state   sandboxState
	sb      sandbox.Sandbox
	history []models.ConversationTurn
}

func New(client llm.Client, provisioner sandbox.Provisioner) *Agent {
	return &Agent{llm: client, provisioner: provisioner}
}

// Model returns the active LLM model.
func (a *Agent) Model() string { return a.llm.Model() }

// SetModel switches the LLM model used for subsequent turns.
func (a *Agent) SetModel(model string) { a.llm.SetModel(model) }

// ensureSandbox returns the agent's sandbox, creating it on first use.
// Creation happens under the lock, so concurrent callers wait for the one
// in-flight provision instead of racing to create two.
func (a *Agent) ensureSandbox(ctx context.Context) (sandbox.Sandbox, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch a.state {
	case sandboxReady:
		return a.sb, nil
	case sandboxDestroyed:
		return nil, fmt.Errorf("agent is destroyed")
	case sandboxCreating:
		// Unreachable while creation holds the lock; kept so every state
		// is matched.
		return nil, fmt.Errorf("sandbox creation already in progress")
	}

	a.state = sandboxCreating
	log.Printf("Agent: Creating sandbox...")
	sb, err := a.provisioner.Create(ctx)
	if err != nil {
		a.state = sandboxNotCreated
		return nil, fmt.Errorf("create sandbox: %w", err)
	}
	a.sb = sb
	a.state = sandboxReady
	log.Printf("Agent: Sandbox created: %s", sb.ID())
	return sb, nil
}

// currentSandbox returns the sandbox only if it already exists; it never
// triggers creation.
func (a *Agent) currentSandbox() (sandbox.Sandbox, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state != sandboxReady {
		return nil, false
	}
	return a.sb, true
}

func (a *Agent) appendTurn(turn models.ConversationTurn) {
	turn.Timestamp = time.Now()
	a.mu.Lock()
	a.history = append(a.history, turn)
	a.mu.Unlock()
}

// History returns a copy of all recorded turns, oldest first.
func (a *Agent) History() []models.ConversationTurn {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]models.ConversationTurn, len(a.history))
	copy(out, a.history)
	return out
}

// recentTurns returns the last n turns.
func (a *Agent) recentTurns(n int) []models.ConversationTurn {
	a.mu.Lock()
	defer a.mu.Unlock()
	start := len(a.history) - n
	if start < 0 {
		start = 0
	}
	out := make([]models.ConversationTurn, len(a.history)-start)
	copy(out, a.history[start:])
	return out
}

// Generate asks the LLM for a program in the given language and extracts
// the code block from the response.
func (a *Agent) Generate(ctx context.Context, prompt, language string) (string, error) {
	messages := []models.Message{
		{Role: models.RoleSystem, Content: codegenSystemPrompt(language)},
		{Role: models.RoleUser, Content: prompt},
	}

	response, err := a.llm.Chat(ctx, messages, llm.ChatOptions{Temperature: 0.3, MaxTokens: 4096})
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}

	code := webcode.ExtractCode(response, language)
	a.appendTurn(models.ConversationTurn{
		Action:   models.ActionGenerate,
		Prompt:   prompt,
		Code:     code,
		Language: language,
	})
	return code, nil
}

// Execute runs code in the agent's sandbox. A failing program is a normal
// result, not an error: callers inspect Stderr and ExitCode.
func (a *Agent) Execute(ctx context.Context, code, language string) (*models.ExecResult, error) {
	sb, err := a.ensureSandbox(ctx)
	if err != nil {
		return nil, err
	}

	result, err := sandbox.RunCode(ctx, sb, code, language)
	if err != nil {
		return nil, fmt.Errorf("execute code: %w", err)
	}

	a.appendTurn(models.ConversationTurn{
		Action:   models.ActionExecute,
		Code:     code,
		Language: language,
	})
	return result, nil
}

// Destroy releases the agent's sandbox. Errors from remote cleanup are
// returned but the agent transitions to destroyed regardless, so a second
// call is a no-op.
func (a *Agent) Destroy(ctx context.Context) error {
	a.mu.Lock()
	sb := a.sb
	prev := a.state
	a.state = sandboxDestroyed
	a.sb = nil
	a.mu.Unlock()

	if prev != sandboxReady || sb == nil {
		return nil
	}
	if err := sb.Destroy(ctx); err != nil {
		return fmt.Errorf("destroy sandbox: %w", err)
	}
	return nil
}
