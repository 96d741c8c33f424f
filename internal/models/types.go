package models

import (
	"html/template"
	"time"
)

// Role identifies the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single chat message sent to the LLM.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Action classifies a conversation turn.
type Action string

const (
	ActionGenerate    Action = "generate"
	ActionGenerateWeb Action = "generate_web"
	ActionExecute     Action = "execute"
)

// ConversationTurn records one user request and the agent's response to it.
// Turns are append-only; only a bounded recent window is replayed into LLM
// context.
type ConversationTurn struct {
	Action    Action    `json:"action"`
	Prompt    string    `json:"prompt,omitempty"`
	Code      string    `json:"code,omitempty"`
	Language  string    `json:"language,omitempty"`
	Files     []string  `json:"files,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// GeneratedFile is one named file produced by a generation turn.
type GeneratedFile struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// PreviewDescriptor is a signed preview URL for the sandbox's preview port.
// Token may be empty when the sandbox provider does not sign preview links.
type PreviewDescriptor struct {
	URL   string `json:"url"`
	Token string `json:"token,omitempty"`
}

// ExecResult is the outcome of running a command or program in the sandbox.
type ExecResult struct {
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
	ExitCode int    `json:"exit_code"`
}

// RunResult is the outcome of a generate-execute-autofix run. Callers must
// inspect Errors/ExitCode: the loop terminating does not imply success.
type RunResult struct {
	Prompt   string `json:"prompt"`
	Code     string `json:"code"`
	Language string `json:"language"`
	Output   string `json:"output"`
	Errors   string `json:"errors"`
	ExitCode int    `json:"exit_code"`
	Retries  int    `json:"retries"`
}

// Stream event types, in the order a streaming generation emits them.
const (
	EventToken        = "token"
	EventCode         = "code"
	EventPreview      = "preview"
	EventComplete     = "complete"
	EventError        = "error"
	EventModelChanged = "model_changed"
)

// StreamEvent is one tagged event on the generation event stream. Consumers
// must process events in arrival order and treat EventError as terminal for
// the turn.
type StreamEvent struct {
	Type    string `json:"type"`
	Content any    `json:"content"`
}

// CodeEventContent is the payload of an EventCode event.
type CodeEventContent struct {
	Filename string `json:"filename"`
	Code     string `json:"code"`
}

// CompleteEventContent is the payload of an EventComplete event.
type CompleteEventContent struct {
	Files []string `json:"files"`
}

// ModelInfo describes one model available from the LLM provider.
type ModelInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// API request/response types.

type CreateSessionRequest struct {
	Model string `json:"model,omitempty"`
}

type SessionResponse struct {
	SessionID  string   `json:"session_id"`
	Status     string   `json:"status"`
	PreviewURL string   `json:"preview_url,omitempty"`
	Files      []string `json:"files,omitempty"`
}

type ChatRequest struct {
	SessionID string `json:"session_id"`
	Prompt    string `json:"prompt"`
}

type ChatResponse struct {
	Message     string        `json:"message"`
	MessageHTML template.HTML `json:"message_html,omitempty"`
	Code        string        `json:"code,omitempty"`
	Files       []string      `json:"files"`
	PreviewURL  string        `json:"preview_url,omitempty"`
}

type RunRequest struct {
	SessionID string `json:"session_id"`
	Prompt    string `json:"prompt"`
	Language  string `json:"language,omitempty"`
	AutoFix   *bool  `json:"auto_fix,omitempty"`
}

type FileInfo struct {
	Path string `json:"path"`
	Name string `json:"name"`
}

type FileContent struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

type UpdateFileRequest struct {
	Content string `json:"content"`
}

type SetModelRequest struct {
	Model string `json:"model"`
}
