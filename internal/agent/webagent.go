package agent

import (
	"context"
	"fmt"
	"log"
	"path"
	"strings"
	"sync"

	"vibecode/internal/llm"
	"vibecode/internal/models"
	"vibecode/internal/sandbox"
	"vibecode/internal/webcode"
)

// WebAgent extends Agent with multi-file web generation, an in-memory file
// store mirroring the sandbox workspace, and the deploy/preview controller.
//
// The file store is a local cache of remote truth: a file is written to it
// only after the same content was uploaded into the workspace, so after any
// successful generation or edit the two agree.
type WebAgent struct {
	*Agent

	files *webcode.FileStore

	// turnMu serializes whole turns (generate, resolve, write, deploy) per
	// session. Concurrent turns against one session would otherwise
	// interleave file writes unpredictably.
	turnMu sync.Mutex

	previewMu     sync.Mutex
	serverRunning bool
	previewDesc   *models.PreviewDescriptor
}

func NewWebAgent(client llm.Client, provisioner sandbox.Provisioner) *WebAgent {
	return &WebAgent{
		Agent: New(client, provisioner),
		files: webcode.NewFileStore(),
	}
}

// WebResult is the summary of one batch web generation turn.
type WebResult struct {
	Message string
	Files   *webcode.FileMap
	Code    string
}

// webMessages assembles the LLM message list: the web system prompt, the
// recent generate_web turns as compact context pairs, and the new prompt.
func (w *WebAgent) webMessages(prompt string) []models.Message {
	messages := []models.Message{
		{Role: models.RoleSystem, Content: webSystemPrompt},
	}

	for _, turn := range w.recentTurns(webHistoryWindow) {
		if turn.Action != models.ActionGenerateWeb {
			continue
		}
		messages = append(messages,
			models.Message{Role: models.RoleUser, Content: turn.Prompt},
			models.Message{
				Role:    models.RoleAssistant,
				Content: "I created the following files: " + strings.Join(turn.Files, ", "),
			},
		)
	}

	return append(messages, models.Message{Role: models.RoleUser, Content: prompt})
}

// writeFiles uploads every resolved file into the sandbox workspace and
// mirrors it into the file store, in mapping order.
func (w *WebAgent) writeFiles(ctx context.Context, sb sandbox.Sandbox, files *webcode.FileMap, onFile func(name, content string) bool) error {
	for _, name := range files.Names() {
		content, _ := files.Get(name)
		dst := path.Join(sandbox.WorkspaceDir, name)
		if err := sb.UploadFile(ctx, dst, []byte(content)); err != nil {
			return fmt.Errorf("upload %s: %w", name, err)
		}
		w.files.Write(name, content)
		if onFile != nil && !onFile(name, content) {
			return ctx.Err()
		}
	}
	return nil
}

// GenerateWeb runs one batch generation turn: invoke the LLM with history,
// resolve files from the complete response, and push them to the store and
// the sandbox. Deploy is the caller's next step (DeployAndPreview).
func (w *WebAgent) GenerateWeb(ctx context.Context, prompt string) (*WebResult, error) {
	w.turnMu.Lock()
	defer w.turnMu.Unlock()

	response, err := w.llm.Chat(ctx, w.webMessages(prompt), llm.ChatOptions{Temperature: 0.5, MaxTokens: 8192})
	if err != nil {
		return nil, fmt.Errorf("generate web code: %w", err)
	}

	files := webcode.Resolve(response)
	log.Printf("WebAgent: Resolved %d files: %v", files.Len(), files.Names())

	sb, err := w.ensureSandbox(ctx)
	if err != nil {
		return nil, err
	}
	if err := w.writeFiles(ctx, sb, files, nil); err != nil {
		return nil, err
	}

	w.appendTurn(models.ConversationTurn{
		Action: models.ActionGenerateWeb,
		Prompt: prompt,
		Files:  files.Names(),
	})

	message := webcode.Prose(response)
	if message == "" {
		message = "Code generated successfully"
	}
	primary, _ := files.Get("index.html")
	return &WebResult{Message: message, Files: files, Code: primary}, nil
}

// StreamGenerate runs one streaming generation turn. The returned channel
// yields events in the wire order consumers rely on: one token event per
// LLM fragment in arrival order, then one code event per resolved file in
// mapping order, then a preview event if one could be resolved, then a
// final complete event with the session's file list. Any failure yields a
// single terminal error event; complete is never emitted after error. The
// channel closes when the sequence ends or ctx is cancelled.
func (w *WebAgent) StreamGenerate(ctx context.Context, prompt string) <-chan models.StreamEvent {
	events := make(chan models.StreamEvent)

	go func() {
		defer close(events)

		w.turnMu.Lock()
		defer w.turnMu.Unlock()

		emit := func(ev models.StreamEvent) bool {
			select {
			case events <- ev:
				return true
			case <-ctx.Done():
				return false
			}
		}
		fail := func(err error) {
			log.Printf("WebAgent: stream turn failed: %v", err)
			emit(models.StreamEvent{Type: models.EventError, Content: err.Error()})
		}

		stream, err := w.llm.ChatStream(ctx, w.webMessages(prompt), llm.ChatOptions{Temperature: 0.5, MaxTokens: 8192})
		if err != nil {
			fail(err)
			return
		}

		var full strings.Builder
		for chunk := range stream {
			if chunk.Err != nil {
				fail(chunk.Err)
				return
			}
			full.WriteString(chunk.Text)
			if !emit(models.StreamEvent{Type: models.EventToken, Content: chunk.Text}) {
				return
			}
		}

		files := webcode.Resolve(full.String())
		log.Printf("WebAgent: Resolved %d files from stream: %v", files.Len(), files.Names())

		sb, err := w.ensureSandbox(ctx)
		if err != nil {
			fail(err)
			return
		}

		aborted := false
		err = w.writeFiles(ctx, sb, files, func(name, content string) bool {
			if !emit(models.StreamEvent{
				Type:    models.EventCode,
				Content: models.CodeEventContent{Filename: name, Code: content},
			}) {
				aborted = true
				return false
			}
			return true
		})
		if aborted {
			return
		}
		if err != nil {
			fail(err)
			return
		}

		if desc, err := w.DeployAndPreview(ctx); err != nil {
			log.Printf("WebAgent: preview unavailable: %v", err)
		} else if !emit(models.StreamEvent{Type: models.EventPreview, Content: desc}) {
			return
		}

		w.appendTurn(models.ConversationTurn{
			Action: models.ActionGenerateWeb,
			Prompt: prompt,
			Files:  files.Names(),
		})

		emit(models.StreamEvent{
			Type:    models.EventComplete,
			Content: models.CompleteEventContent{Files: w.files.List()},
		})
	}()

	return events
}

// UpdateFile applies a direct user edit: upload to the workspace first, then
// mirror into the store. Callers redeploy afterwards so the preview picks up
// the change.
func (w *WebAgent) UpdateFile(ctx context.Context, name, content string) error {
	w.turnMu.Lock()
	defer w.turnMu.Unlock()

	sb, err := w.ensureSandbox(ctx)
	if err != nil {
		return err
	}
	dst := path.Join(sandbox.WorkspaceDir, name)
	if err := sb.UploadFile(ctx, dst, []byte(content)); err != nil {
		return fmt.Errorf("upload %s: %w", name, err)
	}
	w.files.Write(name, content)
	return nil
}

// Files lists the session's files in first-write order.
func (w *WebAgent) Files() []string {
	return w.files.List()
}

// FileContent returns the stored content of name.
func (w *WebAgent) FileContent(name string) (string, bool) {
	return w.files.Read(name)
}

// FetchFile reads name from the store, falling back to the sandbox
// workspace for files the store never saw, such as ones written by executed
// code. A successful fallback read is mirrored into the store.
func (w *WebAgent) FetchFile(ctx context.Context, name string) (string, bool) {
	if content, ok := w.files.Read(name); ok {
		return content, true
	}
	sb, ok := w.currentSandbox()
	if !ok {
		return "", false
	}
	data, err := sb.DownloadFile(ctx, path.Join(sandbox.WorkspaceDir, name))
	if err != nil {
		return "", false
	}
	w.files.Write(name, string(data))
	return string(data), true
}
