package agent

import (
	"context"
	"errors"
	"sync"

	"vibecode/internal/llm"
	"vibecode/internal/models"
)

// fakeLLM scripts Chat responses and ChatStream fragments for tests. Each
// Chat call consumes the next response; each ChatStream call replays the
// configured chunks, followed by streamErr when set.
type fakeLLM struct {
	mu        sync.Mutex
	model     string
	responses []string
	chatErr   error
	chunks    []string
	streamErr error
	calls     [][]models.Message
}

func (f *fakeLLM) Chat(_ context.Context, messages []models.Message, _ llm.ChatOptions) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, messages)
	if f.chatErr != nil {
		return "", f.chatErr
	}
	if len(f.responses) == 0 {
		return "", errors.New("fakeLLM: out of scripted responses")
	}
	response := f.responses[0]
	f.responses = f.responses[1:]
	return response, nil
}

func (f *fakeLLM) ChatStream(_ context.Context, messages []models.Message, _ llm.ChatOptions) (<-chan llm.Chunk, error) {
	f.mu.Lock()
	f.calls = append(f.calls, messages)
	chunks := append([]string(nil), f.chunks...)
	streamErr := f.streamErr
	f.mu.Unlock()

	out := make(chan llm.Chunk)
	go func() {
		defer close(out)
		for _, text := range chunks {
			out <- llm.Chunk{Text: text}
		}
		if streamErr != nil {
			out <- llm.Chunk{Err: streamErr}
		}
	}()
	return out, nil
}

func (f *fakeLLM) Model() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.model
}

func (f *fakeLLM) SetModel(model string) {
	f.mu.Lock()
	f.model = model
	f.mu.Unlock()
}

func (f *fakeLLM) ListModels(context.Context) ([]models.ModelInfo, error) {
	return []models.ModelInfo{{ID: f.model, Name: f.model}}, nil
}

func (f *fakeLLM) chatCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeLLM) lastMessages() []models.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return nil
	}
	return f.calls[len(f.calls)-1]
}
