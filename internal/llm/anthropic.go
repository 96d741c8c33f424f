package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"vibecode/internal/models"
)

const anthropicDefaultMaxTokens = 4096

// AnthropicClient implements Client over the Anthropic Messages API.
type AnthropicClient struct {
	client anthropic.Client
	mu     sync.RWMutex
	model  string
}

func NewAnthropicClient(apiKey, model string) *AnthropicClient {
	return &AnthropicClient{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

func (c *AnthropicClient) Model() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.model
}

func (c *AnthropicClient) SetModel(model string) {
	c.mu.Lock()
	c.model = model
	c.mu.Unlock()
}

// params converts the unified message list. Anthropic takes the system
// prompt as a separate field, not a message role.
func (c *AnthropicClient) params(messages []models.Message, opts ChatOptions) anthropic.MessageNewParams {
	var system []anthropic.TextBlockParam
	var msgs []anthropic.MessageParam
	for _, m := range messages {
		switch m.Role {
		case models.RoleSystem:
			system = append(system, anthropic.TextBlockParam{Text: m.Content})
		case models.RoleAssistant:
			msgs = append(msgs, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			msgs = append(msgs, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}

	maxTokens := opts.MaxTokens
	if maxTokens == 0 {
		maxTokens = anthropicDefaultMaxTokens
	}
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.Model()),
		MaxTokens: maxTokens,
		System:    system,
		Messages:  msgs,
	}
	if opts.Temperature > 0 {
		params.Temperature = anthropic.Float(opts.Temperature)
	}
	return params
}

func (c *AnthropicClient) Chat(ctx context.Context, messages []models.Message, opts ChatOptions) (string, error) {
	msg, err := c.client.Messages.New(ctx, c.params(messages, opts))
	if err != nil {
		return "", fmt.Errorf("messages api: %w", err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if variant, ok := block.AsAny().(anthropic.TextBlock); ok {
			sb.WriteString(variant.Text)
		}
	}
	return sb.String(), nil
}

func (c *AnthropicClient) ChatStream(ctx context.Context, messages []models.Message, opts ChatOptions) (<-chan Chunk, error) {
	stream := c.client.Messages.NewStreaming(ctx, c.params(messages, opts))

	ch := make(chan Chunk)
	go func() {
		defer close(ch)
		for stream.Next() {
			event := stream.Current()
			variant, ok := event.AsAny().(anthropic.ContentBlockDeltaEvent)
			if !ok {
				continue
			}
			delta, ok := variant.Delta.AsAny().(anthropic.TextDelta)
			if !ok || delta.Text == "" {
				continue
			}
			select {
			case ch <- Chunk{Text: delta.Text}:
			case <-ctx.Done():
				return
			}
		}
		if err := stream.Err(); err != nil {
			select {
			case ch <- Chunk{Err: fmt.Errorf("messages stream: %w", err)}:
			case <-ctx.Done():
			}
		}
	}()
	return ch, nil
}

func (c *AnthropicClient) ListModels(ctx context.Context) ([]models.ModelInfo, error) {
	page, err := c.client.Models.List(ctx, anthropic.ModelListParams{})
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}

	var out []models.ModelInfo
	for _, m := range page.Data {
		out = append(out, models.ModelInfo{ID: string(m.ID), Name: m.DisplayName})
	}
	return out, nil
}
