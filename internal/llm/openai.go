package llm

import (
	"context"
	"fmt"
	"sync"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"vibecode/internal/models"
)

// OpenAIClient implements Client for any OpenAI-compatible chat completion
// API: OpenAI itself or a compatible gateway selected via base URL.
type OpenAIClient struct {
	client openai.Client
	mu     sync.RWMutex
	model  string
}

// NewOpenAIClient creates a client for the given API key, optional base URL
// and model.
func NewOpenAIClient(apiKey, baseURL, model string) *OpenAIClient {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenAIClient{
		client: openai.NewClient(opts...),
		model:  model,
	}
}

func (c *OpenAIClient) Model() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.model
}

func (c *OpenAIClient) SetModel(model string) {
	c.mu.Lock()
	c.model = model
	c.mu.Unlock()
}

func (c *OpenAIClient) params(messages []models.Message, opts ChatOptions) openai.ChatCompletionNewParams {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case models.RoleSystem:
			msgs = append(msgs, openai.SystemMessage(m.Content))
		case models.RoleAssistant:
			msgs = append(msgs, openai.AssistantMessage(m.Content))
		default:
			msgs = append(msgs, openai.UserMessage(m.Content))
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(c.Model()),
		Messages: msgs,
	}
	if opts.Temperature > 0 {
		params.Temperature = openai.Float(opts.Temperature)
	}
	if opts.MaxTokens > 0 {
		params.MaxTokens = openai.Int(opts.MaxTokens)
	}
	return params
}

func (c *OpenAIClient) Chat(ctx context.Context, messages []models.Message, opts ChatOptions) (string, error) {
	completion, err := c.client.Chat.Completions.New(ctx, c.params(messages, opts))
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("chat completion: empty choices")
	}
	return completion.Choices[0].Message.Content, nil
}

func (c *OpenAIClient) ChatStream(ctx context.Context, messages []models.Message, opts ChatOptions) (<-chan Chunk, error) {
	stream := c.client.Chat.Completions.NewStreaming(ctx, c.params(messages, opts))

	ch := make(chan Chunk)
	go func() {
		defer close(ch)
		for stream.Next() {
			chunk := stream.Current()
			if len(chunk.Choices) == 0 {
				continue
			}
			if delta := chunk.Choices[0].Delta.Content; delta != "" {
				select {
				case ch <- Chunk{Text: delta}:
				case <-ctx.Done():
					return
				}
			}
		}
		if err := stream.Err(); err != nil {
			select {
			case ch <- Chunk{Err: fmt.Errorf("chat stream: %w", err)}:
			case <-ctx.Done():
			}
		}
	}()
	return ch, nil
}

func (c *OpenAIClient) ListModels(ctx context.Context) ([]models.ModelInfo, error) {
	page, err := c.client.Models.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}

	var out []models.ModelInfo
	for _, m := range page.Data {
		out = append(out, models.ModelInfo{ID: m.ID, Name: m.ID})
	}
	return out, nil
}
