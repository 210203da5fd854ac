package providers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// OpenAICompatibleConfig configures a chat-completion client against any
// OpenAI-compatible endpoint (the official API or a self-hosted gateway).
type OpenAICompatibleConfig struct {
	APIKey       string
	BaseURL      string // optional, defaults to the official API
	DefaultModel string
	Timeout      time.Duration
	MaxRetries   int
}

// OpenAICompatibleClient implements LLMClient using the official OpenAI
// SDK's chat-completions surface.
type OpenAICompatibleClient struct {
	client       openai.Client
	defaultModel string
}

// NewOpenAICompatibleClient constructs a client, applying default
// timeout and retry counts when the caller leaves them zero.
func NewOpenAICompatibleClient(cfg OpenAICompatibleConfig) *OpenAICompatibleClient {
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = "gpt-4o-mini"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &OpenAICompatibleClient{
		client:       openai.NewClient(opts...),
		defaultModel: cfg.DefaultModel,
	}
}

// Name returns the client identifier.
func (c *OpenAICompatibleClient) Name() string { return "openai-compatible" }

func (c *OpenAICompatibleClient) model(req *ChatRequest) string {
	if req.Model != "" {
		return req.Model
	}
	return c.defaultModel
}

func toOpenAIMessages(msgs []ChatMessage) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case "system":
			out = append(out, openai.SystemMessage(m.Content))
		case "assistant":
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}

// Chat sends a single chat-completion request and returns the full
// response.
func (c *OpenAICompatibleClient) Chat(ctx context.Context, req *ChatRequest) (*ChatResult, error) {
	params := openai.ChatCompletionNewParams{
		Model:    c.model(req),
		Messages: toOpenAIMessages(req.Messages),
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("chat completion: empty choices")
	}
	return &ChatResult{
		Content:      resp.Choices[0].Message.Content,
		FinishReason: string(resp.Choices[0].FinishReason),
	}, nil
}

// ChatStream streams content deltas as they arrive from the chat
// completion endpoint.
func (c *OpenAICompatibleClient) ChatStream(ctx context.Context, req *ChatRequest) (<-chan string, <-chan error) {
	deltas := make(chan string)
	errs := make(chan error, 1)

	params := openai.ChatCompletionNewParams{
		Model:    c.model(req),
		Messages: toOpenAIMessages(req.Messages),
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}

	go func() {
		defer close(deltas)
		defer close(errs)

		stream := c.client.Chat.Completions.NewStreaming(ctx, params)
		for stream.Next() {
			chunk := stream.Current()
			if len(chunk.Choices) == 0 {
				continue
			}
			if delta := chunk.Choices[0].Delta.Content; delta != "" {
				select {
				case deltas <- delta:
				case <-ctx.Done():
					return
				}
			}
		}
		if err := stream.Err(); err != nil {
			errs <- fmt.Errorf("chat stream: %w", err)
		}
	}()

	return deltas, errs
}
