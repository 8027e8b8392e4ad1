package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"telegram-ai-forge/internal/domain/model"
	"telegram-ai-forge/internal/domain/ports/adapter"
)

// Compile-time assurance this adapter satisfies the port
var _ adapter.CompletionClient = (*OpenAIClient)(nil)

// OpenAIClient implements adapter.CompletionClient on the official SDK.
// Cacheable segments are sent as separate system messages so identical
// preset prefixes hit the provider's prompt cache across jobs.
type OpenAIClient struct {
	client openai.Client
}

func NewOpenAIClient(apiKey, baseURL string) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, errors.New("openai api key empty")
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenAIClient{client: openai.NewClient(opts...)}, nil
}

func (o *OpenAIClient) Provider() string { return "openai" }

func (o *OpenAIClient) Complete(ctx context.Context, req adapter.CompletionRequest) (*adapter.CompletionResult, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Segments))
	for _, seg := range req.Segments {
		switch seg.Role {
		case "system":
			messages = append(messages, openai.SystemMessage(seg.Text))
		default:
			messages = append(messages, openai.UserMessage(seg.Text))
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(req.Model),
		Messages: messages,
	}
	if req.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(req.MaxTokens))
	}

	start := time.Now()
	resp, err := o.client.Chat.Completions.New(ctx, params)
	latency := time.Since(start).Milliseconds()
	if err != nil {
		return nil, fmt.Errorf("openai: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("openai: no choice content")
	}

	return &adapter.CompletionResult{
		Content:  resp.Choices[0].Message.Content,
		Provider: o.Provider(),
		Usage: model.TokenUsage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
			CacheReadTokens:  int(resp.Usage.PromptTokensDetails.CachedTokens),
		},
		LatencyMs: latency,
	}, nil
}

func (o *OpenAIClient) CountTokens(ctx context.Context, modelName string, segments []adapter.Segment) (int, error) {
	return countBPETokens(modelName, segments)
}
