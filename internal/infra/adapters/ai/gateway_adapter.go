package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"telegram-ai-forge/internal/domain/model"
	"telegram-ai-forge/internal/domain/ports/adapter"
)

// Compile-time assurance this adapter satisfies the port
var _ adapter.CompletionClient = (*GatewayClient)(nil)

// GatewayClient implements adapter.CompletionClient against any
// OpenAI-compatible gateway (OpenRouter-style endpoints, self-hosted
// proxies). Chat completions path is the same as OpenAI:
// /chat/completions, Authorization: Bearer <key>.
type GatewayClient struct {
	apiKey string
	base   string // e.g., https://openrouter.ai/api/v1
	client *http.Client
}

func NewGatewayClient(apiKey, base string, timeout time.Duration) (*GatewayClient, error) {
	if apiKey == "" {
		return nil, errors.New("gateway api key empty")
	}
	if base == "" {
		return nil, errors.New("gateway base url empty")
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &GatewayClient{
		apiKey: apiKey,
		base:   strings.TrimRight(base, "/"),
		client: &http.Client{Timeout: timeout},
	}, nil
}

func (g *GatewayClient) Provider() string { return "gateway" }

type gatewayMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func (g *GatewayClient) Complete(ctx context.Context, req adapter.CompletionRequest) (*adapter.CompletionResult, error) {
	msgs := make([]gatewayMessage, 0, len(req.Segments))
	for _, seg := range req.Segments {
		role := seg.Role
		if role != "system" {
			role = "user"
		}
		msgs = append(msgs, gatewayMessage{Role: role, Content: seg.Text})
	}

	reqBody := struct {
		Model     string           `json:"model"`
		Messages  []gatewayMessage `json:"messages"`
		MaxTokens int              `json:"max_tokens,omitempty"`
	}{Model: req.Model, Messages: msgs, MaxTokens: req.MaxTokens}

	b, _ := json.Marshal(reqBody)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.base+"/chat/completions", bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("gateway: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)

	start := time.Now()
	resp, err := g.client.Do(httpReq)
	latency := time.Since(start).Milliseconds()
	if err != nil {
		return nil, fmt.Errorf("gateway: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("gateway http %d", resp.StatusCode)
	}

	var payload struct {
		Choices []struct {
			Message gatewayMessage `json:"message"`
		} `json:"choices"`
		Usage struct {
			PromptTokens        int `json:"prompt_tokens"`
			CompletionTokens    int `json:"completion_tokens"`
			TotalTokens         int `json:"total_tokens"`
			PromptTokensDetails struct {
				CachedTokens int `json:"cached_tokens"`
			} `json:"prompt_tokens_details"`
		} `json:"usage"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("gateway: %w", err)
	}

	content := ""
	for _, c := range payload.Choices {
		if c.Message.Content != "" {
			content = c.Message.Content
			break
		}
	}
	if content == "" {
		return nil, errors.New("gateway: no choice content")
	}

	return &adapter.CompletionResult{
		Content:  content,
		Provider: g.Provider(),
		Usage: model.TokenUsage{
			PromptTokens:     payload.Usage.PromptTokens,
			CompletionTokens: payload.Usage.CompletionTokens,
			TotalTokens:      payload.Usage.TotalTokens,
			CacheReadTokens:  payload.Usage.PromptTokensDetails.CachedTokens,
		},
		LatencyMs: latency,
	}, nil
}

func (g *GatewayClient) CountTokens(ctx context.Context, modelName string, segments []adapter.Segment) (int, error) {
	return countBPETokens(modelName, segments)
}
