// File: internal/infra/adapters/ai/gemini_adapter.go
package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/genai"

	"telegram-ai-forge/internal/domain/model"
	"telegram-ai-forge/internal/domain/ports/adapter"
)

var _ adapter.CompletionClient = (*GeminiClient)(nil)

// GeminiClient implements adapter.CompletionClient using the official SDK.
// System segments become the model's system instruction; Gemini caches
// stable prefixes implicitly, so no per-request cache plumbing is needed.
type GeminiClient struct {
	client *genai.Client
}

func NewGeminiClient(ctx context.Context, apiKey, baseURL string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: empty api key")
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{
			BaseURL: baseURL,
		},
	})
	if err != nil {
		return nil, err
	}
	return &GeminiClient{client: c}, nil
}

func (g *GeminiClient) Provider() string { return "gemini" }

func (g *GeminiClient) Complete(ctx context.Context, req adapter.CompletionRequest) (*adapter.CompletionResult, error) {
	if len(req.Segments) == 0 {
		return nil, errors.New("gemini: no segments")
	}
	system, contents := splitForGemini(req.Segments)
	if len(contents) == 0 {
		return nil, errors.New("gemini: no user segment")
	}

	cfg := &genai.GenerateContentConfig{}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}
	if system != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: system}}}
	}

	start := time.Now()
	resp, err := g.client.Models.GenerateContent(ctx, req.Model, contents, cfg)
	latency := time.Since(start).Milliseconds()
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}

	text := ""
	if resp != nil && len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil && len(resp.Candidates[0].Content.Parts) > 0 {
		if t := resp.Candidates[0].Content.Parts[0].Text; t != "" {
			text = t
		}
	}
	if text == "" {
		return nil, errors.New("gemini: no candidate content")
	}

	usage := model.TokenUsage{}
	if resp.UsageMetadata != nil {
		usage.PromptTokens = int(resp.UsageMetadata.PromptTokenCount)
		usage.CompletionTokens = int(resp.UsageMetadata.CandidatesTokenCount)
		usage.TotalTokens = int(resp.UsageMetadata.TotalTokenCount)
		usage.CacheReadTokens = int(resp.UsageMetadata.CachedContentTokenCount)
	}

	return &adapter.CompletionResult{
		Content:   text,
		Provider:  g.Provider(),
		Usage:     usage,
		LatencyMs: latency,
	}, nil
}

func (g *GeminiClient) CountTokens(ctx context.Context, modelName string, segments []adapter.Segment) (int, error) {
	// Per docs, CountTokens takes []*genai.Content. (NOT []genai.Part)
	// https://ai.google.dev/gemini-api/docs/tokens?hl=en#go
	contents := make([]*genai.Content, 0, len(segments))
	for _, seg := range segments {
		contents = append(contents, &genai.Content{
			Role:  genai.RoleUser,
			Parts: []*genai.Part{{Text: seg.Text}},
		})
	}
	resp, err := g.client.Models.CountTokens(ctx, modelName, contents, nil)
	if err != nil {
		return 0, fmt.Errorf("gemini: %w", err)
	}
	return int(resp.TotalTokens), nil
}

// splitForGemini joins system segments into one instruction block and
// maps user segments onto user-role contents, preserving order within
// each role.
func splitForGemini(segments []adapter.Segment) (string, []*genai.Content) {
	var system string
	var contents []*genai.Content
	for _, seg := range segments {
		if seg.Role == "system" {
			if system != "" {
				system += "\n\n"
			}
			system += seg.Text
			continue
		}
		contents = append(contents, &genai.Content{
			Role:  genai.RoleUser,
			Parts: []*genai.Part{{Text: seg.Text}},
		})
	}
	return system, contents
}
