package ai

import (
	"context"
	"log"
	"time"

	"telegram-ai-forge/internal/domain/model"
	"telegram-ai-forge/internal/domain/ports/adapter"
)

var _ adapter.CompletionClient = (*NoopClient)(nil)

// NoopClient implements adapter.CompletionClient for local/dev runs
// without API keys. It returns a tiny fixed project so the whole
// pipeline (parse, validate, materialize, package) can be exercised
// end to end.
type NoopClient struct{}

func NewNoopClient() *NoopClient {
	return &NoopClient{}
}

const noopPayload = `{
  "files": [
    {"path": "index.html", "content": "<!doctype html><title>noop</title><p>generated offline</p>"},
    {"path": "README.md", "content": "Offline fixture produced by the noop provider."}
  ],
  "notes": "noop provider fixture",
  "entrypoints": {"run": "open index.html"}
}`

func (n *NoopClient) Provider() string { return "noop" }

func (n *NoopClient) Complete(ctx context.Context, req adapter.CompletionRequest) (*adapter.CompletionResult, error) {
	// Simulate slight processing time and respect ctx
	select {
	case <-time.After(100 * time.Millisecond):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	log.Printf("[noop-ai] completion for model %s (%d segments)\n", req.Model, len(req.Segments))
	prompt := 0
	for _, seg := range req.Segments {
		prompt += len(seg.Text) / 4
	}
	completion := len(noopPayload) / 4
	return &adapter.CompletionResult{
		Content:  noopPayload,
		Provider: n.Provider(),
		Usage: model.TokenUsage{
			PromptTokens:     prompt,
			CompletionTokens: completion,
			TotalTokens:      prompt + completion,
		},
		LatencyMs: 100,
	}, nil
}

func (n *NoopClient) CountTokens(ctx context.Context, modelName string, segments []adapter.Segment) (int, error) {
	total := 0
	for _, seg := range segments {
		total += len(seg.Text) / 4
	}
	return total, nil
}
