package ai

import (
	"context"

	"telegram-ai-forge/internal/domain/ports/adapter"
)

// Compile-time check
var _ adapter.CompletionClient = (*limitedClient)(nil)

type limitedClient struct {
	inner adapter.CompletionClient
	sem   chan struct{}
}

// NewLimitedClient caps concurrent provider calls. Zero or negative
// maxConcurrent disables the wrapper.
func NewLimitedClient(inner adapter.CompletionClient, maxConcurrent int) adapter.CompletionClient {
	if maxConcurrent <= 0 {
		return inner
	}
	return &limitedClient{
		inner: inner,
		sem:   make(chan struct{}, maxConcurrent),
	}
}

func (l *limitedClient) Provider() string { return l.inner.Provider() }

func (l *limitedClient) Complete(ctx context.Context, req adapter.CompletionRequest) (*adapter.CompletionResult, error) {
	select {
	case l.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-l.sem }()
	return l.inner.Complete(ctx, req)
}

func (l *limitedClient) CountTokens(ctx context.Context, modelName string, segments []adapter.Segment) (int, error) {
	select {
	case l.sem <- struct{}{}:
	case <-ctx.Done():
		return 0, ctx.Err()
	}
	defer func() { <-l.sem }()
	return l.inner.CountTokens(ctx, modelName, segments)
}
