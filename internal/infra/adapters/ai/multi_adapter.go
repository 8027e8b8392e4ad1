// File: internal/infra/adapters/ai/multi_adapter.go
package ai

import (
	"context"
	"strings"

	"telegram-ai-forge/internal/domain"
	"telegram-ai-forge/internal/domain/ports/adapter"
)

var _ adapter.CompletionClient = (*MultiClient)(nil)

// MultiClient routes completion calls to a provider by model name.
// Explicit config mappings win over prefix heuristics; anything
// unrecognized goes to the default provider.
type MultiClient struct {
	defaultProvider string // e.g., "openai" or "gemini"
	byProvider      map[string]adapter.CompletionClient
	modelToProvider map[string]string // model -> provider ("openai" | "gemini" | "gateway")
}

// NewMultiClient does not inject any default model; it only knows a
// default provider. Each provider client handles its own wire format.
func NewMultiClient(
	defaultProvider string,
	byProvider map[string]adapter.CompletionClient,
	modelToProvider map[string]string,
) *MultiClient {
	return &MultiClient{
		defaultProvider: strings.ToLower(defaultProvider),
		byProvider:      byProvider,
		modelToProvider: modelToProvider,
	}
}

func (m *MultiClient) Provider() string { return "multi" }

func (m *MultiClient) resolveProvider(model string) string {
	if p := m.modelToProvider[model]; p != "" {
		return strings.ToLower(p)
	}
	l := strings.ToLower(model)
	switch {
	case strings.HasPrefix(l, "gemini"):
		return "gemini"
	case strings.HasPrefix(l, "gpt"): // OpenAI models
		return "openai"
	default:
		return m.defaultProvider
	}
}

func (m *MultiClient) pick(model string) adapter.CompletionClient {
	prov := m.resolveProvider(model)
	if c := m.byProvider[prov]; c != nil {
		return c
	}
	// last resort: first available
	for _, c := range m.byProvider {
		if c != nil {
			return c
		}
	}
	return nil
}

func (m *MultiClient) Complete(ctx context.Context, req adapter.CompletionRequest) (*adapter.CompletionResult, error) {
	c := m.pick(req.Model)
	if c == nil {
		return nil, domain.ErrNoProvider
	}
	return c.Complete(ctx, req)
}

func (m *MultiClient) CountTokens(ctx context.Context, modelName string, segments []adapter.Segment) (int, error) {
	c := m.pick(modelName)
	if c == nil {
		return 0, domain.ErrNoProvider
	}
	return c.CountTokens(ctx, modelName, segments)
}
