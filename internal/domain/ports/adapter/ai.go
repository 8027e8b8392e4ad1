package adapter

import (
	"context"

	"telegram-ai-forge/internal/domain/model"
)

// Segment is one block of a composed prompt. Cacheable marks byte-stable
// preset text the provider may serve from its prompt cache; the dynamic
// user request is never cacheable.
type Segment struct {
	Role      string // "system" or "user"
	Text      string
	Cacheable bool
}

// CompletionRequest is a single completion call. Segments are ordered;
// adapters collapse or split them into whatever shape their provider
// expects while preserving order.
type CompletionRequest struct {
	Model     string
	Segments  []Segment
	MaxTokens int
}

// CompletionResult carries the assistant text plus everything the
// orchestration layer meters. Provider is the tag of the client that
// actually served the call; routing clients pass it through so metering
// records the leaf provider, not the router.
type CompletionResult struct {
	Content   string
	Provider  string
	Usage     model.TokenUsage
	LatencyMs int64
}

// CompletionClient is the port for LLM completion providers.
type CompletionClient interface {
	// Complete performs one completion call. Implementations measure
	// latency themselves so queue time never pollutes provider latency.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResult, error)

	// CountTokens estimates prompt tokens for the given segments.
	// Best-effort: providers without exact counting approximate locally.
	CountTokens(ctx context.Context, modelName string, segments []Segment) (int, error)

	// Provider returns the client's provider tag. Used for metering when
	// a call fails before a result exists.
	Provider() string
}

// CapabilityResolver answers model capability questions that gate prompt
// composition.
type CapabilityResolver interface {
	SupportsCaching(modelName string) bool
}
