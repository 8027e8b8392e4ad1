package model

// TokenUsage is the provider-reported usage for a single LLM call.
// CacheReadTokens counts prompt tokens served from the provider's prompt
// cache; zero when the provider has no cache or reported nothing.
type TokenUsage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	CacheReadTokens  int
}

// LLMResponseMetadata records one LLM call. Created once per call and
// never mutated afterwards.
type LLMResponseMetadata struct {
	Model         string
	Provider      string
	Usage         TokenUsage
	LatencyMs     int64
	EstimatedCost float64 // USD; 0 when the model is unpriced
	Success       bool
	Error         string
}

// ToolExecution records one utility-tool run attached to a job. Tool time
// is wall-clock, not billed model time, so aggregation keeps it apart from
// LLM latency.
type ToolExecution struct {
	Name      string
	LatencyMs int64
}

// AggregatedLLMMetadata is derived from 0..N LLMResponseMetadata records
// per job. It is recomputed on demand and never persisted on its own.
type AggregatedLLMMetadata struct {
	TotalCalls        int
	PromptTokens      int
	CompletionTokens  int
	TotalTokens       int
	CacheReadTokens   int
	EstimatedCost     float64
	LLMLatencyMs      int64
	ToolLatencyMs     int64
	CombinedLatencyMs int64
	ModelsUsed        []string
}
