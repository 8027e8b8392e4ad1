package model

// ModelPricing is one row of the static price table: USD per one million
// tokens. CacheReadPer1M of zero means cached prompt tokens are billed at
// the input rate.
type ModelPricing struct {
	ModelName      string
	InputPer1M     float64
	OutputPer1M    float64
	CacheReadPer1M float64
}

// Estimate prices a usage against this row.
func (p ModelPricing) Estimate(u TokenUsage) float64 {
	billedInput := u.PromptTokens
	cost := 0.0
	if u.CacheReadTokens > 0 && u.CacheReadTokens <= u.PromptTokens {
		billedInput = u.PromptTokens - u.CacheReadTokens
		rate := p.CacheReadPer1M
		if rate == 0 {
			rate = p.InputPer1M
		}
		cost += float64(u.CacheReadTokens) / 1e6 * rate
	}
	cost += float64(billedInput) / 1e6 * p.InputPer1M
	cost += float64(u.CompletionTokens) / 1e6 * p.OutputPer1M
	return cost
}
