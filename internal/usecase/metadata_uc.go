package usecase

import "telegram-ai-forge/internal/domain/model"

// AggregateLLMMetadata folds per-call records into the job-level summary.
// Planning and response records are optional; execution records cover
// everything in between. Tool latency is summed apart from LLM latency
// because tool time is wall clock, not billed model time.
func AggregateLLMMetadata(
	planning *model.LLMResponseMetadata,
	execution []model.LLMResponseMetadata,
	response *model.LLMResponseMetadata,
	tools []model.ToolExecution,
) model.AggregatedLLMMetadata {
	var agg model.AggregatedLLMMetadata
	seen := make(map[string]struct{})

	addCall := func(c *model.LLMResponseMetadata) {
		if c == nil {
			return
		}
		agg.TotalCalls++
		agg.PromptTokens += c.Usage.PromptTokens
		agg.CompletionTokens += c.Usage.CompletionTokens
		agg.TotalTokens += c.Usage.TotalTokens
		agg.CacheReadTokens += c.Usage.CacheReadTokens
		agg.EstimatedCost += c.EstimatedCost
		agg.LLMLatencyMs += c.LatencyMs
		if c.Model == "" {
			return
		}
		if _, ok := seen[c.Model]; !ok {
			seen[c.Model] = struct{}{}
			agg.ModelsUsed = append(agg.ModelsUsed, c.Model)
		}
	}

	addCall(planning)
	for i := range execution {
		addCall(&execution[i])
	}
	addCall(response)

	for _, t := range tools {
		agg.ToolLatencyMs += t.LatencyMs
	}
	agg.CombinedLatencyMs = agg.LLMLatencyMs + agg.ToolLatencyMs
	return agg
}

// AggregateJobMetadata summarizes every call recorded on a job. With the
// two-stage pipeline the first record is the planning call; everything
// else counts as execution.
func AggregateJobMetadata(job *model.Job, twoStage bool, tools []model.ToolExecution) model.AggregatedLLMMetadata {
	calls := job.Diagnostics.LLMCalls
	var planning *model.LLMResponseMetadata
	execution := calls
	if twoStage && len(calls) > 0 {
		planning = &calls[0]
		execution = calls[1:]
	}
	return AggregateLLMMetadata(planning, execution, nil, tools)
}
