package web

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"telegram-ai-forge/internal/domain"
	"telegram-ai-forge/internal/domain/model"
	"telegram-ai-forge/internal/infra/worker"
	"telegram-ai-forge/internal/usecase"
)

// newTestLogger creates a silent logger for tests.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(nil)
	return &logger
}

// fakeJobs implements JobDirectory over plain maps.
type fakeJobs struct {
	mu      sync.Mutex
	jobs    map[string]*model.Job
	entries []worker.QueueEntry
	debug   map[string]bool

	jobErr   error // overrides lookups when set
	debugErr error
}

func newFakeJobs() *fakeJobs {
	return &fakeJobs{
		jobs:  make(map[string]*model.Job),
		debug: make(map[string]bool),
	}
}

func (f *fakeJobs) add(job *model.Job) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs[job.ID] = job
}

func (f *fakeJobs) Job(jobID string) (*model.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.jobErr != nil {
		return nil, f.jobErr
	}
	job, ok := f.jobs[jobID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return job.Clone(), nil
}

func (f *fakeJobs) QueueView() []worker.QueueEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]worker.QueueEntry(nil), f.entries...)
}

func (f *fakeJobs) Summarize(job *model.Job) model.AggregatedLLMMetadata {
	return usecase.AggregateJobMetadata(job, false, nil)
}

func (f *fakeJobs) SetDebug(_ context.Context, userID string, on bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.debugErr != nil {
		return f.debugErr
	}
	if on {
		f.debug[userID] = true
	} else {
		delete(f.debug, userID)
	}
	return nil
}

func (f *fakeJobs) IsDebug(_ context.Context, userID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.debug[userID]
}

func sampleJob(id, userID string) *model.Job {
	return &model.Job{
		ID:          id,
		CreatedAt:   time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		ProjectType: model.ProjectWebsite,
		Status:      model.JobStatusDone,
		Input:       model.JobInput{UserID: userID, UserMessage: "a site"},
		Diagnostics: model.JobDiagnostics{
			StageTimings: map[string]int64{"generate": 1200, "package": 40},
			LLMCalls: []model.LLMResponseMetadata{
				{
					Model:         "gpt-4o-mini",
					Provider:      "openai",
					Usage:         model.TokenUsage{PromptTokens: 900, CompletionTokens: 2100, TotalTokens: 3000},
					LatencyMs:     1100,
					EstimatedCost: 0.0042,
					Success:       true,
				},
			},
		},
		Result: &model.CodegenResult{
			Files: []model.GeneratedFile{
				{Path: "index.html", Content: "<html></html>"},
				{Path: "styles.css", Content: "body{}"},
			},
			Entrypoints: model.Entrypoints{Run: "open index.html"},
		},
	}
}
