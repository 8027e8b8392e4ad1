// File: internal/usecase/mocks_test.go
package usecase

import (
	"context"
	"encoding/json"
	"io"
	"path/filepath"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"telegram-ai-forge/internal/config"
	"telegram-ai-forge/internal/domain/model"
	"telegram-ai-forge/internal/domain/ports/adapter"
)

// newTestLogger creates a silent zerolog.Logger for use in tests.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

// newTestConfig returns a defaulted config with every path under a
// per-test temp dir.
func newTestConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	cfg.ApplyDefaults()
	base := t.TempDir()
	cfg.Paths.WorkspaceBase = filepath.Join(base, "workspaces")
	cfg.Paths.OutputBase = filepath.Join(base, "output")
	cfg.Paths.LogBase = filepath.Join(base, "logs")
	cfg.Paths.ArchiveBase = filepath.Join(base, "archives")
	return cfg
}

// ---- Fakes ----

type fakeCompletionClient struct {
	mu        sync.Mutex
	requests  []adapter.CompletionRequest
	responses []string // served in order; the last repeats
	err       error
	usage     model.TokenUsage
	latencyMs int64
	provider  string
}

func (f *fakeCompletionClient) Complete(ctx context.Context, req adapter.CompletionRequest) (*adapter.CompletionResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	var content string
	if len(f.responses) > 0 {
		content = f.responses[0]
		if len(f.responses) > 1 {
			f.responses = f.responses[1:]
		}
	}
	return &adapter.CompletionResult{Content: content, Usage: f.usage, LatencyMs: f.latencyMs}, nil
}

func (f *fakeCompletionClient) CountTokens(ctx context.Context, modelName string, segments []adapter.Segment) (int, error) {
	n := 0
	for _, s := range segments {
		n += len(s.Text) / 4
	}
	return n, nil
}

func (f *fakeCompletionClient) Provider() string {
	if f.provider == "" {
		return "fake"
	}
	return f.provider
}

func (f *fakeCompletionClient) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

type fakeCaps struct{ cached map[string]bool }

func (f *fakeCaps) SupportsCaching(modelName string) bool { return f.cached[modelName] }

type fakePricing struct{ table map[string]model.ModelPricing }

func (f *fakePricing) Lookup(modelName string) (model.ModelPricing, bool) {
	p, ok := f.table[modelName]
	return p, ok
}

type fakeArtifacts struct {
	mu         sync.Mutex
	copyCalls  int
	zipCalls   int
	copyErr    error
	zipErr     error
	filesCount int
}

func (f *fakeArtifacts) CopyWorkspaceToOutput(workspaceDir, outputDir string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.copyCalls++
	if f.copyErr != nil {
		return 0, f.copyErr
	}
	return f.filesCount, nil
}

func (f *fakeArtifacts) CreateZipArchive(outputDir, archivePath string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.zipCalls++
	return f.zipErr
}

// ---- Payload helpers ----

// codegenJSON builds a minimal valid model response.
func codegenJSON(t *testing.T, files map[string]string) string {
	t.Helper()
	type fileObj struct {
		Path    string `json:"path"`
		Content string `json:"content"`
	}
	payload := struct {
		Files []fileObj `json:"files"`
		Notes string    `json:"notes"`
	}{Notes: "generated for test"}
	for p, c := range files {
		payload.Files = append(payload.Files, fileObj{Path: p, Content: c})
	}
	b, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return string(b)
}

// ---- Wiring helpers ----

type codegenDeps struct {
	cfg     *config.Config
	client  *fakeCompletionClient
	caps    *fakeCaps
	pricing *fakePricing
	jobs    JobManager
}

func newCodegenDeps(t *testing.T) *codegenDeps {
	t.Helper()
	cfg := newTestConfig(t)
	return &codegenDeps{
		cfg:     cfg,
		client:  &fakeCompletionClient{usage: model.TokenUsage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15}},
		caps:    &fakeCaps{cached: map[string]bool{}},
		pricing: &fakePricing{table: map[string]model.ModelPricing{}},
		jobs:    NewJobManager(cfg.Paths, newTestLogger()),
	}
}

func (d *codegenDeps) generator() CodeGenerator {
	return NewCodeGenerator(d.cfg.AI, d.cfg.Codegen, d.client, d.caps, d.pricing, d.jobs, newTestLogger())
}

func (d *codegenDeps) newJob(t *testing.T, text string, pt model.ProjectType) *model.Job {
	t.Helper()
	job := d.jobs.CreateJob(
		model.RoutingDecision{ProjectType: pt, Heavyweight: pt.IsWeb(), PreviewAllowed: pt.IsWeb()},
		model.JobInput{UserMessage: text, UserID: "u1", ChannelID: "c1", Username: "tester"},
	)
	if err := d.jobs.EnsureJobDirs(job); err != nil {
		t.Fatalf("ensure dirs: %v", err)
	}
	return job
}
