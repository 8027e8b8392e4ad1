package usecase

import (
	"archive/zip"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"telegram-ai-forge/internal/domain/model"
	"telegram-ai-forge/internal/infra/artifact"
	"telegram-ai-forge/internal/routing"
)

type pipelineDeps struct {
	*codegenDeps
	artifacts *fakeArtifacts
}

func newPipelineDeps(t *testing.T) *pipelineDeps {
	t.Helper()
	return &pipelineDeps{
		codegenDeps: newCodegenDeps(t),
		artifacts:   &fakeArtifacts{filesCount: 1},
	}
}

func (d *pipelineDeps) pipeline() GenerationPipeline {
	return NewGenerationPipeline(
		routing.NewRouter(), d.jobs, d.generator(), d.artifacts,
		d.cfg.Paths, d.cfg.Codegen, newTestLogger(),
	)
}

func TestPipelinePrepare(t *testing.T) {
	d := newPipelineDeps(t)
	p := d.pipeline()

	job, decision := p.Prepare(model.JobInput{UserMessage: "create a 3-page portfolio site", UserID: "u1", ChannelID: "c1"})

	if decision.ProjectType != model.ProjectStaticHTML {
		t.Errorf("project type = %s, want static_html", decision.ProjectType)
	}
	if !decision.Heavyweight {
		t.Error("portfolio sites are heavyweight")
	}
	if job.ProjectType != decision.ProjectType {
		t.Errorf("job type = %s", job.ProjectType)
	}
	if _, err := d.jobs.Get(job.ID); err != nil {
		t.Errorf("job not registered: %v", err)
	}
}

func TestPipelineRunHappyPath(t *testing.T) {
	d := newPipelineDeps(t)
	d.artifacts.filesCount = 2
	d.client.responses = []string{codegenJSON(t, map[string]string{"main.py": "print(1)"})}
	p := d.pipeline()

	job, _ := p.Prepare(model.JobInput{UserMessage: "python tool", UserID: "u1", ChannelID: "c1"})
	outcome, err := p.Run(context.Background(), job, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if job.Status != model.JobStatusDone {
		t.Errorf("status = %s, want done", job.Status)
	}
	if outcome.FilesCopied != 2 {
		t.Errorf("FilesCopied = %d", outcome.FilesCopied)
	}
	if !strings.HasSuffix(outcome.ArchivePath, job.ID+".zip") {
		t.Errorf("ArchivePath = %q", outcome.ArchivePath)
	}
	if outcome.Metadata.TotalCalls != 1 || outcome.Metadata.TotalTokens != 15 {
		t.Errorf("metadata = %+v", outcome.Metadata)
	}
	if outcome.Metadata.ToolLatencyMs < 0 || len(outcome.Metadata.ModelsUsed) != 1 {
		t.Errorf("metadata = %+v", outcome.Metadata)
	}
}

func TestPipelineRunZipFailureIsNonFatal(t *testing.T) {
	d := newPipelineDeps(t)
	d.artifacts.zipErr = errors.New("disk full")
	d.client.responses = []string{codegenJSON(t, map[string]string{"main.py": "print(1)"})}
	p := d.pipeline()

	job, _ := p.Prepare(model.JobInput{UserMessage: "python tool", UserID: "u1", ChannelID: "c1"})
	outcome, err := p.Run(context.Background(), job, nil)
	if err != nil {
		t.Fatalf("archive failure must not fail the job: %v", err)
	}
	if outcome.ArchivePath != "" {
		t.Errorf("ArchivePath = %q, want empty", outcome.ArchivePath)
	}
	if job.Status != model.JobStatusDone {
		t.Errorf("status = %s, want done", job.Status)
	}
	if d.artifacts.zipCalls != 1 {
		t.Errorf("zipCalls = %d", d.artifacts.zipCalls)
	}
}

func TestPipelineRunCopyFailureIsNonFatal(t *testing.T) {
	d := newPipelineDeps(t)
	d.artifacts.copyErr = errors.New("permission denied")
	d.client.responses = []string{codegenJSON(t, map[string]string{"main.py": "print(1)"})}
	p := d.pipeline()

	job, _ := p.Prepare(model.JobInput{UserMessage: "python tool", UserID: "u1", ChannelID: "c1"})
	outcome, err := p.Run(context.Background(), job, nil)
	if err != nil {
		t.Fatalf("copy failure must not fail the job: %v", err)
	}
	if outcome.FilesCopied != 0 {
		t.Errorf("FilesCopied = %d, want 0", outcome.FilesCopied)
	}
	if job.Status != model.JobStatusDone {
		t.Errorf("status = %s", job.Status)
	}
}

func TestPipelineRunGenerationFailure(t *testing.T) {
	d := newPipelineDeps(t)
	d.client.responses = []string{"not json"} // repeats for the corrective retry
	p := d.pipeline()

	job, _ := p.Prepare(model.JobInput{UserMessage: "python tool", UserID: "u1", ChannelID: "c1"})
	_, err := p.Run(context.Background(), job, nil)
	if err == nil {
		t.Fatal("expected generation failure")
	}
	if job.Status != model.JobStatusFailed {
		t.Errorf("status = %s, want failed", job.Status)
	}
	if job.LastError == "" {
		t.Error("job must carry a human-readable error")
	}
	if d.artifacts.copyCalls != 0 {
		t.Error("failed generation must abort packaging")
	}
}

func TestPipelineProgressEvents(t *testing.T) {
	d := newPipelineDeps(t)
	d.client.responses = []string{codegenJSON(t, map[string]string{"main.py": "print(1)"})}
	p := d.pipeline()

	var stages []string
	job, _ := p.Prepare(model.JobInput{UserMessage: "python tool", UserID: "u1", ChannelID: "c1"})
	_, err := p.Run(context.Background(), job, func(stage, detail string) {
		stages = append(stages, stage)
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	joined := strings.Join(stages, ",")
	if !strings.Contains(joined, "generate") || !strings.Contains(joined, "package") || !strings.HasSuffix(joined, "done") {
		t.Errorf("stages = %v", stages)
	}
}

// End-to-end: a portfolio request is classified static_html, an external
// image reference is rewritten to the placeholder host, and the delivered
// zip contains exactly the materialized files.
func TestPipelinePortfolioScenario(t *testing.T) {
	d := newPipelineDeps(t)
	d.client.responses = []string{codegenJSON(t, map[string]string{
		"index.html":    `<section class="hero"><img src="https://photos.example/me.jpg"></section>`,
		"css/style.css": "body { margin: 0; }",
	})}

	p := NewGenerationPipeline(
		routing.NewRouter(), d.jobs, d.generator(), artifact.NewWriter(newTestLogger()),
		d.cfg.Paths, d.cfg.Codegen, newTestLogger(),
	)

	job, decision := p.Prepare(model.JobInput{UserMessage: "create a 3-page portfolio site", UserID: "u1", ChannelID: "c1"})
	if decision.ProjectType != model.ProjectStaticHTML {
		t.Fatalf("project type = %s, want static_html", decision.ProjectType)
	}

	outcome, err := p.Run(context.Background(), job, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if outcome.FilesCopied != 2 {
		t.Errorf("FilesCopied = %d, want 2", outcome.FilesCopied)
	}

	r, err := zip.OpenReader(outcome.ArchivePath)
	if err != nil {
		t.Fatalf("open zip: %v", err)
	}
	defer r.Close()

	entries := map[string]string{}
	for _, f := range r.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatal(err)
		}
		b, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatal(err)
		}
		entries[f.Name] = string(b)
	}

	if len(entries) != 2 {
		t.Fatalf("zip entries = %v, want exactly the materialized files", entries)
	}
	html := entries["index.html"]
	if strings.Contains(html, "photos.example") {
		t.Error("external image host survived enforcement")
	}
	if !strings.Contains(html, "https://placehold.co/1200x600") {
		t.Errorf("hero image not rewritten: %s", html)
	}
	if entries["css/style.css"] != "body { margin: 0; }" {
		t.Errorf("css entry = %q", entries["css/style.css"])
	}
}
