package usecase

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"telegram-ai-forge/internal/domain"
	"telegram-ai-forge/internal/domain/model"
	"telegram-ai-forge/internal/prompt"
)

func TestGenerateDirectHappyPath(t *testing.T) {
	d := newCodegenDeps(t)
	d.client.responses = []string{codegenJSON(t, map[string]string{
		"main.py":   "print('hi')",
		"lib/io.py": "def read(): pass",
	})}
	d.client.latencyMs = 42
	d.pricing.table[d.cfg.AI.DefaultModel] = model.ModelPricing{
		ModelName: d.cfg.AI.DefaultModel, InputPer1M: 1, OutputPer1M: 2,
	}

	job := d.newJob(t, "python tool", model.ProjectPythonCLI)
	result, err := d.generator().Generate(context.Background(), job)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(result.Files) != 2 {
		t.Fatalf("files = %d, want 2", len(result.Files))
	}

	for _, f := range result.Files {
		b, err := os.ReadFile(filepath.Join(job.Paths.WorkspaceDir, filepath.FromSlash(f.Path)))
		if err != nil {
			t.Fatalf("materialized file missing: %v", err)
		}
		if string(b) != f.Content {
			t.Errorf("file %s content mismatch", f.Path)
		}
	}

	if job.Result == nil {
		t.Error("result not attached to job")
	}
	if len(job.Diagnostics.LLMCalls) != 1 {
		t.Fatalf("llm calls = %d, want 1", len(job.Diagnostics.LLMCalls))
	}
	call := job.Diagnostics.LLMCalls[0]
	if !call.Success || call.LatencyMs != 42 || call.EstimatedCost <= 0 {
		t.Errorf("call metadata = %+v", call)
	}
	for _, stage := range []string{"generate", "materialize"} {
		if _, ok := job.Diagnostics.StageTimings[stage]; !ok {
			t.Errorf("stage %q not timed", stage)
		}
	}
}

func TestGenerateComposition(t *testing.T) {
	t.Run("direct collapses presets into one system message", func(t *testing.T) {
		d := newCodegenDeps(t)
		d.client.responses = []string{codegenJSON(t, map[string]string{"a.txt": "x"})}
		job := d.newJob(t, "a script", model.ProjectScript)
		if _, err := d.generator().Generate(context.Background(), job); err != nil {
			t.Fatalf("Generate: %v", err)
		}

		req := d.client.requests[0]
		if len(req.Segments) != 2 {
			t.Fatalf("segments = %d, want system + user", len(req.Segments))
		}
		sys := req.Segments[0]
		if sys.Role != "system" || sys.Cacheable {
			t.Errorf("system segment = %+v", sys)
		}
		if !strings.Contains(sys.Text, prompt.SystemPrefix) || !strings.Contains(sys.Text, prompt.OutputSchemaRules) {
			t.Error("system message must contain every preset block")
		}
		if strings.Contains(sys.Text, prompt.WebStyleRubric) {
			t.Error("non-web job must not carry the style rubric")
		}
		if req.Segments[1].Role != "user" || req.Segments[1].Text != "a script" {
			t.Errorf("user segment = %+v", req.Segments[1])
		}
	})

	t.Run("web jobs carry style and asset blocks", func(t *testing.T) {
		d := newCodegenDeps(t)
		d.client.responses = []string{codegenJSON(t, map[string]string{"index.html": "<p>x</p>"})}
		job := d.newJob(t, "a website", model.ProjectWebsite)
		if _, err := d.generator().Generate(context.Background(), job); err != nil {
			t.Fatalf("Generate: %v", err)
		}

		sys := d.client.requests[0].Segments[0].Text
		if !strings.Contains(sys, prompt.WebStyleRubric) || !strings.Contains(sys, prompt.AssetPlaceholderGuide) {
			t.Error("web job must carry the style rubric and the asset guide")
		}
	})

	t.Run("allowlisted model splits cacheable segments", func(t *testing.T) {
		d := newCodegenDeps(t)
		d.caps.cached[d.cfg.AI.DefaultModel] = true
		d.client.responses = []string{codegenJSON(t, map[string]string{"index.html": "<p>x</p>"})}
		job := d.newJob(t, "a website", model.ProjectWebsite)
		if _, err := d.generator().Generate(context.Background(), job); err != nil {
			t.Fatalf("Generate: %v", err)
		}

		segs := d.client.requests[0].Segments
		wantBlocks := len(prompt.Presets(model.ProjectWebsite))
		if len(segs) != wantBlocks+1 {
			t.Fatalf("segments = %d, want %d preset blocks + user", len(segs), wantBlocks)
		}
		for _, s := range segs[:wantBlocks] {
			if s.Role != "system" || !s.Cacheable {
				t.Errorf("preset segment must be cacheable system text: %+v", s)
			}
		}
		user := segs[wantBlocks]
		if user.Role != "user" || user.Cacheable {
			t.Errorf("user segment must be the only dynamic one: %+v", user)
		}
	})

	t.Run("kill switch forces direct composition", func(t *testing.T) {
		d := newCodegenDeps(t)
		d.caps.cached[d.cfg.AI.DefaultModel] = true
		d.cfg.AI.DisablePromptCache = true
		d.client.responses = []string{codegenJSON(t, map[string]string{"a.txt": "x"})}
		job := d.newJob(t, "a script", model.ProjectScript)
		if _, err := d.generator().Generate(context.Background(), job); err != nil {
			t.Fatalf("Generate: %v", err)
		}
		if len(d.client.requests[0].Segments) != 2 {
			t.Errorf("segments = %d, want collapsed composition", len(d.client.requests[0].Segments))
		}
	})
}

func TestGenerateCorrectiveRetry(t *testing.T) {
	d := newCodegenDeps(t)
	d.client.responses = []string{
		"sorry, I cannot produce JSON today",
		codegenJSON(t, map[string]string{"a.txt": "x"}),
	}

	job := d.newJob(t, "a script", model.ProjectScript)
	result, err := d.generator().Generate(context.Background(), job)
	if err != nil {
		t.Fatalf("Generate after corrective retry: %v", err)
	}
	if len(result.Files) != 1 {
		t.Errorf("files = %d", len(result.Files))
	}
	if d.client.callCount() != 2 {
		t.Fatalf("calls = %d, want 2", d.client.callCount())
	}

	second := d.client.requests[1]
	userText := second.Segments[len(second.Segments)-1].Text
	if !strings.Contains(userText, prompt.CorrectiveRetry) {
		t.Error("retry must carry the corrective instruction")
	}
	if len(job.Diagnostics.LLMCalls) != 2 {
		t.Errorf("both attempts must be metered, got %d", len(job.Diagnostics.LLMCalls))
	}
}

func TestGenerateRetriesExhausted(t *testing.T) {
	d := newCodegenDeps(t)
	d.client.responses = []string{`{"files": [], "notes": "empty"}`} // repeats

	job := d.newJob(t, "a script", model.ProjectScript)
	_, err := d.generator().Generate(context.Background(), job)
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("error = %v, want *domain.ValidationError", err)
	}
	if d.client.callCount() != 2 {
		t.Errorf("calls = %d, want initial + one corrective retry", d.client.callCount())
	}
}

func TestGenerateStrictSingleShot(t *testing.T) {
	d := newCodegenDeps(t)
	d.cfg.Codegen.CorrectiveRetries = 0
	d.client.responses = []string{"not json"}

	job := d.newJob(t, "a script", model.ProjectScript)
	_, err := d.generator().Generate(context.Background(), job)
	var pe *domain.ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("error = %v, want *domain.ParseError", err)
	}
	if d.client.callCount() != 1 {
		t.Errorf("calls = %d, want exactly one attempt", d.client.callCount())
	}
}

func TestGenerateTransportErrorIsFatal(t *testing.T) {
	d := newCodegenDeps(t)
	d.client.err = errors.New("connection reset")

	job := d.newJob(t, "a script", model.ProjectScript)
	_, err := d.generator().Generate(context.Background(), job)
	var ce *domain.ExternalCallError
	if !errors.As(err, &ce) {
		t.Fatalf("error = %v, want *domain.ExternalCallError", err)
	}
	if d.client.callCount() != 1 {
		t.Errorf("transport failures must not be retried, calls = %d", d.client.callCount())
	}
	if len(job.Diagnostics.LLMCalls) != 1 || job.Diagnostics.LLMCalls[0].Success {
		t.Errorf("failed call must still be metered: %+v", job.Diagnostics.LLMCalls)
	}
}

func TestGenerateTwoStagePipeline(t *testing.T) {
	d := newCodegenDeps(t)
	d.cfg.Codegen.Pipeline = PipelineTwoStage
	d.client.responses = []string{
		"build three pages: home, about, contact",
		codegenJSON(t, map[string]string{"index.html": "<p>x</p>"}),
	}

	job := d.newJob(t, "portfolio site please", model.ProjectStaticHTML)
	if _, err := d.generator().Generate(context.Background(), job); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if d.client.callCount() != 2 {
		t.Fatalf("calls = %d, want plan + codegen", d.client.callCount())
	}

	planReq := d.client.requests[0]
	if planReq.Segments[0].Text != prompt.PlanningBrief {
		t.Error("first call must be the planning brief")
	}
	if planReq.MaxTokens != planningMaxTokens {
		t.Errorf("plan MaxTokens = %d, want %d", planReq.MaxTokens, planningMaxTokens)
	}

	genReq := d.client.requests[1]
	userText := genReq.Segments[len(genReq.Segments)-1].Text
	if !strings.Contains(userText, "Implementation brief:") ||
		!strings.Contains(userText, "three pages") {
		t.Error("codegen call must carry the plan")
	}
	if _, ok := job.Diagnostics.StageTimings["plan"]; !ok {
		t.Error("plan stage not timed")
	}
}

func TestGenerateWebAssetsEnforced(t *testing.T) {
	d := newCodegenDeps(t)
	d.client.responses = []string{codegenJSON(t, map[string]string{
		"index.html": `<div class="hero"><img src="https://evil.example/x.png"></div>`,
	})}

	job := d.newJob(t, "a website", model.ProjectWebsite)
	if _, err := d.generator().Generate(context.Background(), job); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	b, err := os.ReadFile(filepath.Join(job.Paths.WorkspaceDir, "index.html"))
	if err != nil {
		t.Fatalf("read materialized file: %v", err)
	}
	if strings.Contains(string(b), "evil.example") {
		t.Error("external host must not survive to disk")
	}
	if !strings.Contains(string(b), "https://placehold.co/") {
		t.Errorf("placeholder missing: %s", b)
	}
	if len(job.Diagnostics.PolicyFlags) != 1 {
		t.Errorf("policy flags = %v, want one rewrite recorded", job.Diagnostics.PolicyFlags)
	}
	if _, ok := job.Diagnostics.StageTimings["assets"]; !ok {
		t.Error("assets stage not timed")
	}
}

func TestGenerateNonWebSkipsAssetPolicy(t *testing.T) {
	d := newCodegenDeps(t)
	d.client.responses = []string{codegenJSON(t, map[string]string{
		"readme.md": `docs reference <img src="https://example.com/diagram.png">`,
	})}

	job := d.newJob(t, "a script", model.ProjectScript)
	if _, err := d.generator().Generate(context.Background(), job); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	b, _ := os.ReadFile(filepath.Join(job.Paths.WorkspaceDir, "readme.md"))
	if !strings.Contains(string(b), "example.com/diagram.png") {
		t.Error("asset policy must only apply to web-classified jobs")
	}
}

func TestMaterializeFilesIdempotent(t *testing.T) {
	dir := t.TempDir()
	files := []model.GeneratedFile{
		{Path: "a/b/c.txt", Content: "deep"},
		{Path: "top.txt", Content: "shallow"},
	}

	for i := 0; i < 2; i++ {
		n, err := materializeFiles(dir, files)
		if err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
		if n != 2 {
			t.Fatalf("run %d wrote %d files", i, n)
		}
	}
	b, err := os.ReadFile(filepath.Join(dir, "a", "b", "c.txt"))
	if err != nil || string(b) != "deep" {
		t.Errorf("nested file = %q, %v", b, err)
	}
}
