// File: internal/usecase/codegen_uc.go
package usecase

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"telegram-ai-forge/internal/config"
	"telegram-ai-forge/internal/domain"
	"telegram-ai-forge/internal/domain/model"
	"telegram-ai-forge/internal/domain/ports/adapter"
	"telegram-ai-forge/internal/domain/ports/repository"
	"telegram-ai-forge/internal/infra/logging"
	"telegram-ai-forge/internal/infra/metrics"
	"telegram-ai-forge/internal/prompt"
)

// Compile-time check
var _ CodeGenerator = (*codegenUC)(nil)

// Pipeline names accepted in codegen.pipeline.
const (
	PipelineDirect   = "direct"
	PipelineTwoStage = "two_stage"
)

const planningMaxTokens = 1024

// CodeGenerator turns a routed job into materialized files: prompt
// composition, the LLM call, parse and validation, asset policy for web
// projects, and writing the files into the job workspace.
type CodeGenerator interface {
	Generate(ctx context.Context, job *model.Job) (*model.CodegenResult, error)
}

type codegenUC struct {
	ai      config.AIConfig
	gen     config.CodegenConfig
	client  adapter.CompletionClient
	caps    adapter.CapabilityResolver
	pricing repository.PricingCatalog
	jobs    JobManager
	log     *zerolog.Logger
}

func NewCodeGenerator(
	aiCfg config.AIConfig,
	genCfg config.CodegenConfig,
	client adapter.CompletionClient,
	caps adapter.CapabilityResolver,
	pricing repository.PricingCatalog,
	jobs JobManager,
	logger *zerolog.Logger,
) CodeGenerator {
	l := logger.With().Str("component", "CodeGenerator").Logger()
	return &codegenUC{
		ai:      aiCfg,
		gen:     genCfg,
		client:  client,
		caps:    caps,
		pricing: pricing,
		jobs:    jobs,
		log:     &l,
	}
}

func (g *codegenUC) Generate(ctx context.Context, job *model.Job) (*model.CodegenResult, error) {
	defer logging.TraceDuration(g.log, "CodeGenerator.Generate")()

	var plan string
	if g.gen.Pipeline == PipelineTwoStage {
		p, err := g.planProject(ctx, job)
		if err != nil {
			return nil, err
		}
		plan = p
	}

	g.jobs.MarkStageStart(job, "generate")
	result, err := g.generateValidated(ctx, job, plan)
	g.jobs.MarkStageEnd(job, "generate")
	if err != nil {
		return nil, err
	}

	if job.ProjectType.IsWeb() {
		g.jobs.MarkStageStart(job, "assets")
		rewrites := enforceAssetPolicy(result)
		flags := make([]string, 0, len(rewrites))
		for _, r := range rewrites {
			metrics.IncAssetRewrite(r.Category)
			flags = append(flags, r.Flag())
		}
		g.jobs.AddPolicyFlags(job, flags)
		g.jobs.MarkStageEnd(job, "assets")
	}

	g.jobs.MarkStageStart(job, "materialize")
	written, err := materializeFiles(job.Paths.WorkspaceDir, result.Files)
	g.jobs.MarkStageEnd(job, "materialize")
	if err != nil {
		return nil, err
	}
	metrics.AddFilesMaterialized(written)
	g.jobs.WriteJobLog(job, "materialized %d files under %s", written, job.Paths.WorkspaceDir)

	g.jobs.SetResult(job, result)
	return result, nil
}

// planProject runs the first call of the two-stage pipeline: a short
// plain-text implementation brief that the codegen call then receives
// alongside the user request.
func (g *codegenUC) planProject(ctx context.Context, job *model.Job) (string, error) {
	g.jobs.MarkStageStart(job, "plan")
	defer g.jobs.MarkStageEnd(job, "plan")

	req := adapter.CompletionRequest{
		Model: g.ai.DefaultModel,
		Segments: []adapter.Segment{
			{Role: "system", Text: prompt.PlanningBrief},
			{Role: "user", Text: job.Input.UserMessage},
		},
		MaxTokens: planningMaxTokens,
	}
	res, err := g.callModel(ctx, job, req)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(res.Content), nil
}

// generateValidated performs the codegen call and the parse/validate
// passes. An invalid output is retried with a corrective instruction up
// to the configured count; a transport failure is fatal immediately,
// never retried here.
func (g *codegenUC) generateValidated(ctx context.Context, job *model.Job, plan string) (*model.CodegenResult, error) {
	attempts := 1 + g.gen.CorrectiveRetries
	var lastErr error

	for attempt := 0; attempt < attempts; attempt++ {
		req := g.composeRequest(job, plan, attempt > 0)
		res, err := g.callModel(ctx, job, req)
		if err != nil {
			return nil, err
		}

		tree, err := parseCodegenResponse(res.Content)
		if err != nil {
			lastErr = err
			metrics.IncCodegenReject("parse")
			g.jobs.WriteJobLog(job, "attempt %d: output did not parse: %v", attempt+1, err)
			continue
		}

		result, err := validateCodegenTree(tree, g.gen.MaxFiles, g.gen.MaxTotalContent)
		if err != nil {
			lastErr = err
			metrics.IncCodegenReject("validation")
			g.jobs.WriteJobLog(job, "attempt %d: output rejected: %v", attempt+1, err)
			continue
		}

		g.jobs.WriteJobLog(job, "attempt %d: %d files accepted (%d chars)",
			attempt+1, len(result.Files), result.TotalContentLen())
		return result, nil
	}
	return nil, lastErr
}

// composeRequest builds the completion request. Direct composition joins
// the preset blocks into one system message; cached composition keeps
// each block as its own cacheable segment so the provider can reuse the
// stable prefix across jobs. The user request is always the single
// dynamic segment.
func (g *codegenUC) composeRequest(job *model.Job, plan string, corrective bool) adapter.CompletionRequest {
	blocks := prompt.Presets(job.ProjectType)

	userMsg := job.Input.UserMessage
	if plan != "" {
		userMsg += "\n\nImplementation brief:\n" + plan
	}
	if corrective {
		userMsg += "\n\n" + prompt.CorrectiveRetry
	}

	var segments []adapter.Segment
	if g.cachedComposition(g.ai.DefaultModel) {
		for _, b := range blocks {
			segments = append(segments, adapter.Segment{Role: "system", Text: b, Cacheable: true})
		}
	} else {
		segments = append(segments, adapter.Segment{Role: "system", Text: strings.Join(blocks, "\n\n")})
	}
	segments = append(segments, adapter.Segment{Role: "user", Text: userMsg})

	return adapter.CompletionRequest{
		Model:     g.ai.DefaultModel,
		Segments:  segments,
		MaxTokens: g.ai.MaxOutputTokens,
	}
}

func (g *codegenUC) cachedComposition(modelName string) bool {
	if g.ai.DisablePromptCache {
		return false
	}
	return g.caps.SupportsCaching(modelName)
}

// callModel performs one completion call and records its metadata on the
// job whether it succeeded or not.
func (g *codegenUC) callModel(ctx context.Context, job *model.Job, req adapter.CompletionRequest) (*adapter.CompletionResult, error) {
	res, err := g.client.Complete(ctx, req)

	meta := model.LLMResponseMetadata{
		Model:    req.Model,
		Provider: g.client.Provider(),
	}
	if err != nil {
		meta.Error = err.Error()
		g.jobs.RecordLLMCall(job, meta)
		metrics.ObserveLLMCall(meta.Provider, req.Model, 0, 0, 0, 0, 0, 0, false)
		return nil, &domain.ExternalCallError{Provider: meta.Provider, Model: req.Model, Err: err}
	}

	if res.Provider != "" {
		meta.Provider = res.Provider
	}
	meta.Usage = res.Usage
	meta.LatencyMs = res.LatencyMs
	meta.Success = true
	if price, ok := g.pricing.Lookup(req.Model); ok {
		meta.EstimatedCost = price.Estimate(res.Usage)
	}
	g.jobs.RecordLLMCall(job, meta)
	metrics.ObserveLLMCall(meta.Provider, req.Model,
		res.Usage.PromptTokens, res.Usage.CompletionTokens, res.Usage.TotalTokens, res.Usage.CacheReadTokens,
		meta.EstimatedCost, res.LatencyMs, true)
	return res, nil
}

// materializeFiles writes every generated file under baseDir, creating
// parent directories as needed. Overwrites are intentional: re-running
// the same result is idempotent.
func materializeFiles(baseDir string, files []model.GeneratedFile) (int, error) {
	for _, f := range files {
		target := filepath.Join(baseDir, filepath.FromSlash(f.Path))
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return 0, fmt.Errorf("materialize %s: %w", f.Path, err)
		}
		if err := os.WriteFile(target, []byte(f.Content), 0o644); err != nil {
			return 0, fmt.Errorf("materialize %s: %w", f.Path, err)
		}
	}
	return len(files), nil
}
