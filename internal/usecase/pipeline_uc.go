// File: internal/usecase/pipeline_uc.go
package usecase

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"telegram-ai-forge/internal/config"
	"telegram-ai-forge/internal/domain/model"
	"telegram-ai-forge/internal/domain/ports/adapter"
	"telegram-ai-forge/internal/infra/logging"
	"telegram-ai-forge/internal/infra/metrics"
	"telegram-ai-forge/internal/routing"
)

// Compile-time check
var _ GenerationPipeline = (*pipelineUC)(nil)

// ProgressFunc receives stage announcements for user-facing progress
// updates. Implementations must be cheap and must not block.
type ProgressFunc func(stage, detail string)

// PipelineOutcome is what a finished job hands back to its delivery
// surface.
type PipelineOutcome struct {
	Job         *model.Job
	FilesCopied int
	ArchivePath string // empty when archiving failed or was skipped
	Metadata    model.AggregatedLLMMetadata
}

// GenerationPipeline drives a request end to end: classify, create the
// job, generate, package, summarize. A failing stage aborts the rest for
// that job; partially written files are left in place.
type GenerationPipeline interface {
	// Prepare classifies the request and registers a new job for it.
	Prepare(input model.JobInput) (*model.Job, model.RoutingDecision)

	// Run executes every stage after Prepare. The returned outcome is
	// valid only when err is nil.
	Run(ctx context.Context, job *model.Job, progress ProgressFunc) (*PipelineOutcome, error)
}

type pipelineUC struct {
	router    *routing.Router
	jobs      JobManager
	gen       CodeGenerator
	artifacts adapter.ArtifactWriter
	paths     config.PathsConfig
	twoStage  bool
	log       *zerolog.Logger
}

func NewGenerationPipeline(
	router *routing.Router,
	jobs JobManager,
	gen CodeGenerator,
	artifacts adapter.ArtifactWriter,
	paths config.PathsConfig,
	genCfg config.CodegenConfig,
	logger *zerolog.Logger,
) GenerationPipeline {
	l := logger.With().Str("component", "GenerationPipeline").Logger()
	return &pipelineUC{
		router:    router,
		jobs:      jobs,
		gen:       gen,
		artifacts: artifacts,
		paths:     paths,
		twoStage:  genCfg.Pipeline == PipelineTwoStage,
		log:       &l,
	}
}

func (p *pipelineUC) Prepare(input model.JobInput) (*model.Job, model.RoutingDecision) {
	decision := p.router.Classify(input.UserMessage)
	job := p.jobs.CreateJob(decision, input)
	return job, decision
}

func (p *pipelineUC) Run(ctx context.Context, job *model.Job, progress ProgressFunc) (*PipelineOutcome, error) {
	defer logging.TraceDuration(p.log, "GenerationPipeline.Run")()
	if progress == nil {
		progress = func(string, string) {}
	}

	if err := p.jobs.EnsureJobDirs(job); err != nil {
		p.fail(job, err)
		return nil, err
	}

	progress("generate", "asking the model")
	result, err := p.gen.Generate(ctx, job)
	if err != nil {
		p.fail(job, err)
		return nil, err
	}
	p.jobs.UpdateJobStatus(job, model.JobStatusGenerated)
	progress("generate", fmt.Sprintf("%d files generated", len(result.Files)))

	progress("package", "packaging files")
	outcome, tools := p.packageJob(job)

	outcome.Metadata = AggregateJobMetadata(job, p.twoStage, tools)
	p.jobs.WriteJobLog(job, "aggregate: calls=%d tokens=%d cost=%.4f llm=%dms tools=%dms models=%v",
		outcome.Metadata.TotalCalls, outcome.Metadata.TotalTokens, outcome.Metadata.EstimatedCost,
		outcome.Metadata.LLMLatencyMs, outcome.Metadata.ToolLatencyMs, outcome.Metadata.ModelsUsed)

	p.jobs.UpdateJobStatus(job, model.JobStatusDone)
	metrics.IncJob(string(model.JobStatusDone), string(job.ProjectType))
	progress("done", "complete")

	outcome.Job = job
	return outcome, nil
}

// packageJob copies the workspace into the output directory and zips it.
// Neither step may fail the job: the generated files already exist in the
// workspace, so packaging errors degrade the delivery, not the result.
func (p *pipelineUC) packageJob(job *model.Job) (*PipelineOutcome, []model.ToolExecution) {
	outcome := &PipelineOutcome{}
	var tools []model.ToolExecution

	p.jobs.MarkStageStart(job, "package")
	defer p.jobs.MarkStageEnd(job, "package")

	start := time.Now()
	copied, err := p.artifacts.CopyWorkspaceToOutput(job.Paths.WorkspaceDir, job.Paths.OutputDir)
	tools = append(tools, model.ToolExecution{Name: "copy", LatencyMs: time.Since(start).Milliseconds()})
	if err != nil {
		// Delivery falls back to the workspace tree; not fatal either.
		p.log.Warn().Err(err).Str("job_id", job.ID).Msg("workspace copy failed")
		p.jobs.WriteJobLog(job, "workspace copy failed: %v", err)
	} else {
		outcome.FilesCopied = copied
		p.jobs.WriteJobLog(job, "copied %d files to %s", copied, job.Paths.OutputDir)
	}

	archivePath := filepath.Join(p.paths.ArchiveBase, job.ID+".zip")
	start = time.Now()
	err = p.artifacts.CreateZipArchive(job.Paths.OutputDir, archivePath)
	tools = append(tools, model.ToolExecution{Name: "zip", LatencyMs: time.Since(start).Milliseconds()})
	if err != nil {
		metrics.IncArchive("failure")
		p.log.Warn().Err(err).Str("job_id", job.ID).Msg("archive failed, delivering without zip")
		p.jobs.WriteJobLog(job, "archive failed (job still succeeds): %v", err)
	} else {
		metrics.IncArchive("success")
		outcome.ArchivePath = archivePath
		p.jobs.WriteJobLog(job, "archived to %s", archivePath)
	}

	return outcome, tools
}

func (p *pipelineUC) fail(job *model.Job, err error) {
	p.jobs.SetJobError(job, err)
	metrics.IncJob(string(model.JobStatusFailed), string(job.ProjectType))
}
